package handler

import (
	"net/http"

	"github.com/go-otp-auth/internal/transport/http/middleware"
)

// ProfileHandler serves the bearer-token protected profile endpoint.
type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler { return &ProfileHandler{} }

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{User: ProfileUser{Email: claims.Email}})
}
