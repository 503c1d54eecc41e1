package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-otp-auth/internal/application/otp"
	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-otp-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-KEY"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second with a burst of 10 on the public OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:      deps.Store,
		Generator:  deps.Generator,
		Mailer:     deps.Mailer,
		Tokens:     deps.Tokens,
		OTPTTL:     cfg.OTPTTL,
		CodeLength: cfg.OTPLength,
	})

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(otpSvc)
	profileH := handler.NewProfileHandler()

	r.Route("/api", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		// OTP endpoints: shared-secret credential when one is configured,
		// public otherwise.
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			if cfg.APIKey != "" {
				r.Use(appmiddleware.APIKey(cfg.APIKey))
			}
			r.Post("/request-otp", otpH.Request)
			r.Post("/verify-otp", otpH.Verify)
		})

		// Bearer-token protected.
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Tokens))
			r.Get("/profile", profileH.Get)
		})
	})

	return r
}
