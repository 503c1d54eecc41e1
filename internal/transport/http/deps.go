package http

import (
	"github.com/go-otp-auth/internal/infrastructure/otpstore"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
	"github.com/go-otp-auth/internal/pkg/otpgen"

	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
)

// Deps holds the infrastructure dependencies for the router. Store, Mailer
// and Generator are interfaces so any backend (or a test double) can be
// plugged in without touching the lifecycle or the routes.
type Deps struct {
	Store     otpstore.Store
	Mailer    smtp.Mailer
	Generator otpgen.Generator
	Tokens    *jwtinfra.Provider
}
