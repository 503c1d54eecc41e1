package otp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/infrastructure/otpstore"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
	"github.com/go-otp-auth/internal/pkg/id"
	"github.com/go-otp-auth/internal/pkg/otpgen"
	"golang.org/x/crypto/bcrypt"
)

// TokenSigner mints a bearer token bound to an email address.
type TokenSigner interface {
	Sign(email string) (string, error)
}

// Service orchestrates the passcode lifecycle: issuance (generate, store,
// deliver) and verification (lookup, expiry check, match, single-use
// invalidation, token issuance).
type Service interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (token string, err error)
}

type ServiceDeps struct {
	Store      otpstore.Store
	Generator  otpgen.Generator
	Mailer     smtp.Mailer
	Tokens     TokenSigner
	OTPTTL     time.Duration
	CodeLength int
}

type service struct {
	store      otpstore.Store
	generator  otpgen.Generator
	mailer     smtp.Mailer
	tokens     TokenSigner
	otpTTL     time.Duration
	codeLength int
}

func NewService(deps ServiceDeps) Service {
	return &service{
		store:      deps.Store,
		generator:  deps.Generator,
		mailer:     deps.Mailer,
		tokens:     deps.Tokens,
		otpTTL:     deps.OTPTTL,
		codeLength: deps.CodeLength,
	}
}

// Issue generates a fresh passcode for email, stores it (unconditionally
// overwriting any previous one) and emails it. The stored record is not
// rolled back when delivery fails: the code stays redeemable even if the
// user never received it, and the caller gets domain.ErrDelivery.
func (s *service) Issue(ctx context.Context, email string) error {
	if !validEmail(email) {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}

	code, err := s.generator.Code(s.codeLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	rec := &domain.OTPRecord{
		Email:      email,
		CodeHash:   string(hash),
		IssuanceID: id.New(),
	}
	if err := s.store.Put(ctx, rec, s.otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	slog.Info("otp issued", "email", email, "issuance_id", rec.IssuanceID)

	subject := "Your One-Time Passcode"
	body := fmt.Sprintf("Your secure One-Time Passcode is: %s\n\nThis code expires in %d minutes.",
		code, int(s.otpTTL.Minutes()))
	if err := s.mailer.SendEmail(ctx, email, subject, body); err != nil {
		slog.Error("otp delivery failed", "email", email, "issuance_id", rec.IssuanceID, "err", err)
		return fmt.Errorf("send otp email: %v: %w", err, domain.ErrDelivery)
	}
	return nil
}

// Verify checks the submitted code against the live record for email and,
// on success, consumes the record and mints a bearer token. Expiry is checked
// before the code match, so an expired-but-correct code is reported as
// expired rather than invalid.
func (s *service) Verify(ctx context.Context, email, code string) (string, error) {
	if email == "" || code == "" {
		return "", fmt.Errorf("email and otp are required: %w", domain.ErrBadRequest)
	}

	rec, err := s.store.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if rec.Expired(time.Now()) {
		return "", fmt.Errorf("otp has expired: %w", domain.ErrExpired)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		return "", fmt.Errorf("otp does not match: %w", domain.ErrInvalidCode)
	}

	// The record must be consumed before a token leaves this function.
	// Invalidate reports whether this call removed the record; a concurrent
	// verification that got here first already consumed it.
	removed, err := s.store.Invalidate(ctx, email)
	if err != nil {
		return "", fmt.Errorf("invalidate otp: %w", err)
	}
	if !removed {
		return "", fmt.Errorf("otp already consumed: %w", domain.ErrNotFound)
	}

	token, err := s.tokens.Sign(email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	slog.Info("otp verified", "email", email, "issuance_id", rec.IssuanceID)
	return token, nil
}

// validEmail is a cheap structural guard; full format validation happens at
// the transport layer.
func validEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}
