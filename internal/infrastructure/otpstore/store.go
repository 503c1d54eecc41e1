package otpstore

import (
	"context"
	"time"

	"github.com/go-otp-auth/internal/domain"
)

// Store is the per-email OTP record store. Implementations must be safe for
// concurrent use: Put/Get/Invalidate for the same email can race between
// requests (a re-issuance against a verification, or two verifications).
type Store interface {
	// Put stamps rec.ExpiresAt = now + ttl and writes the record,
	// unconditionally overwriting any previous record for rec.Email.
	Put(ctx context.Context, rec *domain.OTPRecord, ttl time.Duration) error

	// Get returns the record for email, or an error wrapping
	// domain.ErrNotFound when none exists. Stale records may still be
	// returned; callers check ExpiresAt themselves.
	Get(ctx context.Context, email string) (*domain.OTPRecord, error)

	// Invalidate removes the record for email and reports whether a record
	// was actually removed. The boolean is what guarantees single use: when
	// two verifications race on the same email, the backend's atomic delete
	// lets exactly one of them observe true.
	Invalidate(ctx context.Context, email string) (bool, error)
}
