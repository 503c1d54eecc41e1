package otpstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-otp-auth/internal/domain"
)

// MemoryStore keeps OTP records in a process-local map. It is the default
// backend; records do not survive a restart, which the system accepts.
//
// A single mutex serialises all mutations. The lock is never held across
// delivery or any other I/O.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]domain.OTPRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.OTPRecord)}
}

func (s *MemoryStore) Put(_ context.Context, rec *domain.OTPRecord, ttl time.Duration) error {
	rec.ExpiresAt = time.Now().Add(ttl).Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Email] = *rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok {
		return nil, fmt.Errorf("no otp for %s: %w", email, domain.ErrNotFound)
	}
	return &rec, nil
}

func (s *MemoryStore) Invalidate(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[email]
	delete(s.records, email)
	return ok, nil
}
