package domain

import "time"

// OTPRecord is the live passcode for one email address.
// PK: email (case-sensitive, as presented by the client). At most one record
// per email exists at a time; a new issuance overwrites the previous record
// unconditionally.
//
// The code itself is stored as a bcrypt hash; the plaintext exists only in
// the outbound email. ExpiresAt is a Unix timestamp, reused as the DynamoDB
// TTL attribute by the dynamo backend.
type OTPRecord struct {
	Email      string `json:"email" dynamodbav:"email"`
	CodeHash   string `json:"code_hash" dynamodbav:"code_hash"`
	IssuanceID string `json:"issuance_id" dynamodbav:"issuance_id"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether the record's TTL has passed at the given instant.
func (r *OTPRecord) Expired(now time.Time) bool {
	return now.Unix() > r.ExpiresAt
}
