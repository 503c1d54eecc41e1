package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time; issuances carry one so a stored record, its log lines
// and the delivered email can be correlated.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
