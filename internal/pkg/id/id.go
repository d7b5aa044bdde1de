package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string. IDs made in the same millisecond still sort in
// creation order; they are used as account and session partition keys.
func New() string {
	return ulid.Make().String()
}
