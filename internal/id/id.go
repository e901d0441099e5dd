// Package id issues run identifiers for journals.
package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID. Ids issued in the same millisecond still
// increase, so journal rows keyed by run id list in the order the runs
// finished. Safe for concurrent use.
func New() string {
	return ulid.Make().String()
}

// Parse validates s and returns the embedded timestamp.
func Parse(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
