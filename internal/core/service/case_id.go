package service

import (
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	caseIDPrefix      = "CR"
	caseIDLayout      = "20060102150405"
	caseIDSuffixLen   = 6
	maxCaseIDAttempts = 5
)

// caseIDGenerator produces CR<YYYYMMDDHHMMSS> on the first attempt and adds a
// ULID-derived suffix on retries after a unique-key conflict.
type caseIDGenerator struct {
	now func() time.Time
}

func (g caseIDGenerator) next(attempt int) string {
	ts := g.now().UTC()
	id := caseIDPrefix + ts.Format(caseIDLayout)
	if attempt == 0 {
		return id
	}
	u := ulid.Make().String()
	return id + "-" + u[len(u)-caseIDSuffixLen:]
}
