package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary is the single durable observability artifact of one sync run.
// One row is appended per execution, on success and on fatal abort alike.
type RunSummary struct {
	RunID      uuid.UUID
	Provider   string
	ExecutedAt time.Time

	TotalFeed   int
	SkippedNoID int
	Duplicates  int

	New         int
	Updated     int
	Reactivated int
	Unchanged   int
	Retired     int
	Errors      int

	Fatal        bool
	ErrorMessage string
}

// Classified returns how many feed records received a write-relevant
// classification. Completeness invariant:
// Classified + Duplicates + SkippedNoID == TotalFeed.
func (s RunSummary) Classified() int {
	return s.New + s.Updated + s.Reactivated + s.Unchanged
}
