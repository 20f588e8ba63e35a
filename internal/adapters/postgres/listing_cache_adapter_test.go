package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// A retired row was absent from the feed, so the statement may correct the
// status column and nothing else: in particular it must not stamp last_sync,
// which records the last run the listing actually appeared in.
func TestRetireStatementWritesStatusOnly(t *testing.T) {
	assert.Contains(t, retireMissingSQL, "SET status = $1")
	assert.NotContains(t, retireMissingSQL, "last_sync")
	assert.NotContains(t, retireMissingSQL, "data_ultima_alteracao")
}
