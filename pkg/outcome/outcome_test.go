package outcome_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modelshelf/modelshelf/pkg/outcome"
)

func TestOutcomes(t *testing.T) {
	ok := outcome.OK()
	assert.True(t, ok.IsOK())
	assert.Equal(t, "ok", ok.String())

	skipped := outcome.Skipped("stale photo")
	assert.False(t, skipped.IsOK())
	assert.False(t, skipped.IsFailed())
	assert.Equal(t, "skipped: stale photo", skipped.String())

	err := errors.New("timeout")
	failed := outcome.Failed(err)
	assert.True(t, failed.IsFailed())
	assert.ErrorIs(t, failed.Err, err)
	assert.Equal(t, "failed: timeout", failed.String())
}

func TestCounts(t *testing.T) {
	counts := outcome.Counts(outcome.OK(), outcome.OK(), outcome.Skipped("x"))
	assert.Equal(t, 2, counts[outcome.StatusOK])
	assert.Equal(t, 1, counts[outcome.StatusSkipped])
	assert.Equal(t, 0, counts[outcome.StatusFailed])
}
