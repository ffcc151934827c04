package jobs

import (
	"context" // Job contexts
	"testing" // Testing package

	"github.com/stretchr/testify/assert" // Assertion library
)

// TestStartIsIdempotent checks that repeated starts never double-register
// the background jobs
func TestStartIsIdempotent(t *testing.T) {
	s := NewScheduler(nil, nil)
	defer s.Stop()

	s.Start(context.Background())
	assert.Equal(t, 2, s.Entries())

	// A second start must not add duplicate jobs
	s.Start(context.Background())
	assert.Equal(t, 2, s.Entries())

	s.Start(context.Background())
	assert.Equal(t, 2, s.Entries())
}

// TestStopBeforeStart checks that stopping an unstarted scheduler is safe
func TestStopBeforeStart(t *testing.T) {
	s := NewScheduler(nil, nil)
	s.Stop()
	assert.Equal(t, 0, s.Entries())
}
