package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusInUse, StatusCancelled, StatusCompleted}
	allowed := map[Status]map[Status]bool{
		StatusPending:  {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
		StatusApproved: {StatusInUse: true, StatusCancelled: true},
		StatusInUse:    {StatusCompleted: true},
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusTerminalAndOccupancy(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusInUse.IsTerminal())

	assert.True(t, StatusPending.Occupies())
	assert.True(t, StatusCompleted.Occupies())
	assert.False(t, StatusRejected.Occupies())
	assert.False(t, StatusCancelled.Occupies())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("in_use")
	require.NoError(t, err)
	assert.Equal(t, StatusInUse, s)

	_, err = ParseStatus("used")
	assert.Error(t, err)
}
