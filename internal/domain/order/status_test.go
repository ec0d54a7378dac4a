package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"new to confirmed", StatusNew, StatusConfirmed, true},
		{"confirmed to processing", StatusConfirmed, StatusProcessing, true},
		{"processing to shipped", StatusProcessing, StatusShipped, true},
		{"shipped to completed", StatusShipped, StatusCompleted, true},
		{"new to cancelled", StatusNew, StatusCancelled, true},
		{"shipped to cancelled", StatusShipped, StatusCancelled, true},
		{"skip a step", StatusNew, StatusProcessing, false},
		{"backwards", StatusProcessing, StatusConfirmed, false},
		{"same status", StatusConfirmed, StatusConfirmed, false},
		{"completed is terminal", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"unknown from", Status("lost"), StatusConfirmed, false},
		{"unknown to", StatusNew, Status("lost"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusNew.Terminal())
	assert.False(t, StatusShipped.Terminal())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusConfirmed, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("archived").Valid())
}
