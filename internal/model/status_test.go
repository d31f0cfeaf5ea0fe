package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		in   string
		want Outcome
		ok   bool
	}{
		{"fixed", OutcomeFixed, true},
		{"partially_fixed", OutcomePartiallyFixed, true},
		{"not_repairable", OutcomeNotRepairable, true},
		{"needs_parts", OutcomeNeedsParts, true},
		{"referred", OutcomeReferred, true},

		// Legacy spellings map onto the canonical set.
		{"partial_fix", OutcomePartiallyFixed, true},
		{"not_fixable", OutcomeNotRepairable, true},

		{"", "", false},
		{"exploded", "", false},
		{"FIXED", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeOutcome(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, EventPublished.Valid())
	assert.False(t, EventStatus("archived").Valid())

	assert.True(t, ItemInProgress.Valid())
	assert.False(t, ItemStatus("broken").Valid())

	assert.True(t, FixerActive.Valid())
	assert.False(t, FixerStatus("banned").Valid())

	assert.True(t, HelperContacted.Valid())
	assert.False(t, HelperStatus("ghosted").Valid())
}

func TestSpotsLeft(t *testing.T) {
	e := Event{Capacity: 40, RegistrationCount: 38}
	assert.Equal(t, 2, e.SpotsLeft())
	assert.False(t, e.IsFull())

	e.RegistrationCount = 41
	assert.Equal(t, 0, e.SpotsLeft())
	assert.True(t, e.IsFull())
}
