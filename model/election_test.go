package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElectionIsOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	election := &Election{StartTime: start, EndTime: end, IsActive: true}

	assert.False(t, election.IsOpen(start.Add(-time.Nanosecond)))
	assert.True(t, election.IsOpen(start))
	assert.True(t, election.IsOpen(start.Add(5*time.Hour)))
	assert.True(t, election.IsOpen(end))
	assert.False(t, election.IsOpen(end.Add(time.Nanosecond)))

	election.IsActive = false
	assert.False(t, election.IsOpen(start.Add(5*time.Hour)), "a deactivated election is closed inside its window")
}

func TestFillPercentages(t *testing.T) {
	snapshot := &TallySnapshot{
		Candidates: []CandidateCount{
			{CandidateID: 1, Count: 3},
			{CandidateID: 2, Count: 1},
		},
		Blank: 1,
		Null:  1,
		Total: 6,
	}
	snapshot.FillPercentages()
	assert.InDelta(t, 50.0, snapshot.Candidates[0].Percentage, 0.001)
	assert.InDelta(t, 16.666, snapshot.Candidates[1].Percentage, 0.001)
}

func TestFillPercentages_ZeroTotal(t *testing.T) {
	snapshot := &TallySnapshot{
		Candidates: []CandidateCount{{CandidateID: 1}, {CandidateID: 2}},
	}
	snapshot.FillPercentages()
	for _, c := range snapshot.Candidates {
		assert.Equal(t, 0.0, c.Percentage)
	}
}
