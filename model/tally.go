package model

import (
	"encoding/json"
	"time"
)

// CandidateCount is one candidate's slice of a tally.
type CandidateCount struct {
	CandidateID uint    `json:"candidate_id"`
	Name        string  `json:"name"`
	PhotoURL    string  `json:"photo_url,omitempty"`
	Count       int64   `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// TallySnapshot is a point-in-time aggregation of the ballots of one
// election. Snapshots are derived, never stored: every snapshot is a full
// recompute from the ballot table, which keeps them correct under missed or
// reordered change notifications.
type TallySnapshot struct {
	ElectionID uint             `json:"election_id"`
	Candidates []CandidateCount `json:"candidates"`
	Blank      int64            `json:"blank"`
	Null       int64            `json:"null"`
	Total      int64            `json:"total"`
	ComputedAt time.Time        `json:"computed_at"`
}

// FillPercentages derives each candidate's percentage of the total. A zero
// total yields 0% everywhere, never NaN.
func (s *TallySnapshot) FillPercentages() {
	if s.Total == 0 {
		for i := range s.Candidates {
			s.Candidates[i].Percentage = 0
		}
		return
	}
	for i := range s.Candidates {
		s.Candidates[i].Percentage = float64(s.Candidates[i].Count) / float64(s.Total) * 100
	}
}

// WebSocketMessage is the envelope pushed to live observers.
type WebSocketMessage struct {
	Type       string      `json:"type"`
	ElectionID uint        `json:"election_id"`
	Payload    interface{} `json:"payload"`
}

// ToJSON serializes the message for the wire.
func (m *WebSocketMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
