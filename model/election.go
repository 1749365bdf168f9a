package model

import (
	"time"

	"gorm.io/gorm"
)

// Election represents one time-boxed voting event.
// The voting core treats elections as read-only; they are created and
// managed through the admin endpoints and never mutated during voting.
type Election struct {
	gorm.Model
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	StartTime   time.Time  `gorm:"not null" json:"start_time"`
	EndTime     time.Time  `gorm:"not null" json:"end_time"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	OwnerID     string     `gorm:"index" json:"owner_id"`
	Candidates  []Candidate `gorm:"foreignKey:ElectionID" json:"candidates,omitempty"`
}

// IsOpen reports whether the election accepts ballots at the given instant.
// Pure function of its inputs; callers that cannot load the election must
// treat it as closed.
func (e *Election) IsOpen(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// Candidate represents one option within an election.
type Candidate struct {
	gorm.Model
	ElectionID uint   `gorm:"not null;index" json:"election_id"`
	Name       string `gorm:"not null" json:"name"`
	Faculty    string `json:"faculty"`
	PhotoURL   string `json:"photo_url"`
}

// Ballot is one recorded vote. A ballot references exactly one candidate,
// or is blank (no candidate, not spoiled), or is null/spoiled. The unique
// index on (election_id, device_hash) is the integrity anchor of the whole
// system: the second insert for the same pair fails at the storage layer no
// matter how the requests interleave.
type Ballot struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ElectionID  uint      `gorm:"not null;uniqueIndex:idx_election_device" json:"election_id"`
	CandidateID *uint     `gorm:"index" json:"candidate_id"`
	Blank       bool      `gorm:"default:false" json:"blank"`
	Null        bool      `gorm:"default:false" json:"null"`
	DeviceHash  string    `gorm:"not null;size:191;uniqueIndex:idx_election_device" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateElectionRequest is the admin payload for creating an election.
type CreateElectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	OwnerID     string `json:"owner_id"`
}

// CreateCandidateRequest is the admin payload for adding a candidate.
type CreateCandidateRequest struct {
	Name     string `json:"name" binding:"required"`
	Faculty  string `json:"faculty"`
	PhotoURL string `json:"photo_url"`
}

// VoteRequest is the ballot submission payload. A nil CandidateID with
// Blank=true is a blank ballot; Null marks a deliberately spoiled ballot.
type VoteRequest struct {
	CandidateID *uint `json:"candidate_id"`
	Blank       bool  `json:"blank"`
	Null        bool  `json:"null"`
}
