package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/dareyes-87/Votacion-UMG/model"

	"gorm.io/gorm"
)

var (
	// ErrElectionNotFound is returned when the election row does not exist.
	ErrElectionNotFound = errors.New("election not found")

	// ErrDuplicateBallot is returned when the (election, device) pair
	// already has a ballot. The unique index makes this the authoritative
	// duplicate rejection; callers must treat it as a normal outcome.
	ErrDuplicateBallot = errors.New("ballot already exists for this device")
)

// VoteRepository defines storage access for the voting core.
type VoteRepository interface {
	CreateElection(ctx context.Context, election *model.Election) error
	GetElectionByID(ctx context.Context, id uint) (*model.Election, error)
	ListElections(ctx context.Context, offset, limit int) ([]model.Election, error)

	CreateCandidate(ctx context.Context, candidate *model.Candidate) error
	GetCandidatesByElection(ctx context.Context, electionID uint) ([]model.Candidate, error)

	// CreateBallot is the conditional insert: it fails with
	// ErrDuplicateBallot when a row for (ElectionID, DeviceHash) exists.
	CreateBallot(ctx context.Context, ballot *model.Ballot) error
	HasDeviceVoted(ctx context.Context, electionID uint, deviceHash string) (bool, error)
	GetBallotsByElection(ctx context.Context, electionID uint) ([]model.Ballot, error)
	CountBallots(ctx context.Context, electionID uint) (int64, error)
}

// GormVoteRepository implements VoteRepository on a gorm connection.
type GormVoteRepository struct {
	db *gorm.DB
}

// NewGormVoteRepository creates the gorm-backed repository.
func NewGormVoteRepository(db *gorm.DB) *GormVoteRepository {
	return &GormVoteRepository{db: db}
}

func (r *GormVoteRepository) CreateElection(ctx context.Context, election *model.Election) error {
	return r.db.WithContext(ctx).Create(election).Error
}

func (r *GormVoteRepository) GetElectionByID(ctx context.Context, id uint) (*model.Election, error) {
	var election model.Election
	err := r.db.WithContext(ctx).First(&election, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, err
	}
	return &election, nil
}

func (r *GormVoteRepository) ListElections(ctx context.Context, offset, limit int) ([]model.Election, error) {
	var elections []model.Election
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&elections).Error
	return elections, err
}

func (r *GormVoteRepository) CreateCandidate(ctx context.Context, candidate *model.Candidate) error {
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *GormVoteRepository) GetCandidatesByElection(ctx context.Context, electionID uint) ([]model.Candidate, error) {
	var candidates []model.Candidate
	err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("id ASC").
		Find(&candidates).Error
	return candidates, err
}

func (r *GormVoteRepository) CreateBallot(ctx context.Context, ballot *model.Ballot) error {
	err := r.db.WithContext(ctx).Create(ballot).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateBallot
	}
	return err
}

func (r *GormVoteRepository) HasDeviceVoted(ctx context.Context, electionID uint, deviceHash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Ballot{}).
		Where("election_id = ? AND device_hash = ?", electionID, deviceHash).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormVoteRepository) GetBallotsByElection(ctx context.Context, electionID uint) ([]model.Ballot, error) {
	var ballots []model.Ballot
	err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Find(&ballots).Error
	return ballots, err
}

func (r *GormVoteRepository) CountBallots(ctx context.Context, electionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Ballot{}).
		Where("election_id = ?", electionID).
		Count(&count).Error
	return count, err
}

// isUniqueViolation recognizes a uniqueness-constraint failure across the
// drivers we run on. Gorm translates MySQL 1062 to ErrDuplicatedKey; the
// SQLite driver used in tests reports the raw constraint message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
