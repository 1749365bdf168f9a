package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dareyes-87/Votacion-UMG/cache"
	"github.com/dareyes-87/Votacion-UMG/identity"
	"github.com/dareyes-87/Votacion-UMG/model"
	"github.com/dareyes-87/Votacion-UMG/notify"
	"github.com/dareyes-87/Votacion-UMG/repository"

	"github.com/google/uuid"
)

var (
	ErrElectionNotFound = errors.New("election not found")
	ErrElectionClosed   = errors.New("election is not open for voting")
	ErrAlreadyVoted     = errors.New("this device has already voted")
	ErrInvalidCandidate = errors.New("candidate does not belong to this election")
	ErrInvalidBallot    = errors.New("ballot is both for a candidate and blank or null")
	ErrUnstableDevice   = errors.New("a stable device identity is required to vote")
	ErrInvalidWindow    = errors.New("election end time must not precede start time")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

const admissionLockExpiry = 5 * time.Second

// BallotReceipt confirms an admitted ballot.
type BallotReceipt struct {
	BallotID         uint   `json:"ballot_id"`
	Receipt          string `json:"receipt"`
	IdentityDegraded bool   `json:"identity_degraded,omitempty"`
}

// VoteService is the voting core: ballot admission, election window checks
// and tally aggregation.
type VoteService interface {
	SubmitBallot(ctx context.Context, electionID uint, device identity.Identity, req model.VoteRequest) (*BallotReceipt, error)
	IsElectionOpen(ctx context.Context, electionID uint, now time.Time) (bool, error)
	ComputeTally(ctx context.Context, electionID uint) (*model.TallySnapshot, error)

	CreateElection(ctx context.Context, election *model.Election) error
	GetElection(ctx context.Context, electionID uint) (*model.Election, error)
	ListElections(ctx context.Context, offset, limit int) ([]model.Election, error)
	AddCandidate(ctx context.Context, candidate *model.Candidate) error
	GetCandidates(ctx context.Context, electionID uint) ([]model.Candidate, error)
}

// VoteServiceImpl implements VoteService.
type VoteServiceImpl struct {
	repo                repository.VoteRepository
	notifier            notify.Notifier
	locker              *cache.AdmissionLocker
	requireStableDevice bool
	now                 func() time.Time
}

// Option configures the service.
type Option func(*VoteServiceImpl)

// WithAdmissionLocker serializes admissions per (election, device) through
// a distributed lock. The database unique index stays authoritative; the
// lock only upgrades the read-check into a reliable fast rejection and
// covers stores without a usable constraint.
func WithAdmissionLocker(locker *cache.AdmissionLocker) Option {
	return func(s *VoteServiceImpl) { s.locker = locker }
}

// WithStableDevicePolicy rejects ballots from volatile device identities.
func WithStableDevicePolicy(required bool) Option {
	return func(s *VoteServiceImpl) { s.requireStableDevice = required }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *VoteServiceImpl) { s.now = now }
}

// NewVoteService creates the voting core service.
func NewVoteService(repo repository.VoteRepository, notifier notify.Notifier, opts ...Option) *VoteServiceImpl {
	s := &VoteServiceImpl{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitBallot runs the admission sequence: window check, identity policy,
// candidate validity, duplicate read-check, conditional insert. Every
// rejection reason is a distinct sentinel error; a uniqueness violation
// from the insert is a normal outcome mapped to ErrAlreadyVoted, never a
// storage failure. On admission exactly one ballot row is written and one
// change notification published; on rejection nothing is mutated.
func (s *VoteServiceImpl) SubmitBallot(ctx context.Context, electionID uint, device identity.Identity, req model.VoteRequest) (*BallotReceipt, error) {
	if req.CandidateID != nil && (req.Blank || req.Null) {
		return nil, ErrInvalidBallot
	}
	if req.Blank && req.Null {
		return nil, ErrInvalidBallot
	}

	election, err := s.repo.GetElectionByID(ctx, electionID)
	if err != nil {
		if errors.Is(err, repository.ErrElectionNotFound) {
			// Fail closed: an election we cannot load accepts no ballots.
			return nil, ErrElectionClosed
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !election.IsOpen(s.now()) {
		return nil, ErrElectionClosed
	}

	if device.Volatile && s.requireStableDevice {
		return nil, ErrUnstableDevice
	}

	if req.CandidateID != nil {
		candidates, err := s.repo.GetCandidatesByElection(ctx, electionID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if !candidateBelongs(candidates, *req.CandidateID) {
			return nil, ErrInvalidCandidate
		}
	}

	ballot := &model.Ballot{
		ElectionID:  electionID,
		CandidateID: req.CandidateID,
		Blank:       req.CandidateID == nil && !req.Null,
		Null:        req.Null,
		DeviceHash:  device.Hash,
	}

	admit := func() error {
		// Read-check first for a fast user-facing rejection. It is only
		// an optimization: two concurrent submissions can both pass it,
		// and then the unique index rejects the loser of the race.
		voted, err := s.repo.HasDeviceVoted(ctx, electionID, device.Hash)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if voted {
			return ErrAlreadyVoted
		}
		if err := s.repo.CreateBallot(ctx, ballot); err != nil {
			if errors.Is(err, repository.ErrDuplicateBallot) {
				return ErrAlreadyVoted
			}
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return nil
	}

	if s.locker != nil {
		lockName := cache.AdmissionLockName(electionID, device.Hash)
		err = s.locker.WithLock(lockName, admissionLockExpiry, admit)
		if errors.Is(err, cache.ErrLockNotAcquired) {
			err = fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	} else {
		err = admit()
	}
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Publish(ctx, electionID); err != nil {
		// The tally converges on the next successful notification; the
		// admitted ballot itself is already durable.
		log.Printf("failed to publish ballot change for election %d: %v", electionID, err)
	}

	return &BallotReceipt{
		BallotID:         ballot.ID,
		Receipt:          uuid.NewString(),
		IdentityDegraded: device.Degraded,
	}, nil
}

// IsElectionOpen reports whether the election accepts ballots at the given
// instant. An election that cannot be found counts as closed.
func (s *VoteServiceImpl) IsElectionOpen(ctx context.Context, electionID uint, now time.Time) (bool, error) {
	election, err := s.repo.GetElectionByID(ctx, electionID)
	if err != nil {
		if errors.Is(err, repository.ErrElectionNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return election.IsOpen(now), nil
}

// ComputeTally aggregates the current ballot set of an election in a single
// pass. Always a full recompute from storage, never an incremental patch,
// so missed or reordered change notifications cannot cause drift. A ballot
// whose candidate no longer exists counts as null rather than vanishing.
func (s *VoteServiceImpl) ComputeTally(ctx context.Context, electionID uint) (*model.TallySnapshot, error) {
	candidates, err := s.repo.GetCandidatesByElection(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	ballots, err := s.repo.GetBallotsByElection(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	counts := make(map[uint]int64, len(candidates))
	snapshot := &model.TallySnapshot{
		ElectionID: electionID,
		ComputedAt: s.now(),
	}

	for _, b := range ballots {
		switch {
		case b.Null:
			snapshot.Null++
		case b.CandidateID == nil:
			snapshot.Blank++
		default:
			if _, known := knownCandidate(candidates, *b.CandidateID); known {
				counts[*b.CandidateID]++
			} else {
				snapshot.Null++
			}
		}
	}

	snapshot.Candidates = make([]model.CandidateCount, 0, len(candidates))
	var candidateTotal int64
	for _, c := range candidates {
		candidateTotal += counts[c.ID]
		snapshot.Candidates = append(snapshot.Candidates, model.CandidateCount{
			CandidateID: c.ID,
			Name:        c.Name,
			PhotoURL:    c.PhotoURL,
			Count:       counts[c.ID],
		})
	}
	snapshot.Total = candidateTotal + snapshot.Blank + snapshot.Null
	snapshot.FillPercentages()

	return snapshot, nil
}

// CreateElection stores a new election after validating its time window.
func (s *VoteServiceImpl) CreateElection(ctx context.Context, election *model.Election) error {
	if election.EndTime.Before(election.StartTime) {
		return ErrInvalidWindow
	}
	if err := s.repo.CreateElection(ctx, election); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// GetElection loads one election.
func (s *VoteServiceImpl) GetElection(ctx context.Context, electionID uint) (*model.Election, error) {
	election, err := s.repo.GetElectionByID(ctx, electionID)
	if err != nil {
		if errors.Is(err, repository.ErrElectionNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return election, nil
}

// ListElections pages through elections, newest first.
func (s *VoteServiceImpl) ListElections(ctx context.Context, offset, limit int) ([]model.Election, error) {
	elections, err := s.repo.ListElections(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return elections, nil
}

// AddCandidate registers a candidate on an existing election.
func (s *VoteServiceImpl) AddCandidate(ctx context.Context, candidate *model.Candidate) error {
	if _, err := s.GetElection(ctx, candidate.ElectionID); err != nil {
		return err
	}
	if err := s.repo.CreateCandidate(ctx, candidate); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// GetCandidates lists the candidates of an election.
func (s *VoteServiceImpl) GetCandidates(ctx context.Context, electionID uint) ([]model.Candidate, error) {
	candidates, err := s.repo.GetCandidatesByElection(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return candidates, nil
}

func candidateBelongs(candidates []model.Candidate, id uint) bool {
	_, ok := knownCandidate(candidates, id)
	return ok
}

func knownCandidate(candidates []model.Candidate, id uint) (*model.Candidate, bool) {
	for i := range candidates {
		if candidates[i].ID == id {
			return &candidates[i], true
		}
	}
	return nil, false
}
