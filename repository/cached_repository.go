package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dareyes-87/Votacion-UMG/model"

	"github.com/redis/go-redis/v9"
)

const (
	electionCacheTTL  = 5 * time.Minute
	candidateCacheTTL = 5 * time.Minute
)

// CachedVoteRepository decorates a VoteRepository with a Redis read cache
// for election and candidate metadata. Both are read-only during voting, so
// a short TTL is safe. Ballot reads and all writes go straight through:
// caching the ballot set would undermine the full-recompute tally. Cache
// failures are logged and ignored; the database remains the source of truth.
type CachedVoteRepository struct {
	VoteRepository
	redis *redis.Client
}

// NewCachedVoteRepository wraps db with the Redis cache.
func NewCachedVoteRepository(db VoteRepository, redisClient *redis.Client) *CachedVoteRepository {
	return &CachedVoteRepository{VoteRepository: db, redis: redisClient}
}

func electionKey(id uint) string {
	return fmt.Sprintf("election:%d", id)
}

func candidatesKey(electionID uint) string {
	return fmt.Sprintf("election:%d:candidates", electionID)
}

func (r *CachedVoteRepository) GetElectionByID(ctx context.Context, id uint) (*model.Election, error) {
	if data, err := r.redis.Get(ctx, electionKey(id)).Bytes(); err == nil {
		var election model.Election
		if err := json.Unmarshal(data, &election); err == nil {
			return &election, nil
		}
	}

	election, err := r.VoteRepository.GetElectionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(election); err == nil {
		if err := r.redis.Set(ctx, electionKey(id), data, electionCacheTTL).Err(); err != nil {
			log.Printf("failed to cache election %d: %v", id, err)
		}
	}
	return election, nil
}

func (r *CachedVoteRepository) GetCandidatesByElection(ctx context.Context, electionID uint) ([]model.Candidate, error) {
	if data, err := r.redis.Get(ctx, candidatesKey(electionID)).Bytes(); err == nil {
		var candidates []model.Candidate
		if err := json.Unmarshal(data, &candidates); err == nil {
			return candidates, nil
		}
	}

	candidates, err := r.VoteRepository.GetCandidatesByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(candidates); err == nil {
		if err := r.redis.Set(ctx, candidatesKey(electionID), data, candidateCacheTTL).Err(); err != nil {
			log.Printf("failed to cache candidates for election %d: %v", electionID, err)
		}
	}
	return candidates, nil
}

// CreateCandidate invalidates the candidate cache so a stale list cannot
// reject fresh candidates at admission time.
func (r *CachedVoteRepository) CreateCandidate(ctx context.Context, candidate *model.Candidate) error {
	if err := r.VoteRepository.CreateCandidate(ctx, candidate); err != nil {
		return err
	}
	if err := r.redis.Del(ctx, candidatesKey(candidate.ElectionID)).Err(); err != nil {
		log.Printf("failed to invalidate candidate cache for election %d: %v", candidate.ElectionID, err)
	}
	return nil
}
