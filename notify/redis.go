package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier fans ballot-change signals out across service instances
// through Redis pub/sub. Pub/sub delivery is at-most-once, which matches
// the contract: a dropped signal delays convergence until the next write,
// it never corrupts a tally.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier creates the Redis-backed notifier.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func channelName(electionID uint) string {
	return fmt.Sprintf("election:%d:ballots", electionID)
}

func (n *RedisNotifier) Publish(ctx context.Context, electionID uint) error {
	return n.client.Publish(ctx, channelName(electionID), "changed").Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, electionID uint) (<-chan struct{}, func(), error) {
	pubsub := n.client.Subscribe(ctx, channelName(electionID))

	// Receive forces the SUBSCRIBE handshake so a broken connection
	// surfaces here instead of as a silently dead stream.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe to election %d: %w", electionID, err)
	}

	ch := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer close(ch)
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				log.Printf("failed to close pubsub for election %d: %v", electionID, err)
			}
		})
	}
	return ch, cancel, nil
}
