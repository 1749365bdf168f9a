// Package tally turns ballot-change notifications into live tally
// snapshots for any number of observers.
package tally

import (
	"context"
	"log"

	"github.com/dareyes-87/Votacion-UMG/model"
	"github.com/dareyes-87/Votacion-UMG/notify"
)

// Computer produces a fresh tally snapshot. Implemented by the vote
// service.
type Computer interface {
	ComputeTally(ctx context.Context, electionID uint) (*model.TallySnapshot, error)
}

// Streamer multiplexes change notifications into tally recomputations and
// exposes the latest snapshot to subscribers.
type Streamer struct {
	computer Computer
	notifier notify.Notifier
}

// NewStreamer creates a tally streamer.
func NewStreamer(computer Computer, notifier notify.Notifier) *Streamer {
	return &Streamer{computer: computer, notifier: notifier}
}

// Subscribe returns a lazy, infinite sequence of tally snapshots for one
// election: the current snapshot immediately, then one per ballot change.
// Each subscriber owns its notification listener, released by the returned
// cancel function or when ctx ends; after cancel nothing more is delivered
// and the channel closes.
//
// Snapshots are always recomputed fresh from storage, so one subscriber
// never sees an older state after a newer one; the output channel holds
// only the latest snapshot, and a burst of notifications during an
// in-flight recompute coalesces into at most one trailing recompute
// because the tick channel is one-buffered. A transient recompute failure
// is logged and retried on the next notification; a dead notification
// source terminates the stream by closing the channel.
func (s *Streamer) Subscribe(ctx context.Context, electionID uint) (<-chan model.TallySnapshot, func(), error) {
	ticks, cancelNotify, err := s.notifier.Subscribe(ctx, electionID)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan model.TallySnapshot, 1)

	go func() {
		defer close(out)
		defer cancelNotify()

		if snapshot, err := s.computer.ComputeTally(ctx, electionID); err == nil {
			deliver(out, *snapshot)
		} else {
			log.Printf("initial tally for election %d failed: %v", electionID, err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				snapshot, err := s.computer.ComputeTally(ctx, electionID)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("tally recompute for election %d failed: %v", electionID, err)
					continue
				}
				deliver(out, *snapshot)
			}
		}
	}()

	return out, cancel, nil
}

// deliver replaces any undelivered snapshot with the newer one. Only the
// subscription goroutine sends on out, so drain-then-send cannot race.
func deliver(out chan model.TallySnapshot, snapshot model.TallySnapshot) {
	select {
	case out <- snapshot:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- snapshot:
	default:
	}
}
