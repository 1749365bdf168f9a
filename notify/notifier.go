// Package notify carries the "something changed" signal from ballot writes
// to tally recomputation. Notifications are deliberately payload-free: a
// missed or reordered delivery is harmless because consumers always re-read
// full state. Two backends exist behind one interface, picked at startup
// the same way the old MQ adapter picked its queue: Redis pub/sub when
// Redis is configured, an in-process fanout otherwise.
package notify

import (
	"context"
	"sync"
)

// Notifier publishes and subscribes to ballot-change signals per election.
type Notifier interface {
	// Publish signals that the ballot set of an election changed.
	Publish(ctx context.Context, electionID uint) error

	// Subscribe returns a channel that receives a tick per change signal
	// and a cancel function that releases the listener. The channel is
	// buffered; signals arriving while the buffer is full are dropped,
	// which is safe because consumers recompute full state on every tick.
	Subscribe(ctx context.Context, electionID uint) (<-chan struct{}, func(), error)
}

// MemoryNotifier is the single-process backend, also used by tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[uint]map[chan struct{}]struct{}
}

// NewMemoryNotifier creates an in-process notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[uint]map[chan struct{}]struct{})}
}

func (n *MemoryNotifier) Publish(_ context.Context, electionID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[electionID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(_ context.Context, electionID uint) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.subs[electionID] == nil {
		n.subs[electionID] = make(map[chan struct{}]struct{})
	}
	n.subs[electionID][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if set, ok := n.subs[electionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(n.subs, electionID)
			}
		}
	}
	return ch, cancel, nil
}
