// Package stream fans committed vote-pipeline changes out to live
// subscribers. There is at most one feed per target per process; callers
// attaching to the same target share it by reference count, and the feed
// is released the moment its last subscriber cancels.
package stream

import (
	"sync"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
)

// AggregateEvent is the streamed view of a target's aggregate fields.
// HotRank is nil for comments.
type AggregateEvent struct {
	Target       models.Target `json:"target"`
	Score        int64         `json:"score"`
	HotRank      *float64      `json:"hot_rank,omitempty"`
	CommentCount int           `json:"comment_count"`
}

// AggregateSnapshot loads the current aggregate for the initial emit on
// subscribe. ok is false when the target does not exist.
type AggregateSnapshot func(t models.Target) (ev AggregateEvent, ok bool)

// VoteSnapshot loads a voter's current ledger value (0 when absent) for
// the initial emit on subscribe.
type VoteSnapshot func(voterID int, t models.Target) int

type aggregateFeed struct {
	mu   sync.Mutex
	subs map[int]func(AggregateEvent)
}

type voteKey struct {
	voterID int
	target  models.Target
}

type voteFeed struct {
	mu   sync.Mutex
	subs map[int]func(int)
}

// Hub is the in-process dispatcher. The vote processor publishes into it
// after each commit; websocket handlers and local caches subscribe.
type Hub struct {
	mu        sync.Mutex
	nextSubID int

	aggregates map[models.Target]*aggregateFeed
	votes      map[voteKey]*voteFeed

	snapshotAggregate AggregateSnapshot
	snapshotVote      VoteSnapshot
}

func NewHub(snapshotAggregate AggregateSnapshot, snapshotVote VoteSnapshot) *Hub {
	return &Hub{
		aggregates:        make(map[models.Target]*aggregateFeed),
		votes:             make(map[voteKey]*voteFeed),
		snapshotAggregate: snapshotAggregate,
		snapshotVote:      snapshotVote,
	}
}

// Subscribe attaches fn to the target's aggregate feed. fn is invoked
// once immediately with the current snapshot (if the target exists), then
// on every committed change, in commit order for this subscriber. The
// returned cancel is idempotent and detaches synchronously.
func (h *Hub) Subscribe(t models.Target, fn func(AggregateEvent)) (cancel func()) {
	h.mu.Lock()
	f, ok := h.aggregates[t]
	if !ok {
		f = &aggregateFeed{subs: make(map[int]func(AggregateEvent))}
		h.aggregates[t] = f
	}
	h.nextSubID++
	id := h.nextSubID
	h.mu.Unlock()

	// Holding the feed lock across registration and the snapshot emit
	// keeps a concurrent publish from being delivered before the snapshot.
	f.mu.Lock()
	f.subs[id] = fn
	if h.snapshotAggregate != nil {
		if ev, exists := h.snapshotAggregate(t); exists {
			fn(ev)
		}
	}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			empty := len(f.subs) == 0
			f.mu.Unlock()
			if empty {
				h.releaseAggregate(t, f)
			}
		})
	}
}

// SubscribeVote attaches fn to the (voter, target) own-vote feed, with
// the same immediate-snapshot and cancel semantics as Subscribe.
func (h *Hub) SubscribeVote(voterID int, t models.Target, fn func(value int)) (cancel func()) {
	k := voteKey{voterID: voterID, target: t}

	h.mu.Lock()
	f, ok := h.votes[k]
	if !ok {
		f = &voteFeed{subs: make(map[int]func(int))}
		h.votes[k] = f
	}
	h.nextSubID++
	id := h.nextSubID
	h.mu.Unlock()

	f.mu.Lock()
	f.subs[id] = fn
	if h.snapshotVote != nil {
		fn(h.snapshotVote(voterID, t))
	}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			empty := len(f.subs) == 0
			f.mu.Unlock()
			if empty {
				h.releaseVote(k, f)
			}
		})
	}
}

// PublishAggregate delivers ev to every subscriber of ev.Target. The
// per-feed lock serializes deliveries, so each subscriber observes a
// single total order per target.
func (h *Hub) PublishAggregate(ev AggregateEvent) {
	h.mu.Lock()
	f := h.aggregates[ev.Target]
	h.mu.Unlock()
	if f == nil {
		return
	}
	f.mu.Lock()
	for _, fn := range f.subs {
		fn(ev)
	}
	f.mu.Unlock()
}

// PublishVote delivers the voter's new ledger value to own-vote
// subscribers of (voterID, t).
func (h *Hub) PublishVote(voterID int, t models.Target, value int) {
	k := voteKey{voterID: voterID, target: t}
	h.mu.Lock()
	f := h.votes[k]
	h.mu.Unlock()
	if f == nil {
		return
	}
	f.mu.Lock()
	for _, fn := range f.subs {
		fn(value)
	}
	f.mu.Unlock()
}

// releaseAggregate drops the feed if it is still the registered one and
// still empty. A racing Subscribe may have re-populated or replaced it.
func (h *Hub) releaseAggregate(t models.Target, f *aggregateFeed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.aggregates[t]; ok && cur == f {
		f.mu.Lock()
		empty := len(f.subs) == 0
		f.mu.Unlock()
		if empty {
			delete(h.aggregates, t)
		}
	}
}

func (h *Hub) releaseVote(k voteKey, f *voteFeed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.votes[k]; ok && cur == f {
		f.mu.Lock()
		empty := len(f.subs) == 0
		f.mu.Unlock()
		if empty {
			delete(h.votes, k)
		}
	}
}

// FeedCount reports how many live aggregate feeds exist. Used to verify
// the no-leaked-listeners property.
func (h *Hub) FeedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.aggregates) + len(h.votes)
}
