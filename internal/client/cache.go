// Package client holds the in-process reconciliation cache a consumer of
// the vote API keeps per displayed target: the last streamed aggregate,
// the locally pending optimistic vote, and the logic that merges them.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/stream"
	"github.com/nafishasalsabil/reddit-clone/internal/votes"
)

// State is the per-target vote lifecycle. Exactly one transition function
// (the methods below) mutates it.
type State int

const (
	StateIdle State = iota
	StatePending
	StateConfirmed
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolledback"
	default:
		return "unknown"
	}
}

// View is what a caller renders for a target.
type View struct {
	Score        int64
	HotRank      float64
	CommentCount int
	MyVote       int
	State        State
}

// VoteFunc submits the vote change to the server. It is the only
// suspending operation in the pipeline.
type VoteFunc func(ctx context.Context, target models.Target, value int) (votes.Result, error)

// DefaultPendingTimeout bounds how long an optimistic vote may stay
// unconfirmed before it is treated as failed.
const DefaultPendingTimeout = 10 * time.Second

type snapshot struct {
	score   int64
	hotRank float64
	myVote  int
}

type pendingVote struct {
	value int
	seq   uint64
	prior snapshot
	// settled needs both the processor response and the own-vote echo
	gotResponse bool
	gotEcho     bool
	timer       *time.Timer
}

type entry struct {
	view    View
	pending *pendingVote
}

// Cache merges streamed server state with optimistic local votes. All
// views of the same target share one entry, so a feed row and a detail
// pane can never drift apart.
type Cache struct {
	mu             sync.Mutex
	call           VoteFunc
	pendingTimeout time.Duration
	seq            uint64
	entries        map[models.Target]*entry
}

func NewCache(call VoteFunc, pendingTimeout time.Duration) *Cache {
	if pendingTimeout <= 0 {
		pendingTimeout = DefaultPendingTimeout
	}
	return &Cache{
		call:           call,
		pendingTimeout: pendingTimeout,
		entries:        make(map[models.Target]*entry),
	}
}

func (c *Cache) entryLocked(t models.Target) *entry {
	e, ok := c.entries[t]
	if !ok {
		e = &entry{}
		c.entries[t] = e
	}
	return e
}

// View returns the current reconciled view for t.
func (c *Cache) View(t models.Target) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entryLocked(t).view
}

// Vote applies the optimistic update synchronously, then submits the
// change in the background. The view reflects the new vote before this
// function returns; the network round trip never blocks it.
func (c *Cache) Vote(ctx context.Context, t models.Target, value int) {
	c.mu.Lock()
	e := c.entryLocked(t)

	prior := snapshot{
		score:   e.view.Score,
		hotRank: e.view.HotRank,
		myVote:  e.view.MyVote,
	}
	if e.pending != nil {
		// a re-vote while pending keeps the original pre-vote snapshot,
		// so a rollback lands on real server state
		prior = e.pending.prior
		e.pending.timer.Stop()
	}

	c.seq++
	p := &pendingVote{value: value, seq: c.seq, prior: prior}
	seq := p.seq
	p.timer = time.AfterFunc(c.pendingTimeout, func() { c.expire(t, seq) })
	e.pending = p

	e.view.Score += int64(value - e.view.MyVote)
	e.view.MyVote = value
	e.view.State = StatePending
	c.mu.Unlock()

	go func() {
		res, err := c.call(ctx, t, value)
		c.onResponse(t, seq, res, err)
	}()
}

func (c *Cache) onResponse(t models.Target, seq uint64, res votes.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(t)
	p := e.pending
	if p == nil || p.seq != seq {
		return // superseded by a later vote
	}
	if err != nil {
		c.rollbackLocked(e)
		return
	}
	e.view.Score = res.Score
	if res.HotRank != nil {
		e.view.HotRank = *res.HotRank
	}
	// myVote stays at the pending value until the own-vote stream echoes it
	p.gotResponse = true
	if p.gotEcho {
		c.settleLocked(e)
	}
}

// OnOwnVote feeds the own-vote stream into the state machine.
func (c *Cache) OnOwnVote(t models.Target, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(t)
	p := e.pending

	if p == nil {
		e.view.MyVote = value
		return
	}
	if value == p.value {
		e.view.MyVote = value
		p.gotEcho = true
		if p.gotResponse {
			c.settleLocked(e)
		}
		return
	}
	if value == 0 {
		// stale echo of pre-transaction state; the commit may not have
		// reached the stream's replica yet. Only a processor error rolls
		// the pending vote back.
		return
	}
	// a different non-zero value, e.g. the same user voting from another
	// session: adopt it, keep waiting on our own confirmation
	e.view.MyVote = value
}

// OnAggregate feeds the aggregate stream in. Other users' votes land here
// at any time, in any state, without touching myVote or the pending vote.
func (c *Cache) OnAggregate(ev stream.AggregateEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(ev.Target)
	e.view.Score = ev.Score
	if ev.HotRank != nil {
		e.view.HotRank = *ev.HotRank
	}
	e.view.CommentCount = ev.CommentCount
}

// expire fires when a pending vote outlives the timeout. A committed but
// un-echoed vote settles as confirmed; one with no response rolls back.
func (c *Cache) expire(t models.Target, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(t)
	p := e.pending
	if p == nil || p.seq != seq {
		return
	}
	if p.gotResponse {
		c.settleLocked(e)
		return
	}
	c.rollbackLocked(e)
}

func (c *Cache) settleLocked(e *entry) {
	e.pending.timer.Stop()
	e.pending = nil
	e.view.State = StateConfirmed
}

func (c *Cache) rollbackLocked(e *entry) {
	p := e.pending
	p.timer.Stop()
	e.pending = nil
	e.view.Score = p.prior.score
	e.view.HotRank = p.prior.hotRank
	e.view.MyVote = p.prior.myVote
	e.view.State = StateRolledBack
}

// Track subscribes the cache to both live streams for t and returns a
// cancel detaching them. Subsequent Track calls for the same target share
// the hub's underlying feed.
func (c *Cache) Track(hub *stream.Hub, voterID int, t models.Target) (cancel func()) {
	cancelAgg := hub.Subscribe(t, c.OnAggregate)
	cancelVote := hub.SubscribeVote(voterID, t, func(v int) { c.OnOwnVote(t, v) })
	return func() {
		cancelAgg()
		cancelVote()
	}
}
