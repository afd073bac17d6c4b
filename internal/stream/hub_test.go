package stream

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
)

func staticSnapshots(score int64, myVote int) (AggregateSnapshot, VoteSnapshot) {
	agg := func(t models.Target) (AggregateEvent, bool) {
		return AggregateEvent{Target: t, Score: score}, true
	}
	vote := func(voterID int, t models.Target) int { return myVote }
	return agg, vote
}

func TestSubscribeEmitsSnapshotFirst(t *testing.T) {
	agg, vote := staticSnapshots(7, 1)
	h := NewHub(agg, vote)
	target := models.PostTarget(1)

	var scores []int64
	cancel := h.Subscribe(target, func(ev AggregateEvent) {
		scores = append(scores, ev.Score)
	})
	defer cancel()

	require.Equal(t, []int64{7}, scores)

	var votes []int
	cancelVote := h.SubscribeVote(42, target, func(v int) { votes = append(votes, v) })
	defer cancelVote()
	require.Equal(t, []int{1}, votes)
}

func TestPublishDeliversInOrder(t *testing.T) {
	agg, vote := staticSnapshots(0, 0)
	h := NewHub(agg, vote)
	target := models.PostTarget(9)

	var scores []int64
	cancel := h.Subscribe(target, func(ev AggregateEvent) {
		scores = append(scores, ev.Score)
	})
	defer cancel()

	for i := int64(1); i <= 5; i++ {
		h.PublishAggregate(AggregateEvent{Target: target, Score: i})
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, scores)
}

func TestPublishOtherTargetNotDelivered(t *testing.T) {
	agg, vote := staticSnapshots(0, 0)
	h := NewHub(agg, vote)

	var got int
	cancel := h.Subscribe(models.PostTarget(1), func(AggregateEvent) { got++ })
	defer cancel()

	h.PublishAggregate(AggregateEvent{Target: models.PostTarget(2), Score: 3})
	h.PublishVote(1, models.PostTarget(1), 1) // own-vote feed, not aggregate
	assert.Equal(t, 1, got)                   // snapshot only
}

func TestSharedFeedRefcount(t *testing.T) {
	agg, vote := staticSnapshots(0, 0)
	h := NewHub(agg, vote)
	target := models.PostTarget(3)

	c1 := h.Subscribe(target, func(AggregateEvent) {})
	c2 := h.Subscribe(target, func(AggregateEvent) {})
	assert.Equal(t, 1, h.FeedCount())

	c1()
	assert.Equal(t, 1, h.FeedCount())
	c2()
	assert.Equal(t, 0, h.FeedCount())
}

func TestCancelStopsDeliveryAndIsIdempotent(t *testing.T) {
	agg, vote := staticSnapshots(0, 0)
	h := NewHub(agg, vote)
	target := models.PostTarget(4)

	var got int
	cancel := h.Subscribe(target, func(AggregateEvent) { got++ })
	cancel()
	cancel()

	h.PublishAggregate(AggregateEvent{Target: target, Score: 1})
	assert.Equal(t, 1, got) // snapshot only
	assert.Equal(t, 0, h.FeedCount())
}

func TestVoteFeedIndependentPerVoter(t *testing.T) {
	agg, vote := staticSnapshots(0, 0)
	h := NewHub(agg, vote)
	target := models.PostTarget(5)

	var a, b []int
	ca := h.SubscribeVote(1, target, func(v int) { a = append(a, v) })
	cb := h.SubscribeVote(2, target, func(v int) { b = append(b, v) })
	defer ca()
	defer cb()

	h.PublishVote(1, target, 1)
	h.PublishVote(2, target, -1)

	assert.Equal(t, []int{0, 1}, a)
	assert.Equal(t, []int{0, -1}, b)
}

func TestConcurrentPublishSafe(t *testing.T) {
	agg, vote := staticSnapshots(0, 0)
	h := NewHub(agg, vote)
	target := models.PostTarget(6)

	var mu sync.Mutex
	var got int
	cancel := h.Subscribe(target, func(AggregateEvent) {
		mu.Lock()
		got++
		mu.Unlock()
	})
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.PublishAggregate(AggregateEvent{Target: target, Score: int64(i)})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 21, got)
}
