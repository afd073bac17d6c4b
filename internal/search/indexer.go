// Package search feeds newly created posts to a search index. Delivery
// is fire and forget: publishing never blocks a request, and a slow or
// absent index costs nothing but dropped entries.
package search

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
)

// Document is the indexed projection of a post.
type Document struct {
	ObjectID  int    `json:"objectID"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"`
}

// Sink receives documents. Implementations talk to the real index
// backend; NopSink is the default when none is configured.
type Sink interface {
	Save(ctx context.Context, doc Document) error
}

// NopSink discards documents.
type NopSink struct{}

func (NopSink) Save(context.Context, Document) error { return nil }

// Indexer buffers post-created events and drains them on one worker
// goroutine. The buffer drops new events when full rather than blocking
// the producer.
type Indexer struct {
	sink   Sink
	queue  chan Document
	done   chan struct{}
	once   sync.Once
	closed sync.Once
}

func NewIndexer(sink Sink, buffer int) *Indexer {
	if sink == nil {
		sink = NopSink{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Indexer{
		sink:  sink,
		queue: make(chan Document, buffer),
		done:  make(chan struct{}),
	}
}

// PostCreated enqueues the post for indexing. Never blocks.
func (ix *Indexer) PostCreated(post models.Post) {
	ix.once.Do(func() { go ix.run() })
	doc := Document{
		ObjectID:  post.ID,
		Title:     post.Title,
		Body:      post.Body,
		CreatedAt: post.CreatedAt.Unix(),
	}
	select {
	case ix.queue <- doc:
	default:
		slog.Warn("search index queue full, dropping post", "post_id", post.ID)
	}
}

func (ix *Indexer) run() {
	for {
		select {
		case doc := <-ix.queue:
			if err := ix.sink.Save(context.Background(), doc); err != nil {
				slog.Warn("search index save failed", "post_id", doc.ObjectID, "error", err)
			}
		case <-ix.done:
			return
		}
	}
}

// Close stops the worker. Queued but undelivered documents are dropped,
// consistent with the fire-and-forget contract.
func (ix *Indexer) Close() {
	ix.closed.Do(func() { close(ix.done) })
}
