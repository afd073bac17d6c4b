// Package votes applies vote changes atomically: one ledger row per
// (voter, target), an aggregate score kept equal to the ledger sum, and
// the hot rank recomputed whenever a post's score moves.
package votes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/nafishasalsabil/reddit-clone/internal/apperr"
	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/ranking"
	"github.com/nafishasalsabil/reddit-clone/internal/ratelimit"
	"github.com/nafishasalsabil/reddit-clone/internal/stream"
)

// Result is what a vote call returns to the caller. HotRank is set only
// for post targets.
type Result struct {
	Score   int64    `json:"score"`
	HotRank *float64 `json:"hot_rank,omitempty"`
}

const publishStripes = 64

// Processor executes vote changes as serializable transactions, retrying
// conflicts itself so callers never see them.
type Processor struct {
	db          *gorm.DB
	limiter     ratelimit.Limiter
	hub         *stream.Hub
	maxAttempts int

	// publishMu serializes commit and fan-out per target, so subscribers
	// receive aggregate events in commit order. Striped by target key so
	// unrelated targets do not contend.
	publishMu [publishStripes]sync.Mutex
}

// NewProcessor builds a processor. hub may be nil for callers that do not
// need live fan-out (tests, batch jobs).
func NewProcessor(db *gorm.DB, limiter ratelimit.Limiter, hub *stream.Hub) *Processor {
	return &Processor{
		db:          db,
		limiter:     limiter,
		hub:         hub,
		maxAttempts: 5,
	}
}

// Apply changes voterID's vote on target to value (-1, 0 or +1) and
// returns the updated aggregate. Re-submitting the current vote is a
// read-only no-op. All writes happen in one transaction; serialization
// conflicts with concurrent voters are retried transparently.
func (p *Processor) Apply(ctx context.Context, voterID int, target models.Target, value int) (Result, error) {
	if voterID <= 0 {
		return Result{}, apperr.Unauthenticated("sign in required")
	}
	if value < -1 || value > 1 {
		return Result{}, apperr.InvalidArgument("vote value must be -1, 0 or 1")
	}
	if !target.Type.Valid() {
		return Result{}, apperr.InvalidArgument("target type must be post or comment")
	}
	if p.limiter != nil && !p.limiter.Allow(fmt.Sprintf("%d:%s", voterID, target.Key())) {
		return Result{}, apperr.ResourceExhausted("too many votes, slow down")
	}

	// Without this lock a goroutine could commit first yet publish second,
	// showing subscribers a stale score until the next event.
	mu := p.stripe(target)
	mu.Lock()
	defer mu.Unlock()

	var res Result
	var changed bool
	var commentCount int

	var err error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
		}
		err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			res, commentCount, changed, txErr = p.applyTx(tx, voterID, target, value)
			return txErr
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if !isSerializationFailure(err) {
			break
		}
	}
	if isSerializationFailure(err) {
		return Result{}, apperr.Aborted("vote transaction kept conflicting", err)
	}
	if err != nil {
		return Result{}, err
	}

	if changed && p.hub != nil {
		p.hub.PublishAggregate(stream.AggregateEvent{
			Target:       target,
			Score:        res.Score,
			HotRank:      res.HotRank,
			CommentCount: commentCount,
		})
		p.hub.PublishVote(voterID, target, value)
	}
	return res, nil
}

// applyTx runs the critical section. changed is false for the idempotent
// no-op path, which must not write anything.
func (p *Processor) applyTx(tx *gorm.DB, voterID int, target models.Target, value int) (Result, int, bool, error) {
	var ledger models.Vote
	prev := 0
	found := true
	err := tx.Where("user_id = ? AND target_type = ? AND target_id = ?",
		voterID, target.Type, target.ID).First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		found = false
	} else if err != nil {
		return Result{}, 0, false, err
	} else {
		prev = ledger.Value
	}

	delta := value - prev

	if target.Type == models.TargetPost {
		var post models.Post
		if err := tx.First(&post, target.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Result{}, 0, false, apperr.NotFound("post not found")
			}
			return Result{}, 0, false, err
		}
		if delta == 0 {
			hot := post.HotRank
			return Result{Score: post.Score, HotRank: &hot}, post.CommentCount, false, nil
		}
		if err := p.writeLedger(tx, &ledger, found, voterID, target, value); err != nil {
			return Result{}, 0, false, err
		}
		newScore := post.Score + int64(delta)
		hot := ranking.Hot(newScore, post.CreatedAt)
		err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
			Updates(map[string]interface{}{"score": newScore, "hot_rank": hot}).Error
		if err != nil {
			return Result{}, 0, false, err
		}
		return Result{Score: newScore, HotRank: &hot}, post.CommentCount, true, nil
	}

	var comment models.Comment
	if err := tx.Where("id = ? AND post_id = ?", target.ID, target.PostID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, 0, false, apperr.NotFound("comment not found")
		}
		return Result{}, 0, false, err
	}
	if delta == 0 {
		return Result{Score: comment.Score}, 0, false, nil
	}
	if err := p.writeLedger(tx, &ledger, found, voterID, target, value); err != nil {
		return Result{}, 0, false, err
	}
	newScore := comment.Score + int64(delta)
	if err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).Update("score", newScore).Error; err != nil {
		return Result{}, 0, false, err
	}
	return Result{Score: newScore}, 0, true, nil
}

// writeLedger upserts or deletes the voter's ledger row. Un-voting
// deletes: value 0 is represented by row absence.
func (p *Processor) writeLedger(tx *gorm.DB, ledger *models.Vote, found bool, voterID int, target models.Target, value int) error {
	if value == 0 {
		if !found {
			return nil
		}
		return tx.Delete(ledger).Error
	}
	if found {
		ledger.Value = value
		return tx.Save(ledger).Error
	}
	row := models.Vote{
		UserID:     voterID,
		TargetType: target.Type,
		TargetID:   target.ID,
		PostID:     target.PostID,
		Value:      value,
	}
	return tx.Create(&row).Error
}

func (p *Processor) stripe(t models.Target) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(t.Key()))
	return &p.publishMu[h.Sum32()%publishStripes]
}

// isSerializationFailure reports whether err is a conflict the store asks
// us to retry: serialization_failure (40001) or deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
