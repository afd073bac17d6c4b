package votes

import (
	"errors"

	"gorm.io/gorm"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/stream"
)

// NewAggregateSnapshot returns the loader the hub calls to emit the
// current aggregate immediately on subscribe.
func NewAggregateSnapshot(db *gorm.DB) stream.AggregateSnapshot {
	return func(t models.Target) (stream.AggregateEvent, bool) {
		if t.Type == models.TargetPost {
			var post models.Post
			if err := db.First(&post, t.ID).Error; err != nil {
				return stream.AggregateEvent{}, false
			}
			hot := post.HotRank
			return stream.AggregateEvent{
				Target:       t,
				Score:        post.Score,
				HotRank:      &hot,
				CommentCount: post.CommentCount,
			}, true
		}
		var comment models.Comment
		if err := db.First(&comment, t.ID).Error; err != nil {
			return stream.AggregateEvent{}, false
		}
		return stream.AggregateEvent{Target: t, Score: comment.Score}, true
	}
}

// NewVoteSnapshot returns the loader for a voter's current ledger value;
// a missing row reads as 0.
func NewVoteSnapshot(db *gorm.DB) stream.VoteSnapshot {
	return func(voterID int, t models.Target) int {
		var ledger models.Vote
		err := db.Where("user_id = ? AND target_type = ? AND target_id = ?",
			voterID, t.Type, t.ID).First(&ledger).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0
		}
		if err != nil {
			return 0
		}
		return ledger.Value
	}
}
