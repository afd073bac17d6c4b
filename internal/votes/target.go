package votes

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/nafishasalsabil/reddit-clone/internal/apperr"
	"github.com/nafishasalsabil/reddit-clone/internal/models"
)

// Resolver turns the wire-level (targetType, targetID) pair into a
// models.Target, looking up a comment's parent post. The lookup happens
// outside the vote transaction and is cached: a comment never moves to
// another post, so the mapping is immutable once seen.
type Resolver struct {
	db        *gorm.DB
	parents   sync.Map // comment id -> post id
	size      atomic.Int64
	maxCached int64
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, maxCached: 4096}
}

func (r *Resolver) Resolve(ctx context.Context, targetType models.TargetType, targetID int) (models.Target, error) {
	if !targetType.Valid() {
		return models.Target{}, apperr.InvalidArgument("target type must be post or comment")
	}
	if targetID <= 0 {
		return models.Target{}, apperr.InvalidArgument("invalid target id")
	}
	if targetType == models.TargetPost {
		return models.PostTarget(targetID), nil
	}

	if postID, ok := r.parents.Load(targetID); ok {
		return models.CommentTarget(postID.(int), targetID), nil
	}

	var comment models.Comment
	err := r.db.WithContext(ctx).Select("id", "post_id").First(&comment, targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Target{}, apperr.NotFound("comment not found")
	}
	if err != nil {
		return models.Target{}, err
	}
	// reset wholesale past the threshold, keeping memory bounded under
	// many distinct comments; entries just get re-fetched
	if r.size.Load() >= r.maxCached {
		r.parents.Clear()
		r.size.Store(0)
	}
	r.parents.Store(targetID, comment.PostID)
	r.size.Add(1)
	return models.CommentTarget(comment.PostID, targetID), nil
}
