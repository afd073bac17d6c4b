package votes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
)

func TestResolverCachesParentLookup(t *testing.T) {
	db := sharedDB(t)
	post := seedPost(t, db, time.Unix(1600000000, 0).UTC())
	comment := seedComment(t, db, post.ID)
	r := NewResolver(db)
	ctx := context.Background()

	target, err := r.Resolve(ctx, models.TargetComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, target.PostID)

	// second resolve is served from the cache, no query needed
	require.NoError(t, db.Delete(&models.Comment{}, comment.ID).Error)
	target, err = r.Resolve(ctx, models.TargetComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, target.PostID)
}

func TestResolverCacheBounded(t *testing.T) {
	db := sharedDB(t)
	post := seedPost(t, db, time.Unix(1600000000, 0).UTC())
	r := NewResolver(db)
	r.maxCached = 2
	ctx := context.Background()

	var ids []int
	for i := 0; i < 3; i++ {
		ids = append(ids, seedComment(t, db, post.ID).ID)
	}
	for _, id := range ids {
		_, err := r.Resolve(ctx, models.TargetComment, id)
		require.NoError(t, err)
	}

	// the third insert crossed the threshold and reset the map
	assert.LessOrEqual(t, r.size.Load(), int64(2))
	if _, ok := r.parents.Load(ids[0]); ok {
		t.Fatalf("expected early entry to be evicted")
	}

	// evicted entries resolve again from the store
	target, err := r.Resolve(ctx, models.TargetComment, ids[0])
	require.NoError(t, err)
	assert.Equal(t, post.ID, target.PostID)
}
