package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/stream"
	"github.com/nafishasalsabil/reddit-clone/internal/votes"
)

func newCommentHandler(db *gorm.DB) *CommentHandler {
	hub := stream.NewHub(nil, nil)
	return NewCommentHandler(db, votes.NewProcessor(db, nil, hub), votes.NewResolver(db), hub)
}

func postCommentCount(t *testing.T, db *gorm.DB, postID int) int {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.CommentCount
}

func TestCreateCommentIncrementsCount(t *testing.T) {
	db := sharedDB(t)
	user := seedUser(t, db, "alice")
	post := seedPost(t, db, user.ID)
	h := newCommentHandler(db)

	postParam := gin.Param{Key: "id", Value: strconv.Itoa(post.ID)}

	c, w := jsonRequest(t, user.ID, `{"body":"first"}`, postParam)
	h.CreateComment(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, postCommentCount(t, db, post.ID))

	c, w = jsonRequest(t, user.ID, `{"body":"second"}`, postParam)
	h.CreateComment(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, postCommentCount(t, db, post.ID))
}

func TestDeleteCommentDecrementsCountAndClearsVotes(t *testing.T) {
	db := sharedDB(t)
	user := seedUser(t, db, "alice")
	post := seedPost(t, db, user.ID)
	h := newCommentHandler(db)

	c, w := jsonRequest(t, user.ID, `{"body":"first"}`, gin.Param{Key: "id", Value: strconv.Itoa(post.ID)})
	h.CreateComment(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var comment models.Comment
	require.NoError(t, db.Where("post_id = ?", post.ID).First(&comment).Error)

	vote := models.Vote{UserID: user.ID, TargetType: models.TargetComment, TargetID: comment.ID, PostID: post.ID, Value: 1}
	require.NoError(t, db.Create(&vote).Error)

	c, w = jsonRequest(t, user.ID, ``, gin.Param{Key: "commentId", Value: strconv.Itoa(comment.ID)})
	h.DeleteComment(c)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, postCommentCount(t, db, post.ID))

	var voteCount int64
	db.Model(&models.Vote{}).Where("target_type = ? AND target_id = ?", models.TargetComment, comment.ID).Count(&voteCount)
	assert.Equal(t, int64(0), voteCount)
}

func TestDeleteCommentCountFloorsAtZero(t *testing.T) {
	db := sharedDB(t)
	user := seedUser(t, db, "alice")
	post := seedPost(t, db, user.ID)
	h := newCommentHandler(db)

	// a drifted counter must never go negative
	comment := models.Comment{Body: "orphan", AuthorID: user.ID, PostID: post.ID}
	require.NoError(t, db.Create(&comment).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Update("comment_count", 0).Error)

	c, w := jsonRequest(t, user.ID, ``, gin.Param{Key: "commentId", Value: strconv.Itoa(comment.ID)})
	h.DeleteComment(c)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, postCommentCount(t, db, post.ID))
}

func TestDeleteCommentRequiresOwnership(t *testing.T) {
	db := sharedDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	post := seedPost(t, db, alice.ID)
	h := newCommentHandler(db)

	comment := models.Comment{Body: "mine", AuthorID: alice.ID, PostID: post.ID}
	require.NoError(t, db.Create(&comment).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Update("comment_count", 1).Error)

	c, w := jsonRequest(t, bob.ID, ``, gin.Param{Key: "commentId", Value: strconv.Itoa(comment.ID)})
	h.DeleteComment(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1, postCommentCount(t, db, post.ID))
}
