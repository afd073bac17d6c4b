package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nafishasalsabil/reddit-clone/internal/apperr"
	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/stream"
	"github.com/nafishasalsabil/reddit-clone/internal/votes"
)

type CommentHandler struct {
	db        *gorm.DB
	processor *votes.Processor
	resolver  *votes.Resolver
	hub       *stream.Hub
}

func NewCommentHandler(db *gorm.DB, processor *votes.Processor, resolver *votes.Resolver, hub *stream.Hub) *CommentHandler {
	return &CommentHandler{db: db, processor: processor, resolver: resolver, hub: hub}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// publishPostAggregate pushes the post's current aggregate to live
// subscribers after a comment-count change.
func (h *CommentHandler) publishPostAggregate(postID int) {
	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		return
	}
	hot := post.HotRank
	h.hub.PublishAggregate(stream.AggregateEvent{
		Target:       models.PostTarget(postID),
		Score:        post.Score,
		HotRank:      &hot,
		CommentCount: post.CommentCount,
	})
}

// GetComments returns all comments for a post
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID := c.Param("id")
	var comments []models.Comment

	if err := h.db.Where("post_id = ?", postID).Preload("User").Order("created_at desc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	responses := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, gin.H{
			"id":                comment.ID,
			"body":              comment.Body,
			"author_id":         comment.AuthorID,
			"post_id":           comment.PostID,
			"parent_comment_id": comment.ParentCommentID,
			"user":              comment.User,
			"score":             comment.Score,
			"created_at":        comment.CreatedAt,
			"updated_at":        comment.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// CreateComment creates a new comment on a post. The comment write and
// the post's comment_count bump commit together.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input struct {
		Body            string `json:"body" binding:"required"`
		ParentCommentID *int   `json:"parent_comment_id"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	postID := c.Param("id")
	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Verify post exists
	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comment := models.Comment{
		Body:            input.Body,
		PostID:          post.ID,
		AuthorID:        authorID,
		ParentCommentID: input.ParentCommentID,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)
	h.publishPostAggregate(post.ID)
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID := c.Param("commentId")

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own comments"})
		return
	}

	comment.Body = input.Body
	h.db.Save(&comment)
	h.db.Preload("User").First(&comment, comment.ID)

	c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment and its votes (owner only). The delete
// and the post's comment_count drop commit together, floored at zero.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID := c.Param("commentId")

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own comments"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetComment, comment.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			Update("comment_count", gorm.Expr("GREATEST(comment_count - 1, 0)")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	h.publishPostAggregate(comment.PostID)
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// VoteComment changes the caller's vote on a comment (PROTECTED)
func (h *CommentHandler) VoteComment(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	commentID, err := strconv.Atoi(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment id"})
		return
	}

	var input struct {
		Value *int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || *input.Value < -1 || *input.Value > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be -1, 0 or 1"})
		return
	}

	target, err := h.resolver.Resolve(c.Request.Context(), models.TargetComment, commentID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	res, err := h.processor.Apply(c.Request.Context(), voterID, target, *input.Value)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}
