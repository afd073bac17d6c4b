package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nafishasalsabil/reddit-clone/internal/apperr"
	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/ranking"
	"github.com/nafishasalsabil/reddit-clone/internal/search"
	"github.com/nafishasalsabil/reddit-clone/internal/votes"
)

type PostHandler struct {
	db        *gorm.DB
	processor *votes.Processor
	indexer   *search.Indexer
}

func NewPostHandler(db *gorm.DB, processor *votes.Processor, indexer *search.Indexer) *PostHandler {
	return &PostHandler{db: db, processor: processor, indexer: indexer}
}

func postResponse(post models.Post) gin.H {
	return gin.H{
		"id":            post.ID,
		"title":         post.Title,
		"body":          post.Body,
		"url":           post.URL,
		"author_id":     post.AuthorID,
		"user":          post.User,
		"score":         post.Score,
		"hot_rank":      post.HotRank,
		"comment_count": post.CommentCount,
		"created_at":    post.CreatedAt,
		"updated_at":    post.UpdatedAt,
	}
}

// GetPosts returns the feed, sorted hot (default), new or top
func (h *PostHandler) GetPosts(c *gin.Context) {
	var posts []models.Post

	query := h.db.Preload("User")
	switch c.DefaultQuery("sort", "hot") {
	case "new":
		query = query.Order("created_at desc")
	case "top":
		query = query.Order("score desc, created_at desc")
	default:
		query = query.Order("hot_rank desc, created_at desc")
	}

	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	responses := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, postResponse(post))
	}

	c.JSON(http.StatusOK, responses)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID := c.Param("id")
	var post models.Post

	if err := h.db.Preload("User").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, postResponse(post))
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input struct {
		Title string `json:"title" binding:"required"`
		Body  string `json:"body"`
		URL   string `json:"url"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// rank the fresh post in the same insert so the hot feed orders it
	// correctly from the first read
	now := time.Now().UTC()
	post := models.Post{
		Title:     input.Title,
		Body:      input.Body,
		URL:       input.URL,
		AuthorID:  authorID,
		CreatedAt: now,
		HotRank:   ranking.Hot(0, now),
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Reload with user information
	h.db.Preload("User").First(&post, post.ID)

	// fire-and-forget search indexing
	h.indexer.PostCreated(post)

	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID := c.Param("id")

	currentUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find the post
	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	// Check ownership
	if post.AuthorID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own posts"})
		return
	}

	// Update fields
	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Body != "" {
		post.Body = input.Body
	}

	h.db.Save(&post)
	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post with its comments and votes (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")

	currentUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Find the post
	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	// Check ownership
	if post.AuthorID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// VotePost changes the caller's vote on a post (PROTECTED - requires authentication)
func (h *PostHandler) VotePost(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	var input struct {
		Value *int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || *input.Value < -1 || *input.Value > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be -1, 0 or 1"})
		return
	}

	res, err := h.processor.Apply(c.Request.Context(), voterID, models.PostTarget(postID), *input.Value)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetUserPosts returns all posts by a specific user
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID := c.Param("id")
	var posts []models.Post

	if err := h.db.Preload("User").Where("author_id = ?", userID).Order("created_at desc").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}
