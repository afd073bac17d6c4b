package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nafishasalsabil/reddit-clone/internal/apperr"
	"github.com/nafishasalsabil/reddit-clone/internal/models"
	"github.com/nafishasalsabil/reddit-clone/internal/votes"
)

type VoteHandler struct {
	processor *votes.Processor
	resolver  *votes.Resolver
}

func NewVoteHandler(processor *votes.Processor, resolver *votes.Resolver) *VoteHandler {
	return &VoteHandler{processor: processor, resolver: resolver}
}

// Vote is the generic vote endpoint: one call for posts and comments.
// Value 0 retracts the caller's vote.
func (h *VoteHandler) Vote(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		TargetType string `json:"target_type" binding:"required"`
		TargetID   int    `json:"target_id" binding:"required"`
		Value      *int   `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote payload"})
		return
	}
	if *input.Value < -1 || *input.Value > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be -1, 0 or 1"})
		return
	}

	target, err := h.resolver.Resolve(c.Request.Context(), models.TargetType(input.TargetType), input.TargetID)
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
