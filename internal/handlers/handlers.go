package handlers

import (
	"gorm.io/gorm"

	"github.com/nafishasalsabil/reddit-clone/internal/search"
	"github.com/nafishasalsabil/reddit-clone/internal/stream"
	"github.com/nafishasalsabil/reddit-clone/internal/votes"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
	Vote    *VoteHandler
	Stream  *StreamHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, processor *votes.Processor, resolver *votes.Resolver, hub *stream.Hub, indexer *search.Indexer) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(db),
		Post:    NewPostHandler(db, processor, indexer),
		Comment: NewCommentHandler(db, processor, resolver, hub),
		User:    NewUserHandler(db),
		Vote:    NewVoteHandler(processor, resolver),
		Stream:  NewStreamHandler(hub, resolver),
	}
}
