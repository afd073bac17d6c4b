package models

import "time"

type Post struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Body         string    `json:"body,omitempty"`
	URL          string    `json:"url,omitempty"`
	AuthorID     int       `json:"author_id"`
	Score        int64     `gorm:"default:0" json:"score"`
	HotRank      float64   `gorm:"default:0;index" json:"hot_rank"`
	CommentCount int       `gorm:"default:0" json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	User         User      `gorm:"foreignKey:AuthorID" json:"user"`
}

type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}
