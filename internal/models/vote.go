package models

import "time"

// Vote model - the per-(user, target) ledger entry. Value is -1 or +1;
// retracting to neutral deletes the row, so "no row" means value 0.
// PostID is filled for comment votes too, carrying the parent post.
type Vote struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	UserID     int        `gorm:"uniqueIndex:idx_votes_user_target" json:"user_id"`
	TargetType TargetType `gorm:"uniqueIndex:idx_votes_user_target;size:16" json:"target_type"`
	TargetID   int        `gorm:"uniqueIndex:idx_votes_user_target" json:"target_id"`
	PostID     int        `json:"post_id"`
	Value      int        `json:"value"` // -1 or 1
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
