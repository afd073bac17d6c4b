package models

import "fmt"

// TargetType discriminates what a vote points at.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// Valid reports whether t is one of the two known target types.
func (t TargetType) Valid() bool {
	return t == TargetPost || t == TargetComment
}

// Target identifies a votable entity. For comments PostID carries the
// parent post so the aggregate can be addressed without caller-supplied
// context; for posts PostID == ID.
type Target struct {
	Type   TargetType `json:"type"`
	ID     int        `json:"id"`
	PostID int        `json:"post_id"`
}

func PostTarget(id int) Target {
	return Target{Type: TargetPost, ID: id, PostID: id}
}

func CommentTarget(postID, id int) Target {
	return Target{Type: TargetComment, ID: id, PostID: postID}
}

// Key returns the stable "{type}_{id}" form used for rate-limit and
// subscription keys.
func (t Target) Key() string {
	return fmt.Sprintf("%s_%d", t.Type, t.ID)
}
