package engage

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kursly/backend/core"
)

type Comment struct {
	ID        string      `json:"id"`
	VideoID   string      `json:"video"`
	AuthorID  null.String `json:"author"` // null once the author is deleted
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

// ReactionKind tags the single reaction row a user may hold on a video.
type ReactionKind string

const (
	KindLike    ReactionKind = "like"
	KindDislike ReactionKind = "dislike"
)

// Reaction is a user's reaction to a video. Storage enforces at most one
// row per (video, user) pair, which makes a simultaneous like+dislike
// impossible by construction.
type Reaction struct {
	ID        string       `json:"id"`
	VideoID   string       `json:"video"`
	UserID    string       `json:"user"`
	Kind      ReactionKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

// ToggleResult reports the outcome of a reaction toggle: the created
// reaction, or a removal (back to neutral).
type ToggleResult struct {
	Created  bool
	Reaction Reaction
}

type Follow struct {
	ID         string    `json:"id"`
	FollowerID string    `json:"follower"`
	FollowedID string    `json:"followed_user"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowerInfo is the public identity of a follower, as exposed by the
// profile detail aggregate.
type FollowerInfo struct {
	Username string `json:"username"`
}

// Follower is a follow row joined with the follower's identity, so that
// listings and fan-out resolve followers in a single repository query.
type Follower struct {
	Username  string
	Email     string
	CreatedAt time.Time // follow time, UTC
}

type NewComment struct {
	VideoID string `json:"video" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}

type UpdateComment struct {
	Content string `json:"content" validate:"required"`
}

func (uc *UpdateComment) Validate(validate *validator.Validate) error {
	uc.Content = core.CleanString(uc.Content)
	return validate.Struct(uc)
}

type NewFollow struct {
	FollowedID string `json:"followed_user" validate:"required"`
}

func (nf *NewFollow) Validate(validate *validator.Validate) error {
	return validate.Struct(nf)
}
