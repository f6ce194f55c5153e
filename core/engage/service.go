package engage

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/user"
)

var (
	// errors
	ErrCommentNotFound  = core.NewNotFoundError("comment")
	ErrReactionNotFound = core.NewNotFoundError("reaction")
	ErrFollowNotFound   = core.NewNotFoundError("follow")
	ErrAlreadyFollowing = errors.New("you are already following this user")
	// ErrReactionExists is returned by repositories when an insert hits the
	// one-reaction-per-(video,user) constraint. The toggle treats it as
	// "already in that state", never as a failure.
	ErrReactionExists = errors.New("reaction already exists")
)

type (
	Repository interface {
		CreateComment(ctx context.Context, cmt Comment) (Comment, error)
		QueryAllComments(ctx context.Context) ([]Comment, error)
		QueryCommentsByVideo(ctx context.Context, videoID string) ([]Comment, error)
		QueryCommentsByAuthor(ctx context.Context, authorID string) ([]Comment, error)
		GetCommentByID(ctx context.Context, id string) (Comment, error)
		UpdateComment(ctx context.Context, cmt Comment) (Comment, error)
		DeleteComment(ctx context.Context, id string) error

		GetReaction(ctx context.Context, videoID, userID string) (Reaction, error)
		CreateReaction(ctx context.Context, r Reaction) (Reaction, error)
		// UpdateReaction rewrites the row in place; switching kind is a
		// single-row update, not a delete+insert.
		UpdateReaction(ctx context.Context, r Reaction) (Reaction, error)
		DeleteReaction(ctx context.Context, id string) error
		QueryReactionsByVideo(ctx context.Context, videoID string, kind ReactionKind) ([]Reaction, error)
		CountReactionsByUser(ctx context.Context, userID string, kind ReactionKind) (int, error)

		CreateFollow(ctx context.Context, f Follow) (Follow, error)
		GetFollowByID(ctx context.Context, id string) (Follow, error)
		GetFollowByPair(ctx context.Context, followerID, followedID string) (Follow, error)
		// QueryFollowersOfUser joins follows with the followers' identities,
		// oldest follow first.
		QueryFollowersOfUser(ctx context.Context, userID string) ([]Follower, error)
		DeleteFollow(ctx context.Context, id string) error
	}

	// UserGetter resolves user identities for follow checks and fan-out.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	// VideoGetter confirms reaction/comment targets exist. The course
	// repository satisfies it directly, which keeps construction acyclic:
	// the engagement service feeds the course service its follower
	// directory, never the other way around.
	VideoGetter interface {
		GetVideoByID(ctx context.Context, id string) (course.Video, error)
	}

	Service interface {
		core.FollowerDirectory

		CreateComment(ctx context.Context, actor core.Actor, nc NewComment) (Comment, error)
		QueryComments(ctx context.Context) ([]Comment, error)
		CommentsByVideo(ctx context.Context, videoID string) ([]Comment, error)
		CommentsByAuthor(ctx context.Context, authorID string) ([]Comment, error)
		GetComment(ctx context.Context, id string) (Comment, error)
		UpdateUserComment(ctx context.Context, actor core.Actor, id string, uc UpdateComment) (Comment, error)
		DeleteUserComment(ctx context.Context, actor core.Actor, id string) error

		ToggleLike(ctx context.Context, actor core.Actor, videoID string) (ToggleResult, error)
		ToggleDislike(ctx context.Context, actor core.Actor, videoID string) (ToggleResult, error)
		VideoReactions(ctx context.Context, videoID string, kind ReactionKind) ([]Reaction, error)
		ReactionCountByUser(ctx context.Context, userID string, kind ReactionKind) (int, error)

		Follow(ctx context.Context, actor core.Actor, nf NewFollow) (Follow, error)
		Unfollow(ctx context.Context, actor core.Actor, followID string) error
		Followers(ctx context.Context, userID string) ([]FollowerInfo, error)
	}

	service struct {
		repo   Repository
		users  UserGetter
		videos VideoGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users UserGetter, videos VideoGetter) *service {
	return &service{
		repo:   repo,
		users:  users,
		videos: videos,
	}
}

// Comments

func (svc *service) CreateComment(ctx context.Context, actor core.Actor, nc NewComment) (Comment, error) {
	if _, err := svc.videos.GetVideoByID(ctx, nc.VideoID); err != nil {
		return Comment{}, err
	}

	cmt := Comment{
		VideoID:   nc.VideoID,
		Content:   nc.Content,
		CreatedAt: time.Now().UTC(),
	}
	cmt.AuthorID.SetValid(actor.ID)
	return svc.repo.CreateComment(ctx, cmt)
}

func (svc *service) QueryComments(ctx context.Context) ([]Comment, error) {
	return svc.repo.QueryAllComments(ctx)
}

func (svc *service) CommentsByVideo(ctx context.Context, videoID string) ([]Comment, error) {
	return svc.repo.QueryCommentsByVideo(ctx, videoID)
}

func (svc *service) CommentsByAuthor(ctx context.Context, authorID string) ([]Comment, error) {
	return svc.repo.QueryCommentsByAuthor(ctx, authorID)
}

func (svc *service) GetComment(ctx context.Context, id string) (Comment, error) {
	return svc.repo.GetCommentByID(ctx, id)
}

// UpdateUserComment lets only the comment's author edit it; superusers get
// no bypass here.
func (svc *service) UpdateUserComment(ctx context.Context, actor core.Actor, id string, uc UpdateComment) (Comment, error) {
	cmt, err := svc.repo.GetCommentByID(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	if !actor.Is(cmt.AuthorID.String) {
		return Comment{}, core.ErrPermissionDenied
	}

	cmt.Content = uc.Content
	return svc.repo.UpdateComment(ctx, cmt)
}

func (svc *service) DeleteUserComment(ctx context.Context, actor core.Actor, id string) error {
	cmt, err := svc.repo.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Is(cmt.AuthorID.String) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteComment(ctx, id)
}

// Reactions

// ToggleLike drives the per-(video,user) reaction state machine:
// Neutral -> Liked (created), Liked -> Neutral (removed),
// Disliked -> Liked (created; the dislike is silently cleared).
func (svc *service) ToggleLike(ctx context.Context, actor core.Actor, videoID string) (ToggleResult, error) {
	return svc.toggle(ctx, actor, videoID, KindLike)
}

// ToggleDislike is the mirror of ToggleLike.
func (svc *service) ToggleDislike(ctx context.Context, actor core.Actor, videoID string) (ToggleResult, error) {
	return svc.toggle(ctx, actor, videoID, KindDislike)
}

func (svc *service) toggle(ctx context.Context, actor core.Actor, videoID string, kind ReactionKind) (ToggleResult, error) {
	if _, err := svc.videos.GetVideoByID(ctx, videoID); err != nil {
		return ToggleResult{}, err
	}

	existing, err := svc.repo.GetReaction(ctx, videoID, actor.ID)
	switch {
	case err == ErrReactionNotFound:
		return svc.createReaction(ctx, actor, videoID, kind)
	case err != nil:
		return ToggleResult{}, err
	}

	if existing.Kind == kind {
		// same state again: back to neutral
		if err = svc.repo.DeleteReaction(ctx, existing.ID); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Created: false}, nil
	}

	// opposite state: switch over
	existing.Kind = kind
	existing.CreatedAt = time.Now().UTC()
	r, err := svc.repo.UpdateReaction(ctx, existing)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Created: true, Reaction: r}, nil
}

func (svc *service) createReaction(ctx context.Context, actor core.Actor, videoID string, kind ReactionKind) (ToggleResult, error) {
	r, err := svc.repo.CreateReaction(ctx, Reaction{
		VideoID:   videoID,
		UserID:    actor.ID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	})
	if err == ErrReactionExists {
		// lost a race against a concurrent toggle; whoever won, a row for
		// this pair now exists and that is the state we report
		if r, err = svc.repo.GetReaction(ctx, videoID, actor.ID); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Created: true, Reaction: r}, nil
	}
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Created: true, Reaction: r}, nil
}

func (svc *service) VideoReactions(ctx context.Context, videoID string, kind ReactionKind) ([]Reaction, error) {
	return svc.repo.QueryReactionsByVideo(ctx, videoID, kind)
}

func (svc *service) ReactionCountByUser(ctx context.Context, userID string, kind ReactionKind) (int, error) {
	return svc.repo.CountReactionsByUser(ctx, userID, kind)
}

// Follows

// Follow makes the actor a follower of the given user. Following the same
// user twice is a conflict. Following yourself is allowed; it only makes
// you a recipient of your own fan-outs.
func (svc *service) Follow(ctx context.Context, actor core.Actor, nf NewFollow) (Follow, error) {
	if _, err := svc.users.GetByID(ctx, nf.FollowedID); err != nil {
		return Follow{}, err
	}

	if _, err := svc.repo.GetFollowByPair(ctx, actor.ID, nf.FollowedID); err == nil {
		return Follow{}, ErrAlreadyFollowing
	} else if err != ErrFollowNotFound {
		return Follow{}, err
	}

	return svc.repo.CreateFollow(ctx, Follow{
		FollowerID: actor.ID,
		FollowedID: nf.FollowedID,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *service) Unfollow(ctx context.Context, actor core.Actor, followID string) error {
	f, err := svc.repo.GetFollowByID(ctx, followID)
	if err != nil {
		return err
	}
	if !actor.Is(f.FollowerID) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteFollow(ctx, followID)
}

func (svc *service) Followers(ctx context.Context, userID string) ([]FollowerInfo, error) {
	followers, err := svc.repo.QueryFollowersOfUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]FollowerInfo, 0, len(followers))
	for _, f := range followers {
		infos = append(infos, FollowerInfo{Username: f.Username})
	}
	return infos, nil
}

// FollowerEmails implements core.FollowerDirectory for notification fan-out.
func (svc *service) FollowerEmails(ctx context.Context, userID string) ([]mail.Address, error) {
	followers, err := svc.repo.QueryFollowersOfUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	addrs := make([]mail.Address, 0, len(followers))
	for _, f := range followers {
		addrs = append(addrs, mail.Address{Name: f.Username, Address: f.Email})
	}
	return addrs, nil
}
