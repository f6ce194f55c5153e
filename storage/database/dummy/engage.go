package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kursly/backend/core/engage"
)

type engageRepository struct {
	db *DB
}

var _ engage.Repository = (*engageRepository)(nil) // interface compliance check

func NewEngageRepository(db *DB) *engageRepository {
	return &engageRepository{db: db}
}

// Comments

func (repo *engageRepository) queryComments() []engage.Comment {
	comments := make([]engage.Comment, 0, len(repo.db.comments))
	for _, c := range repo.db.comments {
		comments = append(comments, *c)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return comments
}

func (repo *engageRepository) CreateComment(ctx context.Context, cmt engage.Comment) (engage.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cmt.ID = uuid.New().String()
	repo.db.comments[cmt.ID] = &cmt
	return cmt, nil
}

func (repo *engageRepository) QueryAllComments(ctx context.Context) ([]engage.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryComments(), nil
}

func (repo *engageRepository) QueryCommentsByVideo(ctx context.Context, videoID string) ([]engage.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var comments []engage.Comment
	for _, c := range repo.queryComments() {
		if c.VideoID == videoID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (repo *engageRepository) QueryCommentsByAuthor(ctx context.Context, authorID string) ([]engage.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var comments []engage.Comment
	for _, c := range repo.queryComments() {
		if c.AuthorID.Valid && c.AuthorID.String == authorID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (repo *engageRepository) GetCommentByID(ctx context.Context, id string) (engage.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cmt, ok := repo.db.comments[id]; ok {
		return *cmt, nil
	}
	return engage.Comment{}, engage.ErrCommentNotFound
}

func (repo *engageRepository) UpdateComment(ctx context.Context, cmt engage.Comment) (engage.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.comments[cmt.ID]; !ok {
		return engage.Comment{}, engage.ErrCommentNotFound
	}
	repo.db.comments[cmt.ID] = &cmt
	return cmt, nil
}

func (repo *engageRepository) DeleteComment(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.comments, id)
	return nil
}

// Reactions

func (repo *engageRepository) GetReaction(ctx context.Context, videoID, userID string) (engage.Reaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.getReaction(videoID, userID)
}

// getReaction requires the caller to hold at least the read lock.
func (repo *engageRepository) getReaction(videoID, userID string) (engage.Reaction, error) {
	for _, r := range repo.db.reactions {
		if r.VideoID == videoID && r.UserID == userID {
			return *r, nil
		}
	}
	return engage.Reaction{}, engage.ErrReactionNotFound
}

func (repo *engageRepository) CreateReaction(ctx context.Context, r engage.Reaction) (engage.Reaction, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// one row per (video, user), like the DB constraint
	if _, err := repo.getReaction(r.VideoID, r.UserID); err == nil {
		return engage.Reaction{}, engage.ErrReactionExists
	}

	r.ID = uuid.New().String()
	repo.db.reactions[r.ID] = &r
	return r, nil
}

func (repo *engageRepository) UpdateReaction(ctx context.Context, r engage.Reaction) (engage.Reaction, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.reactions[r.ID]; !ok {
		return engage.Reaction{}, engage.ErrReactionNotFound
	}
	repo.db.reactions[r.ID] = &r
	return r, nil
}

func (repo *engageRepository) DeleteReaction(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.reactions, id)
	return nil
}

func (repo *engageRepository) QueryReactionsByVideo(ctx context.Context, videoID string, kind engage.ReactionKind) ([]engage.Reaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reactions []engage.Reaction
	for _, r := range repo.db.reactions {
		if r.VideoID == videoID && r.Kind == kind {
			reactions = append(reactions, *r)
		}
	}
	sort.Slice(reactions, func(i, j int) bool { return reactions[i].CreatedAt.After(reactions[j].CreatedAt) })
	return reactions, nil
}

func (repo *engageRepository) CountReactionsByUser(ctx context.Context, userID string, kind engage.ReactionKind) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, r := range repo.db.reactions {
		if r.UserID == userID && r.Kind == kind {
			count++
		}
	}
	return count, nil
}

// Follows

func (repo *engageRepository) CreateFollow(ctx context.Context, f engage.Follow) (engage.Follow, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.follows {
		if existing.FollowerID == f.FollowerID && existing.FollowedID == f.FollowedID {
			return engage.Follow{}, engage.ErrAlreadyFollowing
		}
	}

	f.ID = uuid.New().String()
	repo.db.follows[f.ID] = &f
	return f, nil
}

func (repo *engageRepository) GetFollowByID(ctx context.Context, id string) (engage.Follow, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.follows[id]; ok {
		return *f, nil
	}
	return engage.Follow{}, engage.ErrFollowNotFound
}

func (repo *engageRepository) GetFollowByPair(ctx context.Context, followerID, followedID string) (engage.Follow, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, f := range repo.db.follows {
		if f.FollowerID == followerID && f.FollowedID == followedID {
			return *f, nil
		}
	}
	return engage.Follow{}, engage.ErrFollowNotFound
}

func (repo *engageRepository) QueryFollowersOfUser(ctx context.Context, userID string) ([]engage.Follower, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var followers []engage.Follower
	for _, f := range repo.db.follows {
		if f.FollowedID != userID {
			continue
		}
		usr, ok := repo.db.users[f.FollowerID]
		if !ok {
			continue // follower deleted, FK would have cascaded
		}
		followers = append(followers, engage.Follower{
			Username:  usr.Username,
			Email:     usr.Email,
			CreatedAt: f.CreatedAt,
		})
	}
	sort.Slice(followers, func(i, j int) bool { return followers[i].CreatedAt.Before(followers[j].CreatedAt) })
	return followers, nil
}

func (repo *engageRepository) DeleteFollow(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.follows, id)
	return nil
}
