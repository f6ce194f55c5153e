package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kursly/backend/core/engage"
)

type commentRow struct {
	ID        string      `db:"id"`
	VideoID   string      `db:"video_id"`
	AuthorID  null.String `db:"author_id"`
	Content   string      `db:"content"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r commentRow) model() engage.Comment {
	return engage.Comment{
		ID:        r.ID,
		VideoID:   r.VideoID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

func unpackComments(rows []commentRow) []engage.Comment {
	comments := make([]engage.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.model())
	}
	return comments
}

type reactionRow struct {
	ID        string    `db:"id"`
	VideoID   string    `db:"video_id"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	CreatedAt time.Time `db:"created_at"`
}

func (r reactionRow) model() engage.Reaction {
	return engage.Reaction{
		ID:        r.ID,
		VideoID:   r.VideoID,
		UserID:    r.UserID,
		Kind:      engage.ReactionKind(r.Kind),
		CreatedAt: r.CreatedAt,
	}
}

type followRow struct {
	ID         string    `db:"id"`
	FollowerID string    `db:"follower_id"`
	FollowedID string    `db:"followed_id"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r followRow) model() engage.Follow {
	return engage.Follow{
		ID:         r.ID,
		FollowerID: r.FollowerID,
		FollowedID: r.FollowedID,
		CreatedAt:  r.CreatedAt,
	}
}

// followerRow is the follow/user join used by QueryFollowersOfUser.
type followerRow struct {
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

type engageRepository struct {
	db *sqlx.DB
}

var _ engage.Repository = (*engageRepository)(nil) // interface compliance check

func NewEngageRepository(db *sqlx.DB) *engageRepository {
	return &engageRepository{db: db}
}

// Comments

func (repo engageRepository) CreateComment(ctx context.Context, cmt engage.Comment) (engage.Comment, error) {
	cmt.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO comment (id, video_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		cmt.ID, cmt.VideoID, cmt.AuthorID, cmt.Content, cmt.CreatedAt.UTC(),
	)
	if err != nil {
		return engage.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return cmt, nil
}

func (repo engageRepository) QueryAllComments(ctx context.Context) ([]engage.Comment, error) {
	var rows []commentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM comment ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	return unpackComments(rows), nil
}

func (repo engageRepository) QueryCommentsByVideo(ctx context.Context, videoID string) ([]engage.Comment, error) {
	var rows []commentRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM comment WHERE video_id = $1 ORDER BY created_at DESC`, videoID)
	if err != nil {
		return nil, errors.Wrap(err, "querying comments by video")
	}
	return unpackComments(rows), nil
}

func (repo engageRepository) QueryCommentsByAuthor(ctx context.Context, authorID string) ([]engage.Comment, error) {
	var rows []commentRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM comment WHERE author_id = $1 ORDER BY created_at DESC`, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying comments by author")
	}
	return unpackComments(rows), nil
}

func (repo engageRepository) GetCommentByID(ctx context.Context, id string) (engage.Comment, error) {
	var row commentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM comment WHERE id = $1`, id); err != nil {
		return engage.Comment{}, trapNoRowsErr(err, engage.ErrCommentNotFound, "getting comment")
	}
	return row.model(), nil
}

func (repo engageRepository) UpdateComment(ctx context.Context, cmt engage.Comment) (engage.Comment, error) {
	_, err := repo.db.ExecContext(ctx, `UPDATE comment SET content = $2 WHERE id = $1`, cmt.ID, cmt.Content)
	if err != nil {
		return engage.Comment{}, errors.Wrap(err, "updating comment")
	}
	return cmt, nil
}

func (repo engageRepository) DeleteComment(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM comment WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return nil
}

// Reactions

func (repo engageRepository) GetReaction(ctx context.Context, videoID, userID string) (engage.Reaction, error) {
	var row reactionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM reaction WHERE video_id = $1 AND user_id = $2`, videoID, userID)
	if err != nil {
		return engage.Reaction{}, trapNoRowsErr(err, engage.ErrReactionNotFound, "getting reaction")
	}
	return row.model(), nil
}

func (repo engageRepository) CreateReaction(ctx context.Context, r engage.Reaction) (engage.Reaction, error) {
	r.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO reaction (id, video_id, user_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.VideoID, r.UserID, string(r.Kind), r.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "reaction_video_user_key") {
			return engage.Reaction{}, engage.ErrReactionExists
		}
		return engage.Reaction{}, errors.Wrap(err, "inserting reaction")
	}
	return r, nil
}

func (repo engageRepository) UpdateReaction(ctx context.Context, r engage.Reaction) (engage.Reaction, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE reaction SET kind = $2, created_at = $3 WHERE id = $1`,
		r.ID, string(r.Kind), r.CreatedAt.UTC(),
	)
	if err != nil {
		return engage.Reaction{}, errors.Wrap(err, "updating reaction")
	}
	return r, nil
}

func (repo engageRepository) DeleteReaction(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM reaction WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting reaction")
	}
	return nil
}

func (repo engageRepository) QueryReactionsByVideo(ctx context.Context, videoID string, kind engage.ReactionKind) ([]engage.Reaction, error) {
	var rows []reactionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM reaction WHERE video_id = $1 AND kind = $2 ORDER BY created_at DESC`, videoID, string(kind))
	if err != nil {
		return nil, errors.Wrap(err, "querying reactions by video")
	}

	reactions := make([]engage.Reaction, 0, len(rows))
	for _, r := range rows {
		reactions = append(reactions, r.model())
	}
	return reactions, nil
}

func (repo engageRepository) CountReactionsByUser(ctx context.Context, userID string, kind engage.ReactionKind) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM reaction WHERE user_id = $1 AND kind = $2`, userID, string(kind))
	if err != nil {
		return 0, errors.Wrap(err, "counting reactions by user")
	}
	return count, nil
}

// Follows

func (repo engageRepository) CreateFollow(ctx context.Context, f engage.Follow) (engage.Follow, error) {
	f.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO follow (id, follower_id, followed_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		f.ID, f.FollowerID, f.FollowedID, f.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "follow_pair_key") {
			return engage.Follow{}, engage.ErrAlreadyFollowing
		}
		return engage.Follow{}, errors.Wrap(err, "inserting follow")
	}
	return f, nil
}

func (repo engageRepository) GetFollowByID(ctx context.Context, id string) (engage.Follow, error) {
	var row followRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM follow WHERE id = $1`, id); err != nil {
		return engage.Follow{}, trapNoRowsErr(err, engage.ErrFollowNotFound, "getting follow")
	}
	return row.model(), nil
}

func (repo engageRepository) GetFollowByPair(ctx context.Context, followerID, followedID string) (engage.Follow, error) {
	var row followRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM follow WHERE follower_id = $1 AND followed_id = $2`, followerID, followedID)
	if err != nil {
		return engage.Follow{}, trapNoRowsErr(err, engage.ErrFollowNotFound, "getting follow")
	}
	return row.model(), nil
}

func (repo engageRepository) QueryFollowersOfUser(ctx context.Context, userID string) ([]engage.Follower, error) {
	var rows []followerRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT u.username, u.email, f.created_at
		FROM follow f
		JOIN "user" u ON u.id = f.follower_id
		WHERE f.followed_id = $1
		ORDER BY f.created_at ASC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying followers")
	}

	followers := make([]engage.Follower, 0, len(rows))
	for _, r := range rows {
		followers = append(followers, engage.Follower{
			Username:  r.Username,
			Email:     r.Email,
			CreatedAt: r.CreatedAt,
		})
	}
	return followers, nil
}

func (repo engageRepository) DeleteFollow(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM follow WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting follow")
	}
	return nil
}
