package sqlxrepos

import (
	"context"
	"database/sql"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kursly/backend/core/user"
)

const uniqueViolation = "23505"

// trapNoRowsErr maps psql "no rows" err to the domain's NotFound sentinel
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

type userRow struct {
	ID           string       `db:"id"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	IsSuperuser  bool         `db:"is_superuser"`
	IsActive     bool         `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    null.Time    `db:"last_login"`
}

func (r userRow) model() user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		IsSuperuser:  r.IsSuperuser,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func packUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		IsSuperuser:  usr.IsSuperuser,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func unpackUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.model())
	}
	return users
}

type profileRow struct {
	ID       string      `db:"id"`
	UserID   string      `db:"user_id"`
	FullName string      `db:"fullname"`
	Address  null.String `db:"address"`
	Avatar   null.String `db:"avatar"`
}

func (r profileRow) model() user.Profile {
	return user.Profile{
		ID:       r.ID,
		UserID:   r.UserID,
		FullName: r.FullName,
		Address:  r.Address,
		Avatar:   r.Avatar,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM "user" WHERE username = ? OR email = ?`
	args := []interface{}{username, email}

	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		inQuery, inArgs, err := sqlx.In(query+" AND id NOT IN (?)", username, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query, args = inQuery, inArgs
	}

	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.SelectContext(ctx, &taken, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, t := range taken {
		if t.Username == username {
			return user.ErrUsernameExists
		}
		if t.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := packUser(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (id, username, email, is_superuser, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :username, :email, :is_superuser, :is_active, :password_hash, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "user_username_key"):
			return user.User{}, user.ErrUsernameExists
		case isUniqueViolation(err, "user_email_key"):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.model(), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "user" ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return unpackUsers(rows), nil
}

func (repo userRepository) AllUserEmails(ctx context.Context) ([]mail.Address, error) {
	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.SelectContext(ctx, &rows, `SELECT username, email FROM "user"`); err != nil {
		return nil, errors.Wrap(err, "querying user emails")
	}

	addrs := make([]mail.Address, 0, len(rows))
	for _, r := range rows {
		addrs = append(addrs, mail.Address{Name: r.Username, Address: r.Email})
	}
	return addrs, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.model(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE username = $1 OR email = $1`, username)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.model(), nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	query := `SELECT * FROM "user" WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		query += ` AND (username ILIKE ? OR email ILIKE ?)`
		args = append(args, val, val)
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += ` AND is_active = ?`
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom.UTC())
		query += ` AND created_at >= ?`
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo.UTC())
		query += ` AND created_at <= ?`
	}
	query += ` ORDER BY created_at DESC`

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return unpackUsers(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive, isSuperuser *bool) (user.User, error) {
	orig, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
	}

	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if len(usr.PasswordHash) > 0 {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if isSuperuser != nil {
		orig.IsSuperuser = *isSuperuser
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	orig.UpdatedAt = usr.UpdatedAt

	row := packUser(orig)
	_, err = repo.db.NamedExecContext(ctx, `
		UPDATE "user"
		SET username = :username, email = :email, is_superuser = :is_superuser, is_active = :is_active,
		    password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		row,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "user_username_key"):
			return user.User{}, user.ErrUsernameExists
		case isUniqueViolation(err, "user_email_key"):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.model(), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

// Profiles

func (repo userRepository) CreateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	prof.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO profile (id, user_id, fullname, address, avatar)
		VALUES ($1, $2, $3, $4, $5)`,
		prof.ID, prof.UserID, prof.FullName, prof.Address, prof.Avatar,
	)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return prof, nil
}

func (repo userRepository) QueryAllProfiles(ctx context.Context) ([]user.Profile, error) {
	var rows []profileRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM profile`); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}

	profs := make([]user.Profile, 0, len(rows))
	for _, r := range rows {
		profs = append(profs, r.model())
	}
	return profs, nil
}

func (repo userRepository) GetProfileByID(ctx context.Context, id string) (user.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM profile WHERE id = $1`, id); err != nil {
		return user.Profile{}, trapNoRowsErr(err, user.ErrProfileNotFound, "getting profile")
	}
	return row.model(), nil
}

func (repo userRepository) GetProfileByUserID(ctx context.Context, userID string) (user.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM profile WHERE user_id = $1`, userID); err != nil {
		return user.Profile{}, trapNoRowsErr(err, user.ErrProfileNotFound, "getting profile")
	}
	return row.model(), nil
}

func (repo userRepository) UpdateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE profile SET fullname = $2, address = $3, avatar = $4 WHERE id = $1`,
		prof.ID, prof.FullName, prof.Address, prof.Avatar,
	)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "updating profile")
	}
	return prof, nil
}

func (repo userRepository) DeleteProfile(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM profile WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	return nil
}
