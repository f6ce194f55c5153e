package dummydb

import (
	"context"
	"net/mail"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kursly/backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) AllUserEmails(ctx context.Context) ([]mail.Address, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	addrs := make([]mail.Address, 0, len(repo.db.users))
	for _, usr := range repo.query() {
		addrs = append(addrs, mail.Address{Name: usr.Username, Address: usr.Email})
	}
	return addrs, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()

	if filter.Search != "" {
		var filtered []user.User
		search := strings.ToLower(filter.Search)
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Username), search) ||
				strings.Contains(strings.ToLower(u.Email), search) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && filter.IsActive != nil {
		var filtered []user.User
		for _, u := range users {
			if u.IsActive == *filter.IsActive {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedFrom.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedFrom.UTC()
		for _, u := range users {
			if u.CreatedAt.Equal(timeUTC) || u.CreatedAt.After(timeUTC) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedTo.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedTo.UTC()
		for _, u := range users {
			if u.CreatedAt.Before(timeUTC) || u.CreatedAt.Equal(timeUTC) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive, isSuperuser *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if isSuperuser != nil {
		origUsr.IsSuperuser = *isSuperuser
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}
	origUsr.UpdatedAt = usr.UpdatedAt

	return *origUsr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)

		// authored content survives with a null author ref
		for _, crs := range repo.db.courses {
			if crs.AuthorID.String == id {
				crs.AuthorID.Valid = false
				crs.AuthorID.String = ""
			}
		}
		for _, lsn := range repo.db.lessons {
			if lsn.AuthorID.String == id {
				lsn.AuthorID.Valid = false
				lsn.AuthorID.String = ""
			}
		}
		for _, vid := range repo.db.videos {
			if vid.AuthorID.String == id {
				vid.AuthorID.Valid = false
				vid.AuthorID.String = ""
			}
		}
		for _, cmt := range repo.db.comments {
			if cmt.AuthorID.String == id {
				cmt.AuthorID.Valid = false
				cmt.AuthorID.String = ""
			}
		}

		// personal records go down with the user
		for pid, prof := range repo.db.profiles {
			if prof.UserID == id {
				delete(repo.db.profiles, pid)
			}
		}
		for rid, r := range repo.db.reactions {
			if r.UserID == id {
				delete(repo.db.reactions, rid)
			}
		}
		for fid, f := range repo.db.follows {
			if f.FollowerID == id || f.FollowedID == id {
				delete(repo.db.follows, fid)
			}
		}
	}
	return nil
}

// Profiles

func (repo *userRepository) CreateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prof.ID = uuid.New().String()
	repo.db.profiles[prof.ID] = &prof
	return prof, nil
}

func (repo *userRepository) QueryAllProfiles(ctx context.Context) ([]user.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profs := make([]user.Profile, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		profs = append(profs, *p)
	}
	return profs, nil
}

func (repo *userRepository) GetProfileByID(ctx context.Context, id string) (user.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prof, ok := repo.db.profiles[id]; ok {
		return *prof, nil
	}
	return user.Profile{}, user.ErrProfileNotFound
}

func (repo *userRepository) GetProfileByUserID(ctx context.Context, userID string) (user.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prof := range repo.db.profiles {
		if prof.UserID == userID {
			return *prof, nil
		}
	}
	return user.Profile{}, user.ErrProfileNotFound
}

func (repo *userRepository) UpdateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.profiles[prof.ID]; !ok {
		return user.Profile{}, user.ErrProfileNotFound
	}
	repo.db.profiles[prof.ID] = &prof
	return prof, nil
}

func (repo *userRepository) DeleteProfile(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.profiles, id)
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}
