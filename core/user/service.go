package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/kursly/backend/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("user")
	ErrProfileNotFound = core.NewNotFoundError("profile")
	ErrUsernameExists  = errors.New("a user with this username already exists")
	ErrEmailExists     = errors.New("a user with this email already exists")

	welcomeSubject = "Welcome to the world of online courses"
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		// AllUserEmails returns the email address of every registered user.
		AllUserEmails(ctx context.Context) ([]mail.Address, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on User.Username or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive, isSuperuser *bool) (User, error)
		// DeleteUsersByID removes users; authored content survives with its
		// author reference set to null.
		DeleteUsersByID(ctx context.Context, ids ...string) error

		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		QueryAllProfiles(ctx context.Context) ([]Profile, error)
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		GetProfileByUserID(ctx context.Context, userID string) (Profile, error)
		UpdateProfile(ctx context.Context, prof Profile) (Profile, error)
		DeleteProfile(ctx context.Context, id string) error
	}

	Service interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		AllEmails(ctx context.Context) ([]mail.Address, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Filter(ctx context.Context, filter QueryFilter) ([]User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		Delete(ctx context.Context, ids ...string) error

		QueryProfiles(ctx context.Context) ([]Profile, error)
		GetProfile(ctx context.Context, id string) (Profile, error)
		GetProfileByUserID(ctx context.Context, userID string) (Profile, error)
		UpdateUserProfile(ctx context.Context, actor core.Actor, id string, up UpdateProfile) (Profile, error)
		DeleteUserProfile(ctx context.Context, actor core.Actor, id string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates the User, attaches an empty Profile and greets the new
// user by email. The welcome mail is fire-and-forget.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if _, err = svc.repo.CreateProfile(ctx, Profile{UserID: usr.ID}); err != nil {
		return User{}, errors.Wrap(err, "creating profile")
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject: welcomeSubject,
		BodyStr: fmt.Sprintf("Hi %s, we are glad you signed up on our platform.", usr.Username),
	})
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) AllEmails(ctx context.Context) ([]mail.Address, error) {
	return svc.repo.AllUserEmails(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, User{ID: usr.ID, LastLogin: usr.LastLogin, UpdatedAt: usr.UpdatedAt}, nil, nil)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Username:  uu.Username,
		Email:     uu.Email,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive, uu.IsSuperuser)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *service) QueryProfiles(ctx context.Context) ([]Profile, error) {
	return svc.repo.QueryAllProfiles(ctx)
}

func (svc *service) GetProfile(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, id)
}

func (svc *service) GetProfileByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfileByUserID(ctx, userID)
}

// UpdateUserProfile applies a partial update. Only the profile owner may
// update it; superusers get no bypass here.
func (svc *service) UpdateUserProfile(ctx context.Context, actor core.Actor, id string, up UpdateProfile) (Profile, error) {
	prof, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if !actor.Is(prof.UserID) {
		return Profile{}, core.ErrPermissionDenied
	}

	if up.FullName != nil {
		prof.FullName = *up.FullName
	}
	if up.Address != nil {
		prof.Address.SetValid(*up.Address)
	}
	if up.Avatar != nil {
		prof.Avatar.SetValid(*up.Avatar)
	}
	return svc.repo.UpdateProfile(ctx, prof)
}

func (svc *service) DeleteUserProfile(ctx context.Context, actor core.Actor, id string) error {
	prof, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Is(prof.UserID) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteProfile(ctx, id)
}
