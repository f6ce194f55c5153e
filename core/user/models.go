package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/kursly/backend/core"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsSuperuser  bool      `json:"is_superuser"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Actor returns the explicit acting identity for authorization checks.
func (u User) Actor() core.Actor {
	return core.Actor{ID: u.ID, Superuser: u.IsSuperuser}
}

// Profile is the 1:1 profile record attached to every User. It is created
// empty right after registration.
type Profile struct {
	ID       string      `json:"id"`
	UserID   string      `json:"user_id"`
	FullName string      `json:"fullname"`
	Address  null.String `json:"address"`
	Avatar   null.String `json:"avatar"` // storage reference, upload is external
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,alphanum_"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Username    string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email       string `json:"email" validate:"omitempty,email"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser *bool  `json:"is_superuser"`
	Password    string `json:"password" validate:"omitempty"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

// UpdateProfile defines what information may be provided to modify a Profile.
// Nil pointer fields keep their current values.
type UpdateProfile struct {
	FullName *string `json:"fullname" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=50"`
	Avatar   *string `json:"avatar"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	if up.FullName != nil {
		cleaned := core.CleanString(*up.FullName)
		up.FullName = &cleaned
	}
	if up.Address != nil {
		cleaned := core.CleanString(*up.Address)
		up.Address = &cleaned
	}
	return validate.Struct(up)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
