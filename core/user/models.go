package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/permission"
)

// Roles
const (
	RoleSchoolAdmin    = "school_admin"
	RoleClassroomAdmin = "classroom_admin"
)

var AllRoles = []string{RoleClassroomAdmin, RoleSchoolAdmin}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var Roles = []Role{
	{Name: "School Admin", Value: RoleSchoolAdmin},
	{Name: "Classroom Admin", Value: RoleClassroomAdmin},
}

// KnownRole reports whether role is part of the closed role enumeration.
func KnownRole(role string) bool {
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

type User struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	Role          string         `json:"role"`
	SchoolID      int            `json:"school_id"`
	ClassroomID   int            `json:"classroom_id,omitempty"`   // classroom_admin only
	ClassroomName string         `json:"classroom_name,omitempty"` // denormalized for the portal header
	Permissions   permission.Set `json:"permissions,omitempty"`    // nil = never synced
	IsActive      bool           `json:"is_active"`
	PasswordHash  []byte         `json:"-"`
	CreatedAt     time.Time      `json:"created_at"` // UTC
	UpdatedAt     time.Time      `json:"updated_at"` // UTC
	LastLogin     time.Time      `json:"last_login"` // UTC
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

func (u *User) IsSchoolAdmin() bool {
	return u.Role == RoleSchoolAdmin
}

func (u *User) IsClassroomAdmin() bool {
	return u.Role == RoleClassroomAdmin
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"required,role"`
	SchoolID        int    `json:"school_id" validate:"required"`
	ClassroomID     int    `json:"classroom_id" validate:"required_if=Role classroom_admin"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanLower(nu.Username)
	nu.Email = core.CleanLower(nu.Email)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Username        string `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate, origUsr User, svc *Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	uname := core.CleanLower(uu.Username)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanLower(uu.Email)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.checkUniqueness(uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanLower(qf.Role)
}
