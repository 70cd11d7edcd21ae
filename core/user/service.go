package user

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		GetUserByID(id int) (User, error)
		GetUserByUsername(username string) (User, error)
		GetUserByEmail(email string) (User, error)
		GetUserByUsernameOrEmail(username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields, scoped to a school.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		FilterUsers(schoolID int, filter QueryFilter) ([]User, error)
		UpdateUser(user User, isActive *bool) (User, error)
		SetLastLogin(id int, at time.Time) error
		DeleteUsersByID(ids ...int) error
	}

	Service struct {
		repo Repository
		mail core.EmailService
		log  core.Logger
	}
)

func NewService(repo Repository, mail core.EmailService, log core.Logger, conf *core.Config) *Service {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	frontendBaseURL = conf.FrontendBaseURL
	return &Service{repo: repo, mail: mail, log: log}
}

func (svc *Service) checkUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclUsers...); err != nil {
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

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:        nu.Name,
		Username:    nu.Username,
		Email:       nu.Email,
		Role:        nu.Role,
		SchoolID:    nu.SchoolID,
		ClassroomID: nu.ClassroomID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanLower(uname))
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanLower(email))
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(core.CleanLower(uname))
}

func (svc *Service) Filter(schoolID int, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(schoolID, filter)
}

func (svc *Service) Update(id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Username:  uu.Username,
		Email:     uu.Email,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(usr.ID, now); err != nil {
		return User{}, err
	}
	usr.LastLogin = now
	return usr, nil
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteUsersByID(ids...)
}

// RequestPasswordReset emails a signed reset link to the account matching
// the given email, if any. Whether a match exists is never revealed.
func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "finding user by email")
	}

	token := makeToken(usr)
	link := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", frontendBaseURL, EncodeUID(usr), token)
	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Password Reset",
		BodyStr: fmt.Sprintf("Hi %s,\n\nFollow this link to reset your password:\n%s\n", usr.Name, link),
	})
	return nil
}

// ConfirmPasswordReset verifies the reset token and sets the new password.
func (svc *Service) ConfirmPasswordReset(rp ResetUserPassword) (User, error) {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, errInvalidToken
	}
	usr, err := svc.repo.GetUserByID(uid)
	if err != nil {
		return User{}, errInvalidToken
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return User{}, err
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}
