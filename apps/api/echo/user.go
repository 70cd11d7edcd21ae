package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/user"
)

type userApi struct {
	svc        *user.Service
	schoolSvc  *school.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *user.Service,
	schoolSvc *school.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := userApi{
		svc:        svc,
		schoolSvc:  schoolSvc,
		validate:   validate,
		translator: translator,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	ug.POST("/login", api.login)
	ug.POST("/token-refresh", api.refreshToken)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.GET("/me", api.me)
	ag.POST("/register", api.create, schoolAdminMiddleware())
	ag.GET("", api.query, schoolAdminMiddleware())
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(data.Username, data.Password, api.svc)
	if err != nil {
		return err
	}

	// classroom admins log in with their classroom's live permission set
	// so the portal's first render resolves correctly
	if usr.IsClassroomAdmin() && usr.ClassroomID != 0 {
		cls, err := api.schoolSvc.GetClassroom(usr.ClassroomID)
		if err != nil && errors.Cause(err) != school.ErrClassroomNotFound {
			return errors.Wrap(err, "getting classroom")
		}
		if err == nil {
			usr.ClassroomName = cls.Name
			usr.Permissions = cls.Permissions.Clone()
		}
	}

	access, refresh, err := GenerateTokenPair(usr)
	if err != nil {
		return errors.Wrap(err, "generating token pair")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{User: usr, Access: access, Refresh: refresh})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	access, refresh, err := refreshTokenPair(data.Refresh, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenPairResponse{Access: access, Refresh: refresh})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.ConfirmPasswordReset(data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if usr.IsClassroomAdmin() && usr.ClassroomID != 0 {
		cls, err := api.schoolSvc.GetClassroom(usr.ClassroomID)
		if err != nil && errors.Cause(err) != school.ErrClassroomNotFound {
			return errors.Wrap(err, "getting classroom")
		}
		if err == nil {
			usr.ClassroomName = cls.Name
			usr.Permissions = cls.Permissions.Clone()
		}
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	// school admins create accounts in their own school only
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.SchoolID = claims.SchoolID

	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	if data.ClassroomID != 0 {
		cls, err := api.schoolSvc.GetClassroom(data.ClassroomID)
		if err != nil {
			if errors.Cause(err) == school.ErrClassroomNotFound {
				return core.NewValidationError(nil, core.FieldError{Field: "classroom_id", Error: "classroom not found"})
			}
			return errors.Wrap(err, "getting classroom")
		}
		if cls.SchoolID != claims.SchoolID {
			return errHttpForbidden
		}
	}

	usr, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	users, err := api.svc.Filter(claims.SchoolID, *filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}
