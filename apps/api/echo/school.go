package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/user"
)

type schoolApi struct {
	svc      *school.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerSchoolAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *school.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := schoolApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	sg := g.Group("/schools", jwt)
	sg.GET("/:id/settings", api.settings)
	sg.PUT("/:id/settings", api.updateSettings, schoolAdminMiddleware())

	cg := g.Group("/classrooms", jwt)
	cg.POST("", api.createClassroom, schoolAdminMiddleware())
	cg.GET("", api.queryClassrooms, schoolAdminMiddleware())
	cg.GET("/:id/permissions", api.classroomPermissions)
	cg.PUT("/:id/permissions", api.updateClassroomPermissions, schoolAdminMiddleware())
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Handlers

func (api *schoolApi) settings(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.SchoolID != id {
		return errHttpForbidden
	}

	settings, err := api.svc.Settings(id)
	if err != nil {
		if errors.Cause(err) == school.ErrSchoolNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting school settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *schoolApi) updateSettings(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.SchoolID != id {
		return errHttpForbidden
	}

	var data school.UpdateSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.UpdateSettings(id, data)
	if err != nil {
		if errors.Cause(err) == school.ErrSchoolNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating school settings")
	}
	return ctx.JSON(http.StatusOK, sch.Settings)
}

func (api *schoolApi) createClassroom(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data school.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.CreateClassroom(claims.SchoolID, data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) queryClassrooms(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	classrooms, err := api.svc.Classrooms(claims.SchoolID)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if classrooms == nil {
		classrooms = []school.Classroom{}
	}
	return ctx.JSON(http.StatusOK, classrooms)
}

func (api *schoolApi) classroomPermissions(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.svc.GetClassroom(id)
	if err != nil {
		if errors.Cause(err) == school.ErrClassroomNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting classroom")
	}

	// a classroom admin may read their own classroom's set; a school admin
	// any classroom of their school
	switch claims.Role {
	case user.RoleSchoolAdmin:
		if cls.SchoolID != claims.SchoolID {
			return errHttpForbidden
		}
	case user.RoleClassroomAdmin:
		if claims.ClassroomID != id {
			return errHttpForbidden
		}
	default:
		return errHttpForbidden
	}

	return ctx.JSON(http.StatusOK, cls.Permissions)
}

func (api *schoolApi) updateClassroomPermissions(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.svc.GetClassroom(id)
	if err != nil {
		if errors.Cause(err) == school.ErrClassroomNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting classroom")
	}
	if cls.SchoolID != claims.SchoolID {
		return errHttpForbidden
	}

	var data school.UpdatePermissions
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePermissions")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err = api.svc.UpdateClassroomPermissions(id, data)
	if err != nil {
		return errors.Wrap(err, "updating classroom permissions")
	}
	return ctx.JSON(http.StatusOK, cls.Permissions)
}
