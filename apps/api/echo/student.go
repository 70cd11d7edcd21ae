package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/student"
	"github.com/jukulab/shiken/core/user"
)

type studentApi struct {
	svc       *student.Service
	schoolSvc *school.Service
	userSvc   *user.Service
	validate  *validator.Validate
}

type newStudentRequest struct {
	student.NewStudent
	ClassroomID int `json:"classroom_id"`
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *student.Service,
	schoolSvc *school.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:       svc,
		schoolSvc: schoolSvc,
		userSvc:   userSvc,
		validate:  validate,
	}

	canRegister := capabilityMiddleware(permission.CapRegisterStudents, userSvc, schoolSvc)
	canInputScores := capabilityMiddleware(permission.CapInputScores, userSvc, schoolSvc)
	canViewReports := capabilityMiddleware(permission.CapViewReports, userSvc, schoolSvc)

	sg := g.Group("/students", jwt)
	sg.POST("", api.register, canRegister)
	sg.POST("/:id/scores", api.recordScore, canInputScores)

	cg := g.Group("/classrooms/:id", jwt)
	cg.GET("/students", api.queryStudents, canViewReports)
	cg.GET("/scores", api.queryScores, canViewReports)
}

// classroomInScope checks the target classroom against the bearer: school
// admins reach any classroom of their school, classroom admins only their
// own.
func (api *studentApi) classroomInScope(claims Claims, classroomID int) error {
	cls, err := api.schoolSvc.GetClassroom(classroomID)
	if err != nil {
		if errors.Cause(err) == school.ErrClassroomNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting classroom")
	}
	if cls.SchoolID != claims.SchoolID {
		return errHttpForbidden
	}
	if claims.Role == user.RoleClassroomAdmin && claims.ClassroomID != classroomID {
		return errHttpForbidden
	}
	return nil
}

// Handlers

func (api *studentApi) register(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data newStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	classroomID := data.ClassroomID
	if classroomID == 0 {
		classroomID = claims.ClassroomID
	}
	if err := api.classroomInScope(claims, classroomID); err != nil {
		return err
	}
	if err := data.NewStudent.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.Register(claims.SchoolID, classroomID, data.NewStudent)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) recordScore(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	st, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting student")
	}
	if err := api.classroomInScope(claims, st.ClassroomID); err != nil {
		return err
	}

	var data student.NewScore
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScore")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sc, err := api.svc.RecordScore(id, claims.UserID(), data)
	if err != nil {
		return errors.Wrap(err, "recording score")
	}
	return ctx.JSON(http.StatusCreated, sc)
}

func (api *studentApi) queryStudents(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.classroomInScope(claims, id); err != nil {
		return err
	}

	students, err := api.svc.ByClassroom(id)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) queryScores(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.classroomInScope(claims, id); err != nil {
		return err
	}

	scores, err := api.svc.ClassroomScores(id)
	if err != nil {
		return errors.Wrap(err, "querying scores")
	}
	if scores == nil {
		scores = []student.Score{}
	}
	return ctx.JSON(http.StatusOK, scores)
}
