package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/student"
	"github.com/jukulab/shiken/core/user"
)

type studentEnv struct {
	*testEnv
	schoolID   int
	classroom  int
	adminToken string
	clsToken   string
}

func setupStudentEnv(t *testing.T, clsPerms permission.Set) *studentEnv {
	t.Helper()
	env := setup(t)

	sch := createSchool(t, env.schoolSvc, "Sakura Juku")
	cls := createClassroom(t, env.schoolSvc, sch.ID, "3-B")
	if clsPerms != nil {
		setClassroomPermissions(t, env.schoolSvc, cls.ID, clsPerms)
	}

	admin := createUser(t, env.userRepo, "Head", "headadmin", "head@sakura.jp", "LePassword123", user.RoleSchoolAdmin, sch.ID, 0, true)
	clsAdmin := createUser(t, env.userRepo, "Aki", "akitanaka", "aki@sakura.jp", "LePassword123", user.RoleClassroomAdmin, sch.ID, cls.ID, true)

	return &studentEnv{
		testEnv:    env,
		schoolID:   sch.ID,
		classroom:  cls.ID,
		adminToken: getToken(t, admin),
		clsToken:   getToken(t, clsAdmin),
	}
}

func registerStudentReq(t *testing.T, env *studentEnv, token, name, number string) (*http.Request, *httptest.ResponseRecorder) {
	body := marchallObj(t, map[string]interface{}{
		"name": name, "number": number, "classroom_id": env.classroom,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/students", token, body)
	return req, rec
}

func TestRegisterStudent(t *testing.T) {
	t.Run("school admin always may", func(t *testing.T) {
		env := setupStudentEnv(t, nil)
		req, rec := registerStudentReq(t, env, env.adminToken, "Kenta", "A101")
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, env.classroom, res.ClassroomID)
	})

	t.Run("classroom admin denied without grant", func(t *testing.T) {
		// registration defaults to denied
		env := setupStudentEnv(t, nil)
		req, rec := registerStudentReq(t, env, env.clsToken, "Kenta", "A101")
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("classroom admin allowed with grant", func(t *testing.T) {
		env := setupStudentEnv(t, permission.Set{permission.CapRegisterStudents: true})
		req, rec := registerStudentReq(t, env, env.clsToken, "Kenta", "A101")
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("kill switch beats explicit grant", func(t *testing.T) {
		env := setupStudentEnv(t, permission.Set{permission.CapRegisterStudents: true})
		setSchoolKillSwitch(t, env.schoolSvc, env.schoolID, false)

		req, rec := registerStudentReq(t, env, env.clsToken, "Kenta", "A101")
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		// the school admin is unaffected
		req, rec = registerStudentReq(t, env, env.adminToken, "Kenta", "A101")
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("duplicate number in classroom", func(t *testing.T) {
		env := setupStudentEnv(t, nil)
		req, rec := registerStudentReq(t, env, env.adminToken, "Kenta", "A101")
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		req, rec = registerStudentReq(t, env, env.adminToken, "Another", "A101")
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRecordScore(t *testing.T) {
	env := setupStudentEnv(t, permission.Set{permission.CapInputScores: true})
	st, err := env.studentSvc.Register(env.schoolID, env.classroom, student.NewStudent{Name: "Kenta", Number: "A101"})
	require.NoError(t, err)

	t.Run("with grant", func(t *testing.T) {
		body := marchallObj(t, student.NewScore{Subject: "math", TestName: "midterm", Value: 88})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+itoa(st.ID)+"/scores", env.clsToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res student.Score
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 88, res.Value)
		assert.NotZero(t, res.RecordedBy)
	})

	t.Run("value out of range", func(t *testing.T) {
		body := marchallObj(t, student.NewScore{Subject: "math", TestName: "midterm", Value: 101})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+itoa(st.ID)+"/scores", env.clsToken, body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown student", func(t *testing.T) {
		body := marchallObj(t, student.NewScore{Subject: "math", TestName: "midterm", Value: 50})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students/999/scores", env.clsToken, body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRecordScoreDeniedWithoutGrant(t *testing.T) {
	env := setupStudentEnv(t, permission.Set{permission.CapInputScores: false})
	st, err := env.studentSvc.Register(env.schoolID, env.classroom, student.NewStudent{Name: "Kenta", Number: "A101"})
	require.NoError(t, err)

	body := marchallObj(t, student.NewScore{Subject: "math", TestName: "midterm", Value: 88})
	req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+itoa(st.ID)+"/scores", env.clsToken, body)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQueryStudentsAndScores(t *testing.T) {
	// view_reports defaults to granted, no explicit set needed
	env := setupStudentEnv(t, nil)
	st, err := env.studentSvc.Register(env.schoolID, env.classroom, student.NewStudent{Name: "Kenta", Number: "A101"})
	require.NoError(t, err)
	_, err = env.studentSvc.RecordScore(st.ID, 1, student.NewScore{Subject: "math", TestName: "midterm", Value: 72})
	require.NoError(t, err)

	t.Run("students", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classrooms/"+itoa(env.classroom)+"/students", env.clsToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res []student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Len(t, res, 1)
	})

	t.Run("scores", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classrooms/"+itoa(env.classroom)+"/scores", env.clsToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res []student.Score
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.Len(t, res, 1)
		assert.Equal(t, 72, res[0].Value)
	})

	t.Run("denied when view reports revoked", func(t *testing.T) {
		setClassroomPermissions(t, env.schoolSvc, env.classroom, permission.Set{permission.CapViewReports: false})
		req, rec := newAuthRequest(http.MethodGet, "/v1/classrooms/"+itoa(env.classroom)+"/scores", env.clsToken)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
