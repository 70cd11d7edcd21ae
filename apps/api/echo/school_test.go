package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/user"
)

func TestSchoolSettings(t *testing.T) {
	env := setup(t)

	sch := createSchool(t, env.schoolSvc, "Sakura Juku")
	other := createSchool(t, env.schoolSvc, "Umi Juku")
	cls := createClassroom(t, env.schoolSvc, sch.ID, "3-B")

	admin := createUser(t, env.userRepo, "Head", "headadmin", "head@sakura.jp", "LePassword123", user.RoleSchoolAdmin, sch.ID, 0, true)
	clsAdmin := createUser(t, env.userRepo, "Aki", "akitanaka", "aki@sakura.jp", "LePassword123", user.RoleClassroomAdmin, sch.ID, cls.ID, true)

	adminToken := getToken(t, admin)
	clsToken := getToken(t, clsAdmin)

	t.Run("defaults on a new school", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/"+itoa(sch.ID)+"/settings", adminToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res permission.SchoolPolicy
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res.AllowClassroomStudentManagement)
	})

	t.Run("classroom admin may read own school settings", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/"+itoa(sch.ID)+"/settings", clsToken)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other school settings are off limits", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/"+itoa(other.ID)+"/settings", adminToken)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("classroom admin cannot edit settings", func(t *testing.T) {
		off := false
		body := marchallObj(t, school.UpdateSettings{AllowClassroomStudentManagement: &off})
		req, rec := newAuthRequest(http.MethodPut, "/v1/schools/"+itoa(sch.ID)+"/settings", clsToken, body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("school admin flips the kill switch", func(t *testing.T) {
		off := false
		body := marchallObj(t, school.UpdateSettings{AllowClassroomStudentManagement: &off})
		req, rec := newAuthRequest(http.MethodPut, "/v1/schools/"+itoa(sch.ID)+"/settings", adminToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res permission.SchoolPolicy
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.False(t, res.AllowClassroomStudentManagement)

		settings, err := env.schoolSvc.Settings(sch.ID)
		require.NoError(t, err)
		assert.False(t, settings.AllowClassroomStudentManagement)
	})

	t.Run("unknown capability in defaults is rejected", func(t *testing.T) {
		body := []byte(`{"default_permissions":{"can_fly":true}}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/schools/"+itoa(sch.ID)+"/settings", adminToken, body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestClassroomPermissions(t *testing.T) {
	env := setup(t)

	sch := createSchool(t, env.schoolSvc, "Sakura Juku")
	other := createSchool(t, env.schoolSvc, "Umi Juku")
	cls := createClassroom(t, env.schoolSvc, sch.ID, "3-B")
	cls2 := createClassroom(t, env.schoolSvc, sch.ID, "2-A")
	otherCls := createClassroom(t, env.schoolSvc, other.ID, "1-A")

	admin := createUser(t, env.userRepo, "Head", "headadmin", "head@sakura.jp", "LePassword123", user.RoleSchoolAdmin, sch.ID, 0, true)
	clsAdmin := createUser(t, env.userRepo, "Aki", "akitanaka", "aki@sakura.jp", "LePassword123", user.RoleClassroomAdmin, sch.ID, cls.ID, true)

	adminToken := getToken(t, admin)
	clsToken := getToken(t, clsAdmin)

	t.Run("school admin updates a classroom set", func(t *testing.T) {
		body := marchallObj(t, school.UpdatePermissions{
			Permissions: permission.Set{permission.CapInputScores: true, permission.CapRegisterStudents: false},
		})
		req, rec := newAuthRequest(http.MethodPut, "/v1/classrooms/"+itoa(cls.ID)+"/permissions", adminToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res permission.Set
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res[permission.CapInputScores])
	})

	t.Run("classroom admin reads own set", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classrooms/"+itoa(cls.ID)+"/permissions", clsToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res permission.Set
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res[permission.CapInputScores])
	})

	t.Run("classroom admin cannot read another classroom's set", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classrooms/"+itoa(cls2.ID)+"/permissions", clsToken)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("classroom admin cannot update any set", func(t *testing.T) {
		body := marchallObj(t, school.UpdatePermissions{Permissions: permission.Set{permission.CapInputScores: true}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/classrooms/"+itoa(cls.ID)+"/permissions", clsToken, body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("cross-school update is forbidden", func(t *testing.T) {
		body := marchallObj(t, school.UpdatePermissions{Permissions: permission.Set{permission.CapInputScores: true}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/classrooms/"+itoa(otherCls.ID)+"/permissions", adminToken, body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown capability is rejected", func(t *testing.T) {
		body := []byte(`{"permissions":{"can_teleport":true}}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/classrooms/"+itoa(cls.ID)+"/permissions", adminToken, body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateAndQueryClassrooms(t *testing.T) {
	env := setup(t)

	sch := createSchool(t, env.schoolSvc, "Sakura Juku")
	defaults := permission.Set{permission.CapRegisterStudents: true}
	if _, err := env.schoolSvc.UpdateSettings(sch.ID, school.UpdateSettings{DefaultPermissions: defaults}); err != nil {
		t.Fatalf("updating settings failed: %v", err)
	}

	admin := createUser(t, env.userRepo, "Head", "headadmin", "head@sakura.jp", "LePassword123", user.RoleSchoolAdmin, sch.ID, 0, true)
	adminToken := getToken(t, admin)

	t.Run("new classroom inherits school defaults", func(t *testing.T) {
		body := marchallObj(t, school.NewClassroom{Name: "4-C"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms", adminToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var res school.Classroom
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res.Permissions[permission.CapRegisterStudents])
	})

	t.Run("query lists own school's classrooms", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classrooms", adminToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res []school.Classroom
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Len(t, res, 1)
	})
}
