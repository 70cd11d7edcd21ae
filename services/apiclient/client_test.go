package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/session"
	"github.com/jukulab/shiken/core/user"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL, srv.Client())
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/users/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "goodpass1!" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(session.LoginResult{
			User:    user.User{ID: 1, Username: "aki", Role: user.RoleClassroomAdmin, ClassroomID: 7},
			Access:  "acc",
			Refresh: "ref",
		})
	})

	t.Run("ok", func(t *testing.T) {
		res, err := client.Login(context.Background(), "aki", "goodpass1!")
		require.NoError(t, err)
		assert.Equal(t, "acc", res.Access)
		assert.Equal(t, "aki", res.User.Username)
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := client.Login(context.Background(), "aki", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid credentials")
	})
}

func TestProfileSendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/users/me", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer acc" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing token"})
			return
		}
		_ = json.NewEncoder(w).Encode(user.User{ID: 1, Username: "aki"})
	})

	usr, err := client.Profile(context.Background(), "acc")
	require.NoError(t, err)
	assert.Equal(t, "aki", usr.Username)

	_, err = client.Profile(context.Background(), "wrong")
	assert.Error(t, err)
}

func TestClassroomPermissions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/classrooms/7/permissions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(permission.Set{permission.CapInputScores: true})
	})

	perms, err := client.ClassroomPermissions(context.Background(), "acc", 7)
	require.NoError(t, err)
	assert.True(t, perms[permission.CapInputScores])
}

func TestSchoolSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/schools/3/settings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(permission.SchoolPolicy{AllowClassroomStudentManagement: false})
	})

	policy, err := client.SchoolSettings(context.Background(), "acc", 3)
	require.NoError(t, err)
	assert.False(t, policy.AllowClassroomStudentManagement)
}

func TestUpdateClassroomPermissions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/classrooms/7/permissions", r.URL.Path)

		var body map[string]permission.Set
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(body["permissions"])
	})

	perms, err := client.UpdateClassroomPermissions(context.Background(), "acc", 7,
		permission.Set{permission.CapRegisterStudents: true})
	require.NoError(t, err)
	assert.True(t, perms[permission.CapRegisterStudents])
}
