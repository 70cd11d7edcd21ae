package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/student"
	"github.com/jukulab/shiken/core/user"
	inmemdb "github.com/jukulab/shiken/storage/database/inmem"
)

type httpErr struct {
	Error string `json:"error"`
}

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testEnv struct {
	server     Server
	userSvc    *user.Service
	schoolSvc  *school.Service
	studentSvc *student.Service
	userRepo   user.Repository
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type nopEmail struct{}

func (nopEmail) SendMessages(...*core.EmailMessage) {}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Debug = false // keep the production error envelope

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator, "")

	db := inmemdb.NewDB()
	userRepo := inmemdb.NewUserRepository(db)
	userSvc := user.NewService(userRepo, nopEmail{}, nopLogger{}, conf)
	schoolSvc := school.NewService(inmemdb.NewSchoolRepository(db))
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db))

	srv := NewServer(&Options{
		Address:        "localhost:0",
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         nopLogger{},
		UserSvc:        userSvc,
		SchoolSvc:      schoolSvc,
		StudentSvc:     studentSvc,
		Validate:       validate,
		Translator:     translator,
	})

	return &testEnv{
		server:     srv,
		userSvc:    userSvc,
		schoolSvc:  schoolSvc,
		studentSvc: studentSvc,
		userRepo:   userRepo,
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr, false)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createSchool(t *testing.T, svc *school.Service, name string) school.School {
	sch, err := svc.Create(school.NewSchool{Name: name})
	if err != nil {
		t.Fatalf("createSchool() failed: %v", err)
	}
	return sch
}

func createClassroom(t *testing.T, svc *school.Service, schoolID int, name string) school.Classroom {
	cls, err := svc.CreateClassroom(schoolID, school.NewClassroom{Name: name})
	if err != nil {
		t.Fatalf("createClassroom() failed: %v", err)
	}
	return cls
}

func createUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	schoolID, classroomID int,
	isActive bool,
) user.User {
	tstamp := time.Now().UTC()
	usr := user.User{
		Name:        name,
		Username:    uname,
		Email:       email,
		Role:        role,
		SchoolID:    schoolID,
		ClassroomID: classroomID,
		IsActive:    isActive,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func setClassroomPermissions(t *testing.T, svc *school.Service, classroomID int, perms permission.Set) {
	if _, err := svc.UpdateClassroomPermissions(classroomID, school.UpdatePermissions{Permissions: perms}); err != nil {
		t.Fatalf("setClassroomPermissions() failed: %v", err)
	}
}

func setSchoolKillSwitch(t *testing.T, svc *school.Service, schoolID int, allow bool) {
	if _, err := svc.UpdateSettings(schoolID, school.UpdateSettings{AllowClassroomStudentManagement: &allow}); err != nil {
		t.Fatalf("setSchoolKillSwitch() failed: %v", err)
	}
}

func itoa(i int) string { return strconv.Itoa(i) }

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
