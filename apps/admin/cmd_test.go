package main

import (
	"bytes"
	"io/ioutil"
	"log"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/user"
	inmemdb "github.com/jukulab/shiken/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	logger = log.New(ioutil.Discard, "", 0)

	db := inmemdb.NewDB()
	return &commandLine{
		usrRepo: inmemdb.NewUserRepository(db),
		schRepo: inmemdb.NewSchoolRepository(db),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	pwd     string
}

func createTestSchool(t *testing.T, repo school.Repository) school.School {
	t.Helper()
	now := time.Now().UTC()
	sch, err := repo.CreateSchool(school.School{Name: "Sakura Juku", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func createTestUser(t *testing.T, repo user.Repository, uname, email, pwd string, schoolID int) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      "User",
		Username:  uname,
		Email:     email,
		Role:      user.RoleSchoolAdmin,
		SchoolID:  schoolID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateFunc = func(db *sqlx.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate was not invoked")
	}
}

func Test_commandLine_addSchool(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addschool"}, wantErr: errHelp},
		{name: "ok", args: []string{"addschool", "-name", "Sakura Juku"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)
	sch := createTestSchool(t, cli.schRepo)
	schID := strconv.Itoa(sch.ID)

	tests := []cliTest{
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "missing school", args: []string{"addadmin", "-name", "Head", "-username", "headadmin", "-email", "head@x.jp"}, pwd: "LePassword123", wantErr: errHelp},
		{name: "no password", args: []string{"addadmin", "-name", "Head", "-username", "headadmin", "-email", "head@x.jp", "-school", schID}, wantErr: errHelp},
		{name: "unknown school", args: []string{"addadmin", "-name", "Head", "-username", "headadmin", "-email", "head@x.jp", "-school", "999"}, pwd: "LePassword123", wantErr: school.ErrSchoolNotFound},
		{name: "creates admin", args: []string{"addadmin", "-name", "Head", "-username", "headadmin", "-email", "head@x.jp", "-school", schID}, pwd: "LePassword123"},
		{name: "updates existing admin", args: []string{"addadmin", "-name", "Head", "-username", "headadmin", "-email", "head@x.jp", "-school", schID}, pwd: "NewPassword456"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				usr, err := cli.usrRepo.GetUserByUsername("headadmin")
				if err != nil {
					t.Fatalf("GetUserByUsername() failed: %v", err)
				}
				if usr.Role != user.RoleSchoolAdmin {
					t.Errorf("role = %q, want %q", usr.Role, user.RoleSchoolAdmin)
				}
				if !usr.IsActive {
					t.Error("admin should be active")
				}
				if err := usr.CheckPassword(tt.pwd); err != nil {
					t.Error("password was not set")
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	sch := createTestSchool(t, cli.schRepo)
	usr := createTestUser(t, cli.usrRepo, "awe", "awe@test.jp", "OldPassword1", sch.ID)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "FreshPassword2"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "FresherPassword3"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := cli.usrRepo.GetUserByID(usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed: %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
