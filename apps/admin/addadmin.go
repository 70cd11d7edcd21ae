package main

import (
	"time"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/user"
)

// addSchool creates a school with the default settings.
func (cli *commandLine) addSchool(name string) error {
	now := time.Now().UTC()
	sch, err := cli.schRepo.CreateSchool(school.School{
		Name:      core.CleanString(name),
		Settings:  permission.DefaultSchoolPolicy(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}
	logger.Printf("created school %q with id %d\n", sch.Name, sch.ID)
	return nil
}

// addAdmin updates or creates an active school admin account.
func (cli *commandLine) addAdmin(name, uname, email, pwd string, schoolID int) error {
	uname = core.CleanLower(uname)
	email = core.CleanLower(email)

	if _, err := cli.schRepo.GetSchoolByID(schoolID); err != nil {
		return err
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      core.CleanString(name),
			Username:  uname,
			Email:     email,
			Role:      user.RoleSchoolAdmin,
			SchoolID:  schoolID,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		if _, err = cli.usrRepo.CreateUser(usr); err != nil {
			return err
		}
		logger.Printf("created admin %q\n", uname)
		return nil
	}

	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	if _, err = cli.usrRepo.UpdateUser(usr, &active); err != nil {
		return err
	}
	logger.Printf("updated admin %q\n", uname)
	return nil
}
