package school

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/permission"
)

var (
	// errors
	ErrSchoolNotFound    = errors.New("school not found")
	ErrClassroomNotFound = errors.New("classroom not found")
)

type (
	Repository interface {
		CreateSchool(sch School) (School, error)
		GetSchoolByID(id int) (School, error)
		UpdateSchoolSettings(id int, settings permission.SchoolPolicy, at time.Time) (School, error)
		CreateClassroom(cls Classroom) (Classroom, error)
		GetClassroomByID(id int) (Classroom, error)
		QueryClassroomsBySchool(schoolID int) ([]Classroom, error)
		UpdateClassroomPermissions(id int, perms permission.Set, at time.Time) (Classroom, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ns NewSchool) (School, error) {
	now := time.Now().UTC()
	return svc.repo.CreateSchool(School{
		Name:      ns.Name,
		Settings:  permission.DefaultSchoolPolicy(),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetByID(id int) (School, error) {
	return svc.repo.GetSchoolByID(id)
}

// Settings returns the school's current policy.
func (svc *Service) Settings(schoolID int) (permission.SchoolPolicy, error) {
	sch, err := svc.repo.GetSchoolByID(schoolID)
	if err != nil {
		return permission.SchoolPolicy{}, err
	}
	return sch.Settings, nil
}

// UpdateSettings applies the provided settings changes; absent fields keep
// their current value.
func (svc *Service) UpdateSettings(schoolID int, us UpdateSettings) (School, error) {
	sch, err := svc.repo.GetSchoolByID(schoolID)
	if err != nil {
		return School{}, err
	}

	settings := sch.Settings
	if us.AllowClassroomStudentManagement != nil {
		settings.AllowClassroomStudentManagement = *us.AllowClassroomStudentManagement
	}
	if us.DefaultPermissions != nil {
		settings.DefaultPermissions = us.DefaultPermissions.Clone()
	}
	return svc.repo.UpdateSchoolSettings(schoolID, settings, time.Now().UTC())
}

// CreateClassroom creates a classroom under the given school; the school's
// default permissions become the classroom's initial override set.
func (svc *Service) CreateClassroom(schoolID int, nc NewClassroom) (Classroom, error) {
	sch, err := svc.repo.GetSchoolByID(schoolID)
	if err != nil {
		return Classroom{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateClassroom(Classroom{
		SchoolID:    sch.ID,
		Name:        nc.Name,
		Permissions: sch.Settings.DefaultPermissions.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetClassroom(id int) (Classroom, error) {
	return svc.repo.GetClassroomByID(id)
}

func (svc *Service) Classrooms(schoolID int) ([]Classroom, error) {
	return svc.repo.QueryClassroomsBySchool(schoolID)
}

// ClassroomPermissions returns the classroom's effective override set; a
// classroom without overrides yields nil (resolver defaults apply).
func (svc *Service) ClassroomPermissions(id int) (permission.Set, error) {
	cls, err := svc.repo.GetClassroomByID(id)
	if err != nil {
		return nil, err
	}
	return cls.Permissions.Clone(), nil
}

func (svc *Service) UpdateClassroomPermissions(id int, up UpdatePermissions) (Classroom, error) {
	return svc.repo.UpdateClassroomPermissions(id, up.Permissions.Clone(), time.Now().UTC())
}
