package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/permission"
)

type School struct {
	ID        int                     `json:"id"`
	Name      string                  `json:"name"`
	Settings  permission.SchoolPolicy `json:"settings"`
	CreatedAt time.Time               `json:"created_at"` // UTC
	UpdatedAt time.Time               `json:"updated_at"` // UTC
}

type Classroom struct {
	ID       int    `json:"id"`
	SchoolID int    `json:"school_id"`
	Name     string `json:"name"`
	// Permissions is the classroom's explicit override set; nil when the
	// classroom has none (its admins then run on resolver defaults).
	Permissions permission.Set `json:"permissions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"` // UTC
	UpdatedAt   time.Time      `json:"updated_at"` // UTC
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name string `json:"name" validate:"required"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name string `json:"name" validate:"required"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// UpdateSettings defines what information may be provided to modify a
// School's settings. Nil fields are left untouched.
type UpdateSettings struct {
	AllowClassroomStudentManagement *bool          `json:"allow_classroom_student_management"`
	DefaultPermissions              permission.Set `json:"default_permissions"`
}

func (us *UpdateSettings) Validate(validate *validator.Validate) error {
	if err := validate.Struct(us); err != nil {
		return err
	}
	return validateCapabilities(us.DefaultPermissions, "default_permissions")
}

// UpdatePermissions replaces a Classroom's override set.
type UpdatePermissions struct {
	Permissions permission.Set `json:"permissions" validate:"required"`
}

func (up *UpdatePermissions) Validate(validate *validator.Validate) error {
	if err := validate.Struct(up); err != nil {
		return err
	}
	return validateCapabilities(up.Permissions, "permissions")
}

// validateCapabilities rejects permission payloads containing capability
// names outside the closed enumeration.
func validateCapabilities(perms permission.Set, field string) error {
	for cap := range perms {
		if !cap.Known() {
			return core.NewValidationError(nil, core.FieldError{
				Field: field,
				Error: "unknown capability: " + string(cap),
			})
		}
	}
	return nil
}
