package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jukulab/shiken/core"
)

type Student struct {
	ID          int       `json:"id"`
	SchoolID    int       `json:"school_id"`
	ClassroomID int       `json:"classroom_id"`
	Name        string    `json:"name"`
	Number      string    `json:"number"` // exam/roll number, unique per classroom
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Score struct {
	ID         int       `json:"id"`
	StudentID  int       `json:"student_id"`
	Subject    string    `json:"subject"`
	TestName   string    `json:"test_name"`
	Value      int       `json:"value"`
	RecordedBy int       `json:"recorded_by"` // user ID
	RecordedAt time.Time `json:"recorded_at"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name   string `json:"name" validate:"required"`
	Number string `json:"number" validate:"required,alphanum_"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Number = core.CleanString(ns.Number)
	return validate.Struct(ns)
}

// NewScore contains information needed to record a test score.
type NewScore struct {
	Subject  string `json:"subject" validate:"required"`
	TestName string `json:"test_name" validate:"required"`
	Value    int    `json:"value" validate:"min=0,max=100"`
}

func (nsc *NewScore) Validate(validate *validator.Validate) error {
	nsc.Subject = core.CleanString(nsc.Subject)
	nsc.TestName = core.CleanString(nsc.TestName)
	return validate.Struct(nsc)
}
