package student

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core"
)

var (
	// errors
	ErrNotFound     = errors.New("student not found")
	ErrNumberExists = errors.New("a student with this number already exists in this classroom")
)

type (
	Repository interface {
		CreateStudent(st Student) (Student, error)
		GetStudentByID(id int) (Student, error)
		QueryStudentsByClassroom(classroomID int) ([]Student, error)
		CreateScore(sc Score) (Score, error)
		QueryScoresByClassroom(classroomID int) ([]Score, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Register(schoolID, classroomID int, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st, err := svc.repo.CreateStudent(Student{
		SchoolID:    schoolID,
		ClassroomID: classroomID,
		Name:        ns.Name,
		Number:      ns.Number,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if err == ErrNumberExists {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "number", Error: err.Error()})
		}
		return Student{}, err
	}
	return st, nil
}

func (svc *Service) GetByID(id int) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) ByClassroom(classroomID int) ([]Student, error) {
	return svc.repo.QueryStudentsByClassroom(classroomID)
}

func (svc *Service) RecordScore(studentID, recordedBy int, nsc NewScore) (Score, error) {
	if _, err := svc.repo.GetStudentByID(studentID); err != nil {
		return Score{}, err
	}
	return svc.repo.CreateScore(Score{
		StudentID:  studentID,
		Subject:    nsc.Subject,
		TestName:   nsc.TestName,
		Value:      nsc.Value,
		RecordedBy: recordedBy,
		RecordedAt: time.Now().UTC(),
	})
}

func (svc *Service) ClassroomScores(classroomID int) ([]Score, error) {
	return svc.repo.QueryScoresByClassroom(classroomID)
}
