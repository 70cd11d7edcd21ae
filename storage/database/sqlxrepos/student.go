package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/student"
)

type studentRow struct {
	ID          int       `db:"id"`
	SchoolID    int       `db:"school_id"`
	ClassroomID int       `db:"classroom_id"`
	Name        string    `db:"name"`
	Number      string    `db:"number"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student(r)
}

type scoreRow struct {
	ID         int       `db:"id"`
	StudentID  int       `db:"student_id"`
	Subject    string    `db:"subject"`
	TestName   string    `db:"test_name"`
	Value      int       `db:"value"`
	RecordedBy int       `db:"recorded_by"`
	RecordedAt time.Time `db:"recorded_at"`
}

func (r scoreRow) toScore() student.Score {
	return student.Score(r)
}

type StudentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*StudentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (repo *StudentRepository) CreateStudent(st student.Student) (student.Student, error) {
	query := `
		INSERT INTO student (school_id, classroom_id, name, number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRow(query, st.SchoolID, st.ClassroomID, st.Name, st.Number, st.CreatedAt, st.UpdatedAt).Scan(&st.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrNumberExists
		}
		return student.Student{}, errors.Wrap(err, "creating student")
	}
	return st, nil
}

func (repo *StudentRepository) GetStudentByID(id int) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row, `SELECT id, school_id, classroom_id, name, number, created_at, updated_at FROM student WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo *StudentRepository) QueryStudentsByClassroom(classroomID int) ([]student.Student, error) {
	var rows []studentRow
	query := `SELECT id, school_id, classroom_id, name, number, created_at, updated_at FROM student WHERE classroom_id = $1 ORDER BY number`
	if err := repo.db.Select(&rows, query, classroomID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, len(rows))
	for i, r := range rows {
		students[i] = r.toStudent()
	}
	return students, nil
}

func (repo *StudentRepository) CreateScore(sc student.Score) (student.Score, error) {
	query := `
		INSERT INTO score (student_id, subject, test_name, value, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRow(query, sc.StudentID, sc.Subject, sc.TestName, sc.Value, sc.RecordedBy, sc.RecordedAt).Scan(&sc.ID)
	if err != nil {
		return student.Score{}, errors.Wrap(err, "creating score")
	}
	return sc, nil
}

func (repo *StudentRepository) QueryScoresByClassroom(classroomID int) ([]student.Score, error) {
	var rows []scoreRow
	query := `
		SELECT s.id, s.student_id, s.subject, s.test_name, s.value, s.recorded_by, s.recorded_at
		FROM score s
		JOIN student st ON st.id = s.student_id
		WHERE st.classroom_id = $1
		ORDER BY s.recorded_at DESC`
	if err := repo.db.Select(&rows, query, classroomID); err != nil {
		return nil, errors.Wrap(err, "querying scores")
	}
	scores := make([]student.Score, len(rows))
	for i, r := range rows {
		scores[i] = r.toScore()
	}
	return scores, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
