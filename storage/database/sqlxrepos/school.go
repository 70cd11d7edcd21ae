package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/school"
)

type schoolRow struct {
	ID        int                     `db:"id"`
	Name      string                  `db:"name"`
	Settings  permission.SchoolPolicy `db:"settings"`
	CreatedAt time.Time               `db:"created_at"`
	UpdatedAt time.Time               `db:"updated_at"`
}

func (r schoolRow) toSchool() school.School {
	return school.School{
		ID:        r.ID,
		Name:      r.Name,
		Settings:  r.Settings,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type classroomRow struct {
	ID          int            `db:"id"`
	SchoolID    int            `db:"school_id"`
	Name        string         `db:"name"`
	Permissions permission.Set `db:"permissions"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r classroomRow) toClassroom() school.Classroom {
	return school.Classroom{
		ID:          r.ID,
		SchoolID:    r.SchoolID,
		Name:        r.Name,
		Permissions: r.Permissions,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type SchoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*SchoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func (repo *SchoolRepository) CreateSchool(sch school.School) (school.School, error) {
	query := `
		INSERT INTO school (name, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := repo.db.QueryRow(query, sch.Name, sch.Settings, sch.CreatedAt, sch.UpdatedAt).Scan(&sch.ID)
	if err != nil {
		return school.School{}, errors.Wrap(err, "creating school")
	}
	return sch, nil
}

func (repo *SchoolRepository) GetSchoolByID(id int) (school.School, error) {
	var row schoolRow
	err := repo.db.Get(&row, `SELECT id, name, settings, created_at, updated_at FROM school WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.School{}, school.ErrSchoolNotFound
		}
		return school.School{}, errors.Wrap(err, "getting school")
	}
	return row.toSchool(), nil
}

func (repo *SchoolRepository) UpdateSchoolSettings(id int, settings permission.SchoolPolicy, at time.Time) (school.School, error) {
	res, err := repo.db.Exec(`UPDATE school SET settings = $1, updated_at = $2 WHERE id = $3`, settings, at, id)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school settings")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.School{}, school.ErrSchoolNotFound
	}
	return repo.GetSchoolByID(id)
}

func (repo *SchoolRepository) CreateClassroom(cls school.Classroom) (school.Classroom, error) {
	query := `
		INSERT INTO classroom (school_id, name, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := repo.db.QueryRow(query, cls.SchoolID, cls.Name, cls.Permissions, cls.CreatedAt, cls.UpdatedAt).Scan(&cls.ID)
	if err != nil {
		return school.Classroom{}, errors.Wrap(err, "creating classroom")
	}
	return cls, nil
}

func (repo *SchoolRepository) GetClassroomByID(id int) (school.Classroom, error) {
	var row classroomRow
	err := repo.db.Get(&row, `SELECT id, school_id, name, permissions, created_at, updated_at FROM classroom WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Classroom{}, school.ErrClassroomNotFound
		}
		return school.Classroom{}, errors.Wrap(err, "getting classroom")
	}
	return row.toClassroom(), nil
}

func (repo *SchoolRepository) QueryClassroomsBySchool(schoolID int) ([]school.Classroom, error) {
	var rows []classroomRow
	query := `SELECT id, school_id, name, permissions, created_at, updated_at FROM classroom WHERE school_id = $1 ORDER BY name`
	if err := repo.db.Select(&rows, query, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	classrooms := make([]school.Classroom, len(rows))
	for i, r := range rows {
		classrooms[i] = r.toClassroom()
	}
	return classrooms, nil
}

func (repo *SchoolRepository) UpdateClassroomPermissions(id int, perms permission.Set, at time.Time) (school.Classroom, error) {
	res, err := repo.db.Exec(`UPDATE classroom SET permissions = $1, updated_at = $2 WHERE id = $3`, perms, at, id)
	if err != nil {
		return school.Classroom{}, errors.Wrap(err, "updating classroom permissions")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.Classroom{}, school.ErrClassroomNotFound
	}
	return repo.GetClassroomByID(id)
}
