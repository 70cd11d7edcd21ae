package inmemdb

import (
	"sort"
	"time"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/school"
)

type schoolRepository struct {
	db *schoolTable
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) CreateSchool(sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.pkCount++
	sch.ID = repo.db.pkCount
	repo.db.table[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(id int) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sch, ok := repo.db.table[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrSchoolNotFound
}

func (repo *schoolRepository) UpdateSchoolSettings(id int, settings permission.SchoolPolicy, at time.Time) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sch, ok := repo.db.table[id]
	if !ok {
		return school.School{}, school.ErrSchoolNotFound
	}
	sch.Settings = settings
	sch.UpdatedAt = at
	return *sch, nil
}

func (repo *schoolRepository) CreateClassroom(cls school.Classroom) (school.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.clsPkCount++
	cls.ID = repo.db.clsPkCount
	repo.db.classrooms[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) GetClassroomByID(id int) (school.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classrooms[id]; ok {
		return *cls, nil
	}
	return school.Classroom{}, school.ErrClassroomNotFound
}

func (repo *schoolRepository) QueryClassroomsBySchool(schoolID int) ([]school.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var classrooms []school.Classroom
	for _, cls := range repo.db.classrooms {
		if cls.SchoolID == schoolID {
			classrooms = append(classrooms, *cls)
		}
	}
	sort.Slice(classrooms, func(i, j int) bool { return classrooms[i].Name < classrooms[j].Name })
	return classrooms, nil
}

func (repo *schoolRepository) UpdateClassroomPermissions(id int, perms permission.Set, at time.Time) (school.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls, ok := repo.db.classrooms[id]
	if !ok {
		return school.Classroom{}, school.ErrClassroomNotFound
	}
	cls.Permissions = perms.Clone()
	cls.UpdatedAt = at
	return *cls, nil
}
