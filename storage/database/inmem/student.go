package inmemdb

import (
	"sort"

	"github.com/jukulab/shiken/core/student"
)

type studentRepository struct {
	db *studentTable
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.table {
		if other.ClassroomID == st.ClassroomID && other.Number == st.Number {
			return student.Student{}, student.ErrNumberExists
		}
	}

	repo.db.pkCount++
	st.ID = repo.db.pkCount
	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) GetStudentByID(id int) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudentsByClassroom(classroomID int) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var students []student.Student
	for _, st := range repo.db.table {
		if st.ClassroomID == classroomID {
			students = append(students, *st)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Number < students[j].Number })
	return students, nil
}

func (repo *studentRepository) CreateScore(sc student.Score) (student.Score, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.scPkCount++
	sc.ID = repo.db.scPkCount
	repo.db.scores[sc.ID] = &sc
	return sc, nil
}

func (repo *studentRepository) QueryScoresByClassroom(classroomID int) ([]student.Score, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var scores []student.Score
	for _, sc := range repo.db.scores {
		st, ok := repo.db.table[sc.StudentID]
		if !ok || st.ClassroomID != classroomID {
			continue
		}
		scores = append(scores, *sc)
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].RecordedAt.After(scores[j].RecordedAt) })
	return scores, nil
}
