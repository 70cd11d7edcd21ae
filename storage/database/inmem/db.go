// Package inmemdb provides map-backed repositories for tests and local
// development.
package inmemdb

import (
	"sync"

	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/student"
	"github.com/jukulab/shiken/core/user"
)

type (
	userTable struct {
		mutex   sync.RWMutex
		pkCount int
		table   map[int]*user.User
	}

	schoolTable struct {
		mutex        sync.RWMutex
		pkCount      int
		clsPkCount   int
		table        map[int]*school.School
		classrooms   map[int]*school.Classroom
	}

	studentTable struct {
		mutex     sync.RWMutex
		pkCount   int
		scPkCount int
		table     map[int]*student.Student
		scores    map[int]*student.Score
	}

	DB struct {
		user    *userTable
		school  *schoolTable
		student *studentTable
	}
)

func NewDB() *DB {
	return &DB{
		user: &userTable{table: make(map[int]*user.User)},
		school: &schoolTable{
			table:      make(map[int]*school.School),
			classrooms: make(map[int]*school.Classroom),
		},
		student: &studentTable{
			table:  make(map[int]*student.Student),
			scores: make(map[int]*student.Score),
		},
	}
}
