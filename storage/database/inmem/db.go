package inmemdb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	DB struct {
		mutex       sync.RWMutex
		groups      map[string]*attendance.Group
		students    map[string]*attendance.Student
		attendances map[string]*attendanceRow
		seq         int
	}

	attendanceRow struct {
		seq       int // insertion order
		id        string
		studentID string
		date      attendance.Date
		status    attendance.Status
		notes     string
	}
)

func Open() *DB {
	return &DB{
		groups:      make(map[string]*attendance.Group),
		students:    make(map[string]*attendance.Student),
		attendances: make(map[string]*attendanceRow),
	}
}
