// Package memstore implements the store contracts in memory.
//
// Each table guards its map with its own RWMutex; records are copied in and
// out so callers never share state with the store. Tables can be told to
// fail every call (FailWith) to exercise storage-error paths in tests.
package memstore

import (
	"sync"
	"time"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/store/audit"
)

// DB groups the in-memory tables.
type DB struct {
	students    *StudentTable
	permissions *PermissionTable
	attendance  *AttendanceTable
	grades      *GradeTable
	staff       *StaffTable
	audit       *AuditTable
}

// New returns an empty in-memory database.
func New() *DB {
	return &DB{
		students:    &StudentTable{t: newTable[string, studentRow]()},
		permissions: &PermissionTable{t: newTable[string, permissionRow]()},
		attendance:  &AttendanceTable{t: newTable[attendanceKey, attendanceRow]()},
		grades:      &GradeTable{t: newTable[string, gradeRow]()},
		staff:       &StaffTable{t: newTable[string, staffRow]()},
		audit:       &AuditTable{t: newTable[int, audit.Event]()},
	}
}

func (db *DB) Students() *StudentTable       { return db.students }
func (db *DB) Permissions() *PermissionTable { return db.permissions }
func (db *DB) Attendance() *AttendanceTable  { return db.attendance }
func (db *DB) Grades() *GradeTable           { return db.grades }
func (db *DB) Staff() *StaffTable            { return db.staff }
func (db *DB) Audit() *AuditTable            { return db.audit }

// Set returns the tables as a store.Set.
func (db *DB) Set() store.Set {
	return store.Set{
		Students:    db.students,
		Permissions: db.permissions,
		Attendance:  db.attendance,
		Grades:      db.grades,
		Staff:       db.staff,
	}
}

type table[K comparable, V any] struct {
	mu   sync.RWMutex
	rows map[K]V
	fail error
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: make(map[K]V)}
}

func (t *table[K, V]) failWith(err error) {
	t.mu.Lock()
	t.fail = err
	t.mu.Unlock()
}

// now is the clock used for stamps when callers pass a zero time.
var now = func() time.Time { return time.Now().UTC() }

func stamp(at time.Time) time.Time {
	if at.IsZero() {
		return now()
	}
	return at.UTC()
}
