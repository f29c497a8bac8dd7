// Package store defines the Record Store contracts the record engine is
// written against. Mongo-backed implementations live in the sibling
// packages (studentstore, permissionstore, attendancestore, gradestore,
// staffstore); memstore provides in-memory versions for tests and demos.
//
// Implementations return ErrNotFound (possibly wrapped) for missing keys and
// never invent records on reads.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rollbook/internal/domain/models"
)

// ErrNotFound is returned by Get-style lookups when no document matches.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key is already taken.
var ErrDuplicate = errors.New("record already exists")

// StudentFilter narrows roster listings. Zero values match everything.
type StudentFilter struct {
	Group    string
	Accounts []string
}

// Students is the roster.
type Students interface {
	Get(ctx context.Context, account string) (models.Student, error)
	List(ctx context.Context, f StudentFilter) ([]models.Student, error)
	// Upsert creates the student or, when the account exists, reassigns its
	// group. Name and surname are only written on insert. It reports whether
	// a new document was created.
	Upsert(ctx context.Context, s models.Student) (created bool, err error)
	SetGroup(ctx context.Context, account, group string) error
	Delete(ctx context.Context, account string) error
}

// Permissions persists one capability record per account.
type Permissions interface {
	Get(ctx context.Context, account string) (models.Permission, error)
	// Set merges p into the stored record: an existing record gets its flags,
	// role and updated_at replaced; a new one gets created_at = updated_at = now
	// and created_by = actor.
	Set(ctx context.Context, p models.Permission, actor string) (models.Permission, error)
	Delete(ctx context.Context, account string) error
	ListByCapability(ctx context.Context, c models.Capability) ([]models.Permission, error)
}

// AttendanceUpdate describes one attendance upsert. Nil fields are left
// untouched on an existing record and take their zero value on insert.
type AttendanceUpdate struct {
	Account            string
	Date               string
	IsPresent          *bool
	ParticipationCount *int
	Actor              string
	At                 time.Time
}

// AttendanceFilter narrows attendance queries. Zero values match everything.
type AttendanceFilter struct {
	Accounts  []string
	Range     models.DateRange
	IsPresent *bool
}

// Order sorts query results. Field is "date" or "student_account".
type Order struct {
	Field string
	Desc  bool
}

// Attendance stores AttendanceRecords keyed by (account, date).
type Attendance interface {
	Get(ctx context.Context, account, date string) (models.AttendanceRecord, error)
	Upsert(ctx context.Context, u AttendanceUpdate) (models.AttendanceRecord, error)
	Query(ctx context.Context, f AttendanceFilter, o Order) ([]models.AttendanceRecord, error)
	Delete(ctx context.Context, account, date string) error
	// DistinctDates returns the sorted set of session days that have at least
	// one record for the given accounts (all accounts when empty).
	DistinctDates(ctx context.Context, f AttendanceFilter) ([]string, error)
}

// Grades stores one GradeRecord per account.
type Grades interface {
	Get(ctx context.Context, account string) (models.GradeRecord, error)
	// SetCategory writes or clears (value == nil) one category score and
	// returns the record as stored after the write.
	SetCategory(ctx context.Context, account string, c models.Category, value *float64, actor string, at time.Time) (models.GradeRecord, error)
	SetTotal(ctx context.Context, account string, total float64, actor string, at time.Time) error
	List(ctx context.Context, accounts []string) ([]models.GradeRecord, error)
	Delete(ctx context.Context, account string) error
}

// StaffAccounts holds email/password logins for non-roster users.
type StaffAccounts interface {
	GetByEmail(ctx context.Context, email string) (models.StaffAccount, error)
	Create(ctx context.Context, a models.StaffAccount) (models.StaffAccount, error)
}

// Set bundles every store the record engine needs.
type Set struct {
	Students    Students
	Permissions Permissions
	Attendance  Attendance
	Grades      Grades
	Staff       StaffAccounts
}
