package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data through a store.Set,
// so the same helpers serve the in-memory and Mongo-backed stores.
type Fixtures struct {
	set store.Set
	t   *testing.T
}

// NewFixtures creates a new Fixtures instance over set.
func NewFixtures(t *testing.T, set store.Set) *Fixtures {
	t.Helper()
	return &Fixtures{set: set, t: t}
}

// Set returns the underlying stores for direct access in tests.
func (f *Fixtures) Set() store.Set {
	return f.set
}

// CreateStudent adds a roster entry.
func (f *Fixtures) CreateStudent(ctx context.Context, account, name, surname, group string) models.Student {
	f.t.Helper()

	st := models.Student{Account: account, Name: name, Surname: surname, Group: group}
	if _, err := f.set.Students.Upsert(ctx, st); err != nil {
		f.t.Fatalf("failed to create test student %s: %v", account, err)
	}
	got, err := f.set.Students.Get(ctx, account)
	if err != nil {
		f.t.Fatalf("failed to reload test student %s: %v", account, err)
	}
	return got
}

// CreateTeacher stores a teacher permission for account.
func (f *Fixtures) CreateTeacher(ctx context.Context, account string) models.Permission {
	f.t.Helper()
	return f.setPermission(ctx, models.Permission{
		StudentAccount:    account,
		Role:              models.RoleTeacher,
		CanMarkAttendance: true,
		CanEditGrades:     true,
	})
}

// CreateLeader adds a student to group and makes them its leader with the
// given grade capability.
func (f *Fixtures) CreateLeader(ctx context.Context, account, group string, canEditGrades bool) models.Permission {
	f.t.Helper()
	f.CreateStudent(ctx, account, "Leader", account, group)
	return f.setPermission(ctx, models.Permission{
		StudentAccount:    account,
		Role:              models.RoleGroupLeader,
		IsGroupLeader:     true,
		CanMarkAttendance: true,
		CanEditGrades:     canEditGrades,
	})
}

// CreateStaff adds an active staff login with a bcrypt-hashed password.
func (f *Fixtures) CreateStaff(ctx context.Context, email, fullName, password string) models.StaffAccount {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	a, err := f.set.Staff.Create(ctx, models.StaffAccount{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Status:       models.StaffActive,
	})
	if err != nil {
		f.t.Fatalf("failed to create staff account %s: %v", email, err)
	}
	return a
}

func (f *Fixtures) setPermission(ctx context.Context, p models.Permission) models.Permission {
	f.t.Helper()
	out, err := f.set.Permissions.Set(ctx, p, "fixtures")
	if err != nil {
		f.t.Fatalf("failed to set permission for %s: %v", p.StudentAccount, err)
	}
	return out
}
