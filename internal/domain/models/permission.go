// internal/domain/models/permission.go
package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a display/classification label. Capability flags on Permission
// are the enforced gate.
type Role string

const (
	RoleStudent     Role = "student"
	RoleGroupLeader Role = "group_leader"
	RoleTeacher     Role = "teacher"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleGroupLeader, RoleTeacher:
		return true
	}
	return false
}

// Capability names a single permission flag.
type Capability string

const (
	CapMarkAttendance Capability = "mark_attendance"
	CapEditGrades     Capability = "edit_grades"
	CapGroupLeader    Capability = "group_leader"
)

// Field returns the bson field backing the capability.
func (c Capability) Field() (string, bool) {
	switch c {
	case CapMarkAttendance:
		return "can_mark_attendance", true
	case CapEditGrades:
		return "can_edit_grades", true
	case CapGroupLeader:
		return "is_group_leader", true
	}
	return "", false
}

// Permission holds the capability record for one account.
// Exactly one document per student_account.
type Permission struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	StudentAccount    string             `bson:"student_account" json:"student_account"`
	CanMarkAttendance bool               `bson:"can_mark_attendance" json:"can_mark_attendance"`
	CanEditGrades     bool               `bson:"can_edit_grades" json:"can_edit_grades"`
	IsGroupLeader     bool               `bson:"is_group_leader" json:"is_group_leader"`
	Role              Role               `bson:"role" json:"role"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	CreatedBy string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

// DefaultPermission is what an account without a record gets: no flags, role student.
func DefaultPermission(account string) Permission {
	return Permission{StudentAccount: account, Role: RoleStudent}
}

// Has reports whether the capability flag is set.
func (p Permission) Has(c Capability) bool {
	switch c {
	case CapMarkAttendance:
		return p.CanMarkAttendance
	case CapEditGrades:
		return p.CanEditGrades
	case CapGroupLeader:
		return p.IsGroupLeader
	}
	return false
}

var (
	ErrPermissionAccount  = errors.New("permission requires a student account")
	ErrPermissionRole     = errors.New(`role must be "student"|"group_leader"|"teacher"`)
	ErrPermissionMismatch = errors.New("role group_leader and is_group_leader must be set together")
	ErrPermissionStudent  = errors.New("role student cannot carry capability flags")
)

// Validate checks that role and flags agree. Stores call it before every write
// so a grant can never leave the label and the gate out of step.
func (p Permission) Validate() error {
	if p.StudentAccount == "" {
		return ErrPermissionAccount
	}
	if !p.Role.Valid() {
		return ErrPermissionRole
	}
	if (p.Role == RoleGroupLeader) != p.IsGroupLeader {
		return ErrPermissionMismatch
	}
	if p.Role == RoleStudent && (p.CanMarkAttendance || p.CanEditGrades) {
		return ErrPermissionStudent
	}
	return nil
}
