package models_test

import (
	"testing"

	"github.com/dalemusser/rollbook/internal/domain/models"
)

func TestPermission_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       models.Permission
		wantErr error
	}{
		{"default", models.DefaultPermission("100"), nil},
		{"teacher with flags", models.Permission{StudentAccount: "t@school.edu", Role: models.RoleTeacher, CanMarkAttendance: true, CanEditGrades: true}, nil},
		{"leader", models.Permission{StudentAccount: "100", Role: models.RoleGroupLeader, IsGroupLeader: true, CanMarkAttendance: true}, nil},
		{"missing account", models.Permission{Role: models.RoleStudent}, models.ErrPermissionAccount},
		{"bad role", models.Permission{StudentAccount: "100", Role: "admin"}, models.ErrPermissionRole},
		{"leader flag without role", models.Permission{StudentAccount: "100", Role: models.RoleStudent, IsGroupLeader: true}, models.ErrPermissionMismatch},
		{"leader role without flag", models.Permission{StudentAccount: "100", Role: models.RoleGroupLeader}, models.ErrPermissionMismatch},
		{"student with capability", models.Permission{StudentAccount: "100", Role: models.RoleStudent, CanEditGrades: true}, models.ErrPermissionStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-03-01", "2024-03-01", false},
		{" 2024-03-01 ", "2024-03-01", false},
		{"2024-03-01T15:04:05Z", "2024-03-01", false},
		{"03/01/2024", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := models.ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateRange_Contains(t *testing.T) {
	r := models.DateRange{From: "2024-03-01", To: "2024-03-31"}
	if !r.Contains("2024-03-15") || !r.Contains("2024-03-01") || !r.Contains("2024-03-31") {
		t.Error("expected inclusive range")
	}
	if r.Contains("2024-02-29") || r.Contains("2024-04-01") {
		t.Error("expected out-of-range dates to be excluded")
	}
	if !(models.DateRange{}).Contains("1999-01-01") {
		t.Error("expected open range to contain everything")
	}
}
