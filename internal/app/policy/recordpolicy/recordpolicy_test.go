package recordpolicy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/policy/recordpolicy"
	"github.com/dalemusser/rollbook/internal/app/store/memstore"
	"github.com/dalemusser/rollbook/internal/app/system/permits"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/rollbook/internal/testutil"
	"go.uber.org/zap"
)

// world has groups A and B, a leader of A with attendance rights only, a
// leader of A with grade rights, a fully enabled teacher and a teacher with
// no flags.
func world(t *testing.T) (*recordpolicy.Guard, *memstore.DB) {
	t.Helper()
	db := memstore.New()
	ctx := context.Background()
	fx := testutil.NewFixtures(t, db.Set())

	fx.CreateStudent(ctx, "a1", "Ana", "A", "A")
	fx.CreateStudent(ctx, "a2", "Ben", "A", "A")
	fx.CreateStudent(ctx, "b1", "Cal", "B", "B")
	fx.CreateLeader(ctx, "la", "A", false)
	fx.CreateLeader(ctx, "lg", "A", true)
	fx.CreateTeacher(ctx, "t1")
	if _, err := db.Permissions().Set(ctx, models.Permission{StudentAccount: "t0", Role: models.RoleTeacher}, "fixtures"); err != nil {
		t.Fatal(err)
	}
	return recordpolicy.New(db.Students(), db.Permissions(), zap.NewNop()), db
}

func subject(account string, role models.Role) models.Subject {
	return models.Subject{Account: account, Role: role, Authenticated: true}
}

func TestAuthorize(t *testing.T) {
	g, _ := world(t)
	ctx := context.Background()

	anon := models.Anonymous()
	student := subject("a1", models.RoleStudent)
	leaderA := subject("la", models.RoleGroupLeader)
	graderA := subject("lg", models.RoleGroupLeader)
	teacher := subject("t1", models.RoleTeacher)
	bareTeacher := subject("t0", models.RoleTeacher)

	tests := []struct {
		name   string
		sub    models.Subject
		action recordpolicy.Action
		target recordpolicy.Target
		want   bool
	}{
		{"anon read none", anon, recordpolicy.Read, recordpolicy.None, true},
		{"anon read record", anon, recordpolicy.Read, recordpolicy.Account("a1"), false},
		{"anon mark", anon, recordpolicy.MarkAttendance, recordpolicy.Account("a1"), false},

		{"student reads self", student, recordpolicy.Read, recordpolicy.Account("a1"), true},
		{"student reads other", student, recordpolicy.Read, recordpolicy.Account("a2"), false},
		{"student marks self", student, recordpolicy.MarkAttendance, recordpolicy.Account("a1"), false},
		{"student edits grade", student, recordpolicy.EditGrade, recordpolicy.Account("a1"), false},

		{"leader marks own group", leaderA, recordpolicy.MarkAttendance, recordpolicy.Account("a1"), true},
		{"leader participation own group", leaderA, recordpolicy.UpdateParticipation, recordpolicy.Account("a2"), true},
		{"leader marks other group", leaderA, recordpolicy.MarkAttendance, recordpolicy.Account("b1"), false},
		{"leader edits grade without flag", leaderA, recordpolicy.EditGrade, recordpolicy.Account("a1"), false},
		{"leader reads own group", leaderA, recordpolicy.Read, recordpolicy.Account("a2"), true},
		{"leader reads other group", leaderA, recordpolicy.Read, recordpolicy.Account("b1"), false},
		{"leader manages permissions", leaderA, recordpolicy.ManagePermissions, recordpolicy.None, false},

		{"grader edits own group", graderA, recordpolicy.EditGrade, recordpolicy.Account("a1"), true},
		{"grader edits other group", graderA, recordpolicy.EditGrade, recordpolicy.Account("b1"), false},

		{"teacher marks anyone", teacher, recordpolicy.MarkAttendance, recordpolicy.Account("b1"), true},
		{"teacher edits anyone", teacher, recordpolicy.EditGrade, recordpolicy.Account("a1"), true},
		{"teacher reads anyone", teacher, recordpolicy.Read, recordpolicy.Account("b1"), true},
		{"teacher manages roster", teacher, recordpolicy.ManageRoster, recordpolicy.None, true},
		{"flagless teacher marks", bareTeacher, recordpolicy.MarkAttendance, recordpolicy.Account("a1"), false},
		{"flagless teacher edits", bareTeacher, recordpolicy.EditGrade, recordpolicy.Account("a1"), false},
		{"flagless teacher reads", bareTeacher, recordpolicy.Read, recordpolicy.Account("a1"), true},
		{"flagless teacher manages permissions", bareTeacher, recordpolicy.ManagePermissions, recordpolicy.None, true},

		{"unknown action", teacher, recordpolicy.Action("delete_everything"), recordpolicy.None, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Authorize(ctx, tt.sub, tt.action, tt.target)
			if d.Allowed != tt.want {
				t.Errorf("Allowed = %v, want %v (reason %q)", d.Allowed, tt.want, d.Reason)
			}
			if d.Reason == "" {
				t.Error("decision has no reason")
			}
		})
	}
}

func TestAuthorize_LeaderGroupChangeTakesEffect(t *testing.T) {
	g, db := world(t)
	ctx := context.Background()
	leader := subject("la", models.RoleGroupLeader)

	if d := g.Authorize(ctx, leader, recordpolicy.MarkAttendance, recordpolicy.Account("b1")); d.Allowed {
		t.Fatal("expected deny before regroup")
	}
	if err := db.Students().SetGroup(ctx, "b1", "A"); err != nil {
		t.Fatal(err)
	}
	if d := g.Authorize(ctx, leader, recordpolicy.MarkAttendance, recordpolicy.Account("b1")); !d.Allowed {
		t.Errorf("expected allow after regroup, reason %q", d.Reason)
	}
}

func TestAuthorize_RevokedFlagTakesEffect(t *testing.T) {
	g, db := world(t)
	ctx := context.Background()
	teacher := subject("t1", models.RoleTeacher)

	p := permits.Grant("t1", models.RoleTeacher, permits.Options{})
	p.CanEditGrades = false
	if _, err := db.Permissions().Set(ctx, p, "admin"); err != nil {
		t.Fatal(err)
	}
	if d := g.Authorize(ctx, teacher, recordpolicy.EditGrade, recordpolicy.Account("a1")); d.Allowed {
		t.Error("expected deny after revoking can_edit_grades")
	}
}

func TestAuthorize_UnknownTarget(t *testing.T) {
	g, _ := world(t)
	d := g.Authorize(context.Background(), subject("t1", models.RoleTeacher), recordpolicy.MarkAttendance, recordpolicy.Account("ghost"))
	if d.Allowed || d.Kind != errs.ErrNotFound {
		t.Errorf("got %+v, want not-found deny", d)
	}
	if err := d.AsError("op", "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("AsError = %v, want ErrNotFound", err)
	}
}

func TestAuthorize_StorageFailureDenies(t *testing.T) {
	g, db := world(t)
	db.Permissions().FailWith(errors.New("timeout"))

	d := g.Authorize(context.Background(), subject("t1", models.RoleTeacher), recordpolicy.MarkAttendance, recordpolicy.Account("a1"))
	if d.Allowed || d.Kind != errs.ErrStorage {
		t.Errorf("got %+v, want storage deny", d)
	}
	if err := d.AsError("op", "a1"); !errors.Is(err, errs.ErrStorage) {
		t.Errorf("AsError = %v, want ErrStorage", err)
	}
}

func TestDecision_AsError(t *testing.T) {
	if err := (recordpolicy.Decision{Allowed: true}).AsError("op", "a1"); err != nil {
		t.Errorf("allowed decision produced error %v", err)
	}
	err := (recordpolicy.Decision{Reason: "nope"}).AsError("op", "a1")
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestListScope(t *testing.T) {
	g, db := world(t)
	ctx := context.Background()
	a1 := models.Student{Account: "a1", Group: "A"}
	b1 := models.Student{Account: "b1", Group: "B"}

	tests := []struct {
		name    string
		sub     models.Subject
		wantA1  bool
		wantB1  bool
		canRead bool
	}{
		{"anonymous", models.Anonymous(), false, false, false},
		{"teacher", subject("t0", models.RoleTeacher), true, true, true},
		{"student", subject("a1", models.RoleStudent), true, false, true},
		{"leader", subject("la", models.RoleGroupLeader), true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := g.ListScope(ctx, tt.sub)
			if err != nil {
				t.Fatalf("ListScope: %v", err)
			}
			if s.CanRead != tt.canRead || s.Allows(a1) != tt.wantA1 || s.Allows(b1) != tt.wantB1 {
				t.Errorf("scope %+v: a1=%v b1=%v", s, s.Allows(a1), s.Allows(b1))
			}
		})
	}

	db.Permissions().FailWith(errors.New("down"))
	if _, err := g.ListScope(ctx, subject("la", models.RoleGroupLeader)); err == nil {
		t.Error("expected error when permissions are unavailable")
	}
}
