package engine_test

import (
	"context"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/engine"
	"github.com/dalemusser/rollbook/internal/app/store/audit"
	"github.com/dalemusser/rollbook/internal/app/store/memstore"
	"github.com/dalemusser/rollbook/internal/app/system/batch"
	"github.com/dalemusser/rollbook/internal/app/system/identity"
	"github.com/dalemusser/rollbook/internal/app/system/permits"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/rollbook/internal/testutil"
	"go.uber.org/zap"
)

func TestEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	e := engine.New(db.Set(), db.Audit(), engine.Options{Identity: identity.DefaultConfig()}, zap.NewNop())

	fx := testutil.NewFixtures(t, db.Set())
	fx.CreateStaff(ctx, "maria.teacher@school.edu", "Maria", "s3cret")

	teacher, err := e.Identity.Resolve(ctx, identity.PasswordCredential{Email: "Maria.Teacher@school.edu", Password: "s3cret"})
	if err != nil {
		t.Fatalf("teacher login: %v", err)
	}
	if teacher.Role != models.RoleTeacher {
		t.Fatalf("role = %s, want teacher", teacher.Role)
	}
	if _, err := e.Permits.Set(ctx, teacher, permits.Grant(teacher.Account, models.RoleTeacher, permits.Options{})); err != nil {
		t.Fatalf("grant teacher: %v", err)
	}

	roster := []batch.Row{
		{Line: 2, Fields: map[string]string{"account": "1001", "name": "Ana", "surname": "Ruiz", "group": "A"}},
		{Line: 3, Fields: map[string]string{"account": "1002", "name": "Ben", "surname": "Soto", "group": "A"}},
		{Line: 4, Fields: map[string]string{"account": "1003", "name": "Cal", "surname": "Vega", "group": "B"}},
	}
	if res := e.Batch.Import(ctx, teacher, roster, batch.RosterSchema()); !res.Success || res.ProcessedCount != 3 {
		t.Fatalf("roster import: %+v", res)
	}

	if _, err := e.Permits.Set(ctx, teacher, permits.Grant("1001", models.RoleGroupLeader, permits.Options{MarkAttendance: true})); err != nil {
		t.Fatalf("grant leader: %v", err)
	}
	leader, err := e.Identity.Resolve(ctx, identity.AccountCredential{Account: "1001"})
	if err != nil {
		t.Fatalf("leader login: %v", err)
	}
	if leader.Role != models.RoleGroupLeader {
		t.Fatalf("role = %s, want group_leader", leader.Role)
	}

	att := []batch.Row{
		{Line: 2, Fields: map[string]string{"account": "1001", "present": "p"}},
		{Line: 3, Fields: map[string]string{"account": "1002", "present": "a"}},
	}
	if res := e.Batch.Import(ctx, leader, att, batch.AttendanceSchema("2024-03-01")); !res.Success || res.ProcessedCount != 2 {
		t.Fatalf("leader attendance import: %+v", res)
	}
	other := []batch.Row{{Line: 2, Fields: map[string]string{"account": "1003", "present": "1"}}}
	if res := e.Batch.Import(ctx, leader, other, batch.AttendanceSchema("2024-03-01")); res.Success || len(res.Errors) != 1 {
		t.Errorf("leader import for group B: %+v", res)
	}

	sum, err := e.Records.GetStudentSummary(ctx, leader, "1002")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalSessions != 1 || sum.Present != 0 || sum.Absent != 1 {
		t.Errorf("summary = %+v", sum)
	}

	batches, err := db.Audit().Query(ctx, audit.QueryFilter{EventType: audit.EventBatchCommitted})
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 3 {
		t.Errorf("batch audit events = %d, want 3", len(batches))
	}
}
