package auditlog_test

import (
	"context"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/store/audit"
	"github.com/dalemusser/rollbook/internal/app/store/memstore"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()

	// no panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginProvisional(ctx, "s1")
	logger.PermissionSet(ctx, "t1", "s1", "teacher")
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		wantDB  int
		wantZap int
	}{
		{"all", auditlog.ToAll, 1, 1},
		{"db", auditlog.ToDB, 1, 0},
		{"log", auditlog.ToLog, 0, 1},
		{"off", auditlog.Off, 0, 0},
		{"empty defaults to all", "", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := memstore.New()
			core, logs := observer.New(zap.InfoLevel)
			logger := auditlog.New(db.Audit(), zap.New(core), auditlog.Config{Records: tt.setting})
			ctx := context.Background()

			logger.RecordWritten(ctx, audit.EventGradeEdited, "t1", "s1", map[string]string{"category": "midterm"})

			events, err := db.Audit().Query(ctx, audit.QueryFilter{})
			if err != nil {
				t.Fatal(err)
			}
			if len(events) != tt.wantDB {
				t.Errorf("db events = %d, want %d", len(events), tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantZap {
				t.Errorf("zap entries = %d, want %d", got, tt.wantZap)
			}
		})
	}
}

func TestLogger_AuthCategoryUsesAuthSetting(t *testing.T) {
	db := memstore.New()
	logger := auditlog.New(db.Audit(), zap.NewNop(), auditlog.Config{Auth: auditlog.Off, Records: auditlog.ToDB})
	ctx := context.Background()

	logger.LoginProvisional(ctx, "s9")
	logger.PermissionSet(ctx, "t1", "s1", "group_leader")

	events, _ := db.Audit().Query(ctx, audit.QueryFilter{})
	if len(events) != 1 || events[0].EventType != audit.EventPermissionSet {
		t.Errorf("expected only the permission event, got %+v", events)
	}
}

func TestLogger_SinkFailureIsLogged(t *testing.T) {
	db := memstore.New()
	db.Audit().FailWith(context.DeadlineExceeded)
	core, logs := observer.New(zap.ErrorLevel)
	logger := auditlog.New(db.Audit(), zap.New(core), auditlog.Config{Records: auditlog.ToDB})

	logger.AccessDenied(context.Background(), "l1", "s2", "mark_attendance", "different group")

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected sink failure to be logged")
	}
}
