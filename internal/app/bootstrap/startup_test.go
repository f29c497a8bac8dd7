package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/engine"
	"github.com/dalemusser/rollbook/internal/app/system/aggregate"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/rollbook/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureTeacher_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureTeacher(ctx, deps, " Head.Teacher@School.edu ", testLogger()); err != nil {
		t.Fatalf("ensureTeacher failed: %v", err)
	}

	var p models.Permission
	if err := db.Collection("permissions").FindOne(ctx, bson.M{"student_account": "head.teacher@school.edu"}).Decode(&p); err != nil {
		t.Fatalf("failed to find created permission: %v", err)
	}
	if p.Role != models.RoleTeacher || !p.CanMarkAttendance || !p.CanEditGrades {
		t.Errorf("permission = %+v, want full teacher", p)
	}
	if p.CreatedBy != "bootstrap" {
		t.Errorf("created_by = %q, want bootstrap", p.CreatedBy)
	}
}

func TestEnsureTeacher_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, engine.MongoStores(db))
	fx.CreateStudent(ctx, "1001", "Ana", "Ruiz", "A")
	fx.CreateLeader(ctx, "1001", "A", false)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureTeacher(ctx, deps, "1001", testLogger()); err != nil {
		t.Fatalf("ensureTeacher failed: %v", err)
	}

	n, err := db.Collection("permissions").CountDocuments(ctx, bson.M{"student_account": "1001"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 permission document, got %d", n)
	}
	var p models.Permission
	if err := db.Collection("permissions").FindOne(ctx, bson.M{"student_account": "1001"}).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Role != models.RoleTeacher || p.IsGroupLeader {
		t.Errorf("permission = %+v, want teacher without leader flag", p)
	}
}

func TestEnsureTeacher_AlreadyTeacher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := ensureTeacher(ctx, deps, "t@school.edu", testLogger()); err != nil {
			t.Fatalf("ensureTeacher #%d failed: %v", i+1, err)
		}
	}
	n, err := db.Collection("permissions").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 permission document, got %d", n)
	}
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "rollbook",
		Bands:            aggregate.DefaultBands,
		BatchConcurrency: 8,
		AuditLogAuth:     "all",
		AuditLogRecords:  "db",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"bands out of order", func(c *AppConfig) { c.Bands.C = 80 }, "strictly decreasing"},
		{"no concurrency", func(c *AppConfig) { c.BatchConcurrency = 0 }, "batch_concurrency"},
		{"unknown audit setting", func(c *AppConfig) { c.AuditLogRecords = "file" }, "audit_log_records"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			switch {
			case tt.want == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.want != "" && (err == nil || !strings.Contains(err.Error(), tt.want)):
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := validConfig()
	cfg.StrictRosterLookup = true
	cfg.TeacherEmailMarkers = []string{"teacher"}

	opts := cfg.EngineOptions()
	if !opts.Identity.StrictRosterLookup || len(opts.Identity.TeacherEmailMarkers) != 1 {
		t.Errorf("identity = %+v", opts.Identity)
	}
	if opts.Audit.Records != "db" || opts.BatchConcurrency != 8 || opts.Bands != aggregate.DefaultBands {
		t.Errorf("opts = %+v", opts)
	}
}

func TestBuildHandler_Metrics(t *testing.T) {
	h, err := BuildHandler(nil, validConfig(), DBDeps{}, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output is missing the default collectors")
	}
}
