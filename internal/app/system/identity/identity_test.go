package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/store/audit"
	"github.com/dalemusser/rollbook/internal/app/store/memstore"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/identity"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/rollbook/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeVerifier struct {
	claims identity.Claims
	err    error
}

func (f fakeVerifier) Verify(context.Context, string) (identity.Claims, error) {
	return f.claims, f.err
}

func setup(t *testing.T, cfg identity.Config, v identity.AssertionVerifier) (*identity.Resolver, *memstore.DB, *observer.ObservedLogs) {
	t.Helper()
	db := memstore.New()
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	al := auditlog.New(db.Audit(), zap.NewNop(), auditlog.Config{})
	return identity.New(db.Set(), cfg, v, al, logger), db, logs
}

func TestResolve_RosterAccount(t *testing.T) {
	r, db, _ := setup(t, identity.DefaultConfig(), nil)
	ctx := context.Background()
	fx := testutil.NewFixtures(t, db.Set())
	fx.CreateStudent(ctx, "1001", "Ana", "Ruiz", "A")
	fx.CreateLeader(ctx, "1002", "A", false)

	tests := []struct {
		account string
		want    models.Role
	}{
		{"1001", models.RoleStudent},
		{" 1002 ", models.RoleGroupLeader},
	}
	for _, tt := range tests {
		t.Run(tt.account, func(t *testing.T) {
			sub, err := r.Resolve(ctx, identity.AccountCredential{Account: tt.account})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if sub.Role != tt.want || !sub.Authenticated || sub.Provisional {
				t.Errorf("got %+v, want role %s", sub, tt.want)
			}
		})
	}
}

func TestResolve_UnknownAccountStrict(t *testing.T) {
	r, _, _ := setup(t, identity.DefaultConfig(), nil)

	_, err := r.Resolve(context.Background(), identity.AccountCredential{Account: "9999"})
	if !errors.Is(err, errs.ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestResolve_UnknownAccountLegacy(t *testing.T) {
	cfg := identity.DefaultConfig()
	cfg.StrictRosterLookup = false
	r, db, logs := setup(t, cfg, nil)
	ctx := context.Background()

	sub, err := r.Resolve(ctx, identity.AccountCredential{Account: "9999"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !sub.Provisional || sub.Role != models.RoleStudent || !sub.Authenticated {
		t.Errorf("got %+v, want provisional student", sub)
	}
	if logs.FilterMessage("provisional login for account not on roster").Len() != 1 {
		t.Error("expected a warning for the provisional login")
	}
	events, _ := db.Audit().Query(ctx, audit.QueryFilter{EventType: audit.EventLoginProvisional})
	if len(events) != 1 || events[0].Account != "9999" {
		t.Errorf("expected one provisional audit event, got %+v", events)
	}
}

func TestResolve_Password(t *testing.T) {
	r, db, _ := setup(t, identity.DefaultConfig(), nil)
	ctx := context.Background()
	fx := testutil.NewFixtures(t, db.Set())
	fx.CreateStaff(ctx, "maria.teacher@school.edu", "Maria", "s3cret")
	fx.CreateStaff(ctx, "office@school.edu", "Office", "s3cret")

	sub, err := r.Resolve(ctx, identity.PasswordCredential{Email: "Maria.Teacher@School.edu", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sub.Role != models.RoleTeacher || sub.Account != "maria.teacher@school.edu" {
		t.Errorf("got %+v", sub)
	}

	sub, err = r.Resolve(ctx, identity.PasswordCredential{Email: "office@school.edu", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sub.Role != models.RoleStudent {
		t.Errorf("role = %s, want student", sub.Role)
	}

	failures := []identity.PasswordCredential{
		{Email: "maria.teacher@school.edu", Password: "wrong"},
		{Email: "nobody@school.edu", Password: "s3cret"},
		{Email: "", Password: ""},
	}
	for _, c := range failures {
		if _, err := r.Resolve(ctx, c); !errors.Is(err, errs.ErrAuth) {
			t.Errorf("Resolve(%q) expected ErrAuth, got %v", c.Email, err)
		}
	}
}

func TestResolve_DisabledStaff(t *testing.T) {
	r, db, _ := setup(t, identity.DefaultConfig(), nil)
	ctx := context.Background()
	if _, err := db.Staff().Create(ctx, models.StaffAccount{Email: "x.teacher@school.edu", Status: models.StaffDisabled}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(ctx, identity.PasswordCredential{Email: "x.teacher@school.edu", Password: "anything"}); !errors.Is(err, errs.ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestResolve_Assertion(t *testing.T) {
	ctx := context.Background()

	r, _, _ := setup(t, identity.DefaultConfig(), nil)
	if _, err := r.Resolve(ctx, identity.AssertionCredential{Token: "tok"}); !errors.Is(err, errs.ErrAuth) {
		t.Errorf("no verifier: expected ErrAuth, got %v", err)
	}

	r, _, _ = setup(t, identity.DefaultConfig(), fakeVerifier{claims: identity.Claims{Email: "Profesor.Diaz@school.edu"}})
	sub, err := r.Resolve(ctx, identity.AssertionCredential{Token: "tok"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sub.Role != models.RoleTeacher || sub.Method != models.MethodAssertion {
		t.Errorf("got %+v", sub)
	}

	r, _, _ = setup(t, identity.DefaultConfig(), fakeVerifier{err: errors.New("expired")})
	if _, err := r.Resolve(ctx, identity.AssertionCredential{Token: "tok"}); !errors.Is(err, errs.ErrAuth) {
		t.Errorf("rejected token: expected ErrAuth, got %v", err)
	}
}

func TestResolve_EmptyAndNil(t *testing.T) {
	r, _, _ := setup(t, identity.DefaultConfig(), nil)
	ctx := context.Background()

	for _, c := range []identity.Credential{nil, identity.AccountCredential{}, identity.AssertionCredential{}} {
		if _, err := r.Resolve(ctx, c); !errors.Is(err, errs.ErrAuth) {
			t.Errorf("Resolve(%#v) expected ErrAuth, got %v", c, err)
		}
	}
}

func TestResolve_StorageFailure(t *testing.T) {
	r, db, _ := setup(t, identity.DefaultConfig(), nil)
	db.Students().FailWith(errors.New("connection reset"))

	_, err := r.Resolve(context.Background(), identity.AccountCredential{Account: "1001"})
	if !errors.Is(err, errs.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
}

func TestInferRole(t *testing.T) {
	cfg := identity.Config{TeacherEmailMarkers: []string{"Teacher", "docente"}}
	r, _, _ := setup(t, cfg, nil)

	tests := []struct {
		email string
		want  models.Role
	}{
		{"ana.teacher@school.edu", models.RoleTeacher},
		{"DOCENTE.ruiz@school.edu", models.RoleTeacher},
		{"ana@school.edu", models.RoleStudent},
	}
	for _, tt := range tests {
		if got := r.InferRole(tt.email); got != tt.want {
			t.Errorf("InferRole(%q) = %s, want %s", tt.email, got, tt.want)
		}
	}
}
