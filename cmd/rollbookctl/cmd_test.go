package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/engine"
	"github.com/dalemusser/rollbook/internal/app/store/memstore"
	"github.com/dalemusser/rollbook/internal/app/system/identity"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/testutil"
	"go.uber.org/zap"
)

const teacherEmail = "maria.teacher@school.edu"

func setup(t *testing.T) (*commandLine, *bytes.Buffer, *memstore.DB) {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()
	eng := engine.New(db.Set(), db.Audit(), engine.Options{Identity: identity.DefaultConfig()}, zap.NewNop())

	fx := testutil.NewFixtures(t, db.Set())
	fx.CreateStaff(ctx, teacherEmail, "Maria", "s3cret")
	fx.CreateTeacher(ctx, teacherEmail)
	fx.CreateStudent(ctx, "1001", "Ana", "Ruiz", "A")
	fx.CreateStudent(ctx, "1002", "Ben", "Soto", "B")

	var out bytes.Buffer
	cli := newCommandLine(eng, &out)
	cli.getenv = func(k string) string {
		if k == PasswordEnv {
			return "s3cret"
		}
		return ""
	}
	return cli, &out, db
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func Test_commandLine_run(t *testing.T) {
	grades := "account,grade\n1001,8.5\n1002,\"7,25\"\n"
	badGrades := "account,grade\n1001,8.5\n1002,12\n"
	attendance := "student_id,asistencia\n1001,p\n1002,a\n"

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: errHelp},
		{name: "import missing flags", args: []string{"import", "-as-email", teacherEmail}, wantErr: errHelp},
		{name: "missing actor", args: []string{"roster"}, wantErrStr: "-as-account or -as-email"},
		{
			name:    "import grades",
			args:    []string{"import", "-as-email", teacherEmail, "-kind", "grade", "-category", "midterm", "-file", "grades.csv"},
			wantOut: `"processedCount": 2`,
		},
		{
			name:    "import rejected",
			args:    []string{"import", "-as-email", teacherEmail, "-kind", "grade", "-category", "midterm", "-file", "bad.csv"},
			wantErr: errBatchRejected,
			wantOut: `"validCount": 1`,
		},
		{
			name:       "import unknown category",
			args:       []string{"import", "-as-email", teacherEmail, "-kind", "grade", "-category", "quiz", "-file", "grades.csv"},
			wantErrStr: `unknown grade category "quiz"`,
		},
		{
			name:       "import bad date",
			args:       []string{"import", "-as-email", teacherEmail, "-kind", "attendance", "-date", "yesterday", "-file", "att.csv"},
			wantErrStr: "-date",
		},
		{
			name:    "import attendance",
			args:    []string{"import", "-as-email", teacherEmail, "-kind", "attendance", "-date", "2024-03-04", "-file", "att.csv"},
			wantOut: `"success": true`,
		},
		{
			name:    "roster by group",
			args:    []string{"roster", "-as-email", teacherEmail, "-group", "B"},
			wantOut: `"account": "1002"`,
		},
		{
			name:    "permit leader",
			args:    []string{"permit", "-as-email", teacherEmail, "-account", "1001", "-role", "group_leader", "-attendance"},
			wantOut: `"is_group_leader": true`,
		},
	}

	files := map[string]string{"grades.csv": grades, "bad.csv": badGrades, "att.csv": attendance}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out, _ := setup(t)
			args := append([]string{"rollbookctl"}, tt.args...)
			for i, a := range args {
				if content, ok := files[a]; ok {
					args[i] = writeFile(t, a, content)
				}
			}

			err := cli.run(context.Background(), args)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Fatalf("err = %v, want mention of %q", err, tt.wantErrStr)
				}
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, out.String())
			}
		})
	}
}

func Test_commandLine_permitDeniedForStudent(t *testing.T) {
	cli, _, db := setup(t)
	err := cli.run(context.Background(), []string{"rollbookctl", "permit", "-as-account", "1001", "-account", "1001", "-role", "teacher"})
	if errs.KindOf(err) != errs.ErrPermissionDenied {
		t.Fatalf("err = %v, want permission denied", err)
	}
	p, err := db.Permissions().Get(context.Background(), "1001")
	if err == nil && p.Role == "teacher" {
		t.Error("student promoted themselves")
	}
}

func Test_commandLine_summary(t *testing.T) {
	cli, out, _ := setup(t)
	ctx := context.Background()
	att := writeFile(t, "att.csv", "account,present\n1001,p\n1002,p\n")
	if err := cli.run(ctx, []string{"rollbookctl", "import", "-as-email", teacherEmail, "-kind", "attendance", "-date", "2024-03-04", "-file", att}); err != nil {
		t.Fatalf("import: %v", err)
	}
	out.Reset()

	if err := cli.run(ctx, []string{"rollbookctl", "summary", "-as-account", "1001", "-account", "1001"}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{`"total_sessions": 1`, `"present": 1`, `"rate": 100`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func Test_commandLine_wrongPassword(t *testing.T) {
	cli, _, _ := setup(t)
	cli.getenv = func(string) string { return "nope" }
	err := cli.run(context.Background(), []string{"rollbookctl", "stats", "-as-email", teacherEmail})
	if errs.KindOf(err) != errs.ErrAuth {
		t.Fatalf("err = %v, want auth error", err)
	}
}
