// internal/app/policy/recordpolicy/recordpolicy.go
package recordpolicy

import (
	"context"
	"errors"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/system/metrics"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.uber.org/zap"
)

// Action is an operation on student records.
type Action string

const (
	MarkAttendance      Action = "mark_attendance"
	UpdateParticipation Action = "update_participation"
	EditGrade           Action = "edit_grade"
	Read                Action = "read"
	ManagePermissions   Action = "manage_permissions"
	ManageRoster        Action = "manage_roster"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case MarkAttendance, UpdateParticipation, EditGrade, Read, ManagePermissions, ManageRoster:
		return true
	}
	return false
}

// Target is the student account an action touches. The zero Target means
// the action is not about any particular student.
type Target struct {
	Account string
}

// None is the empty target.
var None = Target{}

// Account targets one student.
func Account(account string) Target { return Target{Account: account} }

// Decision is the outcome of Authorize. Kind is set when the denial came from
// a missing target (errs.ErrNotFound) or a store failure (errs.ErrStorage).
type Decision struct {
	Allowed bool
	Reason  string
	Kind    errs.Kind
	Err     error
}

// AsError converts a denial into a typed error for op; nil when allowed.
func (d Decision) AsError(op, account string) error {
	if d.Allowed {
		return nil
	}
	kind := d.Kind
	if kind == "" {
		kind = errs.ErrPermissionDenied
	}
	cause := d.Err
	if cause == nil {
		cause = errors.New(d.Reason)
	}
	return &errs.Error{Kind: kind, Op: op, Account: account, Err: cause}
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Reason: reason} }

func storageDeny(err error) Decision {
	return Decision{Reason: "storage unavailable", Kind: errs.ErrStorage, Err: err}
}

func notFoundDeny() Decision {
	return Decision{Reason: "target not on roster", Kind: errs.ErrNotFound}
}

// Guard decides whether a subject may perform an action on a target. It holds
// no state: flags are read from the permission store and groups from the
// roster on every call.
type Guard struct {
	students    store.Students
	permissions store.Permissions
	log         *zap.Logger
}

// New creates a Guard.
func New(students store.Students, permissions store.Permissions, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{students: students, permissions: permissions, log: logger}
}

// Authorize decides and records the decision in metrics. It fails closed:
// any lookup error is a denial.
func (g *Guard) Authorize(ctx context.Context, sub models.Subject, action Action, target Target) Decision {
	d := g.decide(ctx, sub, action, target)
	metrics.Decision(string(action), d.Allowed)
	if !d.Allowed {
		g.log.Debug("authorization denied",
			zap.String("actor", sub.Account),
			zap.String("role", string(sub.Role)),
			zap.String("action", string(action)),
			zap.String("account", target.Account),
			zap.String("reason", d.Reason))
	}
	return d
}

func (g *Guard) decide(ctx context.Context, sub models.Subject, action Action, target Target) Decision {
	if !action.Valid() {
		return deny("unknown action")
	}
	if !sub.Authenticated {
		if action == Read && target == None {
			return allow("public read")
		}
		return deny("not authenticated")
	}
	if action == Read && target == None {
		return allow("no target")
	}

	switch sub.Role {
	case models.RoleTeacher:
		return g.teacher(ctx, sub, action, target)
	case models.RoleGroupLeader:
		return g.leader(ctx, sub, action, target)
	case models.RoleStudent:
		if action == Read && target.Account == sub.Account {
			return allow("own record")
		}
		return deny("students may only read their own records")
	}
	return deny("unknown role")
}

func (g *Guard) teacher(ctx context.Context, sub models.Subject, action Action, target Target) Decision {
	if action == ManagePermissions || action == ManageRoster {
		return allow("teacher")
	}
	perm, err := g.effective(ctx, sub.Account)
	if err != nil {
		return storageDeny(err)
	}
	switch action {
	case MarkAttendance, UpdateParticipation:
		if !perm.CanMarkAttendance {
			return deny("missing can_mark_attendance")
		}
	case EditGrade:
		if !perm.CanEditGrades {
			return deny("missing can_edit_grades")
		}
	}
	if _, err := g.group(ctx, target.Account); err != nil {
		return lookupDeny(err)
	}
	return allow("teacher")
}

func (g *Guard) leader(ctx context.Context, sub models.Subject, action Action, target Target) Decision {
	if action == ManagePermissions || action == ManageRoster {
		return deny("teacher only")
	}
	perm, err := g.effective(ctx, sub.Account)
	if err != nil {
		return storageDeny(err)
	}
	if !perm.IsGroupLeader {
		if action == Read && target.Account == sub.Account {
			return allow("own record")
		}
		return deny("not a group leader")
	}
	switch action {
	case MarkAttendance, UpdateParticipation:
		if !perm.CanMarkAttendance {
			return deny("missing can_mark_attendance")
		}
	case EditGrade:
		if !perm.CanEditGrades {
			return deny("missing can_edit_grades")
		}
	}

	// Both groups come from the roster on every call.
	own, err := g.group(ctx, sub.Account)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return deny("leader not on roster")
		}
		return storageDeny(err)
	}
	theirs, err := g.group(ctx, target.Account)
	if err != nil {
		return lookupDeny(err)
	}
	if own == "" || own != theirs {
		return deny("target is outside the leader's group")
	}
	return allow("same group")
}

func lookupDeny(err error) Decision {
	if errors.Is(err, store.ErrNotFound) {
		return notFoundDeny()
	}
	return storageDeny(err)
}

func (g *Guard) effective(ctx context.Context, account string) (models.Permission, error) {
	p, err := g.permissions.Get(ctx, account)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultPermission(account), nil
	}
	return p, err
}

func (g *Guard) group(ctx context.Context, account string) (string, error) {
	st, err := g.students.Get(ctx, account)
	if err != nil {
		return "", err
	}
	return st.Group, nil
}

// ReadScope is the set of student records a subject may list.
type ReadScope struct {
	// CanRead is false when the subject may not list any record.
	CanRead bool
	// All means every account. Otherwise Group (leaders) or Account
	// (students) restricts the listing.
	All     bool
	Group   string
	Account string
}

// Allows reports whether st falls inside the scope.
func (s ReadScope) Allows(st models.Student) bool {
	switch {
	case !s.CanRead:
		return false
	case s.All:
		return true
	case s.Group != "":
		return st.Group == s.Group
	}
	return s.Account != "" && st.Account == s.Account
}

// ListScope determines which records sub may list. Like Authorize it reads
// the leader's flag and group from the stores on every call.
func (g *Guard) ListScope(ctx context.Context, sub models.Subject) (ReadScope, error) {
	if !sub.Authenticated {
		return ReadScope{}, nil
	}
	switch sub.Role {
	case models.RoleTeacher:
		return ReadScope{CanRead: true, All: true}, nil
	case models.RoleStudent:
		return ReadScope{CanRead: true, Account: sub.Account}, nil
	case models.RoleGroupLeader:
		perm, err := g.effective(ctx, sub.Account)
		if err != nil {
			return ReadScope{}, err
		}
		if !perm.IsGroupLeader {
			return ReadScope{CanRead: true, Account: sub.Account}, nil
		}
		own, err := g.group(ctx, sub.Account)
		if errors.Is(err, store.ErrNotFound) || (err == nil && own == "") {
			return ReadScope{CanRead: true, Account: sub.Account}, nil
		}
		if err != nil {
			return ReadScope{}, err
		}
		return ReadScope{CanRead: true, Group: own}, nil
	}
	return ReadScope{}, nil
}
