// Package permits manages capability records on top of store.Permissions.
//
// Role and flags always travel together: Grant builds a consistent set for a
// role, and Set refuses anything models.Permission.Validate rejects. Every
// mutation made on behalf of a subject needs manage_permissions from the
// guard; Seed is the unchecked path for startup bootstrapping.
package permits

import (
	"context"
	"errors"

	"github.com/dalemusser/rollbook/internal/app/policy/recordpolicy"
	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.uber.org/zap"
)

// Service reads and writes permissions.
type Service struct {
	store store.Permissions
	guard *recordpolicy.Guard
	audit *auditlog.Logger
	log   *zap.Logger
}

// New creates a permission service. With a nil guard every subject-driven
// mutation is denied and only Seed can write.
func New(ps store.Permissions, guard *recordpolicy.Guard, audit *auditlog.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: ps, guard: guard, audit: audit, log: logger}
}

var errNoGuard = errors.New("no authorization guard configured")

// authorize checks that sub may change permissions.
func (s *Service) authorize(ctx context.Context, sub models.Subject, account, op string) error {
	if s.guard == nil {
		return errs.Denied(op, account, errNoGuard.Error())
	}
	d := s.guard.Authorize(ctx, sub, recordpolicy.ManagePermissions, recordpolicy.None)
	if d.Allowed {
		return nil
	}
	if d.Kind == "" {
		s.audit.AccessDenied(ctx, sub.Account, account, string(recordpolicy.ManagePermissions), d.Reason)
	}
	return d.AsError(op, account)
}

// Options adjusts the flags Grant produces on top of the role defaults.
type Options struct {
	MarkAttendance bool
	EditGrades     bool
}

// Grant returns a permission for account whose flags agree with role.
// Teachers get both record capabilities; group leaders get the leader flag
// plus whatever opts enables; students get no flags.
func Grant(account string, role models.Role, opts Options) models.Permission {
	p := models.Permission{StudentAccount: account, Role: role}
	switch role {
	case models.RoleTeacher:
		p.CanMarkAttendance = true
		p.CanEditGrades = true
	case models.RoleGroupLeader:
		p.IsGroupLeader = true
		p.CanMarkAttendance = opts.MarkAttendance
		p.CanEditGrades = opts.EditGrades
	}
	return p
}

// Get returns the stored permission and whether one exists.
func (s *Service) Get(ctx context.Context, account string) (models.Permission, bool, error) {
	p, err := s.store.Get(ctx, normalize.Account(account))
	if errors.Is(err, store.ErrNotFound) {
		return models.Permission{}, false, nil
	}
	if err != nil {
		return models.Permission{}, false, errs.Storage("permits.Get", err)
	}
	return p, true, nil
}

// Effective returns the stored permission or the default (deny) one.
func (s *Service) Effective(ctx context.Context, account string) (models.Permission, error) {
	account = normalize.Account(account)
	p, found, err := s.Get(ctx, account)
	if err != nil {
		return models.Permission{}, err
	}
	if !found {
		return models.DefaultPermission(account), nil
	}
	return p, nil
}

// Set validates p and merges it into the store on behalf of sub.
func (s *Service) Set(ctx context.Context, sub models.Subject, p models.Permission) (models.Permission, error) {
	const op = "permits.Set"
	if err := s.authorize(ctx, sub, normalize.Account(p.StudentAccount), op); err != nil {
		return models.Permission{}, err
	}
	return s.set(ctx, op, p, sub.Account)
}

// Seed writes p without consulting the guard. It is meant for startup
// bootstrapping, where there is no subject yet; actor is recorded as the
// creator.
func (s *Service) Seed(ctx context.Context, p models.Permission, actor string) (models.Permission, error) {
	return s.set(ctx, "permits.Seed", p, actor)
}

func (s *Service) set(ctx context.Context, op string, p models.Permission, actor string) (models.Permission, error) {
	p.StudentAccount = normalize.Account(p.StudentAccount)
	if err := p.Validate(); err != nil {
		return models.Permission{}, &errs.Error{Kind: errs.ErrValidation, Op: op, Account: p.StudentAccount, Field: "role", Err: err}
	}
	out, err := s.store.Set(ctx, p, actor)
	if err != nil {
		return models.Permission{}, errs.Storage(op, err)
	}
	s.log.Info("permission set",
		zap.String("account", out.StudentAccount),
		zap.String("role", string(out.Role)),
		zap.String("actor", actor))
	s.audit.PermissionSet(ctx, actor, out.StudentAccount, string(out.Role))
	return out, nil
}

// Outcome is the result of one item in BulkSet.
type Outcome struct {
	Account    string            `json:"account"`
	OK         bool              `json:"ok"`
	Error      string            `json:"error,omitempty"`
	Permission models.Permission `json:"-"`
}

// BulkSet applies each permission independently and reports every result.
// A failing item does not stop the rest. When sub may not manage
// permissions, every item fails with the denial.
func (s *Service) BulkSet(ctx context.Context, sub models.Subject, perms []models.Permission) []Outcome {
	const op = "permits.BulkSet"
	out := make([]Outcome, 0, len(perms))
	denied := s.authorize(ctx, sub, "", op)
	for _, p := range perms {
		o := Outcome{Account: normalize.Account(p.StudentAccount)}
		err := denied
		if err == nil {
			o.Permission, err = s.set(ctx, op, p, sub.Account)
		}
		o.OK = err == nil
		if err != nil {
			o.Error = errs.Message(err)
		}
		out = append(out, o)
	}
	return out
}

// Delete reverts account to the default permission on behalf of sub.
func (s *Service) Delete(ctx context.Context, sub models.Subject, account string) error {
	const op = "permits.Delete"
	account = normalize.Account(account)
	if err := s.authorize(ctx, sub, account, op); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, account); err != nil {
		return errs.Storage(op, err)
	}
	s.audit.PermissionDeleted(ctx, sub.Account, account)
	return nil
}

// ListByCapability returns every account holding c.
func (s *Service) ListByCapability(ctx context.Context, c models.Capability) ([]models.Permission, error) {
	if _, ok := c.Field(); !ok {
		return nil, errs.Validation("permits.ListByCapability", "capability", errors.New("unknown capability "+string(c)))
	}
	ps, err := s.store.ListByCapability(ctx, c)
	if err != nil {
		return nil, errs.Storage("permits.ListByCapability", err)
	}
	return ps, nil
}
