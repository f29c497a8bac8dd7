package records

import (
	"context"
	"errors"

	"github.com/dalemusser/rollbook/internal/app/policy/recordpolicy"
	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/store/audit"
	"github.com/dalemusser/rollbook/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

// ImportStudent adds st to the roster. When the account already exists only
// its group changes; created reports which happened.
func (s *Service) ImportStudent(ctx context.Context, sub models.Subject, st models.Student) (bool, error) {
	const op = "records.ImportStudent"
	st.Account = normalize.Account(st.Account)
	st.Name = normalize.Name(htmlsanitize.PlainText(st.Name))
	st.Surname = normalize.Name(htmlsanitize.PlainText(st.Surname))
	st.Group = normalize.Group(st.Group)
	switch {
	case st.Account == "":
		return false, errs.Validation(op, "account", errAccountMissing)
	case st.Name == "":
		return false, errs.Validation(op, "name", errors.New("name missing"))
	case st.Group == "":
		return false, errs.Validation(op, "group", errors.New("group missing"))
	}

	if err := s.authorize(ctx, sub, recordpolicy.ManageRoster, "", op); err != nil {
		return false, err
	}

	created, err := s.stores.Students.Upsert(ctx, st)
	if err != nil {
		return false, storeErr(op, st.Account, err)
	}
	eventType := audit.EventStudentRegrouped
	if created {
		eventType = audit.EventStudentImported
	}
	s.audit.Roster(ctx, eventType, sub.Account, st.Account, st.Group)
	return created, nil
}

// ReassignGroup moves account to group. Leader scope follows immediately
// because the guard reads groups on every decision.
func (s *Service) ReassignGroup(ctx context.Context, sub models.Subject, account, group string) error {
	const op = "records.ReassignGroup"
	account = normalize.Account(account)
	group = normalize.Group(group)
	if group == "" {
		return errs.Validation(op, "group", errors.New("group missing"))
	}
	if err := s.authorize(ctx, sub, recordpolicy.ManageRoster, "", op); err != nil {
		return err
	}
	if err := s.stores.Students.SetGroup(ctx, account, group); err != nil {
		return storeErr(op, account, err)
	}
	s.audit.Roster(ctx, audit.EventStudentRegrouped, sub.Account, account, group)
	return nil
}

// DeleteStudent removes account from the roster. Attendance and grade
// records are kept.
func (s *Service) DeleteStudent(ctx context.Context, sub models.Subject, account string) error {
	const op = "records.DeleteStudent"
	account = normalize.Account(account)
	if err := s.authorize(ctx, sub, recordpolicy.ManageRoster, "", op); err != nil {
		return err
	}
	if err := s.stores.Students.Delete(ctx, account); err != nil {
		return storeErr(op, account, err)
	}
	s.audit.Roster(ctx, audit.EventStudentDeleted, sub.Account, account, "")
	return nil
}

// ListStudents returns the roster entries sub may read, optionally limited
// to one group.
func (s *Service) ListStudents(ctx context.Context, sub models.Subject, group string) ([]models.Student, error) {
	const op = "records.ListStudents"
	scope, err := s.guard.ListScope(ctx, sub)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	if !scope.CanRead {
		return nil, errs.Denied(op, "", "not allowed to list students")
	}

	f := store.StudentFilter{Group: normalize.Group(group)}
	switch {
	case scope.All:
	case scope.Group != "":
		if f.Group != "" && f.Group != scope.Group {
			return []models.Student{}, nil
		}
		f.Group = scope.Group
	default:
		f.Accounts = []string{scope.Account}
	}

	list, err := s.stores.Students.List(ctx, f)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return list, nil
}
