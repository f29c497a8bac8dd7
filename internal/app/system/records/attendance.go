package records

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/rollbook/internal/app/policy/recordpolicy"
	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/store/audit"
	"github.com/dalemusser/rollbook/internal/app/system/metrics"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.uber.org/zap"
)

// UpsertAttendance marks account present or absent on date. A new record
// starts with participation_count 0; an existing one keeps its count.
func (s *Service) UpsertAttendance(ctx context.Context, sub models.Subject, account, date string, isPresent bool) (models.AttendanceRecord, error) {
	const op = "records.UpsertAttendance"
	return s.upsertAttendance(ctx, sub, op, recordpolicy.MarkAttendance, store.AttendanceUpdate{
		Account:   account,
		Date:      date,
		IsPresent: &isPresent,
	})
}

// UpsertParticipation sets the participation count for account on date. A
// new record starts absent.
func (s *Service) UpsertParticipation(ctx context.Context, sub models.Subject, account, date string, count int) (models.AttendanceRecord, error) {
	const op = "records.UpsertParticipation"
	if count < 0 {
		return models.AttendanceRecord{}, errs.Validation(op, "participation_count", errors.New("must be >= 0"))
	}
	return s.upsertAttendance(ctx, sub, op, recordpolicy.UpdateParticipation, store.AttendanceUpdate{
		Account:            account,
		Date:               date,
		ParticipationCount: &count,
	})
}

func (s *Service) upsertAttendance(ctx context.Context, sub models.Subject, op string, action recordpolicy.Action, u store.AttendanceUpdate) (models.AttendanceRecord, error) {
	u.Account = normalize.Account(u.Account)
	if u.Account == "" {
		return models.AttendanceRecord{}, errs.Validation(op, "account", errAccountMissing)
	}
	date, err := models.ParseDate(u.Date)
	if err != nil {
		return models.AttendanceRecord{}, errs.Validation(op, "date", err)
	}
	u.Date = date

	if err := s.authorize(ctx, sub, action, u.Account, op); err != nil {
		return models.AttendanceRecord{}, err
	}

	u.Actor = sub.Account
	u.At = time.Now().UTC()
	rec, err := s.stores.Attendance.Upsert(ctx, u)
	metrics.Upsert(string(action), err)
	if err != nil {
		s.log.Error("attendance upsert failed", zap.Error(err),
			zap.String("account", u.Account), zap.String("date", u.Date))
		return models.AttendanceRecord{}, storeErr(op, u.Account, err)
	}

	details := map[string]string{"date": rec.Date}
	eventType := audit.EventAttendanceMarked
	if u.IsPresent != nil {
		details["is_present"] = strconv.FormatBool(rec.IsPresent)
	}
	if u.ParticipationCount != nil {
		eventType = audit.EventParticipationUpdated
		details["participation_count"] = strconv.Itoa(rec.ParticipationCount)
	}
	s.audit.RecordWritten(ctx, eventType, sub.Account, rec.StudentAccount, details)
	return rec, nil
}

// GetAttendance returns the record for (account, date).
func (s *Service) GetAttendance(ctx context.Context, sub models.Subject, account, date string) (models.AttendanceRecord, error) {
	const op = "records.GetAttendance"
	account = normalize.Account(account)
	if account == "" {
		return models.AttendanceRecord{}, errs.Validation(op, "account", errAccountMissing)
	}
	day, err := models.ParseDate(date)
	if err != nil {
		return models.AttendanceRecord{}, errs.Validation(op, "date", err)
	}
	if err := s.authorize(ctx, sub, recordpolicy.Read, account, op); err != nil {
		return models.AttendanceRecord{}, err
	}
	rec, err := s.stores.Attendance.Get(ctx, account, day)
	if err != nil {
		return models.AttendanceRecord{}, storeErr(op, account, err)
	}
	return rec, nil
}

// DeleteAttendance removes the record for (account, date). It needs the
// same capability as marking attendance.
func (s *Service) DeleteAttendance(ctx context.Context, sub models.Subject, account, date string) error {
	const op = "records.DeleteAttendance"
	account = normalize.Account(account)
	if account == "" {
		return errs.Validation(op, "account", errAccountMissing)
	}
	day, err := models.ParseDate(date)
	if err != nil {
		return errs.Validation(op, "date", err)
	}
	if err := s.authorize(ctx, sub, recordpolicy.MarkAttendance, account, op); err != nil {
		return err
	}
	if err := s.stores.Attendance.Delete(ctx, account, day); err != nil {
		return storeErr(op, account, err)
	}
	s.audit.RecordWritten(ctx, audit.EventAttendanceDeleted, sub.Account, account, map[string]string{"date": day})
	return nil
}

// QueryAttendance lists the records matching f that sub may read.
func (s *Service) QueryAttendance(ctx context.Context, sub models.Subject, f store.AttendanceFilter, o store.Order) ([]models.AttendanceRecord, error) {
	const op = "records.QueryAttendance"
	if err := validateRange(op, &f.Range); err != nil {
		return nil, err
	}
	switch o.Field {
	case "", "date", "student_account":
	default:
		return nil, errs.Validation(op, "order", errors.New("must be date or student_account"))
	}

	scoped, ok, err := s.scopeFilter(ctx, sub, f, op)
	if err != nil || !ok {
		return []models.AttendanceRecord{}, err
	}
	recs, err := s.stores.Attendance.Query(ctx, scoped, o)
	if err != nil {
		return nil, storeErr(op, "", err)
	}
	return recs, nil
}

// scopeFilter narrows f to the accounts sub may read. ok is false when the
// narrowed filter cannot match anything.
func (s *Service) scopeFilter(ctx context.Context, sub models.Subject, f store.AttendanceFilter, op string) (store.AttendanceFilter, bool, error) {
	scope, err := s.guard.ListScope(ctx, sub)
	if err != nil {
		return f, false, errs.Storage(op, err)
	}
	if !scope.CanRead {
		return f, false, errs.Denied(op, "", "not allowed to list records")
	}
	if scope.All {
		return f, true, nil
	}

	var allowed []string
	if scope.Group != "" {
		members, err := s.stores.Students.List(ctx, store.StudentFilter{Group: scope.Group})
		if err != nil {
			return f, false, errs.Storage(op, err)
		}
		for _, m := range members {
			allowed = append(allowed, m.Account)
		}
	} else {
		allowed = []string{scope.Account}
	}

	if len(f.Accounts) > 0 {
		want := make(map[string]bool, len(f.Accounts))
		for _, a := range f.Accounts {
			want[normalize.Account(a)] = true
		}
		kept := allowed[:0:0]
		for _, a := range allowed {
			if want[a] {
				kept = append(kept, a)
			}
		}
		allowed = kept
	}
	f.Accounts = allowed
	return f, len(allowed) > 0, nil
}

func validateRange(op string, r *models.DateRange) error {
	for _, d := range []*string{&r.From, &r.To} {
		if *d == "" {
			continue
		}
		day, err := models.ParseDate(*d)
		if err != nil {
			return errs.Validation(op, "range", err)
		}
		*d = day
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return errs.Validation(op, "range", errors.New("from is after to"))
	}
	return nil
}
