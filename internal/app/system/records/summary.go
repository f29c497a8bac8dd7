package records

import (
	"context"

	"github.com/dalemusser/rollbook/internal/app/policy/recordpolicy"
	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/system/aggregate"
	"github.com/dalemusser/rollbook/internal/app/system/metrics"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.uber.org/zap"
)

// GetStudent returns the roster entry for account.
func (s *Service) GetStudent(ctx context.Context, sub models.Subject, account string) (models.Student, error) {
	const op = "records.GetStudent"
	account = normalize.Account(account)
	if account == "" {
		return models.Student{}, errs.Validation(op, "account", errAccountMissing)
	}
	if err := s.authorize(ctx, sub, recordpolicy.Read, account, op); err != nil {
		return models.Student{}, err
	}
	st, err := s.stores.Students.Get(ctx, account)
	if err != nil {
		return models.Student{}, storeErr(op, account, err)
	}
	return st, nil
}

// GetStudentSummary counts account's attendance against every session day
// on record. Storage failures fail soft: the summary comes back with zero
// counts and the failure is logged.
func (s *Service) GetStudentSummary(ctx context.Context, sub models.Subject, account string) (aggregate.Summary, error) {
	const op = "records.GetStudentSummary"
	st, err := s.GetStudent(ctx, sub, account)
	if err != nil {
		if errs.KindOf(err) == errs.ErrStorage {
			account = normalize.Account(account)
			s.softFail(op, err, zap.String("account", account))
			return aggregate.StudentSummary(models.Student{Account: account}, nil, 0), nil
		}
		return aggregate.Summary{}, err
	}

	sessions, err := s.stores.Attendance.DistinctDates(ctx, store.AttendanceFilter{})
	if err != nil {
		s.softFail(op, err, zap.String("account", st.Account))
		return aggregate.StudentSummary(st, nil, 0), nil
	}
	recs, err := s.stores.Attendance.Query(ctx, store.AttendanceFilter{Accounts: []string{st.Account}}, store.Order{Field: "date"})
	if err != nil {
		s.softFail(op, err, zap.String("account", st.Account))
		return aggregate.StudentSummary(st, nil, 0), nil
	}
	return aggregate.StudentSummary(st, recs, len(sessions)), nil
}

// GetAttendanceStats computes attendance statistics over r for the records
// sub may read. Storage failures yield empty statistics.
func (s *Service) GetAttendanceStats(ctx context.Context, sub models.Subject, r models.DateRange) (aggregate.Stats, error) {
	const op = "records.GetAttendanceStats"
	if err := validateRange(op, &r); err != nil {
		return aggregate.Stats{}, err
	}

	f, ok, err := s.scopeFilter(ctx, sub, store.AttendanceFilter{Range: r}, op)
	if err != nil {
		if errs.KindOf(err) == errs.ErrStorage {
			s.softFail(op, err)
			return aggregate.EmptyStats(r), nil
		}
		return aggregate.Stats{}, err
	}
	if !ok {
		return aggregate.EmptyStats(r), nil
	}

	recs, err := s.stores.Attendance.Query(ctx, f, store.Order{Field: "date"})
	if err != nil {
		s.softFail(op, err)
		return aggregate.EmptyStats(r), nil
	}
	return aggregate.AttendanceStats(recs, r, s.bands), nil
}

func (s *Service) softFail(op string, err error, fields ...zap.Field) {
	metrics.SoftFailure(op)
	s.log.Warn("aggregate read failed; returning empty result",
		append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
}
