package records

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dalemusser/rollbook/internal/app/policy/recordpolicy"
	"github.com/dalemusser/rollbook/internal/app/store/audit"
	"github.com/dalemusser/rollbook/internal/app/system/aggregate"
	"github.com/dalemusser/rollbook/internal/app/system/metrics"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.uber.org/zap"
)

var errScoreRange = fmt.Errorf("must be between %g and %g", models.MinScore, models.MaxScore)

// UpsertGradeCategory writes one category score for account, or clears it
// when value is nil, then recomputes and stores the weighted total. The
// returned record carries the new total.
func (s *Service) UpsertGradeCategory(ctx context.Context, sub models.Subject, account string, c models.Category, value *float64) (models.GradeRecord, error) {
	const op = "records.UpsertGradeCategory"
	account = normalize.Account(account)
	if account == "" {
		return models.GradeRecord{}, errs.Validation(op, "account", errAccountMissing)
	}
	if !c.Valid() {
		return models.GradeRecord{}, errs.Validation(op, "category", errors.New("unknown category "+strconv.Quote(string(c))))
	}
	if value != nil && (math.IsNaN(*value) || *value < models.MinScore || *value > models.MaxScore) {
		return models.GradeRecord{}, errs.Validation(op, "value", errScoreRange)
	}

	if err := s.authorize(ctx, sub, recordpolicy.EditGrade, account, op); err != nil {
		return models.GradeRecord{}, err
	}

	at := time.Now().UTC()
	rec, err := s.stores.Grades.SetCategory(ctx, account, c, value, sub.Account, at)
	metrics.Upsert(string(recordpolicy.EditGrade), err)
	if err != nil {
		s.log.Error("grade write failed", zap.Error(err),
			zap.String("account", account), zap.String("category", string(c)))
		return models.GradeRecord{}, storeErr(op, account, err)
	}

	rec.Total = aggregate.WeightedTotal(rec.Scores)
	if err := s.stores.Grades.SetTotal(ctx, account, rec.Total, sub.Account, at); err != nil {
		s.log.Error("grade total write failed", zap.Error(err), zap.String("account", account))
		return models.GradeRecord{}, storeErr(op, account, err)
	}

	details := map[string]string{
		"category": string(c),
		"total":    strconv.FormatFloat(rec.Total, 'f', 2, 64),
	}
	if value != nil {
		details["value"] = strconv.FormatFloat(*value, 'f', -1, 64)
	} else {
		details["cleared"] = "true"
	}
	s.audit.RecordWritten(ctx, audit.EventGradeEdited, sub.Account, account, details)
	return rec, nil
}

// GetGrade returns the grade record for account.
func (s *Service) GetGrade(ctx context.Context, sub models.Subject, account string) (models.GradeRecord, error) {
	const op = "records.GetGrade"
	account = normalize.Account(account)
	if account == "" {
		return models.GradeRecord{}, errs.Validation(op, "account", errAccountMissing)
	}
	if err := s.authorize(ctx, sub, recordpolicy.Read, account, op); err != nil {
		return models.GradeRecord{}, err
	}
	rec, err := s.stores.Grades.Get(ctx, account)
	if err != nil {
		return models.GradeRecord{}, storeErr(op, account, err)
	}
	return rec, nil
}

// DeleteGrade removes the grade record for account.
func (s *Service) DeleteGrade(ctx context.Context, sub models.Subject, account string) error {
	const op = "records.DeleteGrade"
	account = normalize.Account(account)
	if account == "" {
		return errs.Validation(op, "account", errAccountMissing)
	}
	if err := s.authorize(ctx, sub, recordpolicy.EditGrade, account, op); err != nil {
		return err
	}
	if err := s.stores.Grades.Delete(ctx, account); err != nil {
		return storeErr(op, account, err)
	}
	s.audit.RecordWritten(ctx, audit.EventGradeDeleted, sub.Account, account, nil)
	return nil
}
