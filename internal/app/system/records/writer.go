package records

import (
	"context"
	"fmt"

	"github.com/dalemusser/rollbook/internal/app/system/batch"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

var _ batch.Writer = (*Service)(nil)

// WriteItem applies one validated batch item through the same checks as a
// single-record call.
func (s *Service) WriteItem(ctx context.Context, sub models.Subject, it batch.Item) error {
	var err error
	switch it.Kind {
	case batch.KindGrade:
		score := it.Score
		_, err = s.UpsertGradeCategory(ctx, sub, it.Account, it.Category, &score)
	case batch.KindAttendance:
		_, err = s.UpsertAttendance(ctx, sub, it.Account, it.Date, it.Present)
	case batch.KindParticipation:
		_, err = s.UpsertParticipation(ctx, sub, it.Account, it.Date, it.Count)
	case batch.KindRoster:
		_, err = s.ImportStudent(ctx, sub, models.Student{
			Account: it.Account,
			Name:    it.Name,
			Surname: it.Surname,
			Group:   it.Group,
		})
	default:
		err = fmt.Errorf("unknown batch kind %q", it.Kind)
	}
	return err
}
