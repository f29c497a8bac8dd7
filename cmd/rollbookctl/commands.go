package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/rollbook/internal/app/system/batch"
	"github.com/dalemusser/rollbook/internal/app/system/permits"
	"github.com/dalemusser/rollbook/internal/app/system/rowsource"
	"github.com/dalemusser/rollbook/internal/app/system/timeouts"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

// errBatchRejected is returned after the result of a failed import has been
// printed.
var errBatchRejected = errors.New("batch not committed")

func schemaFor(kind, category, date string) (batch.Schema, error) {
	switch batch.Kind(kind) {
	case batch.KindGrade:
		c := models.Category(category)
		if !c.Valid() {
			return batch.Schema{}, fmt.Errorf("unknown grade category %q", category)
		}
		return batch.GradeSchema(c), nil
	case batch.KindAttendance, batch.KindParticipation:
		d, err := models.ParseDate(date)
		if err != nil {
			return batch.Schema{}, fmt.Errorf("-date: %w", err)
		}
		if batch.Kind(kind) == batch.KindAttendance {
			return batch.AttendanceSchema(d), nil
		}
		return batch.ParticipationSchema(d), nil
	case batch.KindRoster:
		return batch.RosterSchema(), nil
	}
	return batch.Schema{}, fmt.Errorf("unknown kind %q", kind)
}

func (cli *commandLine) importFile(ctx context.Context, sub models.Subject, kind, path, category, date string) error {
	schema, err := schemaFor(kind, category, date)
	if err != nil {
		return err
	}
	rows, err := rowsource.ReadFile(path, rowsource.Default())
	if err != nil {
		return err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), nil, "import")
	defer cancel()

	res := cli.eng.Batch.Import(ctx, sub, rows, schema)
	if err := cli.printJSON(res); err != nil {
		return err
	}
	if !res.Success {
		return errBatchRejected
	}
	return nil
}

func (cli *commandLine) permit(ctx context.Context, sub models.Subject, account string, role models.Role, attendance, grades bool) error {
	p := permits.Grant(account, role, permits.Options{MarkAttendance: attendance, EditGrades: grades})
	out, err := cli.eng.Permits.Set(ctx, sub, p)
	if err != nil {
		return err
	}
	return cli.printJSON(out)
}

func (cli *commandLine) summary(ctx context.Context, sub models.Subject, account string) error {
	s, err := cli.eng.Records.GetStudentSummary(ctx, sub, account)
	if err != nil {
		return err
	}
	return cli.printJSON(s)
}

func (cli *commandLine) stats(ctx context.Context, sub models.Subject, r models.DateRange) error {
	st, err := cli.eng.Records.GetAttendanceStats(ctx, sub, r)
	if err != nil {
		return err
	}
	return cli.printJSON(st)
}

func (cli *commandLine) roster(ctx context.Context, sub models.Subject, group string) error {
	list, err := cli.eng.Records.ListStudents(ctx, sub, group)
	if err != nil {
		return err
	}
	return cli.printJSON(list)
}
