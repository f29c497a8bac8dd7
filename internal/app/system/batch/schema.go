package batch

import (
	"errors"
	"fmt"

	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

// Kind names what a batch writes.
type Kind string

const (
	KindGrade         Kind = "grade"
	KindAttendance    Kind = "attendance"
	KindParticipation Kind = "participation"
	KindRoster        Kind = "roster"
)

// AccountAliases are the header names accepted for the account column.
var AccountAliases = []string{"account", "student_account", "studentaccount", "id", "student_id", "studentid", "cuenta"}

// Schema describes how rows of one batch are read and validated.
type Schema struct {
	Kind     Kind
	Category models.Category // grade batches
	Date     string          // attendance and participation batches

	// Value column aliases, tried in order. Roster batches use the
	// name/surname/group aliases instead.
	ValueAliases []string
}

// GradeSchema reads one category score per row.
func GradeSchema(c models.Category) Schema {
	return Schema{
		Kind:         KindGrade,
		Category:     c,
		ValueAliases: []string{string(c), "grade", "score", "value", "nota", "calificacion"},
	}
}

// AttendanceSchema reads one present/absent value per row for date.
func AttendanceSchema(date string) Schema {
	return Schema{
		Kind:         KindAttendance,
		Date:         date,
		ValueAliases: []string{"present", "is_present", "attendance", "value", "asistencia", date},
	}
}

// ParticipationSchema reads one participation count per row for date.
func ParticipationSchema(date string) Schema {
	return Schema{
		Kind:         KindParticipation,
		Date:         date,
		ValueAliases: []string{"participation", "participation_count", "count", "value", "participacion", date},
	}
}

// RosterSchema reads name, surname and group per row.
func RosterSchema() Schema {
	return Schema{Kind: KindRoster}
}

// Schema errors.
var (
	ErrSchemaKind     = errors.New("unknown batch kind")
	ErrSchemaCategory = errors.New("unknown grade category")
	ErrSchemaDate     = errors.New("batch date must be YYYY-MM-DD")
)

// SchemaError reports a schema that no row can satisfy.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string { return e.Err.Error() }
func (e *SchemaError) Unwrap() error { return e.Err }

// Validate checks the parts of s that every row shares: the kind, the grade
// category and the session date.
func (s Schema) Validate() error {
	switch s.Kind {
	case KindGrade:
		if !s.Category.Valid() {
			return &SchemaError{Field: "category", Err: fmt.Errorf("%w %q", ErrSchemaCategory, s.Category)}
		}
	case KindAttendance, KindParticipation:
		if _, err := models.ParseDate(s.Date); err != nil {
			return &SchemaError{Field: "date", Err: fmt.Errorf("%w, got %q", ErrSchemaDate, s.Date)}
		}
	case KindRoster:
	default:
		return &SchemaError{Field: "kind", Err: fmt.Errorf("%w %q", ErrSchemaKind, s.Kind)}
	}
	return nil
}

var (
	nameAliases    = []string{"name", "first_name", "firstname", "nombre"}
	surnameAliases = []string{"surname", "last_name", "lastname", "apellido", "apellidos"}
	groupAliases   = []string{"group", "grupo", "cohort", "section"}
)

// lookup returns the first non-empty value among aliases, with the header
// matched case-, space- and underscore-insensitively.
func lookup(fields map[string]string, aliases []string) (string, bool) {
	found := false
	for _, a := range aliases {
		if v, ok := fields[normalize.Header(a)]; ok {
			found = true
			if v != "" {
				return v, true
			}
		}
	}
	return "", found
}
