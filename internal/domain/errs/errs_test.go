package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/rollbook/internal/domain/errs"
)

func TestError_IsKind(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", errs.Storage("grades.Get", cause))

	if !errors.Is(err, errs.ErrStorage) {
		t.Error("expected errors.Is(err, ErrStorage)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to stay reachable")
	}
	if errors.Is(err, errs.ErrNotFound) {
		t.Error("did not expect ErrNotFound")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Kind
	}{
		{"typed", errs.NotFound("op", "100"), errs.ErrNotFound},
		{"bare kind", errs.ErrAuth, errs.ErrAuth},
		{"wrapped bare kind", fmt.Errorf("x: %w", errs.ErrValidation), errs.ErrValidation},
		{"plain", errors.New("plain"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errs.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := errs.Validation("batch", "value", errors.New("must be between 0 and 10"))
	if got := errs.Message(err); got != "must be between 0 and 10" {
		t.Errorf("Message = %q", got)
	}
	if got := err.Error(); got != "batch: validation error [value]: must be between 0 and 10" {
		t.Errorf("Error = %q", got)
	}
}
