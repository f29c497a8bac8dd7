package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/rollbook/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	if got := htmlsanitize.PlainText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestPlainText_Unchanged(t *testing.T) {
	if got := htmlsanitize.PlainText("Ana Ruiz"); got != "Ana Ruiz" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestPlainText_StripsTags(t *testing.T) {
	got := htmlsanitize.PlainText("<b>Ana</b><script>alert('x')</script>")
	if got != "Ana" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestPlainText_KeepsApostrophe(t *testing.T) {
	if got := htmlsanitize.PlainText("O'Brien & Sons"); got != "O'Brien & Sons" {
		t.Errorf("expected entities unescaped, got %q", got)
	}
}
