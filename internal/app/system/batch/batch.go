// Package batch validates and commits bulk record imports.
//
// A batch is read as Rows, checked against a Schema into Items and
// RowErrors, gated by a CommitPolicy and then written item by item through
// a Writer. Writes run concurrently with no cross-item transaction; every
// failure is reported against its row.
package batch

import (
	"context"

	"github.com/dalemusser/rollbook/internal/domain/models"
)

// Row is one data line of an import. Line is 1-based and counts the header,
// so the first data row is line 2. Field keys are column headers.
type Row struct {
	Line   int
	Fields map[string]string
}

// Item is one validated write.
type Item struct {
	Line     int
	Account  string
	Kind     Kind
	Category models.Category
	Date     string

	Score   float64
	Present bool
	Count   int

	Name    string
	Surname string
	Group   string
}

// RowError reports one problem with one row.
type RowError struct {
	Row     int    `json:"row"`
	Account string `json:"account,omitempty"`
	Field   string `json:"field,omitempty"`
	Error   string `json:"error"`
}

// Writer performs a single item write on behalf of a subject. The record
// service implements it; authorization happens inside.
type Writer interface {
	WriteItem(ctx context.Context, sub models.Subject, item Item) error
}

// Outcome is the result of Commit.
type Outcome struct {
	Processed int
	Errors    []RowError
}

// Result is the envelope returned by Import.
type Result struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	Errors         []RowError `json:"errors"`
	ProcessedCount int        `json:"processedCount"`
	TotalCount     int        `json:"totalCount"`
	ValidCount     int        `json:"validCount"`
	BatchID        string     `json:"batchId"`
}

// CommitPolicy decides whether validated items may be committed given the
// row errors found during validation.
type CommitPolicy interface {
	Name() string
	Allow(valid []Item, rowErrs []RowError) bool
}

type allOrNothing struct{}

func (allOrNothing) Name() string { return "all_or_nothing" }

func (allOrNothing) Allow(valid []Item, rowErrs []RowError) bool {
	return len(rowErrs) == 0 && len(valid) > 0
}

// AllOrNothing commits only when every row validated.
var AllOrNothing CommitPolicy = allOrNothing{}
