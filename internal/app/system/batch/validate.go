package batch

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dalemusser/rollbook/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/go-playground/validator/v10"
)

type rawGrade struct {
	Account string `json:"account" validate:"required,max=64"`
	Value   string `json:"value" validate:"required,numeric"`
}

type typedGrade struct {
	Value float64 `json:"value" validate:"gte=0,lte=10"`
}

type rawAttendance struct {
	Account string `json:"account" validate:"required,max=64"`
	Value   string `json:"value" validate:"required,oneof=1 0 true false yes no present absent p a"`
}

type rawParticipation struct {
	Account string `json:"account" validate:"required,max=64"`
	Value   string `json:"value" validate:"required,number"`
}

type rawRoster struct {
	Account string `json:"account" validate:"required,max=64"`
	Name    string `json:"name" validate:"required,max=100"`
	Surname string `json:"surname" validate:"max=100"`
	Group   string `json:"group" validate:"required,max=50"`
}

var presentWords = map[string]bool{
	"1": true, "true": true, "yes": true, "present": true, "p": true,
	"0": false, "false": false, "no": false, "absent": false, "a": false,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " missing"
	case "numeric":
		return "must be a number"
	case "gte", "lte":
		return "must be between 0 and 10"
	case "number":
		return "must be a whole number >= 0"
	case "oneof":
		return "must be one of 1/0, true/false, yes/no, present/absent, p/a"
	case "max":
		return "is too long (max " + fe.Param() + ")"
	}
	return "is invalid"
}

// ValidateRows checks every row against s. Blank rows are skipped. Items
// come back in row order; a row contributes either one Item or at least
// one RowError, never both. An invalid schema yields a single row 0 error
// and no items.
func (o *Orchestrator) ValidateRows(rows []Row, s Schema) ([]Item, []RowError) {
	if err := s.Validate(); err != nil {
		var se *SchemaError
		re := RowError{Row: 0, Error: err.Error()}
		if errors.As(err, &se) {
			re.Field = se.Field
		}
		return nil, []RowError{re}
	}

	var (
		items   []Item
		rowErrs []RowError
		seen    = map[string]int{}
	)
	for _, r := range dataRows(rows) {
		item, errs := o.validateRow(r, s)
		if len(errs) > 0 {
			rowErrs = append(rowErrs, errs...)
			continue
		}
		if first, dup := seen[item.Account]; dup {
			rowErrs = append(rowErrs, RowError{
				Row:     r.Line,
				Account: item.Account,
				Field:   "account",
				Error:   fmt.Sprintf("duplicate account in batch (first on row %d)", first),
			})
			continue
		}
		seen[item.Account] = r.Line
		items = append(items, item)
	}
	return items, rowErrs
}

// dataRows drops rows whose cells are all empty and normalizes header keys
// and cell whitespace.
func dataRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		fields := make(map[string]string, len(r.Fields))
		blank := true
		for k, v := range r.Fields {
			v = strings.TrimSpace(v)
			if v != "" {
				blank = false
			}
			fields[normalize.Header(k)] = v
		}
		if blank {
			continue
		}
		out = append(out, Row{Line: r.Line, Fields: fields})
	}
	return out
}

func (o *Orchestrator) validateRow(r Row, s Schema) (Item, []RowError) {
	account, _ := lookup(r.Fields, AccountAliases)
	account = normalize.Account(account)
	item := Item{Line: r.Line, Account: account, Kind: s.Kind, Category: s.Category, Date: s.Date}

	value, _ := lookup(r.Fields, s.ValueAliases)
	var raw any
	switch s.Kind {
	case KindGrade:
		value = decimalComma(value)
		raw = rawGrade{Account: account, Value: value}
	case KindAttendance:
		value = strings.ToLower(value)
		raw = rawAttendance{Account: account, Value: value}
	case KindParticipation:
		raw = rawParticipation{Account: account, Value: value}
	case KindRoster:
		name, _ := lookup(r.Fields, nameAliases)
		surname, _ := lookup(r.Fields, surnameAliases)
		group, _ := lookup(r.Fields, groupAliases)
		item.Name = normalize.Name(htmlsanitize.PlainText(name))
		item.Surname = normalize.Name(htmlsanitize.PlainText(surname))
		item.Group = normalize.Group(group)
		raw = rawRoster{Account: account, Name: item.Name, Surname: item.Surname, Group: item.Group}
	default:
		return item, []RowError{{Row: r.Line, Account: account, Error: "unknown batch kind " + string(s.Kind)}}
	}

	if errs := o.check(r.Line, account, raw); len(errs) > 0 {
		return item, errs
	}

	switch s.Kind {
	case KindGrade:
		f, _ := strconv.ParseFloat(value, 64)
		if errs := o.check(r.Line, account, typedGrade{Value: f}); len(errs) > 0 {
			return item, errs
		}
		item.Score = f
	case KindAttendance:
		item.Present = presentWords[value]
	case KindParticipation:
		n, err := strconv.Atoi(value)
		if err != nil {
			return item, []RowError{{Row: r.Line, Account: account, Field: "value", Error: "must be a whole number >= 0"}}
		}
		item.Count = n
	}
	return item, nil
}

func (o *Orchestrator) check(line int, account string, v any) []RowError {
	err := o.validate.Struct(v)
	if err == nil {
		return nil
	}
	fes, ok := err.(validator.ValidationErrors)
	if !ok {
		return []RowError{{Row: line, Account: account, Error: err.Error()}}
	}
	out := make([]RowError, 0, len(fes))
	for _, fe := range fes {
		out = append(out, RowError{Row: line, Account: account, Field: fe.Field(), Error: fieldMessage(fe)})
	}
	return out
}

// decimalComma accepts "8,5" as 8.5.
func decimalComma(s string) string {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}
