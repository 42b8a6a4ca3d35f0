// Package expectation implements declarative data-quality rules over OHLCV batches.
//
// An Expectation is evaluated against a whole batch and yields one
// entity.ValidationResult. A failing expectation is a normal outcome; an error
// is returned only when the rule itself cannot be evaluated.
package expectation

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// Expectation names, kept stable because they appear in stored documents and alerts.
const (
	NameNotNull    = "expect_column_values_to_not_be_null"
	NameOfType     = "expect_column_values_to_be_of_type"
	NameIncreasing = "expect_column_values_to_be_increasing"
	NameBetween    = "expect_column_values_to_be_between"
)

// partialUnexpectedLimit caps how many offending row indices a result keeps.
const partialUnexpectedLimit = 20

// Expectation is a single rule evaluated against a batch of records.
type Expectation interface {
	Name() string
	Column() string
	Evaluate(records []entity.Record) (entity.ValidationResult, error)
}

// tally accumulates per-row outcomes into a ValidationResult.
type tally struct {
	evaluated  int
	unexpected int
	index      []int
}

func (t *tally) observe(row int, ok bool) {
	t.evaluated++
	if ok {
		return
	}
	t.unexpected++
	if len(t.index) < partialUnexpectedLimit {
		t.index = append(t.index, row)
	}
}

func (t *tally) result(name, column string, kwargs map[string]any) entity.ValidationResult {
	pct := 0.0
	if t.evaluated > 0 {
		pct = float64(t.unexpected) / float64(t.evaluated) * 100
	}
	return entity.ValidationResult{
		ExpectationName: name,
		Column:          column,
		Success:         t.unexpected == 0,
		Metadata: entity.ResultMetadata{
			ElementCount:           t.evaluated,
			UnexpectedCount:        t.unexpected,
			UnexpectedPercent:      pct,
			PartialUnexpectedIndex: t.index,
			Kwargs:                 kwargs,
		},
	}
}

func knownColumn(column string) bool {
	for _, c := range entity.AllColumns {
		if c == column {
			return true
		}
	}
	return false
}

// NotNull expects every value of a column to be present.
type NotNull struct{ column string }

// NewNotNull returns a not-null expectation for column.
func NewNotNull(column string) *NotNull { return &NotNull{column: column} }

func (e *NotNull) Name() string   { return NameNotNull }
func (e *NotNull) Column() string { return e.column }

func (e *NotNull) Evaluate(records []entity.Record) (entity.ValidationResult, error) {
	if !knownColumn(e.column) {
		return entity.ValidationResult{}, fmt.Errorf("unknown column %q", e.column)
	}
	var t tally
	for i, r := range records {
		t.observe(i, !r.IsNull(e.column))
	}
	return t.result(e.Name(), e.column, map[string]any{"column": e.column}), nil
}

// OfFloatType expects every non-null value of a numeric column to be a finite float.
// Nulls are left to NotNull.
type OfFloatType struct{ column string }

// NewOfFloatType returns a float type-conformance expectation for column.
func NewOfFloatType(column string) *OfFloatType { return &OfFloatType{column: column} }

func (e *OfFloatType) Name() string   { return NameOfType }
func (e *OfFloatType) Column() string { return e.column }

func (e *OfFloatType) Evaluate(records []entity.Record) (entity.ValidationResult, error) {
	var t tally
	for i, r := range records {
		v, ok := r.Value(e.column)
		if !ok {
			return entity.ValidationResult{}, fmt.Errorf("column %q is not numeric", e.column)
		}
		if math.IsNaN(v) {
			continue
		}
		t.observe(i, !math.IsInf(v, 0))
	}
	return t.result(e.Name(), e.column, map[string]any{"column": e.column, "type_": "float"}), nil
}

// Increasing expects the timestamp column to increase across the batch.
// Timestamps are compared as integer Unix nanoseconds. Null timestamps are skipped.
type Increasing struct{ strictly bool }

// NewIncreasing returns a monotonicity expectation over the timestamp column.
func NewIncreasing(strictly bool) *Increasing { return &Increasing{strictly: strictly} }

func (e *Increasing) Name() string   { return NameIncreasing }
func (e *Increasing) Column() string { return entity.ColumnTimestamp }

func (e *Increasing) Evaluate(records []entity.Record) (entity.ValidationResult, error) {
	var (
		t    tally
		prev int64
		seen bool
	)
	for i, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		ns := r.Timestamp.UnixNano()
		ok := true
		if seen {
			if e.strictly {
				ok = ns > prev
			} else {
				ok = ns >= prev
			}
		}
		t.observe(i, ok)
		prev, seen = ns, true
	}
	return t.result(e.Name(), entity.ColumnTimestamp, map[string]any{
		"column":   "ts_ns",
		"strictly": e.strictly,
	}), nil
}

// Between expects non-null values of a numeric column to lie in (min, max].
// A nil max leaves the range unbounded above. Rules are evaluated by the
// go-playground validator so the bound semantics match its gt/lte tags.
type Between struct {
	column string
	min    float64
	max    *float64
	tag    string
	v      *validator.Validate
}

// NewBetween returns a range expectation for column with an exclusive lower bound.
func NewBetween(v *validator.Validate, column string, min float64, max *float64) *Between {
	tag := fmt.Sprintf("gt=%g", min)
	if max != nil {
		tag += fmt.Sprintf(",lte=%g", *max)
	}
	return &Between{column: column, min: min, max: max, tag: tag, v: v}
}

func (e *Between) Name() string   { return NameBetween }
func (e *Between) Column() string { return e.column }

func (e *Between) Evaluate(records []entity.Record) (entity.ValidationResult, error) {
	var t tally
	for i, r := range records {
		v, ok := r.Value(e.column)
		if !ok {
			return entity.ValidationResult{}, fmt.Errorf("column %q is not numeric", e.column)
		}
		if math.IsNaN(v) {
			continue
		}
		err := e.v.Var(v, e.tag)
		if err != nil {
			if _, isRule := err.(validator.ValidationErrors); !isRule {
				return entity.ValidationResult{}, err
			}
		}
		t.observe(i, err == nil)
	}
	kwargs := map[string]any{"column": e.column, "min_value": e.min, "max_value": nil}
	if e.max != nil {
		kwargs["max_value"] = *e.max
	}
	return t.result(e.Name(), e.column, kwargs), nil
}
