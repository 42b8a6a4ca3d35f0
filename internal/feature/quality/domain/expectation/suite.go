package expectation

import (
	"github.com/go-playground/validator/v10"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
)

// MinPositive is the exclusive lower bound applied to every price and volume field.
// It rejects zero and negative sentinel values.
const MinPositive = 0.000001

// Suite is an ordered battery of expectations.
type Suite struct {
	name         string
	expectations []Expectation
}

// NewSuite builds a suite from the given expectations, evaluated in order.
func NewSuite(name string, expectations ...Expectation) *Suite {
	return &Suite{name: name, expectations: expectations}
}

// DefaultSuite returns the fixed OHLCV battery:
// not-null for all six columns, float type for the five numeric columns,
// strictly increasing timestamps, and every numeric field > MinPositive.
func DefaultSuite(name string) *Suite {
	v := validator.New(validator.WithRequiredStructEnabled())

	var es []Expectation
	for _, c := range entity.AllColumns {
		es = append(es, NewNotNull(c))
	}
	for _, c := range entity.NumericColumns {
		es = append(es, NewOfFloatType(c))
	}
	es = append(es, NewIncreasing(true))
	for _, c := range entity.NumericColumns {
		es = append(es, NewBetween(v, c, MinPositive, nil))
	}
	return NewSuite(name, es...)
}

// Name returns the suite identifier.
func (s *Suite) Name() string { return s.name }

// Len returns the number of expectations in the suite.
func (s *Suite) Len() int { return len(s.expectations) }

// Validate evaluates every expectation against records.
//
// An empty batch evaluates no expectations and succeeds; callers report it as 100% valid.
func (s *Suite) Validate(records []entity.Record) (entity.ValidationReport, error) {
	if len(records) == 0 {
		return entity.ValidationReport{Success: true}, nil
	}
	report := entity.ValidationReport{
		Success: true,
		Results: make([]entity.ValidationResult, 0, len(s.expectations)),
	}
	for _, e := range s.expectations {
		res, err := e.Evaluate(records)
		if err != nil {
			return entity.ValidationReport{}, &domain.ValidationError{Expectation: e.Name(), Err: err}
		}
		report.Results = append(report.Results, res)
		report.Success = report.Success && res.Success
	}
	return report, nil
}
