package entity

// ValidationResult is the outcome of one expectation over a batch of records.
type ValidationResult struct {
	ExpectationName string         // e.g. "expect_column_values_to_not_be_null"
	Column          string         // target column, empty for batch-level expectations
	Success         bool           // whether the expectation held
	Metadata        ResultMetadata // observed counts and the expectation arguments
}

// ResultMetadata carries the observations behind a ValidationResult.
type ResultMetadata struct {
	ElementCount           int            // rows evaluated
	UnexpectedCount        int            // rows violating the expectation
	UnexpectedPercent      float64        // UnexpectedCount / ElementCount × 100
	PartialUnexpectedIndex []int          // first few offending row indices
	Kwargs                 map[string]any // expectation arguments (min_value, strictly, ...)
}

// ValidationReport is the ordered result sequence of one validation run.
type ValidationReport struct {
	Success bool               // true iff every result succeeded
	Results []ValidationResult // stable order, see expectation.DefaultSuite
}

// FailedExpectations returns the names of failed expectations in report order.
func (r ValidationReport) FailedExpectations() []string {
	var out []string
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res.ExpectationName)
		}
	}
	return out
}
