package usecase

import (
	"time"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// Summarize reduces a validation report into a Summary.
// percent_valid is 100 when no expectation was evaluated.
func Summarize(report entity.ValidationReport, contentHash string, now time.Time) entity.Summary {
	n := len(report.Results)
	ok := 0
	for _, r := range report.Results {
		if r.Success {
			ok++
		}
	}
	pct := 100.0
	if n > 0 {
		pct = float64(ok) / float64(n) * 100
	}
	return entity.Summary{
		Timestamp:     now.UTC(),
		Success:       report.Success,
		NExpectations: n,
		NSuccess:      ok,
		NFailed:       n - ok,
		PercentValid:  pct,
		ContentHash:   contentHash,
	}
}
