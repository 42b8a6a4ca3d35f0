package usecase

import (
	"time"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// DefaultQualityThreshold is the percent_valid below which an alert is sent
// even when the overall validation flag is true.
const DefaultQualityThreshold = 95.0

// ShouldAlert reports whether a validated summary needs an alert.
func ShouldAlert(s entity.Summary, threshold float64) bool {
	return !s.Success || s.PercentValid < threshold
}

// validationAlert builds the alert for a validated run.
func validationAlert(s entity.Summary, failed []string) entity.Alert {
	return entity.Alert{
		Kind:               entity.AlertValidationFailed,
		Timestamp:          s.Timestamp,
		Summary:            &s,
		FailedExpectations: failed,
	}
}

// exceptionAlert builds the alert for an aborted run.
func exceptionAlert(err error, now time.Time) entity.Alert {
	return entity.Alert{
		Kind:      entity.AlertException,
		Timestamp: now.UTC(),
		Error:     err.Error(),
	}
}
