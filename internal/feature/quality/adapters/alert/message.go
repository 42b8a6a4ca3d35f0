// Package alert delivers data-quality alerts by transactional email.
package alert

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// Subjects of the two alert kinds.
const (
	SubjectValidationFailed = "Data Quality Alert: Validation Failed"
	SubjectException        = "Data Quality Error: Exception Occurred"
)

const notAvailable = "N/A"

// Subject returns the email subject for a.
func Subject(a entity.Alert) string {
	if a.Kind == entity.AlertException {
		return SubjectException
	}
	return SubjectValidationFailed
}

// Body renders the plain-text email body for a.
func Body(a entity.Alert) string {
	ts, success, percent, hash := notAvailable, notAvailable, notAvailable, notAvailable
	if !a.Timestamp.IsZero() {
		ts = a.Timestamp.UTC().Format(time.RFC3339)
	}
	if s := a.Summary; s != nil {
		ts = s.Timestamp.UTC().Format(time.RFC3339)
		success = strconv.FormatBool(s.Success)
		percent = strconv.FormatFloat(s.PercentValid, 'f', -1, 64)
		hash = s.ContentHash
	}

	failed := "None"
	if len(a.FailedExpectations) > 0 {
		failed = strings.Join(a.FailedExpectations, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", ts)
	fmt.Fprintf(&b, "Success: %s\n", success)
	fmt.Fprintf(&b, "Percent Valid: %s%%\n", percent)
	fmt.Fprintf(&b, "Failed Expectations: %s\n", failed)
	fmt.Fprintf(&b, "Content Hash: %s\n", hash)
	if a.Kind == entity.AlertException {
		fmt.Fprintf(&b, "\nError: %s\n", a.Error)
	}
	return b.String()
}
