package entity

import "time"

// AlertKind distinguishes validation alerts from pipeline error alerts.
type AlertKind int

const (
	// AlertValidationFailed is raised when a batch fails or drops below the quality threshold.
	AlertValidationFailed AlertKind = iota
	// AlertException is raised when the pipeline aborted with an error.
	AlertException
)

// String returns a short label for logs.
func (k AlertKind) String() string {
	if k == AlertException {
		return "exception"
	}
	return "validation_failed"
}

// Alert is the payload handed to the alert channel.
type Alert struct {
	Kind               AlertKind
	Timestamp          time.Time
	Summary            *Summary // nil for AlertException
	FailedExpectations []string // empty for AlertException
	Error              string   // error text for AlertException
}
