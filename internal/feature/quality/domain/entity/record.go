// Package entity defines the domain models for the quality feature.
package entity

import (
	"math"
	"time"
)

// Canonical column names shared by every ingestion variant.
const (
	ColumnTimestamp = "timestamp"
	ColumnOpen      = "open"
	ColumnHigh      = "high"
	ColumnLow       = "low"
	ColumnClose     = "close"
	ColumnVolume    = "volume"
)

// NumericColumns lists the five price/volume columns in canonical order.
var NumericColumns = []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// AllColumns lists all six canonical columns in canonical order.
var AllColumns = []string{ColumnTimestamp, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// Record represents one OHLCV row decoded from an upstream payload.
// A zero Timestamp and NaN numeric fields denote missing (null) values.
type Record struct {
	Timestamp time.Time // Start of the bar
	Open      float64   // Opening price
	High      float64   // Highest price during the bar
	Low       float64   // Lowest price during the bar
	Close     float64   // Closing price
	Volume    float64   // Traded volume (0 when the feed has none)
}

// Value returns the numeric value of a canonical column.
// The boolean is false for unknown columns and for the timestamp column.
func (r Record) Value(column string) (float64, bool) {
	switch column {
	case ColumnOpen:
		return r.Open, true
	case ColumnHigh:
		return r.High, true
	case ColumnLow:
		return r.Low, true
	case ColumnClose:
		return r.Close, true
	case ColumnVolume:
		return r.Volume, true
	}
	return 0, false
}

// IsNull reports whether the given canonical column holds a missing value.
func (r Record) IsNull(column string) bool {
	if column == ColumnTimestamp {
		return r.Timestamp.IsZero()
	}
	v, ok := r.Value(column)
	return !ok || math.IsNaN(v)
}

// Set assigns the numeric value of a canonical column. Unknown columns are ignored.
func (r *Record) Set(column string, v float64) {
	switch column {
	case ColumnOpen:
		r.Open = v
	case ColumnHigh:
		r.High = v
	case ColumnLow:
		r.Low = v
	case ColumnClose:
		r.Close = v
	case ColumnVolume:
		r.Volume = v
	}
}
