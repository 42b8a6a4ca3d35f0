package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

const metaDataKey = "Meta Data"

// seriesColumnPrefix strips the ordinal prefix of keys such as "1. open" or "1a. open (USD)".
var seriesColumnPrefix = regexp.MustCompile(`^\s*\d+[a-z]?\.\s*`)

// inBandKeys are top-level keys the time-series API uses instead of an HTTP error status.
var inBandKeys = []string{"Error Message", "Information", "Note"}

// decodeTimeSeries handles a payload such as
//
//	{"Meta Data": {...}, "Time Series (60min)": {"2024-01-02 10:00:00": {"1. open": "1.0", ...}}}
//
// The series key is the first key containing "Time Series", otherwise the first
// object-valued key that is not "Meta Data". Rows keep document order and
// duplicate timestamps are kept, so ordering faults reach the validator.
func decodeTimeSeries(raw []byte) ([]entity.Record, error) {
	fields, err := orderedFields(raw)
	if err != nil {
		return nil, err
	}

	series, ok := selectSeries(fields)
	if !ok {
		return nil, errors.New("no time series object found")
	}

	loc := seriesLocation(fields)

	rows, err := orderedFields(series.value)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", series.key, err)
	}

	out := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeSeriesRow(row, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeSeriesRow(row field, loc *time.Location) (entity.Record, error) {
	tm, err := parseISO(row.key, loc)
	if err != nil {
		return entity.Record{}, err
	}
	var cols map[string]json.RawMessage
	if err := json.Unmarshal(row.value, &cols); err != nil {
		return entity.Record{}, fmt.Errorf("row %s: %w", row.key, err)
	}

	rec := entity.Record{Timestamp: tm}
	byName := make(map[string]json.RawMessage, len(cols))
	for k, v := range cols {
		byName[normalizeSeriesColumn(k)] = v
	}
	for _, col := range entity.NumericColumns {
		v, present := byName[col]
		if !present && col != entity.ColumnVolume {
			return entity.Record{}, fmt.Errorf("row %s: missing %s", row.key, col)
		}
		f, err := optionalNumber(col, v, present)
		if err != nil {
			return entity.Record{}, fmt.Errorf("row %s: %w", row.key, err)
		}
		rec.Set(col, f)
	}
	return rec, nil
}

func selectSeries(fields []field) (field, bool) {
	for _, f := range fields {
		if strings.Contains(f.key, "Time Series") {
			return f, true
		}
	}
	for _, f := range fields {
		if f.key == metaDataKey {
			continue
		}
		if v := strings.TrimSpace(string(f.value)); strings.HasPrefix(v, "{") {
			return f, true
		}
	}
	return field{}, false
}

// seriesLocation reads the zone from the "Meta Data" block, defaulting to UTC.
func seriesLocation(fields []field) *time.Location {
	for _, f := range fields {
		if f.key != metaDataKey {
			continue
		}
		var meta map[string]string
		if err := json.Unmarshal(f.value, &meta); err != nil {
			return time.UTC
		}
		for k, v := range meta {
			if !strings.HasSuffix(strings.ToLower(k), "time zone") {
				continue
			}
			if loc, err := time.LoadLocation(v); err == nil {
				return loc
			}
		}
	}
	return time.UTC
}

// normalizeSeriesColumn maps "1. open" and "1a. open (USD)" to "open".
func normalizeSeriesColumn(k string) string {
	k = seriesColumnPrefix.ReplaceAllString(k, "")
	if i := strings.IndexAny(k, " ("); i >= 0 {
		k = k[:i]
	}
	return strings.ToLower(k)
}

func checkTimeSeries(raw []byte) error {
	return objectCheck(raw, func(fields []field) error {
		for _, key := range inBandKeys {
			if msg := stringField(fields, key); msg != "" {
				return fmt.Errorf("%w: %s: %s", ErrUpstreamReported, key, msg)
			}
		}
		return nil
	})
}
