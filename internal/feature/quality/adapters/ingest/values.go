package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUpstreamReported is wrapped by payload checks when a 200 body carries an in-band error.
var ErrUpstreamReported = errors.New("upstream reported an error")

// isoLayouts are the timestamp layouts accepted for string timestamps, tried in order.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// msThreshold separates epoch seconds from epoch milliseconds (~2001-09-09 in ms).
const msThreshold = 1e12

// field is one key/value pair of a JSON object, in document order.
type field struct {
	key   string
	value json.RawMessage
}

// orderedFields decodes a JSON object keeping its key order.
func orderedFields(raw []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var out []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		out = append(out, field{key: key, value: v})
	}
	return out, nil
}

// isNull reports whether raw is absent or a JSON null.
func isNull(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}

// parseNumber coerces a JSON number or numeric string to float64.
// null becomes NaN so that the not-null expectation can see it.
func parseNumber(column string, raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return math.NaN(), nil
	}
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("parse %s %s: %w", column, raw, err)
		}
		s = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", column, s, err)
	}
	return v, nil
}

// optionalNumber is parseNumber with a zero default for an absent field.
func optionalNumber(column string, raw json.RawMessage, present bool) (float64, error) {
	if !present {
		return 0, nil
	}
	return parseNumber(column, raw)
}

// epochUnit selects how numeric timestamps are interpreted.
type epochUnit int

const (
	unitSeconds epochUnit = iota
	unitMillis
	unitAuto // milliseconds when the value is above msThreshold
)

// parseEpoch converts an epoch value (number or numeric string) to a UTC instant.
// null yields the zero time.
func parseEpoch(raw json.RawMessage, unit epochUnit) (time.Time, error) {
	if isNull(raw) {
		return time.Time{}, nil
	}
	v, err := parseNumber("timestamp", raw)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, fmt.Errorf("parse timestamp %s: not finite", raw)
	}
	if unit == unitMillis || (unit == unitAuto && math.Abs(v) >= msThreshold) {
		return time.UnixMilli(int64(v)).UTC(), nil
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

// parseISO parses a string timestamp in loc when it carries no zone.
func parseISO(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported format", s)
}

// parseTimestamp accepts either an ISO string or an epoch number.
func parseTimestamp(raw json.RawMessage, unit epochUnit) (time.Time, error) {
	if isNull(raw) {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if _, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
			return parseEpoch(raw, unit)
		}
		return parseISO(s, time.UTC)
	}
	return parseEpoch(raw, unit)
}

// reportedError inspects a top-level "error" field, which every variant treats as in-band failure.
func reportedError(fields []field) error {
	for _, f := range fields {
		if !strings.EqualFold(f.key, "error") || isNull(f.value) {
			continue
		}
		var msg any
		if err := json.Unmarshal(f.value, &msg); err != nil {
			return fmt.Errorf("%w: %s", ErrUpstreamReported, f.value)
		}
		switch m := msg.(type) {
		case bool:
			if !m {
				continue
			}
		case string:
			if m == "" {
				continue
			}
		}
		return fmt.Errorf("%w: %s", ErrUpstreamReported, strings.TrimSpace(string(f.value)))
	}
	return nil
}

// lookup returns the value of the first field whose key equals one of names (case-insensitive).
func lookup(obj map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, n := range names {
		if v, ok := obj[n]; ok {
			return v, true
		}
	}
	for k, v := range obj {
		for _, n := range names {
			if strings.EqualFold(k, n) {
				return v, true
			}
		}
	}
	return nil, false
}

// stringField decodes a string-valued field, returning "" when absent or not a string.
func stringField(fields []field, key string) string {
	for _, f := range fields {
		if f.key != key {
			continue
		}
		var s string
		if err := json.Unmarshal(f.value, &s); err == nil {
			return s
		}
	}
	return ""
}
