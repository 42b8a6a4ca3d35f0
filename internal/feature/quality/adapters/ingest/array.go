package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// arrayColumns is the positional layout after the leading open time.
var arrayColumns = []string{entity.ColumnOpen, entity.ColumnHigh, entity.ColumnLow, entity.ColumnClose, entity.ColumnVolume}

// decodeArray handles a kline-style payload such as
//
//	[[1672531200000, "1.0", "2.0", "0.5", "1.5", "100.0", 1672534799999, ...], ...]
//
// The first element is the open time in epoch milliseconds followed by OHLC and
// an optional volume. Extra trailing elements are ignored.
func decodeArray(raw []byte) ([]entity.Record, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("expected an array of arrays: %w", err)
	}

	out := make([]entity.Record, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("row %d: want at least 5 fields (time, open, high, low, close), got %d", i, len(row))
		}
		tm, err := parseEpoch(row[0], unitMillis)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rec := entity.Record{Timestamp: tm}
		for j, col := range arrayColumns {
			pos := j + 1
			present := pos < len(row)
			var v json.RawMessage
			if present {
				v = row[pos]
			}
			f, err := optionalNumber(col, v, present)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			rec.Set(col, f)
		}
		out = append(out, rec)
	}
	return out, nil
}

// checkArray treats an object body as an error envelope, e.g. {"code": -1121, "msg": "Invalid symbol."}.
func checkArray(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	return objectCheck(raw, func(fields []field) error {
		if msg := stringField(fields, "msg"); msg != "" {
			return fmt.Errorf("%w: %s", ErrUpstreamReported, msg)
		}
		for _, f := range fields {
			if f.key == "code" {
				return fmt.Errorf("%w: code %s", ErrUpstreamReported, f.value)
			}
		}
		return nil
	})
}
