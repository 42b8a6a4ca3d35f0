package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// recordAliases maps canonical columns to the keys accepted for them.
var recordAliases = map[string][]string{
	entity.ColumnTimestamp: {"timestamp", "datetime", "time", "date", "t"},
	entity.ColumnOpen:      {"open", "o"},
	entity.ColumnHigh:      {"high", "h"},
	entity.ColumnLow:       {"low", "l"},
	entity.ColumnClose:     {"close", "c"},
	entity.ColumnVolume:    {"volume", "v"},
}

// decodeRecords handles a payload whose first top-level field holds an array of
// objects with explicit per-field keys, such as
//
//	{"values": [{"datetime": "2024-01-02 10:00:00", "open": "1.0", ...}], "status": "ok"}
//
// Timestamps may be ISO strings or epoch seconds/milliseconds. Document order is kept.
func decodeRecords(raw []byte) ([]entity.Record, error) {
	fields, err := orderedFields(raw)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("empty object")
	}

	first := fields[0]
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(first.value, &rows); err != nil {
		return nil, fmt.Errorf("first field %q is not an array of objects: %w", first.key, err)
	}

	out := make([]entity.Record, 0, len(rows))
	for i, row := range rows {
		ts, ok := lookup(row, recordAliases[entity.ColumnTimestamp]...)
		if !ok {
			return nil, fmt.Errorf("row %d: missing timestamp", i)
		}
		tm, err := parseTimestamp(ts, unitAuto)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rec := entity.Record{Timestamp: tm}
		for _, col := range entity.NumericColumns {
			v, present := lookup(row, recordAliases[col]...)
			if !present && col != entity.ColumnVolume {
				return nil, fmt.Errorf("row %d: missing %s", i, col)
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

// checkRecords recognises {"status": "error", "message": "..."} envelopes.
func checkRecords(raw []byte) error {
	return objectCheck(raw, func(fields []field) error {
		if strings.EqualFold(stringField(fields, "status"), "error") {
			return fmt.Errorf("%w: %s", ErrUpstreamReported, stringField(fields, "message"))
		}
		return nil
	})
}
