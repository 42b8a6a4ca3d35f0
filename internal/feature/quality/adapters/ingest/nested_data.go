package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// nestedPayload is the envelope of a Data.Data response.
type nestedPayload struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     *struct {
		Data []map[string]json.RawMessage `json:"Data"`
	} `json:"Data"`
}

// decodeNestedData handles a payload such as
//
//	{"Response": "Success", "Data": {"Data": [{"time": 1672531200, "open": 1.0, ..., "volumefrom": 10}]}}
//
// time is in epoch seconds. Volume is read from "volumefrom", falling back to
// "volume", and defaults to zero. Document order is kept.
func decodeNestedData(raw []byte) ([]entity.Record, error) {
	var body nestedPayload
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if body.Data == nil || body.Data.Data == nil {
		return nil, errors.New(`missing "Data.Data" array`)
	}

	out := make([]entity.Record, 0, len(body.Data.Data))
	for i, row := range body.Data.Data {
		ts, ok := lookup(row, "time")
		if !ok {
			return nil, fmt.Errorf("row %d: missing time", i)
		}
		tm, err := parseEpoch(ts, unitSeconds)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rec := entity.Record{Timestamp: tm}

		for _, col := range []string{entity.ColumnOpen, entity.ColumnHigh, entity.ColumnLow, entity.ColumnClose} {
			v, ok := lookup(row, col)
			if !ok {
				return nil, fmt.Errorf("row %d: missing %s", i, col)
			}
			f, err := parseNumber(col, v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			rec.Set(col, f)
		}

		v, ok := lookup(row, "volumefrom", "volume")
		if rec.Volume, err = optionalNumber(entity.ColumnVolume, v, ok); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func checkNestedData(raw []byte) error {
	return objectCheck(raw, func(fields []field) error {
		if stringField(fields, "Response") == "Error" {
			return fmt.Errorf("%w: %s", ErrUpstreamReported, stringField(fields, "Message"))
		}
		return nil
	})
}
