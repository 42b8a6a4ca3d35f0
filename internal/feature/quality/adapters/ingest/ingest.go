// Package ingest decodes upstream market-data payloads into canonical OHLCV records.
//
// Each upstream schema is a separate decoder. The decoder is chosen once from
// configuration; payloads are never sniffed to guess their shape.
package ingest

import (
	"fmt"
	"strings"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

// Supported schema variants.
const (
	VariantTimeSeries = "timeseries"  // object keyed by timestamp under a named series key
	VariantNestedData = "nested-data" // Data.Data array of objects with epoch-second times
	VariantArray      = "array"       // array of positional arrays with epoch-millisecond times
	VariantRecords    = "records"     // first top-level field holds an array of keyed objects
)

// Variants lists every supported variant name.
var Variants = []string{VariantTimeSeries, VariantNestedData, VariantArray, VariantRecords}

// Decoder is an ingestor that can also recognise in-band upstream errors.
type Decoder interface {
	usecase.Ingestor
	// CheckPayload returns an error wrapping ErrUpstreamReported when a
	// successful response actually reports an upstream failure.
	CheckPayload(raw []byte) error
}

// decodeFunc turns a payload into records; its errors are wrapped into domain.IngestError.
type decodeFunc func(raw []byte) ([]entity.Record, error)

// checkFunc reports an in-band upstream error.
type checkFunc func(raw []byte) error

// ingestor binds a variant name to its decode and check functions.
type ingestor struct {
	variant string
	decode  decodeFunc
	check   checkFunc
}

var _ Decoder = (*ingestor)(nil)

// New returns the decoder for variant.
func New(variant string) (Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case VariantTimeSeries:
		return &ingestor{variant: VariantTimeSeries, decode: decodeTimeSeries, check: checkTimeSeries}, nil
	case VariantNestedData:
		return &ingestor{variant: VariantNestedData, decode: decodeNestedData, check: checkNestedData}, nil
	case VariantArray:
		return &ingestor{variant: VariantArray, decode: decodeArray, check: checkArray}, nil
	case VariantRecords:
		return &ingestor{variant: VariantRecords, decode: decodeRecords, check: checkRecords}, nil
	default:
		return nil, fmt.Errorf("unknown upstream variant %q (want one of %s)", variant, strings.Join(Variants, ", "))
	}
}

func (i *ingestor) Variant() string { return i.variant }

// Ingest decodes raw into records, reporting failures as *domain.IngestError.
func (i *ingestor) Ingest(raw []byte) ([]entity.Record, error) {
	records, err := i.decode(raw)
	if err != nil {
		return nil, &domain.IngestError{Variant: i.variant, Err: err}
	}
	return records, nil
}

func (i *ingestor) CheckPayload(raw []byte) error {
	return i.check(raw)
}

// objectCheck runs the generic "error" field check plus a variant-specific one
// when the body is a JSON object. Non-object bodies are left to Ingest.
func objectCheck(raw []byte, specific func(fields []field) error) error {
	fields, err := orderedFields(raw)
	if err != nil {
		return nil
	}
	if err := reportedError(fields); err != nil {
		return err
	}
	if specific != nil {
		return specific(fields)
	}
	return nil
}
