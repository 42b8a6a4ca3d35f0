// Package store persists validation summaries.
//
// Documents are append-only. Each one carries the summary fields, the full
// expectation results and the time it was stored.
package store

import (
	"time"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// resultDocument is the stored form of one expectation result.
type resultDocument struct {
	ExpectationName string       `bson:"expectation_type" json:"expectation_type"`
	Column          string       `bson:"column" json:"column"`
	Success         bool         `bson:"success" json:"success"`
	Result          resultDetail `bson:"result" json:"result"`
}

type resultDetail struct {
	ElementCount           int            `bson:"element_count" json:"element_count"`
	UnexpectedCount        int            `bson:"unexpected_count" json:"unexpected_count"`
	UnexpectedPercent      float64        `bson:"unexpected_percent" json:"unexpected_percent"`
	PartialUnexpectedIndex []int          `bson:"partial_unexpected_index_list,omitempty" json:"partial_unexpected_index_list,omitempty"`
	Kwargs                 map[string]any `bson:"kwargs,omitempty" json:"kwargs,omitempty"`
}

// summaryDocument is the stored form of entity.StoredDocument.
type summaryDocument struct {
	Timestamp        time.Time        `bson:"timestamp"`
	Success          bool             `bson:"success"`
	NExpectations    int              `bson:"n_expectations"`
	NSuccess         int              `bson:"n_success"`
	NFailed          int              `bson:"n_failed"`
	PercentValid     float64          `bson:"percent_valid"`
	ContentHash      string           `bson:"content_hash"`
	RunID            string           `bson:"run_id,omitempty"`
	ExpectationSuite string           `bson:"expectation_suite,omitempty"`
	FullResults      []resultDocument `bson:"full_results,omitempty"`
	StoredAt         time.Time        `bson:"stored_at"`
	DemoData         bool             `bson:"demo_data,omitempty"`
}

func toResultDocuments(rs []entity.ValidationResult) []resultDocument {
	if len(rs) == 0 {
		return nil
	}
	out := make([]resultDocument, 0, len(rs))
	for _, r := range rs {
		out = append(out, resultDocument{
			ExpectationName: r.ExpectationName,
			Column:          r.Column,
			Success:         r.Success,
			Result: resultDetail{
				ElementCount:           r.Metadata.ElementCount,
				UnexpectedCount:        r.Metadata.UnexpectedCount,
				UnexpectedPercent:      r.Metadata.UnexpectedPercent,
				PartialUnexpectedIndex: r.Metadata.PartialUnexpectedIndex,
				Kwargs:                 r.Metadata.Kwargs,
			},
		})
	}
	return out
}

func fromResultDocuments(ds []resultDocument) []entity.ValidationResult {
	if len(ds) == 0 {
		return nil
	}
	out := make([]entity.ValidationResult, 0, len(ds))
	for _, d := range ds {
		out = append(out, entity.ValidationResult{
			ExpectationName: d.ExpectationName,
			Column:          d.Column,
			Success:         d.Success,
			Metadata: entity.ResultMetadata{
				ElementCount:           d.Result.ElementCount,
				UnexpectedCount:        d.Result.UnexpectedCount,
				UnexpectedPercent:      d.Result.UnexpectedPercent,
				PartialUnexpectedIndex: d.Result.PartialUnexpectedIndex,
				Kwargs:                 d.Result.Kwargs,
			},
		})
	}
	return out
}

func toSummaryDocument(d entity.StoredDocument) summaryDocument {
	return summaryDocument{
		Timestamp:        d.Timestamp.UTC(),
		Success:          d.Success,
		NExpectations:    d.NExpectations,
		NSuccess:         d.NSuccess,
		NFailed:          d.NFailed,
		PercentValid:     d.PercentValid,
		ContentHash:      d.ContentHash,
		RunID:            d.RunID,
		ExpectationSuite: d.ExpectationSuite,
		FullResults:      toResultDocuments(d.FullResults),
		StoredAt:         storedAt(d.StoredAt),
		DemoData:         d.DemoData,
	}
}

func (s summaryDocument) toEntity() entity.StoredDocument {
	return entity.StoredDocument{
		Summary: entity.Summary{
			Timestamp:     s.Timestamp.UTC(),
			Success:       s.Success,
			NExpectations: s.NExpectations,
			NSuccess:      s.NSuccess,
			NFailed:       s.NFailed,
			PercentValid:  s.PercentValid,
			ContentHash:   s.ContentHash,
		},
		RunID:            s.RunID,
		ExpectationSuite: s.ExpectationSuite,
		FullResults:      fromResultDocuments(s.FullResults),
		StoredAt:         s.StoredAt.UTC(),
		DemoData:         s.DemoData,
	}
}

// storedAt defaults an unset storage time to now.
func storedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
