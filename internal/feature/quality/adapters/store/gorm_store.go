package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

// SummaryModel is the relational row of a stored summary.
// FullResults holds the expectation results as a JSON array.
type SummaryModel struct {
	ID               uint      `gorm:"primaryKey"`
	Timestamp        time.Time `gorm:"not null;index:idx_quality_metrics_timestamp"`
	Success          bool      `gorm:"not null"`
	NExpectations    int       `gorm:"not null"`
	NSuccess         int       `gorm:"not null"`
	NFailed          int       `gorm:"not null"`
	PercentValid     float64   `gorm:"not null"`
	ContentHash      string    `gorm:"size:128;not null"`
	RunID            string    `gorm:"size:64"`
	ExpectationSuite string    `gorm:"size:128"`
	FullResults      string    `gorm:"type:text"`
	StoredAt         time.Time `gorm:"not null"`
	DemoData         bool      `gorm:"not null;default:false;index"`
}

func (SummaryModel) TableName() string {
	return "quality_metrics"
}

type gormStore struct {
	db *gorm.DB
}

var (
	_ usecase.SummaryRepository = (*gormStore)(nil)
	_ usecase.HistoryReader     = (*gormStore)(nil)
	_ usecase.DemoRepository    = (*gormStore)(nil)
)

// NewGormStore returns a store backed by a relational database (postgres or sqlite).
func NewGormStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db}
}

func toModel(d entity.StoredDocument) (SummaryModel, error) {
	doc := toSummaryDocument(d)
	var full string
	if len(doc.FullResults) > 0 {
		b, err := json.Marshal(doc.FullResults)
		if err != nil {
			return SummaryModel{}, fmt.Errorf("encode full results: %w", err)
		}
		full = string(b)
	}
	return SummaryModel{
		Timestamp:        doc.Timestamp,
		Success:          doc.Success,
		NExpectations:    doc.NExpectations,
		NSuccess:         doc.NSuccess,
		NFailed:          doc.NFailed,
		PercentValid:     doc.PercentValid,
		ContentHash:      doc.ContentHash,
		RunID:            doc.RunID,
		ExpectationSuite: doc.ExpectationSuite,
		FullResults:      full,
		StoredAt:         doc.StoredAt,
		DemoData:         doc.DemoData,
	}, nil
}

func (m SummaryModel) toEntity(withResults bool) (entity.StoredDocument, error) {
	doc := summaryDocument{
		Timestamp:        m.Timestamp,
		Success:          m.Success,
		NExpectations:    m.NExpectations,
		NSuccess:         m.NSuccess,
		NFailed:          m.NFailed,
		PercentValid:     m.PercentValid,
		ContentHash:      m.ContentHash,
		RunID:            m.RunID,
		ExpectationSuite: m.ExpectationSuite,
		StoredAt:         m.StoredAt,
		DemoData:         m.DemoData,
	}
	if withResults && m.FullResults != "" {
		if err := json.Unmarshal([]byte(m.FullResults), &doc.FullResults); err != nil {
			return entity.StoredDocument{}, fmt.Errorf("decode full results: %w", err)
		}
	}
	return doc.toEntity(), nil
}

func (r *gormStore) Save(ctx context.Context, doc entity.StoredDocument) error {
	m, err := toModel(doc)
	if err != nil {
		return &domain.StoreError{Op: "insert", Err: err}
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return &domain.StoreError{Op: "insert", Err: err}
	}
	return nil
}

func (r *gormStore) LatestHash(ctx context.Context) (string, bool, error) {
	var rows []SummaryModel
	err := r.db.WithContext(ctx).
		Select("content_hash").
		Order("timestamp DESC").
		Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return "", false, &domain.StoreError{Op: "find latest", Err: err}
	}
	if len(rows) == 0 || rows[0].ContentHash == "" {
		return "", false, nil
	}
	return rows[0].ContentHash, true, nil
}

func (r *gormStore) Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error) {
	var rows []SummaryModel
	q := r.db.WithContext(ctx).
		Omit("full_results").
		Order("timestamp DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, &domain.StoreError{Op: "find recent", Err: err}
	}
	out := make([]entity.StoredDocument, 0, len(rows))
	for _, m := range rows {
		d, err := m.toEntity(false)
		if err != nil {
			return nil, &domain.StoreError{Op: "decode recent", Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *gormStore) DeleteDemo(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("demo_data = ?", true).Delete(&SummaryModel{})
	if res.Error != nil {
		return 0, &domain.StoreError{Op: "delete demo", Err: res.Error}
	}
	return res.RowsAffected, nil
}

func (r *gormStore) InsertMany(ctx context.Context, docs []entity.StoredDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	ms := make([]SummaryModel, 0, len(docs))
	for _, d := range docs {
		m, err := toModel(d)
		if err != nil {
			return 0, &domain.StoreError{Op: "insert many", Err: err}
		}
		ms = append(ms, m)
	}
	res := r.db.WithContext(ctx).CreateInBatches(&ms, 200)
	if res.Error != nil {
		return 0, &domain.StoreError{Op: "insert many", Err: res.Error}
	}
	return int(res.RowsAffected), nil
}

func (r *gormStore) Stats(ctx context.Context) (usecase.DemoStats, error) {
	var st usecase.DemoStats
	db := r.db.WithContext(ctx).Model(&SummaryModel{})

	if err := db.Session(&gorm.Session{}).Count(&st.Total).Error; err != nil {
		return st, &domain.StoreError{Op: "count", Err: err}
	}

	var agg struct {
		Demo      int64
		Succeeded int64
		AvgValid  float64
	}
	err := db.Session(&gorm.Session{}).
		Select("COUNT(*) AS demo, "+
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS succeeded, "+
			"COALESCE(AVG(percent_valid), 0) AS avg_valid").
		Where("demo_data = ?", true).
		Scan(&agg).Error
	if err != nil {
		return st, &domain.StoreError{Op: "aggregate demo", Err: err}
	}

	st.Demo = agg.Demo
	st.AvgPercentValid = agg.AvgValid
	if agg.Demo > 0 {
		st.SuccessRate = float64(agg.Succeeded) / float64(agg.Demo) * 100
	}
	return st, nil
}
