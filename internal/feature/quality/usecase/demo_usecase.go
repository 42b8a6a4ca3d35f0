package usecase

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"quality_watchdog/internal/feature/quality/domain/entity"
)

// demoExpectations is the expectation count recorded on generated demo rows.
const demoExpectations = 8

// DemoRepository は デモデータの入れ替えに必要な永続化操作を抽象化します。
type DemoRepository interface {
	DeleteDemo(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, docs []entity.StoredDocument) (int, error)
	Stats(ctx context.Context) (DemoStats, error)
}

// DemoStats はデモデータ投入後の集計値です。
type DemoStats struct {
	Total           int64   // コレクション全体の件数
	Demo            int64   // demo_data=true の件数
	SuccessRate     float64 // デモデータのうち success=true の割合（%）
	AvgPercentValid float64 // デモデータの percent_valid 平均
}

// SeedReport は SeedDemo の実行結果です。
type SeedReport struct {
	Deleted  int64
	Inserted int
	Stats    DemoStats
	Latest   []entity.StoredDocument
}

// DemoUsecase はダッシュボード確認用の履歴データを生成・投入します。
type DemoUsecase struct {
	repo DemoRepository
	rnd  *rand.Rand
	now  func() time.Time
}

// NewDemoUsecase は DemoUsecase を生成します。rnd が nil の場合はランダムなシードを使用します。
func NewDemoUsecase(repo DemoRepository, rnd *rand.Rand) *DemoUsecase {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &DemoUsecase{repo: repo, rnd: rnd, now: time.Now}
}

// SeedDemo は既存のデモデータを削除し、hours 時間分のデータを interval 間隔で投入します。
func (d *DemoUsecase) SeedDemo(ctx context.Context, hours int, interval time.Duration) (*SeedReport, error) {
	if hours <= 0 || interval <= 0 {
		return nil, fmt.Errorf("hours and interval must be positive")
	}
	docs := GenerateDemoDataset(d.rnd, d.now().UTC(), hours, interval)

	deleted, err := d.repo.DeleteDemo(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete demo data: %w", err)
	}
	inserted, err := d.repo.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("insert demo data: %w", err)
	}
	stats, err := d.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("demo stats: %w", err)
	}

	latest := docs
	if len(latest) > 5 {
		latest = latest[:5]
	}
	return &SeedReport{Deleted: deleted, Inserted: inserted, Stats: stats, Latest: latest}, nil
}

// GenerateDemoDataset は新しい順に並んだデモ用の検証サマリーを生成します。
//
// 品質は営業時間帯（9〜17時）に高く、夜間・週末に低く、期間の古い側で緩やかに劣化します。
// 約5%の確率でインシデント相当の低品質データを含みます。
func GenerateDemoDataset(rnd *rand.Rand, now time.Time, hours int, interval time.Duration) []entity.StoredDocument {
	n := int(time.Duration(hours) * time.Hour / interval)
	out := make([]entity.StoredDocument, 0, n)

	for i := 0; i < n; i++ {
		ts := now.Add(-time.Duration(i) * interval)

		base := 92.0
		switch h := ts.Hour(); {
		case h >= 9 && h <= 17:
			base = 96
		case (h >= 18 && h <= 23) || (h >= 6 && h <= 8):
			base = 94
		}
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			base -= 2
		}

		trend := demoTrend(i, hours)
		if rnd.Float64() < 0.05 {
			base = 75 + rnd.Float64()*10
		}

		out = append(out, demoPoint(rnd, ts, base, trend))
	}
	return out
}

// demoTrend compares the point index with the window length in hours, not with
// the number of points, so sub-hourly intervals flip to degradation earlier.
func demoTrend(i, hours int) float64 {
	if float64(i) > float64(hours)*0.7 {
		return -0.1
	}
	return 0.1
}

func demoPoint(rnd *rand.Rand, ts time.Time, base, trend float64) entity.StoredDocument {
	variation := -10 + rnd.Float64()*15
	influence := trend * (-2 + rnd.Float64()*4)
	quality := math.Max(70, math.Min(100, base+variation+influence))

	nSuccess := int(quality / 100 * demoExpectations)
	pct := math.Round(float64(nSuccess)/demoExpectations*100*100) / 100

	return entity.StoredDocument{
		Summary: entity.Summary{
			Timestamp:     ts,
			Success:       quality >= DefaultQualityThreshold,
			NExpectations: demoExpectations,
			NSuccess:      nSuccess,
			NFailed:       demoExpectations - nSuccess,
			PercentValid:  pct,
			ContentHash:   fmt.Sprintf("demo_hash_%s_%d", ts.Format("20060102_150405"), 1000+rnd.IntN(9000)),
		},
		StoredAt: ts,
		DemoData: true,
	}
}
