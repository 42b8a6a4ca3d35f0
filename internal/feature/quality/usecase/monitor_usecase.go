// Package usecase はデータ品質監視パイプラインのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
)

// SkipMessage はペイロードに変更がなく検証をスキップした場合の応答メッセージです。
const SkipMessage = "No change detected, skipping validation."

// Fetcher は上流APIから生のペイロードを取得するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Ingestor は特定の上流スキーマを正規化されたRecord列に変換します。
type Ingestor interface {
	Variant() string
	Ingest(raw []byte) ([]entity.Record, error)
}

// Validator はRecord列に対して期待値群を評価します。
type Validator interface {
	Name() string
	Validate(records []entity.Record) (entity.ValidationReport, error)
}

// SummaryRepository は検証結果ドキュメントの永続化レイヤーを抽象化します。
type SummaryRepository interface {
	LastHashReader
	Save(ctx context.Context, doc entity.StoredDocument) error
}

// Alerter はアラート通知チャネルを抽象化します。
type Alerter interface {
	Send(ctx context.Context, alert entity.Alert) error
}

// Outcome は1回の実行の終端状態を表します。
type Outcome int

const (
	// OutcomeSkipped はペイロード未変更のため検証を行わなかったことを示します。
	OutcomeSkipped Outcome = iota
	// OutcomeValidated は検証・保存まで完了したことを示します。
	OutcomeValidated
)

// Result は成功終端状態（スキップまたは検証完了）の結果です。
type Result struct {
	Outcome Outcome
	RunID   string
	Message string          // OutcomeSkipped のときのみ
	Summary *entity.Summary // OutcomeValidated のときのみ
	Alerted bool
}

// Option は MonitorUsecase の設定を変更します。
type Option func(*MonitorUsecase)

// WithQualityThreshold はアラート送信の品質閾値（percent_valid）を設定します。
func WithQualityThreshold(th float64) Option {
	return func(u *MonitorUsecase) { u.threshold = th }
}

// WithClock は現在時刻の取得関数を差し替えます（テスト用）。
func WithClock(now func() time.Time) Option {
	return func(u *MonitorUsecase) { u.now = now }
}

// WithRunIDGenerator は実行IDの生成関数を差し替えます（テスト用）。
func WithRunIDGenerator(gen func() string) Option {
	return func(u *MonitorUsecase) { u.newID = gen }
}

// MonitorUsecase は取得→ハッシュ→変更検知→取込→検証→集計→保存→通知を1回分実行します。
// 実行間で状態を持ちません。
type MonitorUsecase struct {
	fetcher   Fetcher
	ingestor  Ingestor
	validator Validator
	store     SummaryRepository
	alerter   Alerter
	detector  *ChangeDetector
	threshold float64
	now       func() time.Time
	newID     func() string
}

// NewMonitorUsecase は新しい MonitorUsecase を生成します。
// store が nil の場合は保存を行わず、毎回「変更あり」として扱います。
func NewMonitorUsecase(f Fetcher, in Ingestor, v Validator, store SummaryRepository, al Alerter, opts ...Option) *MonitorUsecase {
	u := &MonitorUsecase{
		fetcher:   f,
		ingestor:  in,
		validator: v,
		store:     store,
		alerter:   al,
		detector:  NewChangeDetector(store),
		threshold: DefaultQualityThreshold,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run はパイプラインを1回実行します。
//
// 取得・取込・検証のいずれかで失敗した場合は、エラー内容を含むアラートを必ず送信し、
// そのエラーを返します。中断した実行の結果は保存されません。
// 保存・通知の失敗はログに記録するのみで、実行結果には影響しません。
func (u *MonitorUsecase) Run(ctx context.Context, force bool) (*Result, error) {
	runID := u.newID()
	log := slog.With("run_id", runID, "variant", u.ingestor.Variant())

	res, err := u.run(ctx, log, runID, force)
	if err != nil {
		log.Error("monitor run failed", "error", err)
		u.notify(ctx, log, exceptionAlert(err, u.now()))
		return nil, err
	}
	return res, nil
}

func (u *MonitorUsecase) run(ctx context.Context, log *slog.Logger, runID string, force bool) (*Result, error) {
	raw, err := u.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	hash := Digest(raw)
	log = log.With("content_hash", hash)

	// force指定がない場合のみ変更検知を行う
	if !force && !u.detector.Changed(ctx, hash) {
		log.Info("payload unchanged; validation skipped")
		return &Result{Outcome: OutcomeSkipped, RunID: runID, Message: SkipMessage}, nil
	}

	records, err := u.ingestor.Ingest(raw)
	if err != nil {
		return nil, err
	}

	report, err := u.validator.Validate(records)
	if err != nil {
		return nil, err
	}

	summary := Summarize(report, hash, u.now())
	log.Info("payload validated",
		"rows", len(records),
		"success", summary.Success,
		"percent_valid", summary.PercentValid,
		"n_failed", summary.NFailed,
	)

	u.save(ctx, log, entity.StoredDocument{
		Summary:          summary,
		RunID:            runID,
		ExpectationSuite: u.validator.Name(),
		FullResults:      report.Results,
		StoredAt:         u.now().UTC(),
	})

	res := &Result{Outcome: OutcomeValidated, RunID: runID, Summary: &summary}
	if ShouldAlert(summary, u.threshold) {
		res.Alerted = u.notify(ctx, log, validationAlert(summary, report.FailedExpectations()))
	}
	return res, nil
}

// save は結果を永続化します。失敗してもパイプラインは継続します。
func (u *MonitorUsecase) save(ctx context.Context, log *slog.Logger, doc entity.StoredDocument) {
	if u.store == nil {
		log.Warn("store not configured; skipping store_results")
		return
	}
	if err := u.store.Save(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrStoreDisabled) {
			log.Warn("store not configured; skipping store_results")
			return
		}
		log.Warn("failed to store validation results", "error", err)
	}
}

// notify はアラートを送信し、送信を試みたかどうかを返します。
// 送信失敗は元の結果を隠さないようログのみに留めます。
func (u *MonitorUsecase) notify(ctx context.Context, log *slog.Logger, alert entity.Alert) bool {
	if u.alerter == nil {
		log.Warn("alerter not configured; alert dropped", "kind", alert.Kind.String())
		return false
	}
	if err := u.alerter.Send(ctx, alert); err != nil {
		log.Warn("alert failed", "kind", alert.Kind.String(), "error", err)
	}
	return true
}
