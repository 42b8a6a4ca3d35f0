package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

type fakeMonitor struct {
	gotForce bool
	res      *usecase.Result
	err      error
}

func (f *fakeMonitor) Run(ctx context.Context, force bool) (*usecase.Result, error) {
	f.gotForce = force
	return f.res, f.err
}

type fakeHistory struct {
	gotLimit int
	docs     []entity.StoredDocument
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error) {
	f.gotLimit = limit
	return f.docs, nil
}

type fakeHash struct {
	hash string
	ok   bool
}

func (f fakeHash) LatestHash(ctx context.Context) (string, bool, error) { return f.hash, f.ok, nil }

type fakeDemo struct {
	gotHours    int
	gotInterval time.Duration
	report      *usecase.SeedReport
}

func (f *fakeDemo) SeedDemo(ctx context.Context, hours int, interval time.Duration) (*usecase.SeedReport, error) {
	f.gotHours, f.gotInterval = hours, interval
	return f.report, nil
}

// useDeps replaces loadDeps for the duration of the test.
func useDeps(t *testing.T, d *deps) *bool {
	t.Helper()
	closed := false
	d.close = func(context.Context) error { closed = true; return nil }

	orig := loadDeps
	loadDeps = func(context.Context) (*deps, error) { return d, nil }
	t.Cleanup(func() { loadDeps = orig })
	return &closed
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

var testSummary = entity.Summary{
	Timestamp:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	Success:       true,
	NExpectations: 17,
	NSuccess:      17,
	PercentValid:  100,
	ContentHash:   "abc123",
}

func TestRunCmd(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		monitor   *fakeMonitor
		wantForce bool
		wantKey   string
		wantErr   bool
	}{
		{
			name:    "validated",
			args:    []string{"run", "--force=false"},
			monitor: &fakeMonitor{res: &usecase.Result{Outcome: usecase.OutcomeValidated, Summary: &testSummary}},
			wantKey: "summary",
		},
		{
			name:      "forced",
			args:      []string{"run", "--force"},
			monitor:   &fakeMonitor{res: &usecase.Result{Outcome: usecase.OutcomeValidated, Summary: &testSummary}},
			wantForce: true,
			wantKey:   "summary",
		},
		{
			name:    "skipped",
			args:    []string{"run", "--force=false"},
			monitor: &fakeMonitor{res: &usecase.Result{Outcome: usecase.OutcomeSkipped, Message: usecase.SkipMessage}},
			wantKey: "message",
		},
		{
			name:    "failure exits non-zero",
			args:    []string{"run", "--force=false"},
			monitor: &fakeMonitor{err: errors.New("fetch failed")},
			wantKey: "error",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closed := useDeps(t, &deps{monitor: tt.monitor})

			out, err := execute(t, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			var body map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &body), out)
			assert.Contains(t, body, tt.wantKey)
			assert.Equal(t, tt.wantForce, tt.monitor.gotForce)
			assert.True(t, *closed, "connections should be released")
		})
	}
}

func TestLastHashCmd(t *testing.T) {
	tests := []struct {
		name string
		hash fakeHash
		want string
	}{
		{"stored", fakeHash{hash: "deadbeef", ok: true}, "deadbeef"},
		{"empty store", fakeHash{}, "no stored results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useDeps(t, &deps{lastHash: tt.hash})

			out, err := execute(t, "last-hash")
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestHistoryCmd(t *testing.T) {
	history := &fakeHistory{docs: []entity.StoredDocument{{Summary: testSummary, RunID: "run-1"}}}
	useDeps(t, &deps{history: history})

	out, err := execute(t, "history", "--limit", "5")
	require.NoError(t, err)

	assert.Equal(t, 5, history.gotLimit)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, 1, body.Count)
}

func TestSeedDemoCmd(t *testing.T) {
	demo := &fakeDemo{report: &usecase.SeedReport{
		Deleted:  3,
		Inserted: 24,
		Stats:    usecase.DemoStats{Total: 30, Demo: 24, SuccessRate: 62.5, AvgPercentValid: 91.25},
		Latest:   []entity.StoredDocument{{Summary: testSummary}},
	}}
	useDeps(t, &deps{demo: demo})

	out, err := execute(t, "seed-demo", "--hours", "24", "--interval", "1h")
	require.NoError(t, err)

	assert.Equal(t, 24, demo.gotHours)
	assert.Equal(t, time.Hour, demo.gotInterval)
	assert.Contains(t, out, "inserted 24 demo documents")
	assert.Contains(t, out, "total documents: 30 (demo: 24)")
	assert.Contains(t, out, "success rate: 62.5%")
	assert.Contains(t, out, "2024-03-01 12:00  PASS  100.0%")
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("MONITOR_JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "--subject", "dashboard", "--ttl", "1h", "--secret", "")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (interface{}, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.Subject)
}

func TestTokenCmd_Errors(t *testing.T) {
	t.Setenv("MONITOR_JWT_SECRET", "")

	_, err := execute(t, "token", "--secret", "", "--ttl", "1h")
	assert.ErrorContains(t, err, "no signing secret")

	_, err = execute(t, "token", "--secret", "s", "--ttl", "0s")
	assert.ErrorContains(t, err, "--ttl must be positive")
}
