package ingest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/domain/expectation"
)

func mustNew(t *testing.T, variant string) Decoder {
	t.Helper()
	d, err := New(variant)
	require.NoError(t, err)
	return d
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, v := range Variants {
		d, err := New(v)
		require.NoError(t, err)
		assert.Equal(t, v, d.Variant())
	}

	d, err := New(" Nested-Data ")
	require.NoError(t, err)
	assert.Equal(t, VariantNestedData, d.Variant())

	_, err = New("csv")
	assert.ErrorContains(t, err, `unknown upstream variant "csv"`)
}

func TestIngest_RoundTrip(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	tests := []struct {
		name    string
		variant string
		payload string
		want    []entity.Record
	}{
		{
			name:    "time series object in document order",
			variant: VariantTimeSeries,
			payload: `{
				"Meta Data": {"1. Information": "Intraday (60min)", "6. Time Zone": "UTC"},
				"Time Series (60min)": {
					"2023-01-01 01:00:00": {"1. open": "2.0", "2. high": "3.0", "3. low": "1.5", "4. close": "2.5", "5. volume": "200"},
					"2023-01-01 00:00:00": {"1. open": "1.0", "2. high": "2.0", "3. low": "0.5", "4. close": "1.5", "5. volume": "100"}
				}
			}`,
			want: []entity.Record{
				{Timestamp: t1, Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: 200},
				{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
			},
		},
		{
			name:    "time series without volume",
			variant: VariantTimeSeries,
			payload: `{"Time Series FX (Daily)": {"2023-01-01": {"1. open": "1.1", "2. high": "1.2", "3. low": "1.0", "4. close": "1.15"}}}`,
			want: []entity.Record{
				{Timestamp: t0, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, Volume: 0},
			},
		},
		{
			name:    "nested data",
			variant: VariantNestedData,
			payload: `{"Response": "Success", "Data": {"Aggregated": false, "Data": [
				{"time": 1672531200, "open": 1.0, "high": 2.0, "low": 0.5, "close": 1.5, "volumefrom": 10, "volumeto": 15},
				{"time": 1672534800, "open": 1.5, "high": 2.5, "low": 1.0, "close": 2.0, "volumefrom": 20, "volumeto": 40}
			]}}`,
			want: []entity.Record{
				{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
				{Timestamp: t1, Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 20},
			},
		},
		{
			name:    "nested data falls back to volume",
			variant: VariantNestedData,
			payload: `{"Data": {"Data": [{"time": 1672531200, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 7}]}}`,
			want: []entity.Record{
				{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 7},
			},
		},
		{
			name:    "positional arrays",
			variant: VariantArray,
			payload: `[[1672531200000,"1.0","2.0","0.5","1.5","100.0",1672534799999,"150.0",10],
				[1672534800000,"1.5","2.5","1.0","2.0","50.0",1672538399999,"75.0",5]]`,
			want: []entity.Record{
				{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
				{Timestamp: t1, Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 50},
			},
		},
		{
			name:    "positional arrays without volume",
			variant: VariantArray,
			payload: `[[1672531200000, 1.0, 2.0, 0.5, 1.5]]`,
			want: []entity.Record{
				{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 0},
			},
		},
		{
			name:    "records with iso datetimes",
			variant: VariantRecords,
			payload: `{"values": [
				{"datetime": "2023-01-01 00:00:00", "open": "1.0", "high": "2.0", "low": "0.5", "close": "1.5", "volume": "100"},
				{"datetime": "2023-01-01T01:00:00Z", "open": "1.5", "high": "2.5", "low": "1.0", "close": "2.0", "volume": "50"}
			], "status": "ok"}`,
			want: []entity.Record{
				{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
				{Timestamp: t1, Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 50},
			},
		},
		{
			name:    "records with short keys and epoch times",
			variant: VariantRecords,
			payload: `{"results": [
				{"t": 1672531200000, "o": 1.0, "h": 2.0, "l": 0.5, "c": 1.5, "v": 100},
				{"t": 1672534800, "o": 1.5, "h": 2.5, "l": 1.0, "c": 2.0}
			]}`,
			want: []entity.Record{
				{Timestamp: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
				{Timestamp: t1, Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := mustNew(t, tt.variant).Ingest([]byte(tt.payload))
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, tt.want[i].Timestamp.Equal(got[i].Timestamp), "row %d timestamp: want %s, got %s", i, tt.want[i].Timestamp, got[i].Timestamp)
				assert.Equal(t, tt.want[i].Open, got[i].Open, "row %d open", i)
				assert.Equal(t, tt.want[i].High, got[i].High, "row %d high", i)
				assert.Equal(t, tt.want[i].Low, got[i].Low, "row %d low", i)
				assert.Equal(t, tt.want[i].Close, got[i].Close, "row %d close", i)
				assert.Equal(t, tt.want[i].Volume, got[i].Volume, "row %d volume", i)
			}
		})
	}
}

func TestIngest_NullBecomesMissing(t *testing.T) {
	t.Parallel()

	got, err := mustNew(t, VariantNestedData).Ingest([]byte(
		`{"Data": {"Data": [{"time": null, "open": null, "high": 2, "low": 0.5, "close": 1.5}]}}`))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, got[0].IsNull(entity.ColumnTimestamp))
	assert.True(t, math.IsNaN(got[0].Open))
	assert.False(t, got[0].IsNull(entity.ColumnVolume))
}

func TestIngest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant string
		payload string
	}{
		{"time series without series key", VariantTimeSeries, `{"Meta Data": {"1. Information": "x"}}`},
		{"time series missing close", VariantTimeSeries, `{"Time Series (Daily)": {"2023-01-01": {"1. open": "1", "2. high": "1", "3. low": "1"}}}`},
		{"time series bad timestamp", VariantTimeSeries, `{"Time Series (Daily)": {"yesterday": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1"}}}`},
		{"time series not numeric", VariantTimeSeries, `{"Time Series (Daily)": {"2023-01-01": {"1. open": "abc", "2. high": "1", "3. low": "1", "4. close": "1"}}}`},
		{"nested data without Data.Data", VariantNestedData, `{"Response": "Success", "Data": {}}`},
		{"nested data missing time", VariantNestedData, `{"Data": {"Data": [{"open": 1, "high": 1, "low": 1, "close": 1}]}}`},
		{"array of objects", VariantArray, `[{"open": 1}]`},
		{"array row too short", VariantArray, `[[1672531200000, "1.0", "2.0"]]`},
		{"array not numeric", VariantArray, `[[1672531200000, "1.0", "x", "0.5", "1.5"]]`},
		{"records first field is not an array", VariantRecords, `{"status": "ok", "values": []}`},
		{"records missing open", VariantRecords, `{"values": [{"datetime": "2023-01-01", "high": 1, "low": 1, "close": 1}]}`},
		{"records empty object", VariantRecords, `{}`},
		{"not json", VariantArray, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := mustNew(t, tt.variant).Ingest([]byte(tt.payload))

			var ierr *domain.IngestError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, tt.variant, ierr.Variant)
		})
	}
}

func TestIngest_TimeSeriesOrderReachesSuite(t *testing.T) {
	t.Parallel()

	row := `{"1. open": "1.0", "2. high": "2.0", "3. low": "0.5", "4. close": "1.5", "5. volume": "100"}`
	tests := []struct {
		name     string
		keys     []string
		wantRows int
		wantFail bool
	}{
		{"ascending", []string{"2023-01-01 00:00:00", "2023-01-01 01:00:00"}, 2, false},
		{"descending", []string{"2023-01-01 01:00:00", "2023-01-01 00:00:00"}, 2, true},
		{"duplicate timestamp", []string{"2023-01-01 00:00:00", "2023-01-01 00:00:00"}, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := `{"Time Series (60min)": {`
			for i, k := range tt.keys {
				if i > 0 {
					payload += ","
				}
				payload += `"` + k + `": ` + row
			}
			payload += `}}`

			got, err := mustNew(t, VariantTimeSeries).Ingest([]byte(payload))
			require.NoError(t, err)
			require.Len(t, got, tt.wantRows)

			report, err := expectation.DefaultSuite("ohlcv").Validate(got)
			require.NoError(t, err)
			assert.Equal(t, !tt.wantFail, report.Success)
			if tt.wantFail {
				assert.Equal(t, []string{expectation.NameIncreasing}, report.FailedExpectations())
			} else {
				assert.Empty(t, report.FailedExpectations())
			}
		})
	}
}

func TestIngest_EmptySeries(t *testing.T) {
	t.Parallel()

	got, err := mustNew(t, VariantArray).Ingest([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant string
		payload string
		wantErr bool
	}{
		{"generic error field", VariantArray, `{"error": "invalid api key"}`, true},
		{"error field false", VariantRecords, `{"values": [], "error": false}`, false},
		{"error field null", VariantNestedData, `{"Data": {"Data": []}, "error": null}`, false},
		{"time series error message", VariantTimeSeries, `{"Error Message": "Invalid API call."}`, true},
		{"time series rate limit note", VariantTimeSeries, `{"Information": "Thank you for using our API."}`, true},
		{"time series ok", VariantTimeSeries, `{"Time Series (Daily)": {}}`, false},
		{"nested data error response", VariantNestedData, `{"Response": "Error", "Message": "market does not exist"}`, true},
		{"nested data success", VariantNestedData, `{"Response": "Success", "Data": {"Data": []}}`, false},
		{"array error envelope", VariantArray, `{"code": -1121, "msg": "Invalid symbol."}`, true},
		{"array ok", VariantArray, `[[1672531200000, "1", "1", "1", "1"]]`, false},
		{"records status error", VariantRecords, `{"status": "error", "message": "symbol not found", "code": 404}`, true},
		{"records ok", VariantRecords, `{"values": [], "status": "ok"}`, false},
		{"non-json body left to ingest", VariantRecords, `not json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := mustNew(t, tt.variant).CheckPayload([]byte(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUpstreamReported)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeSeriesColumn(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"1. open":        "open",
		"2. high":        "high",
		"5. volume":      "volume",
		"1a. open (USD)": "open",
		"close":          "close",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeSeriesColumn(in), in)
	}
}
