package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarshilMaks/TFT-Stock-Trader/internal/risk"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	validator := risk.NewValidator(risk.DefaultLimits())
	return NewServer(DefaultServerConfig(), validator, NewMetrics())
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func validatePayload(confidence float64) map[string]any {
	return map[string]any{
		"signal": map[string]any{
			"ticker":       "AAPL",
			"signal_type":  "BUY",
			"confidence":   confidence,
			"entry_price":  100.0,
			"target_price": 110.0,
			"stop_loss":    95.0,
		},
		"portfolio": map[string]any{
			"portfolio_value":        20000.0,
			"current_positions":      2,
			"portfolio_drawdown_pct": 5.0,
		},
	}
}

func TestValidateEndpoint_Accepts(t *testing.T) {
	s := testServer(t)

	rec := postJSON(t, s.router, "/v1/risk/validate", validatePayload(0.85))
	require.Equal(t, http.StatusOK, rec.Code)

	var result risk.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Passed)
	assert.InDelta(t, 0.20, result.PositionSizePct, 1e-9)
}

func TestValidateEndpoint_RejectionIsStillOK(t *testing.T) {
	s := testServer(t)

	rec := postJSON(t, s.router, "/v1/risk/validate", validatePayload(0.40))
	require.Equal(t, http.StatusOK, rec.Code)

	var result risk.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Passed)
	assert.Equal(t, risk.ReasonConfidenceTooLow, result.RejectionReason)
}

func TestValidateEndpoint_BadBody(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/risk/validate", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s := testServer(t)

	postJSON(t, s.router, "/v1/risk/validate", validatePayload(0.85))
	postJSON(t, s.router, "/v1/risk/validate", validatePayload(0.40))

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/stats", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats risk.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Validations)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected)
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint_Scrapes(t *testing.T) {
	s := testServer(t)

	postJSON(t, s.router, "/v1/risk/validate", validatePayload(0.85))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tftrader_http_requests_total")
}

func TestRateLimiter_Throttles(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 2

	validator := risk.NewValidator(risk.DefaultLimits())
	s := NewServer(cfg, validator, NewMetrics())

	var throttled bool
	for i := 0; i < 5; i++ {
		rec := postJSON(t, s.router, "/v1/risk/validate", validatePayload(0.85))
		if rec.Code == http.StatusTooManyRequests {
			throttled = true
		}
	}
	assert.True(t, throttled)
}
