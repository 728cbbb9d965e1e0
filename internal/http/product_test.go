package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jmehdipour/esim-gateway/internal/apollo"
	"github.com/jmehdipour/esim-gateway/internal/config"
	"github.com/jmehdipour/esim-gateway/internal/gateway"
	"github.com/jmehdipour/esim-gateway/internal/model"
)

type fakeUpstream struct {
	calls  int
	detail model.ProductDetail
	err    error
}

func (f *fakeUpstream) FetchDetail(context.Context, model.ProductCode) (model.ProductDetail, error) {
	f.calls++
	return f.detail, f.err
}

func newTestServer(cfg config.Config, gwCfg gateway.Config, up apollo.Fetcher) *Server {
	return NewServer(cfg, gateway.New(gwCfg, up, nil), nil, nil)
}

func do(t *testing.T, s *Server, target string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestProductDetail_PassThrough(t *testing.T) {
	up := &fakeUpstream{detail: model.ProductDetail{"code": "PRD1", "name": "Vietnam", "extra": map[string]any{"k": "v"}}}
	s := newTestServer(config.Config{}, gateway.Config{UpstreamConfigured: true}, up)

	rec, body := do(t, s, "/api/product/PRD1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "Vietnam", body["name"])
	assert.Equal(t, map[string]any{"k": "v"}, body["extra"])
}

func TestProductDetail_ErrorEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		headers map[string]string
		gwCfg   gateway.Config
		up      *fakeUpstream
		status  int
		errMsg  string
	}{
		{
			name:   "invalid code",
			target: "/api/product/prd123",
			gwCfg:  gateway.Config{UpstreamConfigured: true},
			up:     &fakeUpstream{},
			status: http.StatusBadRequest,
			errMsg: "invalid product code",
		},
		{
			name:   "template placeholder",
			target: "/api/product/$%7Bcode%7D",
			gwCfg:  gateway.Config{UpstreamConfigured: true},
			up:     &fakeUpstream{},
			status: http.StatusBadRequest,
			errMsg: "invalid product code",
		},
		{
			name:   "whitelist miss",
			target: "/api/product/PRD9",
			gwCfg:  gateway.Config{UpstreamConfigured: true, AllowedCodes: []string{"PRD1"}},
			up:     &fakeUpstream{},
			status: http.StatusNotFound,
			errMsg: "product not found",
		},
		{
			name:    "bot",
			target:  "/api/product/PRD1",
			headers: map[string]string{"User-Agent": "Twitterbot/1.0"},
			gwCfg:   gateway.Config{UpstreamConfigured: true},
			up:      &fakeUpstream{},
			status:  http.StatusForbidden,
			errMsg:  "forbidden",
		},
		{
			name:   "mock disabled",
			target: "/api/product/PRD1?mock=1",
			gwCfg:  gateway.Config{UpstreamConfigured: true},
			up:     &fakeUpstream{},
			status: http.StatusNotFound,
			errMsg: "mock disabled",
		},
		{
			name:   "no token",
			target: "/api/product/PRD1",
			gwCfg:  gateway.Config{},
			up:     &fakeUpstream{},
			status: http.StatusInternalServerError,
			errMsg: "upstream credential not configured",
		},
		{
			name:   "network",
			target: "/api/product/PRD1",
			gwCfg:  gateway.Config{UpstreamConfigured: true},
			up:     &fakeUpstream{err: &apollo.NetworkError{Err: context.DeadlineExceeded}},
			status: http.StatusBadGateway,
			errMsg: "Network error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(config.Config{}, tc.gwCfg, tc.up)
			rec, body := do(t, s, tc.target, tc.headers)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.errMsg, body["error"])
			assert.NotContains(t, body, "details")
			if tc.status != http.StatusBadGateway {
				assert.Zero(t, tc.up.calls)
			}
		})
	}
}

func TestProductDetail_UpstreamStatusIsMirrored(t *testing.T) {
	up := &fakeUpstream{err: &apollo.StatusError{StatusCode: 404, StatusText: "Not Found", Summary: "product PRD1 missing"}}

	t.Run("hardened", func(t *testing.T) {
		s := newTestServer(config.Config{}, gateway.Config{UpstreamConfigured: true}, up)
		rec, body := do(t, s, "/api/product/PRD1", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Apollo API error", body["error"])
		assert.EqualValues(t, 404, body["status"])
		assert.Equal(t, "Not Found", body["statusText"])
		assert.NotContains(t, body, "details")
	})

	t.Run("details exposed", func(t *testing.T) {
		cfg := config.Config{Security: config.SecurityConfig{ExposeUpstreamDetails: true}}
		s := newTestServer(cfg, gateway.Config{UpstreamConfigured: true}, up)
		_, body := do(t, s, "/api/product/PRD1", nil)

		assert.Equal(t, "product PRD1 missing", body["details"])
	})
}

func TestProductOptions_Mock(t *testing.T) {
	s := newTestServer(config.Config{}, gateway.Config{MockAllowed: true}, nil)

	rec, body := do(t, s, "/api/product/PRDTEST/options?mock=1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PRDTEST", body["code"])
	assert.Equal(t, "베트남 eSIM (MOCK)", body["name"])
	assert.EqualValues(t, 3300, body["min_price"])
	assert.Equal(t, "structured", body["strategy"])
	assert.Equal(t, []any{
		map[string]any{
			"data": "매일 1GB",
			"plans": []any{
				map[string]any{"days": 3.0, "price": 3300.0},
				map[string]any{"days": 5.0, "price": 5500.0},
				map[string]any{"days": 7.0, "price": 7700.0},
			},
		},
	}, body["options"])
}

func TestProductOptions_NoUsablePricingIsNotAnError(t *testing.T) {
	up := &fakeUpstream{detail: model.ProductDetail{"code": "PRD1", "name": "x"}}
	s := newTestServer(config.Config{}, gateway.Config{UpstreamConfigured: true}, up)

	rec, body := do(t, s, "/api/product/PRD1/options", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["options"])
	assert.Nil(t, body["min_price"])
	assert.Equal(t, "none", body["strategy"])
}

func TestHealthz(t *testing.T) {
	s := newTestServer(config.Config{}, gateway.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

type failingGetter struct{ err error }

func (f failingGetter) GetProductDetail(context.Context, gateway.Request) (model.ProductDetail, error) {
	return nil, f.err
}

func TestProductDetail_UnexpectedErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewServer(config.Config{}, failingGetter{err: errors.New("boom")}, nil, zap.New(core))

	rec, body := do(t, s, "/api/product/PRD1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])

	logged := logs.FilterMessage("unexpected gateway error").All()
	require.Len(t, logged, 1)
	assert.Equal(t, "boom", logged[0].ContextMap()["error"])
	assert.NotEmpty(t, logged[0].ContextMap()["request_id"])
}
