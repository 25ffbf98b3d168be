package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	refinancingapp "github.com/beneficios/backend/internal/application/refinancing"
	"github.com/beneficios/backend/internal/domain/refinancing"
	"github.com/beneficios/backend/internal/infrastructure/config"
	"github.com/beneficios/backend/internal/infrastructure/ratelimit"
	"github.com/beneficios/backend/internal/infrastructure/telemetry"
	"github.com/beneficios/backend/internal/interfaces/http/dto"
	"github.com/beneficios/backend/internal/interfaces/http/handler"
	"github.com/beneficios/backend/internal/interfaces/http/middleware"
)

func init() {
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

type stubGateway struct{}

func (stubGateway) GetContracts(context.Context, string) ([]refinancing.Contract, error) {
	return []refinancing.Contract{{ContractID: "123", ContractDate: "2023-04-10"}}, nil
}

func (stubGateway) SimulateRefinancing(context.Context, refinancing.SimulationRequest) (*refinancing.SimulationEnvelope, error) {
	return &refinancing.SimulationEnvelope{}, nil
}

func newTestEngine(t *testing.T, limiter ratelimit.Limiter) *gin.Engine {
	t.Helper()
	service := refinancingapp.NewService(stubGateway{})
	system := handler.NewSystemHandler("benefits-backend", "test", "development")

	engine, err := NewEngine(EngineOptions{
		HTTP: config.HTTPConfig{
			MaxBodySize:      1024,
			CORSAllowOrigins: []string{"https://app.example.com"},
		},
		Security: middleware.DefaultSecurityConfig(),
		Limiter:  limiter,
	}, zap.NewNop(), Handlers{
		Document:    handler.NewDocumentHandler(service),
		Refinancing: handler.NewRefinancingHandler(service),
		System:      system,
		Metrics:     telemetry.NewPartnerMetrics("test").Handler(),
	})
	require.NoError(t, err)
	return engine
}

func serve(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestNewEngine_Routes(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/v1/documents/validate", `{"document":"52998224725"}`},
		{http.MethodPost, "/api/v1/contracts/search", `{"document":"52998224725"}`},
		{http.MethodPost, "/api/v1/refinancing/simulations", `{
			"document":"52998224725","birth_date":"1960-05-14","affiliate_code":"INSS",
			"contracts":[{"contract_id":"123","contract_date":"2023-04-10"}],"installment":"350"}`},
		{http.MethodGet, "/api/v1/system/ping", ""},
		{http.MethodGet, "/api/v1/system/info", ""},
		{http.MethodGet, "/health", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}
}

func TestNewEngine_Metrics(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := serve(engine, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewEngine_CommonHeaders(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := serve(engine, http.MethodGet, "/api/v1/system/ping", "")

	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestNewEngine_NoRoute(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := serve(engine, http.MethodGet, "/api/v1/beneficiaries/52998224725/contracts", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), resp.Error.RequestID)
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine := newTestEngine(t, nil)

	body := `{"document":"` + strings.Repeat("1", 2048) + `"}`
	w := serve(engine, http.MethodPost, "/api/v1/documents/validate", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_RateLimitsPartnerRoutesOnly(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(1, time.Minute)
	engine := newTestEngine(t, limiter)

	w := serve(engine, http.MethodPost, "/api/v1/contracts/search", `{"document":"52998224725"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = serve(engine, http.MethodPost, "/api/v1/contracts/search", `{"document":"52998224725"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Document validation never reaches the partner and is not throttled
	for i := 0; i < 3; i++ {
		w = serve(engine, http.MethodPost, "/api/v1/documents/validate", `{"document":"52998224725"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestNewEngine_CORSPreflight(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/contracts/search", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	_, err := NewEngine(EngineOptions{
		HTTP: config.HTTPConfig{TrustedProxies: []string{"not-an-ip"}},
	}, zap.NewNop(), Handlers{})

	assert.Error(t, err)
}
