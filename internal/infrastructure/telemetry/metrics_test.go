package telemetry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beneficios/backend/internal/infrastructure/partner"
	"github.com/beneficios/backend/internal/infrastructure/telemetry"
)

// PartnerMetrics must be usable as the partner client's recorder
var _ partner.Recorder = (*telemetry.PartnerMetrics)(nil)

func TestPartnerMetrics_ObserveRequest(t *testing.T) {
	m := telemetry.NewPartnerMetrics("benefits")

	m.ObserveRequest(partner.OpAuthenticate, 200, 30*time.Millisecond)
	m.ObserveRequest(partner.OpSimulate, 422, 80*time.Millisecond)
	m.ObserveRequest(partner.OpSimulate, 422, 90*time.Millisecond)
	m.ObserveRequest(partner.OpContracts, 0, time.Second)

	count, err := testutil.GatherAndCount(m.Registry(), "benefits_partner_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(m.Registry(), "benefits_partner_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPartnerMetrics_Handler(t *testing.T) {
	m := telemetry.NewPartnerMetrics("benefits")
	m.ObserveRequest(partner.OpContracts, 0, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `benefits_partner_requests_total{operation="contracts",status="error"} 1`)
}
