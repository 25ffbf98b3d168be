package refinancing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/beneficios/backend/internal/domain/document"
	"github.com/beneficios/backend/internal/domain/refinancing"
	"github.com/beneficios/backend/internal/infrastructure/logger"
	"github.com/beneficios/backend/internal/infrastructure/partner"
	"github.com/beneficios/backend/internal/infrastructure/telemetry"
)

type fakeGateway struct {
	contracts    []refinancing.Contract
	envelope     *refinancing.SimulationEnvelope
	err          error
	lastDocument string
	lastRequest  *refinancing.SimulationRequest
	calls        int
}

func (f *fakeGateway) GetContracts(_ context.Context, documentNumber string) ([]refinancing.Contract, error) {
	f.calls++
	f.lastDocument = documentNumber
	return f.contracts, f.err
}

func (f *fakeGateway) SimulateRefinancing(_ context.Context, req refinancing.SimulationRequest) (*refinancing.SimulationEnvelope, error) {
	f.calls++
	f.lastRequest = &req
	return f.envelope, f.err
}

var _ PartnerGateway = (*partner.Client)(nil)

func validInput() SimulateInput {
	return SimulateInput{
		Document:      "111.444.777-35",
		BirthDate:     "1960-05-10",
		AffiliateCode: "INSS",
		Contracts: []ContractRef{
			{ContractID: "C-1", ContractDate: "2021-03-15"},
		},
		Installment: decimal.RequireFromString("350.00"),
		OnlyViable:  true,
	}
}

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return logger.WithContext(context.Background(), zap.New(core)), recorded
}

func TestService_ValidateDocument(t *testing.T) {
	svc := NewService(&fakeGateway{})

	ctx := context.Background()
	assert.Equal(t, document.Result{Formatted: "111.444.777-35", IsValid: true}, svc.ValidateDocument(ctx, "11144477735"))
	assert.Equal(t, document.Result{Formatted: "000.000.001-23", IsValid: false}, svc.ValidateDocument(ctx, "123"))
}

func TestService_ListContracts(t *testing.T) {
	t.Run("cleans the document before calling the partner", func(t *testing.T) {
		gw := &fakeGateway{contracts: []refinancing.Contract{{ContractID: "C-1"}}}
		ctx, recorded := observedContext()

		contracts, err := NewService(gw).ListContracts(ctx, "111.444.777-35")
		require.NoError(t, err)
		assert.Len(t, contracts, 1)
		assert.Equal(t, "11144477735", gw.lastDocument)

		entries := recorded.FilterMessage("Contracts listed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "***.444.777-**", entries[0].ContextMap()["document"])
	})

	t.Run("rejects an invalid document without calling the partner", func(t *testing.T) {
		gw := &fakeGateway{}

		_, err := NewService(gw).ListContracts(context.Background(), "111.444.777-36")
		assert.ErrorIs(t, err, document.ErrInvalidDocument)
		assert.Zero(t, gw.calls)
	})

	t.Run("propagates partner errors", func(t *testing.T) {
		partnerErr := &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 404, Message: partner.MsgContractsFailed}
		gw := &fakeGateway{err: partnerErr}

		_, err := NewService(gw).ListContracts(context.Background(), "11144477735")
		require.Error(t, err)

		pe, ok := partner.AsError(err)
		require.True(t, ok)
		assert.Same(t, partnerErr, pe)
	})

	t.Run("never logs the bare document", func(t *testing.T) {
		gw := &fakeGateway{err: errors.New("boom")}
		ctx, recorded := observedContext()

		_, err := NewService(gw).ListContracts(ctx, "52998224725")
		require.Error(t, err)

		for _, e := range recorded.All() {
			for _, v := range e.ContextMap() {
				assert.NotEqual(t, "52998224725", v)
			}
		}
	})
}

func TestService_Simulate(t *testing.T) {
	t.Run("builds the partner request", func(t *testing.T) {
		term := 84
		gw := &fakeGateway{envelope: &refinancing.SimulationEnvelope{
			Results: []refinancing.SimulationResult{{Term: 84, Plan: "PRICE"}},
		}}
		in := validInput()
		in.Term = &term

		out, err := NewService(gw).Simulate(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, out.Rejected)
		assert.Len(t, out.Results, 1)

		require.NotNil(t, gw.lastRequest)
		req := gw.lastRequest
		assert.Equal(t, "11144477735", req.DocumentNumber)
		assert.Equal(t, "1960-05-10", req.BirthDate)
		assert.Equal(t, "INSS", req.AffiliateCode)
		assert.Equal(t, []refinancing.ContractToRefinance{{ContractID: "C-1", ContractDate: "2021-03-15"}}, req.Contracts)
		assert.True(t, req.Installment.Equal(decimal.RequireFromString("350")))
		assert.Equal(t, &term, req.Term)
		assert.True(t, req.OnlyViable)
	})

	t.Run("passes business rejections through", func(t *testing.T) {
		gw := &fakeGateway{envelope: &refinancing.SimulationEnvelope{
			Error:     "Margem insuficiente",
			ErrorCode: "E042",
		}}

		out, err := NewService(gw).Simulate(context.Background(), validInput())
		require.NoError(t, err)
		assert.True(t, out.Rejected)
		assert.Nil(t, out.Results)
		assert.Equal(t, "E042", out.ErrorCode)
		assert.Equal(t, "Margem insuficiente", out.Error)
	})

	t.Run("propagates partner errors", func(t *testing.T) {
		partnerErr := &partner.Error{Kind: partner.KindHTTPStatus, StatusCode: 422, Message: partner.MsgNetValueBelowMinimum}
		gw := &fakeGateway{err: partnerErr}

		_, err := NewService(gw).Simulate(context.Background(), validInput())
		assert.ErrorIs(t, err, partnerErr)
	})

	zero := 0
	tests := []struct {
		name   string
		mutate func(*SimulateInput)
		want   error
	}{
		{"invalid document", func(in *SimulateInput) { in.Document = "123" }, document.ErrInvalidDocument},
		{"zero installment", func(in *SimulateInput) { in.Installment = decimal.Zero }, ErrInvalidInstallment},
		{"negative installment", func(in *SimulateInput) { in.Installment = decimal.NewFromInt(-1) }, ErrInvalidInstallment},
		{"zero term", func(in *SimulateInput) { in.Term = &zero }, ErrInvalidTerm},
		{"no contracts", func(in *SimulateInput) { in.Contracts = nil }, ErrNoContracts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			in := validInput()
			tt.mutate(&in)

			_, err := NewService(gw).Simulate(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, gw.calls)
		})
	}
}

func TestService_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := telemetry.NewRefinancingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	gw := &fakeGateway{envelope: &refinancing.SimulationEnvelope{
		Results: []refinancing.SimulationResult{{Term: 84}, {Term: 72}},
	}}
	svc := NewService(gw, WithMetrics(metrics))
	ctx := context.Background()

	svc.ValidateDocument(ctx, "11144477735")
	_, _ = svc.ListContracts(ctx, "123")
	_, err = svc.Simulate(ctx, validInput())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), totals["benefits_documents_validated_total"])
	assert.Equal(t, int64(1), totals["benefits_contract_searches_total"])
	assert.Equal(t, int64(1), totals["benefits_simulations_total"])
}

func TestService_Simulate_Span(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	gw := &fakeGateway{err: &partner.Error{Kind: partner.KindTransportFailure, StatusCode: 500, Message: partner.MsgConnectionProblem}}
	_, err := NewService(gw).Simulate(context.Background(), validInput())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "refinancing.simulate", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	for _, kv := range spans[0].Attributes() {
		assert.NotContains(t, kv.Value.Emit(), "11144477735")
	}
}
