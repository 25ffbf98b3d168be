package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor gets a nil meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Outcome labels for refinancing operations
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
)

var (
	attrOutcome = attribute.Key("outcome")
	attrValid   = attribute.Key("valid")
)

// RefinancingMetrics counts business outcomes of the refinancing flows.
// A nil *RefinancingMetrics is valid and records nothing.
type RefinancingMetrics struct {
	documentsValidated  *Counter
	contractSearches    *Counter
	simulations         *Counter
	offersPerSimulation *Histogram
}

// NewRefinancingMetrics creates the instruments on meter
func NewRefinancingMetrics(meter metric.Meter) (*RefinancingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &RefinancingMetrics{}
	var err error

	m.documentsValidated, err = NewCounter(meter,
		"benefits_documents_validated_total",
		"Number of CPF validations, by result",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	m.contractSearches, err = NewCounter(meter,
		"benefits_contract_searches_total",
		"Number of contract searches, by outcome",
		"{searches}",
	)
	if err != nil {
		return nil, err
	}

	m.simulations, err = NewCounter(meter,
		"benefits_simulations_total",
		"Number of refinancing simulations, by outcome",
		"{simulations}",
	)
	if err != nil {
		return nil, err
	}

	m.offersPerSimulation, err = NewHistogram(meter,
		"benefits_simulation_offers",
		"Number of offers returned by a completed simulation",
		"{offers}",
		0, 1, 2, 4, 8, 16,
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// DocumentValidated records one CPF validation
func (m *RefinancingMetrics) DocumentValidated(ctx context.Context, valid bool) {
	if m == nil {
		return
	}
	m.documentsValidated.Inc(ctx, attrValid.Bool(valid))
}

// ContractSearch records one contract search outcome
func (m *RefinancingMetrics) ContractSearch(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.contractSearches.Inc(ctx, attrOutcome.String(outcome))
}

// Simulation records one simulation outcome. offers is only observed for
// completed simulations.
func (m *RefinancingMetrics) Simulation(ctx context.Context, outcome string, offers int) {
	if m == nil {
		return
	}
	m.simulations.Inc(ctx, attrOutcome.String(outcome))
	if outcome == OutcomeCompleted {
		m.offersPerSimulation.Record(ctx, float64(offers))
	}
}
