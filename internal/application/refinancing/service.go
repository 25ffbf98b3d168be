// Package refinancing orchestrates document validation and the partner
// client for contract lookups and refinancing simulations.
package refinancing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/beneficios/backend/internal/domain/document"
	"github.com/beneficios/backend/internal/domain/refinancing"
	"github.com/beneficios/backend/internal/domain/shared"
	"github.com/beneficios/backend/internal/infrastructure/logger"
	"github.com/beneficios/backend/internal/infrastructure/telemetry"
)

// PartnerGateway is the partner API as seen by the service.
// *partner.Client implements it.
type PartnerGateway interface {
	GetContracts(ctx context.Context, documentNumber string) ([]refinancing.Contract, error)
	SimulateRefinancing(ctx context.Context, req refinancing.SimulationRequest) (*refinancing.SimulationEnvelope, error)
}

// Input errors
var (
	ErrInvalidInstallment = shared.NewDomainError("INVALID_INPUT", "Installment must be greater than zero").WithField("installment")
	ErrInvalidTerm        = shared.NewDomainError("INVALID_INPUT", "Term must be greater than zero").WithField("term")
	ErrNoContracts        = shared.NewDomainError("INVALID_INPUT", "At least one contract is required").WithField("contracts")
)

// Service handles refinancing lookups and simulations
type Service struct {
	gateway PartnerGateway
	metrics *telemetry.RefinancingMetrics
}

// Option configures a Service
type Option func(*Service)

// WithMetrics records business outcomes on m
func WithMetrics(m *telemetry.RefinancingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new Service
func NewService(gateway PartnerGateway, opts ...Option) *Service {
	s := &Service{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateDocument formats and validates a CPF. It never calls the partner.
func (s *Service) ValidateDocument(ctx context.Context, raw string) document.Result {
	result := document.FormatAndValidate(raw)
	s.metrics.DocumentValidated(ctx, result.IsValid)
	return result
}

// ListContracts returns the contracts of the beneficiary identified by rawDocument
func (s *Service) ListContracts(ctx context.Context, rawDocument string) ([]refinancing.Contract, error) {
	cpf, err := document.Parse(rawDocument)
	if err != nil {
		s.metrics.ContractSearch(ctx, telemetry.OutcomeInvalid)
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "refinancing", "list_contracts")
	defer span.End()

	log := logger.L(ctx).With(zap.String("document", cpf.Masked()))

	var contracts []refinancing.Contract
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("list_contracts", nil), func(c context.Context) {
		contracts, err = s.gateway.GetContracts(c, cpf.String())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.ContractSearch(ctx, telemetry.OutcomeFailed)
		log.Warn("Contract lookup failed", zap.Error(err))
		return nil, fmt.Errorf("list contracts: %w", err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrContracts, len(contracts))
	telemetry.SetOK(span)
	s.metrics.ContractSearch(ctx, telemetry.OutcomeCompleted)

	log.Info("Contracts listed", zap.Int("count", len(contracts)))
	return contracts, nil
}

// Simulate asks the partner for refinancing offers.
// Business rejections the partner returns with a 2xx status come back as a
// SimulateOutput with Rejected set, not as an error.
func (s *Service) Simulate(ctx context.Context, in SimulateInput) (*SimulateOutput, error) {
	req, err := in.toRequest()
	if err != nil {
		s.metrics.Simulation(ctx, telemetry.OutcomeInvalid, 0)
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "refinancing", "simulate",
		telemetry.WithAttribute(telemetry.SpanAttrContracts, len(req.Contracts)),
		telemetry.WithAttribute(telemetry.SpanAttrAffiliateCode, req.AffiliateCode),
	)
	defer span.End()

	log := logger.L(ctx).With(
		zap.String("document", document.Mask(req.DocumentNumber)),
		zap.Int("contracts", len(req.Contracts)),
	)

	var env *refinancing.SimulationEnvelope
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("simulate", nil), func(c context.Context) {
		env, err = s.gateway.SimulateRefinancing(c, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.Simulation(ctx, telemetry.OutcomeFailed, 0)
		log.Warn("Simulation failed", zap.Error(err))
		return nil, fmt.Errorf("simulate refinancing: %w", err)
	}

	out := newSimulateOutput(env)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOffers, len(out.Results),
		telemetry.SpanAttrRejected, out.Rejected,
	)
	telemetry.SetOK(span)

	if out.Rejected {
		telemetry.SetAttributes(span, telemetry.SpanAttrPartnerCode, out.ErrorCode)
		s.metrics.Simulation(ctx, telemetry.OutcomeRejected, 0)
		log.Info("Simulation rejected by partner",
			zap.String("error_code", out.ErrorCode),
			zap.String("error", out.Error),
		)
	} else {
		s.metrics.Simulation(ctx, telemetry.OutcomeCompleted, len(out.Results))
		log.Info("Simulation completed", zap.Int("offers", len(out.Results)))
	}
	return out, nil
}
