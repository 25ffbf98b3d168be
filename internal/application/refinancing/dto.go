package refinancing

import (
	"github.com/shopspring/decimal"

	"github.com/beneficios/backend/internal/domain/document"
	"github.com/beneficios/backend/internal/domain/refinancing"
)

// ContractRef identifies a contract to include in a simulation
type ContractRef struct {
	ContractID   string
	ContractDate string
}

// SimulateInput is the input of Service.Simulate.
// Document may carry punctuation; it is cleaned before reaching the partner.
type SimulateInput struct {
	Document      string
	BirthDate     string
	AffiliateCode string
	Contracts     []ContractRef
	Installment   decimal.Decimal
	Term          *int
	OnlyViable    bool
}

// toRequest validates the input and builds the partner request
func (in SimulateInput) toRequest() (refinancing.SimulationRequest, error) {
	cpf, err := document.Parse(in.Document)
	if err != nil {
		return refinancing.SimulationRequest{}, err
	}
	if !in.Installment.IsPositive() {
		return refinancing.SimulationRequest{}, ErrInvalidInstallment
	}
	if in.Term != nil && *in.Term <= 0 {
		return refinancing.SimulationRequest{}, ErrInvalidTerm
	}
	if len(in.Contracts) == 0 {
		return refinancing.SimulationRequest{}, ErrNoContracts
	}

	contracts := make([]refinancing.ContractToRefinance, len(in.Contracts))
	for i, c := range in.Contracts {
		contracts[i] = refinancing.ContractToRefinance{
			ContractID:   c.ContractID,
			ContractDate: c.ContractDate,
		}
	}

	return refinancing.SimulationRequest{
		DocumentNumber: cpf.String(),
		BirthDate:      in.BirthDate,
		AffiliateCode:  in.AffiliateCode,
		Contracts:      contracts,
		Installment:    in.Installment,
		Term:           in.Term,
		OnlyViable:     in.OnlyViable,
	}, nil
}

// SimulateOutput is the partner's simulation envelope.
// Rejected is set when the partner refused the simulation inside a 2xx body.
type SimulateOutput struct {
	Results   []refinancing.SimulationResult
	Rejected  bool
	Error     string
	ErrorCode string
}

func newSimulateOutput(env *refinancing.SimulationEnvelope) *SimulateOutput {
	if env == nil {
		return &SimulateOutput{}
	}
	return &SimulateOutput{
		Results:   env.Results,
		Rejected:  env.HasError(),
		Error:     env.Error,
		ErrorCode: env.ErrorCode,
	}
}
