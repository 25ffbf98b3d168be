package handler

import (
	"github.com/shopspring/decimal"

	refinancingapp "github.com/beneficios/backend/internal/application/refinancing"
	"github.com/beneficios/backend/internal/domain/refinancing"
)

// SearchContractsRequest is the body of POST /contracts/search.
// The CPF travels in the body so it stays out of URLs and access logs.
type SearchContractsRequest struct {
	Document string `json:"document" binding:"required,cpf"`
}

// ContractRefRequest references a contract to refinance
type ContractRefRequest struct {
	ContractID   string `json:"contract_id" binding:"required"`
	ContractDate string `json:"contract_date" binding:"required,datetime=2006-01-02"`
}

// SimulateRequest is the body of POST /refinancing/simulations
type SimulateRequest struct {
	Document      string               `json:"document" binding:"required,cpf"`
	BirthDate     string               `json:"birth_date" binding:"required,datetime=2006-01-02"`
	AffiliateCode string               `json:"affiliate_code" binding:"required"`
	Contracts     []ContractRefRequest `json:"contracts" binding:"required,min=1,dive"`
	Installment   decimal.Decimal      `json:"installment"`
	Term          *int                 `json:"term" binding:"omitempty,gt=0"`
	// OnlyViable defaults to true
	OnlyViable *bool `json:"only_viable"`
}

func (r SimulateRequest) toInput() refinancingapp.SimulateInput {
	contracts := make([]refinancingapp.ContractRef, len(r.Contracts))
	for i, c := range r.Contracts {
		contracts[i] = refinancingapp.ContractRef{
			ContractID:   c.ContractID,
			ContractDate: c.ContractDate,
		}
	}

	onlyViable := true
	if r.OnlyViable != nil {
		onlyViable = *r.OnlyViable
	}

	return refinancingapp.SimulateInput{
		Document:      r.Document,
		BirthDate:     r.BirthDate,
		AffiliateCode: r.AffiliateCode,
		Contracts:     contracts,
		Installment:   r.Installment,
		Term:          r.Term,
		OnlyViable:    onlyViable,
	}
}

// ContractResponse is one contract in a search result
type ContractResponse struct {
	ContractID    string          `json:"contract_id"`
	ContractDate  string          `json:"contract_date"`
	Installment   decimal.Decimal `json:"installment"`
	Refinanceable bool            `json:"refinanceable"`
	AffiliateCode string          `json:"affiliate_code"`
	EnrollmentID  string          `json:"enrollment_id"`
}

// ContractsResponse is the result of a contract search
type ContractsResponse struct {
	Document  string             `json:"document"`
	Contracts []ContractResponse `json:"contracts"`
}

func toContractsResponse(formatted string, contracts []refinancing.Contract) ContractsResponse {
	resp := ContractsResponse{
		Document:  formatted,
		Contracts: make([]ContractResponse, len(contracts)),
	}
	for i, c := range contracts {
		resp.Contracts[i] = ContractResponse{
			ContractID:    c.ContractID,
			ContractDate:  c.ContractDate,
			Installment:   c.Installment,
			Refinanceable: c.Refinanceable,
			AffiliateCode: c.AffiliateCode,
			EnrollmentID:  c.EnrollmentID,
		}
	}
	return resp
}

// AmortizationRowResponse is one line of an amortization table
type AmortizationRowResponse struct {
	Number           int             `json:"number"`
	Installment      decimal.Decimal `json:"installment"`
	Interest         decimal.Decimal `json:"interest"`
	Principal        decimal.Decimal `json:"principal"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// OfferResponse is one refinancing offer
type OfferResponse struct {
	Amount       decimal.Decimal           `json:"amount"`
	Term         int                       `json:"term"`
	Plan         string                    `json:"plan"`
	InterestRate decimal.Decimal           `json:"interest_rate"`
	Installment  decimal.Decimal           `json:"installment"`
	Total        decimal.Decimal           `json:"total"`
	Amortization []AmortizationRowResponse `json:"amortization,omitempty"`
}

// SimulationResponse is the result of a simulation.
// Rejected, Error and ErrorCode carry the partner's business rejection.
type SimulationResponse struct {
	Offers    []OfferResponse `json:"offers"`
	Rejected  bool            `json:"rejected"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

func toSimulationResponse(out *refinancingapp.SimulateOutput) SimulationResponse {
	resp := SimulationResponse{
		Offers:    make([]OfferResponse, len(out.Results)),
		Rejected:  out.Rejected,
		Error:     out.Error,
		ErrorCode: out.ErrorCode,
	}
	for i, r := range out.Results {
		offer := OfferResponse{
			Amount:       r.Amount,
			Term:         r.Term,
			Plan:         r.Plan,
			InterestRate: r.InterestRate,
			Installment:  r.Installment,
			Total:        r.Total,
		}
		for _, row := range r.Amortization {
			offer.Amortization = append(offer.Amortization, AmortizationRowResponse{
				Number:           row.Number,
				Installment:      row.Installment,
				Interest:         row.Interest,
				Principal:        row.Principal,
				RemainingBalance: row.RemainingBalance,
			})
		}
		resp.Offers[i] = offer
	}
	return resp
}
