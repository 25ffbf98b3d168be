// Package refinancing holds the value objects exchanged with the refinancing
// partner: existing loan contracts and refinancing simulations.
//
// JSON field names follow the partner's wire format. Monetary amounts are
// decimals and accept both JSON numbers and numeric strings.
package refinancing

import (
	"github.com/shopspring/decimal"
)

// Contract describes an existing loan as reported by the partner
type Contract struct {
	// ContractID is the partner's contract number
	ContractID string `json:"contrato"`
	// ContractDate is the origination date, passed through as sent by the partner
	ContractDate string `json:"dataContrato"`
	// Installment is the original installment amount
	Installment decimal.Decimal `json:"valorParcela"`
	// Refinanceable reports whether the partner accepts the contract for refinancing
	Refinanceable bool `json:"refinanciavel"`
	// AffiliateCode identifies the paying agency (conveniada)
	AffiliateCode string `json:"conveniada"`
	// EnrollmentID is the beneficiary's enrollment (matricula) at the affiliate
	EnrollmentID string `json:"matricula"`
}

// ContractToRefinance references a contract included in a simulation
type ContractToRefinance struct {
	ContractID   string `json:"contrato"`
	ContractDate string `json:"dataContrato"`
}

// SimulationRequest is the body of a refinancing simulation
type SimulationRequest struct {
	DocumentNumber string                `json:"cpf"`
	BirthDate      string                `json:"dataNascimento"`
	AffiliateCode  string                `json:"conveniada"`
	Contracts      []ContractToRefinance `json:"contratosRefinanciamento"`
	Installment    decimal.Decimal       `json:"prestacao"`
	// Term in months; nil lets the partner pick every term it offers
	Term *int `json:"prazo,omitempty"`
	// OnlyViable restricts the results to economically viable operations
	OnlyViable bool `json:"retornarSomenteOperacoesViaveis"`
}

// AmortizationRow is one line of an amortization table
type AmortizationRow struct {
	Number           int             `json:"parcela"`
	Installment      decimal.Decimal `json:"valorParcela"`
	Interest         decimal.Decimal `json:"juros"`
	Principal        decimal.Decimal `json:"amortizacao"`
	RemainingBalance decimal.Decimal `json:"saldoDevedor"`
}

// SimulationResult is one simulated refinancing offer
type SimulationResult struct {
	Amount       decimal.Decimal   `json:"valorOperacao"`
	Term         int               `json:"prazo"`
	Plan         string            `json:"plano"`
	InterestRate decimal.Decimal   `json:"taxaJuros"`
	Installment  decimal.Decimal   `json:"valorParcela"`
	Total        decimal.Decimal   `json:"valorTotal"`
	Amortization []AmortizationRow `json:"tabelaAmortizacao,omitempty"`
}

// SimulationEnvelope is the partner's raw simulation response.
// Results is nil when the partner found no offer; Error and ErrorCode carry
// business-level rejections returned with a 2xx status.
type SimulationEnvelope struct {
	Results   []SimulationResult `json:"retorno"`
	Error     string             `json:"erro,omitempty"`
	ErrorCode string             `json:"codigoErro,omitempty"`
}

// HasError reports whether the partner rejected the simulation in the body
func (e *SimulationEnvelope) HasError() bool {
	return e.Error != "" || e.ErrorCode != ""
}

