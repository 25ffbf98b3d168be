package partner

import (
	"encoding/json"

	"github.com/beneficios/backend/internal/domain/refinancing"
)

// Partner API paths, relative to Config.BaseURL
const (
	pathAuthenticate = "/Autenticacao/Autenticar"
	pathContracts    = "/contratos"
	pathSimulations  = "/v2/refinanciamentos"
)

// authRequest is the authentication request payload
type authRequest struct {
	Username string `json:"usuario"`
	Password string `json:"senha"`
}

// authResponse is the authentication response payload
type authResponse struct {
	Data *struct {
		Token string `json:"jwtToken"`
	} `json:"retorno"`
}

// contractsResponse is the contract listing payload
type contractsResponse struct {
	Data []refinancing.Contract `json:"retorno"`
}

// simulationBody is the wire form of refinancing.SimulationRequest.
// The installment goes out as a JSON number rather than a quoted decimal.
type simulationBody struct {
	DocumentNumber string                            `json:"cpf"`
	BirthDate      string                            `json:"dataNascimento"`
	AffiliateCode  string                            `json:"conveniada"`
	Contracts      []refinancing.ContractToRefinance `json:"contratosRefinanciamento"`
	Installment    json.Number                       `json:"prestacao"`
	Term           *int                              `json:"prazo,omitempty"`
	OnlyViable     bool                              `json:"retornarSomenteOperacoesViaveis"`
}

func newSimulationBody(req refinancing.SimulationRequest) simulationBody {
	contracts := req.Contracts
	if contracts == nil {
		contracts = []refinancing.ContractToRefinance{}
	}
	return simulationBody{
		DocumentNumber: req.DocumentNumber,
		BirthDate:      req.BirthDate,
		AffiliateCode:  req.AffiliateCode,
		Contracts:      contracts,
		Installment:    json.Number(req.Installment.String()),
		Term:           req.Term,
		OnlyViable:     req.OnlyViable,
	}
}
