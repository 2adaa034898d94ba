package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// flexStrings es un campo que Gamma devuelve a veces como array JSON y a
// veces como string con JSON embebido ("[\"Up\", \"Down\"]") según el
// endpoint. Un valor irrecuperable queda como lista vacía; la validación
// de tokens en mapping.go decide después si el mercado es usable.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var inner []string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			*f = inner
			return nil
		}
	}

	*f = nil
	return nil
}

// --- Gamma API ---

// gammaEventsResponse es la respuesta de GET /events?slug=.
type gammaEventsResponse []gammaEvent

// gammaEvent agrupa los mercados publicados bajo un mismo evento.
type gammaEvent struct {
	Slug    string        `json:"slug"`
	Markets []gammaMarket `json:"markets"`
}

// gammaMarketsResponse es la respuesta de GET /markets?slug=.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado raw de Gamma. El campo conditionId aparece en
// camelCase o snake_case según el endpoint; los campos outcomes,
// outcomePrices y clobTokenIds llegan como array o como string JSON.
type gammaMarket struct {
	Slug           string       `json:"slug"`
	ConditionID    string       `json:"conditionId"`
	ConditionIDAlt string       `json:"condition_id"`
	Question       string       `json:"question"`
	Outcomes       flexStrings  `json:"outcomes"`
	OutcomePrices  flexStrings  `json:"outcomePrices"`
	ClobTokenIDs   flexStrings  `json:"clobTokenIds"`
	Tokens         []gammaToken `json:"tokens"`
	Closed         bool         `json:"closed"`
}

// gammaToken es la forma estructurada de un token cuando el endpoint la expone.
type gammaToken struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
	Winner  bool   `json:"winner"`
}

// --- CLOB API ---

// orderBookRequest es el body del POST /books batch.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse es la respuesta de un item en POST /books.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}
