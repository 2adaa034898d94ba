package polymarket

import (
	"log/slog"
	"strconv"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// mapWindow convierte un gammaMarket al domain.MarketWindow del slug dado.
// Los tiempos se derivan siempre del bucket codificado en el slug, no de los
// campos de fecha de la API. Devuelve nil si el mercado no expone token ids
// para ambos outcomes o si el slug no es parseable.
func mapWindow(gm gammaMarket, slug string) *domain.MarketWindow {
	upToken, downToken := extractTokenIDs(gm)
	if upToken == "" || downToken == "" {
		slog.Debug("market missing outcome tokens",
			"slug", slug,
			"has_up", upToken != "",
			"has_down", downToken != "",
		)
		return nil
	}

	start, err := domain.SlugStartTime(slug)
	if err != nil {
		slog.Debug("cannot derive window times", "slug", slug, "err", err)
		return nil
	}

	return &domain.MarketWindow{
		Slug:        slug,
		ConditionID: conditionID(gm),
		UpTokenID:   upToken,
		DownTokenID: downToken,
		StartTime:   start,
		EndTime:     start.Add(domain.WindowDuration),
		Winner:      detectWinner(gm),
	}
}

// extractTokenIDs saca los token ids de las dos formas que devuelve Gamma:
// el array estructurado tokens, o clobTokenIds alineado posicionalmente con
// outcomes. Si tokens existe no se intenta el fallback.
func extractTokenIDs(gm gammaMarket) (up, down string) {
	if len(gm.Tokens) > 0 {
		for _, t := range gm.Tokens {
			if t.Outcome == string(domain.OutcomeUp) && up == "" {
				up = t.TokenID
			}
			if t.Outcome == string(domain.OutcomeDown) && down == "" {
				down = t.TokenID
			}
		}
		return up, down
	}

	for i, outcome := range gm.Outcomes {
		if i >= len(gm.ClobTokenIDs) {
			break
		}
		switch outcome {
		case string(domain.OutcomeUp):
			up = gm.ClobTokenIDs[i]
		case string(domain.OutcomeDown):
			down = gm.ClobTokenIDs[i]
		}
	}
	return up, down
}

// detectWinner aplica la convención de mercados binarios resueltos: el
// outcome cuyo precio reportado es exactamente "1" ganó. Asume que Gamma
// mantiene outcomes[i] alineado con outcomePrices[i].
func detectWinner(gm gammaMarket) *domain.Outcome {
	if len(gm.Outcomes) < 2 || len(gm.OutcomePrices) < 2 {
		return nil
	}

	var w domain.Outcome
	switch {
	case gm.OutcomePrices[0] == "1":
		w = domain.OutcomeDown
		if gm.Outcomes[0] == string(domain.OutcomeUp) {
			w = domain.OutcomeUp
		}
	case gm.OutcomePrices[1] == "1":
		w = domain.OutcomeUp
		if gm.Outcomes[1] == string(domain.OutcomeDown) {
			w = domain.OutcomeDown
		}
	default:
		return nil
	}
	return &w
}

// conditionID tolera las dos grafías del campo según el endpoint.
func conditionID(gm gammaMarket) string {
	if gm.ConditionID != "" {
		return gm.ConditionID
	}
	return gm.ConditionIDAlt
}

// bookMidpoint calcula (mejor bid + mejor ask) / 2 de un book raw.
// Devuelve nil si falta cualquiera de los dos lados.
func bookMidpoint(r orderBookResponse) *float64 {
	bestBid, okBid := bestPrice(r.Bids, false)
	bestAsk, okAsk := bestPrice(r.Asks, true)
	if !okBid || !okAsk {
		return nil
	}
	mid := (bestBid + bestAsk) / 2
	return &mid
}

// bestPrice devuelve el mejor precio de un lado del book: el mayor para
// bids (ascending=false), el menor para asks (ascending=true). Ignora
// niveles con precio o tamaño no positivos.
func bestPrice(raw []bookEntryRaw, ascending bool) (float64, bool) {
	best := 0.0
	found := false
	for _, e := range raw {
		price, _ := strconv.ParseFloat(e.Price, 64)
		size, _ := strconv.ParseFloat(e.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		if !found || (ascending && price < best) || (!ascending && price > best) {
			best = price
			found = true
		}
	}
	return best, found
}
