package domain

// StrategyMetrics aggregates realized performance for one strategy.
type StrategyMetrics struct {
	Strategy      Strategy
	TotalTrades   int
	Wins          int
	Losses        int
	Pending       int
	TotalPnL      float64
	TotalInvested float64 // filled size x entry price over settled trades
}

// ComputeMetrics derives the metrics for strategy from the full trade set,
// ignoring trades tagged with other strategies. Pure and recomputable, so
// callers never have to keep counters in sync with the trade log.
func ComputeMetrics(strategy Strategy, trades []Trade) StrategyMetrics {
	m := StrategyMetrics{Strategy: strategy}
	for _, t := range trades {
		if t.Strategy != strategy {
			continue
		}
		m.TotalTrades++
		switch t.Result {
		case TradeResultWin:
			m.Wins++
		case TradeResultLoss:
			m.Losses++
		default:
			m.Pending++
			continue
		}
		m.TotalPnL += t.PnL
		m.TotalInvested += t.FilledSize * t.EntryPrice
	}
	return m
}

// WinRate is the percentage of settled trades that won. Zero when nothing
// has settled yet.
func (m StrategyMetrics) WinRate() float64 {
	settled := m.Wins + m.Losses
	if settled == 0 {
		return 0
	}
	return float64(m.Wins) / float64(settled) * 100
}

// ROI is the total profit and loss as a percentage of invested capital.
func (m StrategyMetrics) ROI() float64 {
	if m.TotalInvested <= 0 {
		return 0
	}
	return m.TotalPnL / m.TotalInvested * 100
}
