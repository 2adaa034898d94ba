package web

import (
	"math"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// Las vistas replican los payloads snake_case del dashboard original. Los
// timestamps van en epoch seconds y los countdowns en segundos enteros.

type windowView struct {
	Slug              string  `json:"slug"`
	ConditionID       string  `json:"condition_id"`
	UpTokenID         string  `json:"up_token_id"`
	DownTokenID       string  `json:"down_token_id"`
	StartTime         int64   `json:"start_time"`
	EndTime           int64   `json:"end_time"`
	CountdownToActive int64   `json:"countdown_to_active"`
	CountdownToEnd    int64   `json:"countdown_to_end"`
	Winner            *string `json:"winner,omitempty"`
}

type orderView struct {
	ID         string  `json:"id"`
	Strategy   string  `json:"strategy"`
	MarketSlug string  `json:"market_slug"`
	Outcome    string  `json:"outcome"`
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	Status     string  `json:"status"`
	FilledSize float64 `json:"filled_size"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

type tradeView struct {
	ID             string  `json:"id"`
	Strategy       string  `json:"strategy"`
	MarketSlug     string  `json:"market_slug"`
	Outcome        string  `json:"outcome"`
	EntryPrice     float64 `json:"entry_price"`
	Size           float64 `json:"size"`
	FilledSize     float64 `json:"filled_size"`
	EntryTime      int64   `json:"entry_time"`
	ResolutionTime *int64  `json:"resolution_time"`
	Result         string  `json:"result"`
	PnL            float64 `json:"pnl"`
}

type metricsView struct {
	Strategy      string  `json:"strategy"`
	TotalTrades   int     `json:"total_trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Pending       int     `json:"pending"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	TotalInvested float64 `json:"total_invested"`
	ROI           float64 `json:"roi"`
}

type configView struct {
	UndervaluedThreshold float64 `json:"undervalued_threshold"`
	MomentumThreshold    float64 `json:"momentum_threshold"`
	OrderSize            float64 `json:"order_size"`
	EntryCountdown       int64   `json:"entry_countdown"`
	ExitCountdown        int64   `json:"exit_countdown"`
}

type orderCounts struct {
	Open  int `json:"open"`
	Total int `json:"total"`
}

type tradeCounts struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
}

type engineStatusView struct {
	IsRunning        bool        `json:"is_running"`
	StartTime        *int64      `json:"start_time"`
	PaperMode        bool        `json:"paper_mode"`
	Config           configView  `json:"config"`
	Orders           orderCounts `json:"orders"`
	Trades           tradeCounts `json:"trades"`
	ProcessedMarkets int         `json:"processed_markets"`
}

type marketsStatusView struct {
	Active       *windowView `json:"active"`
	Next         *windowView `json:"next"`
	AfterNext    *windowView `json:"after_next"`
	TotalWindows int         `json:"total_windows"`
	LastRefresh  *int64      `json:"last_refresh"`
}

type quotesView struct {
	UpPrice   *float64 `json:"up_price"`
	DownPrice *float64 `json:"down_price"`
	SumPrice  *float64 `json:"sum_price"`
}

type statusResponse struct {
	Engine    engineStatusView  `json:"engine"`
	Markets   marketsStatusView `json:"markets"`
	Timestamp int64             `json:"timestamp"`
}

type marketsResponse struct {
	Active       *windowView `json:"active"`
	Next         *windowView `json:"next"`
	AfterNext    *windowView `json:"after_next"`
	TotalWindows int         `json:"total_windows"`
	LastRefresh  *int64      `json:"last_refresh"`
	Prices       *quotesView `json:"prices"`
}

type ordersResponse struct {
	Orders []orderView `json:"orders"`
	Open   int         `json:"open"`
	Total  int         `json:"total"`
}

type tradesResponse struct {
	Trades  []tradeView `json:"trades"`
	Total   int         `json:"total"`
	Pending int         `json:"pending"`
}

type metricsResponse struct {
	Undervalued metricsView `json:"undervalued"`
	Momentum    metricsView `json:"momentum"`
}

type pricesResponse struct {
	Slug                 string   `json:"slug"`
	Countdown            int64    `json:"countdown"`
	UpPrice              *float64 `json:"up_price"`
	DownPrice            *float64 `json:"down_price"`
	SumPrice             *float64 `json:"sum_price"`
	UndervaluedThreshold float64  `json:"undervalued_threshold"`
	MomentumThreshold    float64  `json:"momentum_threshold"`
	InEntryWindow        bool     `json:"in_entry_window"`
}

type controlResponse struct {
	Status    string `json:"status"`
	IsRunning bool   `json:"is_running"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// snapshotView es el frame completo que empuja el websocket.
type snapshotView struct {
	Status  statusResponse  `json:"status"`
	Prices  *pricesResponse `json:"prices"`
	Orders  ordersResponse  `json:"orders"`
	Trades  tradesResponse  `json:"trades"`
	Metrics metricsResponse `json:"metrics"`
}

func newWindowView(w *domain.MarketWindow, now time.Time) *windowView {
	if w == nil {
		return nil
	}
	v := &windowView{
		Slug:              w.Slug,
		ConditionID:       w.ConditionID,
		UpTokenID:         w.UpTokenID,
		DownTokenID:       w.DownTokenID,
		StartTime:         w.StartTime.Unix(),
		EndTime:           w.EndTime.Unix(),
		CountdownToActive: int64(w.CountdownToStart(now) / time.Second),
		CountdownToEnd:    int64(w.CountdownToEnd(now) / time.Second),
	}
	if w.Winner != nil {
		winner := string(*w.Winner)
		v.Winner = &winner
	}
	return v
}

func newOrderView(o domain.Order) orderView {
	return orderView{
		ID:         o.ID,
		Strategy:   string(o.Strategy),
		MarketSlug: o.WindowSlug,
		Outcome:    string(o.Outcome),
		Price:      o.Price,
		Size:       o.Size,
		Status:     string(o.Status),
		FilledSize: o.FilledSize,
		CreatedAt:  o.CreatedAt.Unix(),
		UpdatedAt:  o.UpdatedAt.Unix(),
	}
}

func newTradeView(t domain.Trade) tradeView {
	v := tradeView{
		ID:         t.ID,
		Strategy:   string(t.Strategy),
		MarketSlug: t.WindowSlug,
		Outcome:    string(t.Outcome),
		EntryPrice: t.EntryPrice,
		Size:       t.Size,
		FilledSize: t.FilledSize,
		EntryTime:  t.EntryTime.Unix(),
		Result:     string(t.Result),
		PnL:        t.PnL,
	}
	if t.ResolutionTime != nil {
		ts := t.ResolutionTime.Unix()
		v.ResolutionTime = &ts
	}
	return v
}

func newMetricsView(m domain.StrategyMetrics) metricsView {
	return metricsView{
		Strategy:      string(m.Strategy),
		TotalTrades:   m.TotalTrades,
		Wins:          m.Wins,
		Losses:        m.Losses,
		Pending:       m.Pending,
		WinRate:       round1(m.WinRate()),
		TotalPnL:      round2(m.TotalPnL),
		TotalInvested: round2(m.TotalInvested),
		ROI:           round1(m.ROI()),
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
