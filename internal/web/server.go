package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/engine"
	"github.com/alejandrodnm/updownbot/internal/ports"
	"github.com/alejandrodnm/updownbot/internal/tracker"
)

// Config contiene la configuración del servidor web.
type Config struct {
	// Addr es la dirección de escucha, ej. ":8080".
	Addr string
	// PushInterval es la cadencia de snapshots por websocket.
	PushInterval time.Duration
	// Now permite inyectar el reloj en tests. nil → time.Now.
	Now func() time.Time
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		PushInterval: 2 * time.Second,
	}
}

// Server expone el backend JSON/websocket del dashboard. Todas las lecturas
// pasan por los snapshots del engine y el tracker; el único control mutante
// es start/stop del engine.
type Server struct {
	cfg     Config
	engine  *engine.Engine
	tracker *tracker.Tracker
	prices  ports.PriceProvider

	// ctx lo fija Run antes de escuchar; los handlers lo usan como padre
	// del loop del engine para que no muera con el request que lo arrancó.
	ctx context.Context
}

// New crea un Server con las dependencias inyectadas.
func New(cfg Config, eng *engine.Engine, trk *tracker.Tracker, prices ports.PriceProvider) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = DefaultConfig().PushInterval
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	return &Server{
		cfg:     cfg,
		engine:  eng,
		tracker: trk,
		prices:  prices,
	}
}

// Run escucha hasta que el contexto se cancele y entonces apaga el servidor
// limpiamente.
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web.Run: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web.Run: shutdown: %w", err)
	}

	slog.Info("web server stopped")
	return nil
}

// Handler construye el mux con todas las rutas. Expuesto para tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("GET /api/markets", s.handleMarkets)
	mux.HandleFunc("GET /api/orders", s.handleOrders)
	mux.HandleFunc("GET /api/trades", s.handleTrades)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/prices", s.handlePrices)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.statusView())
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	if s.engine.IsRunning() {
		writeJSON(w, http.StatusOK, controlResponse{Status: "already_running", IsRunning: true})
		return
	}
	s.engine.Start(s.baseContext())
	writeJSON(w, http.StatusOK, controlResponse{Status: "started", IsRunning: s.engine.IsRunning()})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	if !s.engine.IsRunning() {
		writeJSON(w, http.StatusOK, controlResponse{Status: "not_running", IsRunning: false})
		return
	}
	s.engine.Stop()
	writeJSON(w, http.StatusOK, controlResponse{Status: "stopped", IsRunning: false})
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	mv := s.marketsView()
	resp := marketsResponse{
		Active:       mv.Active,
		Next:         mv.Next,
		AfterNext:    mv.AfterNext,
		TotalWindows: mv.TotalWindows,
		LastRefresh:  mv.LastRefresh,
	}
	if t1 := s.tracker.NextWindow(); t1 != nil {
		resp.Prices = s.quotesView(r.Context(), t1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ordersView())
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	// Un valor de strategy desconocido o vacío cae al conjunto completo.
	strategy, _ := domain.ParseStrategy(r.URL.Query().Get("strategy"))
	writeJSON(w, http.StatusOK, s.tradesView(strategy))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metricsResponseView())
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	view := s.pricesView(r.Context())
	if view == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no upcoming window"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) statusView() statusResponse {
	return statusResponse{
		Engine:    s.engineView(),
		Markets:   s.marketsView(),
		Timestamp: s.cfg.Now().Unix(),
	}
}

func (s *Server) engineView() engineStatusView {
	st := s.engine.Status()
	cfg := s.engine.Config()

	v := engineStatusView{
		IsRunning: st.Running,
		// El engine solo opera en paper trading.
		PaperMode: true,
		Config: configView{
			UndervaluedThreshold: cfg.UndervaluedThreshold,
			MomentumThreshold:    cfg.MomentumThreshold,
			OrderSize:            cfg.OrderSize,
			EntryCountdown:       int64(cfg.EntryCountdown / time.Second),
			ExitCountdown:        int64(cfg.ExitCountdown / time.Second),
		},
		Orders:           orderCounts{Open: st.OpenOrders, Total: st.TotalOrders},
		Trades:           tradeCounts{Total: st.TotalTrades, Pending: st.PendingTrades},
		ProcessedMarkets: st.ProcessedWindows,
	}
	if !st.StartedAt.IsZero() {
		ts := st.StartedAt.Unix()
		v.StartTime = &ts
	}
	return v
}

func (s *Server) marketsView() marketsStatusView {
	st := s.tracker.Status()
	now := s.cfg.Now()

	v := marketsStatusView{
		Active:       newWindowView(st.Active, now),
		Next:         newWindowView(st.Next, now),
		AfterNext:    newWindowView(st.AfterNext, now),
		TotalWindows: st.TotalWindows,
	}
	if !st.LastRefresh.IsZero() {
		ts := st.LastRefresh.Unix()
		v.LastRefresh = &ts
	}
	return v
}

func (s *Server) ordersView() ordersResponse {
	orders := s.engine.Orders()
	resp := ordersResponse{
		Orders: make([]orderView, 0, len(orders)),
		Total:  len(orders),
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusOpen {
			resp.Open++
		}
		resp.Orders = append(resp.Orders, newOrderView(o))
	}
	return resp
}

func (s *Server) tradesView(strategy domain.Strategy) tradesResponse {
	trades := s.engine.Trades(strategy)
	resp := tradesResponse{
		Trades: make([]tradeView, 0, len(trades)),
		Total:  len(trades),
	}
	for _, t := range trades {
		if t.Result == domain.TradeResultPending {
			resp.Pending++
		}
		resp.Trades = append(resp.Trades, newTradeView(t))
	}
	return resp
}

func (s *Server) metricsResponseView() metricsResponse {
	return metricsResponse{
		Undervalued: newMetricsView(s.engine.Metrics(domain.StrategyUndervalued)),
		Momentum:    newMetricsView(s.engine.Metrics(domain.StrategyMomentum)),
	}
}

func (s *Server) pricesView(ctx context.Context) *pricesResponse {
	t1 := s.tracker.NextWindow()
	if t1 == nil {
		return nil
	}
	cfg := s.engine.Config()
	countdown := t1.CountdownToStart(s.cfg.Now())

	view := &pricesResponse{
		Slug:                 t1.Slug,
		Countdown:            int64(countdown / time.Second),
		UndervaluedThreshold: cfg.UndervaluedThreshold,
		MomentumThreshold:    cfg.MomentumThreshold,
		InEntryWindow:        countdown > 0 && countdown <= cfg.EntryCountdown,
	}
	if q := s.quotesView(ctx, t1); q != nil {
		view.UpPrice, view.DownPrice, view.SumPrice = q.UpPrice, q.DownPrice, q.SumPrice
	}
	return view
}

func (s *Server) quotesView(ctx context.Context, win *domain.MarketWindow) *quotesView {
	up, down, err := s.prices.FetchPrices(ctx, win.UpTokenID, win.DownTokenID)
	if err != nil {
		slog.Debug("quote fetch for dashboard failed", "slug", win.Slug, "err", err)
		return nil
	}
	v := &quotesView{UpPrice: up, DownPrice: down}
	if up != nil && down != nil {
		sum := *up + *down
		v.SumPrice = &sum
	}
	return v
}

func (s *Server) baseContext() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}
