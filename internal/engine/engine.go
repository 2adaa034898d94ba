package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/ports"
	"github.com/alejandrodnm/updownbot/internal/tracker"
)

// Config contiene la configuración del engine de estrategias.
type Config struct {
	// UndervaluedThreshold compra un lado cotizando a o por debajo de este
	// precio.
	UndervaluedThreshold float64
	// MomentumThreshold compra un lado cotizando a o por encima de este
	// precio.
	MomentumThreshold float64
	// OrderSize es el número de shares por orden.
	OrderSize float64
	// EntryCountdown es la antelación máxima al inicio de t+1 dentro de la
	// que se evalúa la entrada.
	EntryCountdown time.Duration
	// ExitCountdown se expone en el status. No hay salidas anticipadas:
	// las órdenes sin fill expiran cuando su ventana termina.
	ExitCountdown time.Duration
	// SimFillProbability es la probabilidad por tick de que una orden open
	// se llene entera.
	SimFillProbability float64

	// TickInterval es la espera entre pasadas del loop.
	TickInterval time.Duration
	// IdleWait es la espera cuando no hay ventana t+1 que evaluar.
	IdleWait time.Duration
	// ResolutionInterval es el tiempo mínimo entre checks de resolución
	// para un mismo slug.
	ResolutionInterval time.Duration

	// Now y FillRand permiten inyectar el reloj y el azar en tests.
	// nil → time.Now y rand.Float64.
	Now      func() time.Time
	FillRand func() float64
}

// DefaultConfig devuelve la configuración de producción.
func DefaultConfig() Config {
	return Config{
		UndervaluedThreshold: 0.48,
		MomentumThreshold:    0.52,
		OrderSize:            10,
		EntryCountdown:       20 * time.Minute,
		ExitCountdown:        930 * time.Second,
		SimFillProbability:   0.7,
		TickInterval:         2 * time.Second,
		IdleWait:             5 * time.Second,
		ResolutionInterval:   15 * time.Second,
	}
}

// Engine ejecuta las dos estrategias de paper trading sobre la ventana t+1.
// Cada tick sigue un orden fijo: refresh del tracker, selección de t+1,
// evaluación de entrada, resoluciones y fills simulados. Todo el estado
// mutable vive en memoria; el storage es un journal write-through.
type Engine struct {
	cfg      Config
	tracker  *tracker.Tracker
	prices   ports.PriceProvider
	store    ports.Storage // opcional: nil desactiva la persistencia
	notifier ports.Notifier

	mu               sync.RWMutex
	orders           map[string]domain.Order
	trades           []domain.Trade
	processed        map[string]struct{}
	resolutionChecks map[string]time.Time
	running          bool
	startedAt        time.Time
	cancel           context.CancelFunc
	done             chan struct{}
}

// New crea un Engine con las dependencias inyectadas. Los parámetros de
// estrategia se toman tal cual (DefaultConfig trae los de producción); los
// intervalos a cero se normalizan para que el loop nunca haga busy-wait.
func New(cfg Config, trk *tracker.Tracker, prices ports.PriceProvider, store ports.Storage, notifier ports.Notifier) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.FillRand == nil {
		cfg.FillRand = rand.Float64
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = DefaultConfig().IdleWait
	}
	if cfg.ResolutionInterval <= 0 {
		cfg.ResolutionInterval = DefaultConfig().ResolutionInterval
	}
	if cfg.EntryCountdown <= 0 {
		cfg.EntryCountdown = DefaultConfig().EntryCountdown
	}
	return &Engine{
		cfg:              cfg,
		tracker:          trk,
		prices:           prices,
		store:            store,
		notifier:         notifier,
		orders:           make(map[string]domain.Order),
		processed:        make(map[string]struct{}),
		resolutionChecks: make(map[string]time.Time),
	}
}

// Start arranca el loop en su propia goroutine. Si ya está corriendo es un
// no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.running = true
	e.startedAt = e.cfg.Now()
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	go e.run(loopCtx, done)

	slog.Info("strategy engine started",
		"undervalued_threshold", e.cfg.UndervaluedThreshold,
		"momentum_threshold", e.cfg.MomentumThreshold,
		"order_size", e.cfg.OrderSize,
	)
}

// Stop cancela el loop y espera a que la goroutine termine. Si no está
// corriendo es un no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	cancel()
	<-done
	slog.Info("strategy engine stopped")
}

// IsRunning indica si el loop está activo.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// RunOnce ejecuta exactamente una pasada del loop sin arrancarlo. Útil para
// el modo -once y para tests.
func (e *Engine) RunOnce(ctx context.Context) {
	e.tick(ctx)
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		// Si el contexto padre muere (señal del proceso) el loop sale por
		// aquí sin pasar por Stop.
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	for {
		wait := e.tick(ctx)
		if err := sleep(ctx, wait); err != nil {
			return
		}
	}
}

// tick ejecuta una pasada completa y devuelve cuánto esperar hasta la
// siguiente. Sin ventana t+1 no hay nada que operar ni liquidar y el loop
// se relaja a IdleWait.
func (e *Engine) tick(ctx context.Context) time.Duration {
	e.tracker.Refresh(ctx)

	t1 := e.tracker.NextWindow()
	if t1 == nil {
		slog.Debug("no upcoming window")
		return e.cfg.IdleWait
	}

	countdown := t1.CountdownToStart(e.cfg.Now())
	slog.Debug("engine tick",
		"t1", t1.Slug,
		"countdown", countdown.Round(time.Second),
		"processed", e.isProcessed(t1.Slug),
	)

	if !e.isProcessed(t1.Slug) && countdown > 0 && countdown <= e.cfg.EntryCountdown {
		e.evaluateEntry(ctx, t1)
	}

	e.checkResolutions(ctx)
	e.simulateFills(ctx)

	return e.cfg.TickInterval
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
