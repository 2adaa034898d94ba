package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/ports"
)

// Config contiene la configuración del tracker.
type Config struct {
	// RefreshInterval es el tiempo mínimo entre sweeps a la API. Llamadas
	// a Refresh dentro del intervalo son no-ops.
	RefreshInterval time.Duration
	// Back y Forward definen cuántos buckets probar hacia atrás y hacia
	// delante del bucket actual.
	Back    int
	Forward int
	// ProbeTimeout es el presupuesto por slug individual.
	ProbeTimeout time.Duration
	// Now permite inyectar el reloj en tests. nil → time.Now.
	Now func() time.Time
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 30 * time.Second,
		Back:            2,
		Forward:         6,
		ProbeTimeout:    15 * time.Second,
	}
}

// Tracker mantiene la lista de ventanas de 15 minutos alrededor del bucket
// actual. No hay índice server-side para esta serie: el descubrimiento
// funciona enumerando slugs candidatos y probándolos individualmente.
type Tracker struct {
	cfg      Config
	provider ports.WindowProvider

	mu          sync.RWMutex
	windows     []domain.MarketWindow // orden ascendente por StartTime
	lastRefresh time.Time
}

// New crea un Tracker con el provider inyectado.
func New(cfg Config, provider ports.WindowProvider) *Tracker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultConfig().RefreshInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultConfig().ProbeTimeout
	}
	if cfg.Back == 0 && cfg.Forward == 0 {
		cfg.Back = DefaultConfig().Back
		cfg.Forward = DefaultConfig().Forward
	}
	return &Tracker{cfg: cfg, provider: provider}
}

// Refresh reenumera los slugs candidatos y reemplaza la lista trackeada
// entera, incluso si queda vacía. Dentro del intervalo de refresh es un
// no-op. Un slug que falla se descarta sin afectar a los demás.
func (t *Tracker) Refresh(ctx context.Context) {
	now := t.cfg.Now()

	t.mu.RLock()
	last := t.lastRefresh
	t.mu.RUnlock()
	if now.Sub(last) < t.cfg.RefreshInterval {
		return
	}

	slugs := domain.CandidateSlugs(now.Unix(), t.cfg.Back, t.cfg.Forward)
	slog.Debug("checking market slugs", "count", len(slugs))

	windows := t.probeAll(ctx, slugs)
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].StartTime.Before(windows[j].StartTime)
	})

	t.mu.Lock()
	t.windows = windows
	t.lastRefresh = now
	t.mu.Unlock()

	slog.Info("markets refreshed", "found", len(windows))
}

// probeAll consulta todos los slugs concurrentemente. El rate limiter del
// provider controla el ritmo, igual que en el fetch batch de books.
func (t *Tracker) probeAll(ctx context.Context, slugs []string) []domain.MarketWindow {
	resultCh := make(chan *domain.MarketWindow, len(slugs))
	var wg sync.WaitGroup

	for _, slug := range slugs {
		wg.Add(1)
		go func(slug string) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, t.cfg.ProbeTimeout)
			defer cancel()

			win, err := t.provider.FetchWindow(probeCtx, slug)
			if err != nil {
				slog.Debug("failed to fetch market", "slug", slug, "err", err)
				resultCh <- nil
				return
			}
			resultCh <- win
		}(slug)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	windows := make([]domain.MarketWindow, 0, len(slugs))
	for win := range resultCh {
		if win != nil {
			windows = append(windows, *win)
		}
	}
	return windows
}

// ActiveWindow devuelve la ventana activa ahora mismo (start <= now < end),
// o nil si ninguna lo está.
func (t *Tracker) ActiveWindow() *domain.MarketWindow {
	now := t.cfg.Now()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.windows {
		if t.windows[i].IsActive(now) {
			w := t.windows[i]
			return &w
		}
	}
	return nil
}

// NextWindow devuelve la ventana t+1: la primera que aún no ha empezado.
func (t *Tracker) NextWindow() *domain.MarketWindow {
	now := t.cfg.Now()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.windows {
		if t.windows[i].StartTime.After(now) {
			w := t.windows[i]
			return &w
		}
	}
	return nil
}

// AfterNextWindow devuelve la ventana t+2: la siguiente a t+1.
func (t *Tracker) AfterNextWindow() *domain.MarketWindow {
	t1 := t.NextWindow()
	if t1 == nil {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.windows {
		if t.windows[i].StartTime.After(t1.StartTime) {
			w := t.windows[i]
			return &w
		}
	}
	return nil
}

// WindowBySlug devuelve la ventana trackeada con ese slug, o nil.
func (t *Tracker) WindowBySlug(slug string) *domain.MarketWindow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.windows {
		if t.windows[i].Slug == slug {
			w := t.windows[i]
			return &w
		}
	}
	return nil
}

// Windows devuelve una copia de la lista trackeada, orden ascendente.
func (t *Tracker) Windows() []domain.MarketWindow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.MarketWindow, len(t.windows))
	copy(out, t.windows)
	return out
}

// LastRefresh devuelve el instante del último sweep completado.
func (t *Tracker) LastRefresh() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastRefresh
}

// Resolution devuelve el outcome ganador de la ventana con ese slug.
// Consulta primero la lista trackeada; si no hay winner cacheado hace un
// fetch puntual (la ventana puede haber rotado fuera de la lista). Un winner
// descubierto se guarda en la ventana trackeada si sigue presente, para que
// el siguiente caller no repita el fetch. (nil, nil) significa que el
// mercado todavía no está resuelto en la API.
func (t *Tracker) Resolution(ctx context.Context, slug string) (*domain.Outcome, error) {
	t.mu.RLock()
	for i := range t.windows {
		if t.windows[i].Slug == slug && t.windows[i].Winner != nil {
			w := *t.windows[i].Winner
			t.mu.RUnlock()
			return &w, nil
		}
	}
	t.mu.RUnlock()

	win, err := t.provider.FetchWindow(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("tracker.Resolution: %s: %w", slug, err)
	}
	if win == nil || win.Winner == nil {
		return nil, nil
	}

	winner := *win.Winner
	t.mu.Lock()
	for i := range t.windows {
		if t.windows[i].Slug == slug && t.windows[i].Winner == nil {
			w := winner
			t.windows[i].Winner = &w
		}
	}
	t.mu.Unlock()

	return &winner, nil
}

// Status es el snapshot del estado del tracker para la capa web.
type Status struct {
	Active       *domain.MarketWindow
	Next         *domain.MarketWindow
	AfterNext    *domain.MarketWindow
	TotalWindows int
	LastRefresh  time.Time
}

// Status devuelve el snapshot actual: ventana activa, t+1, t+2 y contadores.
func (t *Tracker) Status() Status {
	active := t.ActiveWindow()
	next := t.NextWindow()
	afterNext := t.AfterNextWindow()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return Status{
		Active:       active,
		Next:         next,
		AfterNext:    afterNext,
		TotalWindows: len(t.windows),
		LastRefresh:  t.lastRefresh,
	}
}
