package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/updownbot/internal/adapters/notify"
	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/engine"
	"github.com/alejandrodnm/updownbot/internal/tracker"
	"github.com/alejandrodnm/updownbot/internal/web"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base int64 = 1756100700

// --- mocks ---

type mockWindowProvider struct {
	mu      sync.Mutex
	windows map[string]*domain.MarketWindow
}

func newMockWindowProvider() *mockWindowProvider {
	return &mockWindowProvider{windows: make(map[string]*domain.MarketWindow)}
}

func (m *mockWindowProvider) FetchWindow(_ context.Context, slug string) (*domain.MarketWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	win, ok := m.windows[slug]
	if !ok {
		return nil, nil
	}
	w := *win
	return &w, nil
}

func (m *mockWindowProvider) setWindow(win domain.MarketWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[win.Slug] = &win
}

type mockPriceProvider struct {
	mu   sync.Mutex
	up   *float64
	down *float64
}

func (m *mockPriceProvider) FetchPrices(_ context.Context, _, _ string) (*float64, *float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.up, m.down, nil
}

func (m *mockPriceProvider) quote(up, down float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, d := up, down
	m.up, m.down = &u, &d
}

// --- helpers ---

func neverFill() float64  { return 1.0 }
func alwaysFill() float64 { return 0.0 }

func makeWindow(bucket int64) domain.MarketWindow {
	start := time.Unix(bucket, 0).UTC()
	return domain.MarketWindow{
		Slug:        domain.WindowSlug(bucket),
		ConditionID: fmt.Sprintf("0xcond%d", bucket),
		UpTokenID:   "tok_up",
		DownTokenID: "tok_down",
		StartTime:   start,
		EndTime:     start.Add(domain.WindowDuration),
	}
}

func resolvedWindow(bucket int64, winner domain.Outcome) domain.MarketWindow {
	w := makeWindow(bucket)
	w.Winner = &winner
	return w
}

// testServer levanta el handler completo sobre httptest con engine y
// tracker reales alimentados por mocks.
type testServer struct {
	now      time.Time
	provider *mockWindowProvider
	prices   *mockPriceProvider
	engine   *engine.Engine
	srv      *httptest.Server
}

func newTestServer(t *testing.T, fillRand func() float64) *testServer {
	t.Helper()

	ts := &testServer{
		now:      time.Unix(base, 0).UTC(),
		provider: newMockWindowProvider(),
		prices:   &mockPriceProvider{},
	}
	clock := func() time.Time { return ts.now }

	trkCfg := tracker.DefaultConfig()
	trkCfg.Now = clock
	trk := tracker.New(trkCfg, ts.provider)

	engCfg := engine.DefaultConfig()
	engCfg.Now = clock
	engCfg.FillRand = fillRand
	ts.engine = engine.New(engCfg, trk, ts.prices, nil, notify.NewConsoleWriter(io.Discard))

	webCfg := web.DefaultConfig()
	webCfg.PushInterval = 50 * time.Millisecond
	webCfg.Now = clock
	server := web.New(webCfg, ts.engine, trk, ts.prices)

	ts.srv = httptest.NewServer(server.Handler())
	t.Cleanup(ts.srv.Close)
	t.Cleanup(ts.engine.Stop)
	return ts
}

// advance solo debe llamarse antes del primer request HTTP del test: los
// handlers leen el reloj desde sus propias goroutines.
func (ts *testServer) advance(d time.Duration) {
	ts.now = ts.now.Add(d)
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func postJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sub(t *testing.T, m map[string]any, key string) map[string]any {
	t.Helper()
	child, ok := m[key].(map[string]any)
	require.True(t, ok, "missing object %q", key)
	return child
}

func num(t *testing.T, m map[string]any, key string) float64 {
	t.Helper()
	v, ok := m[key].(float64)
	require.True(t, ok, "missing number %q", key)
	return v
}

// --- tests ---

func TestServer_Status_Defaults(t *testing.T) {
	ts := newTestServer(t, neverFill)

	body := getJSON(t, ts.srv.URL+"/api/status")

	eng := sub(t, body, "engine")
	assert.Equal(t, false, eng["is_running"])
	assert.Equal(t, true, eng["paper_mode"])
	assert.Nil(t, eng["start_time"])

	cfg := sub(t, eng, "config")
	assert.InDelta(t, 0.48, num(t, cfg, "undervalued_threshold"), 1e-9)
	assert.InDelta(t, 0.52, num(t, cfg, "momentum_threshold"), 1e-9)
	assert.EqualValues(t, 10, num(t, cfg, "order_size"))
	assert.EqualValues(t, 1200, num(t, cfg, "entry_countdown"))
	assert.EqualValues(t, 930, num(t, cfg, "exit_countdown"))

	markets := sub(t, body, "markets")
	assert.EqualValues(t, 0, num(t, markets, "total_windows"))
	assert.Nil(t, markets["active"])
	assert.Nil(t, markets["next"])

	assert.EqualValues(t, base, num(t, body, "timestamp"))
}

func TestServer_StartStopLifecycle(t *testing.T) {
	ts := newTestServer(t, neverFill)

	resp := postJSON(t, ts.srv.URL+"/api/start")
	assert.Equal(t, "started", resp["status"])
	assert.Equal(t, true, resp["is_running"])

	resp = postJSON(t, ts.srv.URL+"/api/start")
	assert.Equal(t, "already_running", resp["status"])

	body := getJSON(t, ts.srv.URL+"/api/status")
	assert.Equal(t, true, sub(t, body, "engine")["is_running"])
	assert.NotNil(t, sub(t, body, "engine")["start_time"])

	resp = postJSON(t, ts.srv.URL+"/api/stop")
	assert.Equal(t, "stopped", resp["status"])

	resp = postJSON(t, ts.srv.URL+"/api/stop")
	assert.Equal(t, "not_running", resp["status"])
}

func TestServer_ControlEndpointsRejectGet(t *testing.T) {
	ts := newTestServer(t, neverFill)

	resp, err := http.Get(ts.srv.URL + "/api/start")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_OrdersAndTrades(t *testing.T) {
	ts := newTestServer(t, alwaysFill)
	ts.provider.setWindow(makeWindow(base + 900))
	ts.prices.quote(0.40, 0.60)
	ts.engine.RunOnce(context.Background())

	body := getJSON(t, ts.srv.URL+"/api/orders")
	assert.EqualValues(t, 2, num(t, body, "total"))
	assert.EqualValues(t, 0, num(t, body, "open")) // ambas llenas en el mismo tick

	orders, ok := body["orders"].([]any)
	require.True(t, ok)
	require.Len(t, orders, 2)
	first, ok := orders[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, domain.WindowSlug(base+900), first["market_slug"])
	assert.Equal(t, "filled", first["status"])
	assert.Contains(t, []any{"undervalued", "momentum"}, first["strategy"])

	trades := getJSON(t, ts.srv.URL+"/api/trades")
	assert.EqualValues(t, 2, num(t, trades, "total"))
	assert.EqualValues(t, 2, num(t, trades, "pending"))

	mom := getJSON(t, ts.srv.URL+"/api/trades?strategy=momentum")
	assert.EqualValues(t, 1, num(t, mom, "total"))
	list, ok := mom["trades"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	tr, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "momentum", tr["strategy"])
	assert.Equal(t, "Down", tr["outcome"])
	assert.InDelta(t, 0.60, num(t, tr, "entry_price"), 1e-9)
	assert.Nil(t, tr["resolution_time"])

	// Un valor de strategy desconocido cae al conjunto completo.
	unknown := getJSON(t, ts.srv.URL+"/api/trades?strategy=bogus")
	assert.EqualValues(t, 2, num(t, unknown, "total"))
}

func TestServer_MetricsAfterResolution(t *testing.T) {
	ts := newTestServer(t, alwaysFill)
	ts.provider.setWindow(makeWindow(base + 900))
	ts.provider.setWindow(makeWindow(base + 3600))
	ts.prices.quote(0.40, 0.60)
	ts.engine.RunOnce(context.Background())

	ts.provider.setWindow(resolvedWindow(base+900, domain.OutcomeUp))
	ts.advance(31 * time.Minute)
	ts.engine.RunOnce(context.Background())

	body := getJSON(t, ts.srv.URL+"/api/metrics")

	under := sub(t, body, "undervalued")
	assert.Equal(t, "undervalued", under["strategy"])
	assert.EqualValues(t, 1, num(t, under, "wins"))
	assert.InDelta(t, 100.0, num(t, under, "win_rate"), 1e-9)
	assert.InDelta(t, 6.0, num(t, under, "total_pnl"), 1e-9)
	assert.InDelta(t, 4.0, num(t, under, "total_invested"), 1e-9)
	assert.InDelta(t, 150.0, num(t, under, "roi"), 1e-9)

	mom := sub(t, body, "momentum")
	assert.EqualValues(t, 1, num(t, mom, "losses"))
	assert.InDelta(t, -6.0, num(t, mom, "total_pnl"), 1e-9)
	assert.InDelta(t, -100.0, num(t, mom, "roi"), 1e-9)
}

func TestServer_Prices(t *testing.T) {
	ts := newTestServer(t, neverFill)
	ts.provider.setWindow(makeWindow(base + 900))
	ts.prices.quote(0.40, 0.60)
	ts.engine.RunOnce(context.Background())

	body := getJSON(t, ts.srv.URL+"/api/prices")
	assert.Equal(t, domain.WindowSlug(base+900), body["slug"])
	assert.EqualValues(t, 900, num(t, body, "countdown"))
	assert.InDelta(t, 0.40, num(t, body, "up_price"), 1e-9)
	assert.InDelta(t, 0.60, num(t, body, "down_price"), 1e-9)
	assert.InDelta(t, 1.00, num(t, body, "sum_price"), 1e-9)
	assert.InDelta(t, 0.48, num(t, body, "undervalued_threshold"), 1e-9)
	assert.Equal(t, true, body["in_entry_window"])
}

func TestServer_Prices_NoWindow(t *testing.T) {
	ts := newTestServer(t, neverFill)

	resp, err := http.Get(ts.srv.URL + "/api/prices")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "no upcoming window", out["error"])
}

func TestServer_Markets(t *testing.T) {
	ts := newTestServer(t, neverFill)
	ts.provider.setWindow(makeWindow(base))
	ts.provider.setWindow(makeWindow(base + 900))
	ts.provider.setWindow(makeWindow(base + 1800))
	ts.prices.quote(0.45, 0.55)
	ts.engine.RunOnce(context.Background())

	body := getJSON(t, ts.srv.URL+"/api/markets")

	active := sub(t, body, "active")
	assert.Equal(t, domain.WindowSlug(base), active["slug"])
	assert.EqualValues(t, 0, num(t, active, "countdown_to_active"))
	assert.EqualValues(t, 900, num(t, active, "countdown_to_end"))

	next := sub(t, body, "next")
	assert.Equal(t, domain.WindowSlug(base+900), next["slug"])
	assert.EqualValues(t, 900, num(t, next, "countdown_to_active"))

	afterNext := sub(t, body, "after_next")
	assert.Equal(t, domain.WindowSlug(base+1800), afterNext["slug"])

	assert.EqualValues(t, 3, num(t, body, "total_windows"))
	assert.NotNil(t, body["last_refresh"])

	prices := sub(t, body, "prices")
	assert.InDelta(t, 0.45, num(t, prices, "up_price"), 1e-9)
	assert.InDelta(t, 1.00, num(t, prices, "sum_price"), 1e-9)
}

func TestServer_WebSocketPush(t *testing.T) {
	ts := newTestServer(t, alwaysFill)
	ts.provider.setWindow(makeWindow(base + 900))
	ts.prices.quote(0.40, 0.60)
	ts.engine.RunOnce(context.Background())

	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))

	status := sub(t, frame, "status")
	eng := sub(t, status, "engine")
	assert.Equal(t, false, eng["is_running"])

	orders := sub(t, frame, "orders")
	assert.EqualValues(t, 2, num(t, orders, "total"))

	metrics := sub(t, frame, "metrics")
	assert.Contains(t, metrics, "undervalued")
	assert.Contains(t, metrics, "momentum")

	prices := sub(t, frame, "prices")
	assert.Equal(t, domain.WindowSlug(base+900), prices["slug"])

	// El siguiente frame llega dentro del intervalo de push.
	require.NoError(t, conn.ReadJSON(&frame))
}
