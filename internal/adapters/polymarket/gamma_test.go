package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/updownbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSlug = "btc-updown-15m-1756100700"

func newTestClient(clobSrv, gammaSrv *httptest.Server) *polymarket.Client {
	clobURL := ""
	gammaURL := ""
	if clobSrv != nil {
		clobURL = clobSrv.URL
	}
	if gammaSrv != nil {
		gammaURL = gammaSrv.URL
	}
	return polymarket.NewClient(clobURL, gammaURL)
}

func TestFetchWindow_FromEvents(t *testing.T) {
	fixture := `[{
		"slug": "` + testSlug + `",
		"markets": [{
			"slug": "` + testSlug + `",
			"conditionId": "0xcond1",
			"tokens": [
				{"token_id": "tok_up", "outcome": "Up"},
				{"token_id": "tok_down", "outcome": "Down"}
			]
		}]
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, testSlug, r.URL.Query().Get("slug"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	require.NotNil(t, win)
	assert.Equal(t, testSlug, win.Slug)
	assert.Equal(t, "0xcond1", win.ConditionID)
	assert.Equal(t, "tok_up", win.UpTokenID)
	assert.Equal(t, "tok_down", win.DownTokenID)
	assert.Equal(t, time.Unix(1756100700, 0).UTC(), win.StartTime)
	assert.Equal(t, 15*time.Minute, win.EndTime.Sub(win.StartTime))
	assert.Nil(t, win.Winner)
}

func TestFetchWindow_FallbackToMarkets(t *testing.T) {
	// clobTokenIds y outcomes como strings con JSON embebido, la forma
	// habitual del endpoint /markets
	fixture := `[{
		"slug": "` + testSlug + `",
		"condition_id": "0xcond2",
		"outcomes": "[\"Up\", \"Down\"]",
		"clobTokenIds": "[\"tok_up\", \"tok_down\"]"
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/events":
			w.Write([]byte(`[]`))
		case "/markets":
			assert.Equal(t, testSlug, r.URL.Query().Get("slug"))
			w.Write([]byte(fixture))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	require.NotNil(t, win)
	assert.Equal(t, "0xcond2", win.ConditionID)
	assert.Equal(t, "tok_up", win.UpTokenID)
	assert.Equal(t, "tok_down", win.DownTokenID)
}

func TestFetchWindow_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	assert.Nil(t, win)
}

func TestFetchWindow_MissingDownToken(t *testing.T) {
	fixture := `[{
		"slug": "` + testSlug + `",
		"markets": [{
			"conditionId": "0xcond3",
			"tokens": [{"token_id": "tok_up", "outcome": "Up"}]
		}]
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	assert.Nil(t, win)
}

func TestFetchWindow_ResolvedWinner(t *testing.T) {
	fixture := `[{
		"markets": [{
			"conditionId": "0xcond4",
			"outcomes": "[\"Up\", \"Down\"]",
			"outcomePrices": "[\"1\", \"0\"]",
			"clobTokenIds": "[\"tok_up\", \"tok_down\"]",
			"closed": true
		}]
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	require.NotNil(t, win)
	require.NotNil(t, win.Winner)
	assert.Equal(t, domain.OutcomeUp, *win.Winner)
}

func TestFetchWindow_WinnerSecondPosition(t *testing.T) {
	fixture := `[{
		"markets": [{
			"conditionId": "0xcond5",
			"outcomes": "[\"Up\", \"Down\"]",
			"outcomePrices": "[\"0\", \"1\"]",
			"clobTokenIds": "[\"tok_up\", \"tok_down\"]"
		}]
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	require.NotNil(t, win)
	require.NotNil(t, win.Winner)
	assert.Equal(t, domain.OutcomeDown, *win.Winner)
}

func TestFetchWindow_UnresolvedPrices(t *testing.T) {
	fixture := `[{
		"markets": [{
			"conditionId": "0xcond6",
			"outcomes": "[\"Up\", \"Down\"]",
			"outcomePrices": "[\"0.42\", \"0.58\"]",
			"clobTokenIds": "[\"tok_up\", \"tok_down\"]"
		}]
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	require.NotNil(t, win)
	assert.Nil(t, win.Winner)
}

func TestFetchWindow_MalformedFlexFields(t *testing.T) {
	// outcomes numérico y clobTokenIds con JSON roto: el parser de campos
	// los deja vacíos y el mercado queda descartado sin reventar
	fixture := `[{
		"markets": [{
			"conditionId": "0xcond7",
			"outcomes": 12345,
			"clobTokenIds": "[not json"
		}]
	}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	win, err := client.FetchWindow(context.Background(), testSlug)

	require.NoError(t, err)
	assert.Nil(t, win)
}

func TestFetchWindow_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	_, err := client.FetchWindow(context.Background(), testSlug)
	assert.Error(t, err)
}
