package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/cointrack/internal/clients"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"github.com/vadiminshakov/cointrack/internal/services/coinlist"
	"github.com/vadiminshakov/cointrack/internal/services/icons"
	"github.com/vadiminshakov/cointrack/internal/storage/toggles"
	"go.uber.org/zap"
)

type stubService struct {
	mu       sync.Mutex
	coins    []domain.Coin
	fetchErr error
	setErr   error
}

func (s *stubService) FetchCoins(ctx context.Context) ([]domain.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]domain.Coin(nil), s.coins...), nil
}

func (s *stubService) SetCoinEnabled(ctx context.Context, symbol string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setErr
}

func newTestServer(t *testing.T, svc *stubService) (*coinlist.Synchronizer, *httptest.Server) {
	t.Helper()
	syncer := coinlist.NewSynchronizer(svc, zap.NewNop())
	syncer.Initialize(context.Background())
	srv := httptest.NewServer(NewServer("", syncer, nil, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return syncer, srv
}

func decodeState(t *testing.T, resp *http.Response) stateView {
	t.Helper()
	defer resp.Body.Close()
	var v stateView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_State(t *testing.T) {
	_, srv := newTestServer(t, &stubService{coins: []domain.Coin{{Symbol: "BTC", Enabled: false}, {Symbol: "NOPE", Enabled: true}}})

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	v := decodeState(t, resp)
	assert.Equal(t, "loaded", v.State)
	require.Len(t, v.Coins, 2)
	assert.Equal(t, coinView{Symbol: "BTC", Enabled: false, Icon: "/static/icons/btc.svg"}, v.Coins[0])
	assert.Equal(t, "/static/icons/generic.svg", v.Coins[1].Icon)
}

func TestServer_Toggle(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setErr     error
		wantStatus int
		wantCoins  []domain.Coin
	}{
		{
			name:       "success",
			path:       "/api/coins/BTC?enable=true",
			wantStatus: http.StatusOK,
			wantCoins:  []domain.Coin{{Symbol: "BTC", Enabled: true}, {Symbol: "ETH", Enabled: true}},
		},
		{
			name:       "transport error",
			path:       "/api/coins/ETH?enable=false",
			setErr:     &clients.TransportError{Op: "set coin enabled", URL: "x", Err: errors.New("refused")},
			wantStatus: http.StatusBadGateway,
			wantCoins:  []domain.Coin{{Symbol: "BTC", Enabled: false}, {Symbol: "ETH", Enabled: true}},
		},
		{
			name:       "unknown coin",
			path:       "/api/coins/DOGE?enable=true",
			wantStatus: http.StatusNotFound,
			wantCoins:  []domain.Coin{{Symbol: "BTC", Enabled: false}, {Symbol: "ETH", Enabled: true}},
		},
		{
			name:       "bad flag",
			path:       "/api/coins/BTC?enable=maybe",
			wantStatus: http.StatusBadRequest,
			wantCoins:  []domain.Coin{{Symbol: "BTC", Enabled: false}, {Symbol: "ETH", Enabled: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				coins:  []domain.Coin{{Symbol: "BTC", Enabled: false}, {Symbol: "ETH", Enabled: true}},
				setErr: tt.setErr,
			}
			syncer, srv := newTestServer(t, svc)

			resp, err := http.Post(srv.URL+tt.path, "", nil)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCoins, syncer.Coins())
		})
	}

	t.Run("get is not allowed", func(t *testing.T) {
		_, srv := newTestServer(t, &stubService{coins: []domain.Coin{{Symbol: "BTC"}}})
		resp, err := http.Get(srv.URL + "/api/coins/BTC?enable=true")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestServer_Reload(t *testing.T) {
	svc := &stubService{fetchErr: errors.New("down")}
	_, srv := newTestServer(t, svc)

	resp, err := http.Post(srv.URL+"/api/reload", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	v := decodeState(t, resp)
	assert.Equal(t, "failed", v.State)
	assert.Equal(t, "down", v.Error)
	assert.Empty(t, v.Coins)

	svc.mu.Lock()
	svc.fetchErr = nil
	svc.coins = []domain.Coin{{Symbol: "ETH", Enabled: true}}
	svc.mu.Unlock()

	resp, err = http.Post(srv.URL+"/api/reload", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeState(t, resp)
	assert.Equal(t, "loaded", v.State)
	assert.Len(t, v.Coins, 1)
}

func TestServer_Pages(t *testing.T) {
	_, srv := newTestServer(t, &stubService{coins: []domain.Coin{{Symbol: "ETH", Enabled: true}}})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/coins")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `data-symbol="ETH"`)
	assert.Contains(t, body.String(), "/static/icons/eth.svg")

	resp, err = http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Stream(t *testing.T) {
	svc := &stubService{coins: []domain.Coin{{Symbol: "BTC", Enabled: false}}}
	syncer, srv := newTestServer(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/coins/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	next := func() stateView {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				var v stateView
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &v))
				return v
			}
		}
	}

	first := next()
	assert.False(t, first.Coins[0].Enabled)

	require.NoError(t, syncer.Toggle(context.Background(), "BTC", true))
	second := next()
	assert.True(t, second.Coins[0].Enabled)
	assert.Greater(t, second.Version, first.Version)
}

func TestServer_Icons(t *testing.T) {
	_, srv := newTestServer(t, &stubService{})

	for _, path := range []string{icons.Resolve("BTC"), icons.Resolve("doesnotexist"), icons.DefaultIcon} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
		})
	}

	resp, err := http.Get(srv.URL + icons.PathPrefix + "nope.svg")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// newJournaledServer wires a synchronizer that records into a real journal.
func newJournaledServer(t *testing.T, svc *stubService) (*coinlist.Synchronizer, *toggles.Journal, *httptest.Server) {
	t.Helper()
	journal, err := toggles.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	syncer := coinlist.NewSynchronizer(svc, zap.NewNop(), coinlist.WithRecorder(journal))
	syncer.Initialize(context.Background())

	server := NewServer("", syncer, journal, zap.NewNop())
	server.pollInterval = 10 * time.Millisecond
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return syncer, journal, srv
}

func TestServer_RecentToggles(t *testing.T) {
	svc := &stubService{coins: []domain.Coin{{Symbol: "BTC"}, {Symbol: "ETH", Enabled: true}}}
	syncer, _, srv := newJournaledServer(t, svc)

	require.NoError(t, syncer.Toggle(context.Background(), "BTC", true))
	svc.mu.Lock()
	svc.setErr = &clients.TransportError{Op: "set coin enabled", URL: "x", Err: errors.New("refused")}
	svc.mu.Unlock()
	require.Error(t, syncer.Toggle(context.Background(), "ETH", false))

	get := func(query string) []domain.ToggleEvent {
		resp, err := http.Get(srv.URL + "/api/toggles" + query)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var events []domain.ToggleEvent
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		return events
	}

	all := get("")
	require.Len(t, all, 2)
	assert.Equal(t, "ETH", all[0].Symbol)
	assert.False(t, all[0].OK)
	assert.Equal(t, "BTC", all[1].Symbol)

	failed := get("?failed=true")
	require.Len(t, failed, 1)
	assert.Equal(t, "ETH", failed[0].Symbol)

	assert.Len(t, get("?limit=1"), 1)

	resp, err := http.Get(srv.URL + "/api/toggles?limit=-3")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RecentTogglesWithoutJournal(t *testing.T) {
	_, srv := newTestServer(t, &stubService{})

	resp, err := http.Get(srv.URL + "/api/toggles")
	require.NoError(t, err)
	defer resp.Body.Close()
	var events []domain.ToggleEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestServer_StreamToggleEvents(t *testing.T) {
	svc := &stubService{coins: []domain.Coin{{Symbol: "BTC"}, {Symbol: "ETH", Enabled: true}}}
	syncer, journal, srv := newJournaledServer(t, svc)

	// recorded before connecting, must not be replayed
	require.NoError(t, syncer.Toggle(context.Background(), "BTC", false))
	require.Equal(t, uint64(1), journal.LastIndex())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/coins/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	nextEvent := func() (string, string) {
		var name string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			case strings.HasPrefix(line, "data: ") && name != "":
				return name, strings.TrimPrefix(line, "data: ")
			}
		}
	}

	name, _ := nextEvent()
	require.Equal(t, "coins", name)

	require.NoError(t, syncer.Toggle(context.Background(), "BTC", true))
	svc.mu.Lock()
	svc.setErr = &clients.TransportError{Op: "set coin enabled", URL: "x", Err: errors.New("refused")}
	svc.mu.Unlock()
	require.Error(t, syncer.Toggle(context.Background(), "ETH", false))

	var got []domain.ToggleEvent
	for len(got) < 2 {
		name, data := nextEvent()
		if name != "toggle" {
			continue
		}
		var ev domain.ToggleEvent
		require.NoError(t, json.Unmarshal([]byte(data), &ev))
		got = append(got, ev)
	}

	assert.Equal(t, "BTC", got[0].Symbol)
	assert.True(t, got[0].OK)
	assert.Equal(t, "ETH", got[1].Symbol)
	assert.False(t, got[1].OK)
	assert.Contains(t, got[1].Error, "refused")
}
