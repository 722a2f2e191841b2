package coinserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/cointrack/internal/clients"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"go.uber.org/zap"
)

type handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler routes the coin service API onto store.
func NewHandler(store Store, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{store: store, logger: logger}

	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/api/coins").HandlerFunc(h.listCoins)
	r.Methods(http.MethodGet).Path("/api/coins/{symbol}").HandlerFunc(h.setCoin)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("up"))
	})
	return r
}

func (h *handler) listCoins(w http.ResponseWriter, r *http.Request) {
	coins, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list coins", zap.Error(err))
		http.Error(w, "failed to list coins", http.StatusInternalServerError)
		return
	}
	if coins == nil {
		coins = []domain.Coin{}
	}
	h.writeJSON(w, coins)
}

func (h *handler) setCoin(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(mux.Vars(r)["symbol"])
	enabled, err := clients.ParseEnable(r.URL.Query().Get("enable"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	coin, err := h.store.SetEnabled(r.Context(), symbol, enabled)
	if err != nil {
		if errors.Is(err, ErrUnknownCoin) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("set coin enabled", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, "failed to update coin", http.StatusInternalServerError)
		return
	}

	h.logger.Info("coin updated", zap.String("symbol", coin.Symbol), zap.Bool("enabled", coin.Enabled))
	h.writeJSON(w, coin)
}

func (h *handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}
