package setup

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"github.com/vadiminshakov/cointrack/internal/services/coinlist"
)

func TestRenderList(t *testing.T) {
	t.Run("one row per coin in order", func(t *testing.T) {
		out := RenderList(coinlist.Snapshot{
			Status: domain.LoadStatusLoaded,
			Coins:  []domain.Coin{{Symbol: "BTC", Enabled: true}, {Symbol: "ETH", Enabled: false}},
		})
		assert.Contains(t, out, "BTC")
		assert.Contains(t, out, "ETH")
		assert.Less(t, strings.Index(out, "BTC"), strings.Index(out, "ETH"))
		assert.Contains(t, out, "btc.svg")
	})

	t.Run("failed load is distinguishable from empty", func(t *testing.T) {
		failed := RenderList(coinlist.Snapshot{Status: domain.LoadStatusFailed, Err: errors.New("refused")})
		empty := RenderList(coinlist.Snapshot{Status: domain.LoadStatusLoaded})
		assert.Contains(t, failed, "refused")
		assert.Contains(t, empty, "no coins")
	})
}

func TestMenuOptions(t *testing.T) {
	opts := menuOptions(coinlist.Snapshot{Coins: []domain.Coin{{Symbol: "BTC", Enabled: true}}})
	if assert.Len(t, opts, 3) {
		assert.Equal(t, "BTC", opts[0].Value)
		assert.Equal(t, actionReload, opts[1].Value)
		assert.Equal(t, actionQuit, opts[2].Value)
	}
}
