// Package domain defines core data structures used throughout the coin tracker.
package domain

import "strings"

// Coin tracked ticker symbol with its tracking flag.
type Coin struct {
	Symbol  string `json:"symbol"`
	Enabled bool   `json:"enabled"`
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeSymbols returns a copy of coins with normalized symbols.
// Entries whose symbol is blank are dropped.
func NormalizeSymbols(coins []Coin) []Coin {
	out := make([]Coin, 0, len(coins))
	for _, c := range coins {
		sym := NormalizeSymbol(c.Symbol)
		if sym == "" {
			continue
		}
		out = append(out, Coin{Symbol: sym, Enabled: c.Enabled})
	}
	return out
}

// IndexOf returns the position of symbol in coins or -1.
func IndexOf(coins []Coin, symbol string) int {
	for i, c := range coins {
		if c.Symbol == symbol {
			return i
		}
	}
	return -1
}

// WithEnabled returns a copy of coins where the entry for symbol carries the given flag.
// The entry keeps its index. The input slice is never modified.
// ok is false when symbol is not in the list, in which case coins is returned as is.
func WithEnabled(coins []Coin, symbol string, enabled bool) (_ []Coin, ok bool) {
	idx := IndexOf(coins, symbol)
	if idx < 0 {
		return coins, false
	}

	next := make([]Coin, len(coins))
	copy(next, coins)
	next[idx] = Coin{Symbol: symbol, Enabled: enabled}

	return next, true
}

// Dedup drops repeated symbols keeping the first occurrence, preserving order.
func Dedup(coins []Coin) []Coin {
	seen := make(map[string]struct{}, len(coins))
	out := make([]Coin, 0, len(coins))
	for _, c := range coins {
		if _, dup := seen[c.Symbol]; dup {
			continue
		}
		seen[c.Symbol] = struct{}{}
		out = append(out, c)
	}
	return out
}
