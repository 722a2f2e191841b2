// Package icons maps ticker symbols to icon references and ships the icon set.
package icons

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

const (
	// PathPrefix is where the dashboard mounts Assets.
	PathPrefix = "/static/icons/"

	defaultFile = "generic.svg"

	// DefaultIcon is returned for symbols without a dedicated icon.
	DefaultIcon = PathPrefix + defaultFile
)

//go:embed assets/*.svg
var assets embed.FS

// symbols with a bundled icon, lower case. Every entry has assets/<symbol>.svg.
var known = map[string]struct{}{
	"ada": {}, "algo": {}, "atom": {}, "avax": {}, "bch": {}, "bnb": {}, "btc": {},
	"doge": {}, "dot": {}, "eos": {}, "etc": {}, "eth": {}, "link": {}, "ltc": {},
	"matic": {}, "neo": {}, "sol": {}, "trx": {}, "uni": {}, "usdt": {}, "vet": {},
	"xlm": {}, "xmr": {}, "xrp": {}, "xtz": {}, "zec": {},
}

// Resolve returns the icon reference for symbol or DefaultIcon. It never fails.
func Resolve(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if _, ok := known[s]; !ok {
		return DefaultIcon
	}
	return PathPrefix + s + ".svg"
}

// Assets returns the icon files keyed by the name Resolve puts after PathPrefix.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// "assets" is a literal embedded directory
		panic(err)
	}
	return sub
}

// Known lists symbols that have a dedicated icon, sorted.
func Known() []string {
	out := make([]string, 0, len(known))
	for s := range known {
		out = append(out, strings.ToUpper(s))
	}
	sort.Strings(out)
	return out
}
