package domain

// LoadStatus stage of the coin list load.
type LoadStatus string

const (
	// LoadStatusIdle list was never requested.
	LoadStatusIdle LoadStatus = "idle"
	// LoadStatusLoading fetch is in flight.
	LoadStatusLoading LoadStatus = "loading"
	// LoadStatusLoaded last fetch succeeded.
	LoadStatusLoaded LoadStatus = "loaded"
	// LoadStatusFailed last fetch failed, Err holds the cause.
	LoadStatusFailed LoadStatus = "failed"
)

// String returns the string representation.
func (s LoadStatus) String() string {
	return string(s)
}

// LoadResult outcome of the most recent list fetch.
// A failed load and a successfully loaded empty list are distinguishable by Status.
type LoadResult struct {
	Status LoadStatus
	Coins  []Coin
	Err    error
}

// Failed reports whether the last fetch failed.
func (r LoadResult) Failed() bool {
	return r.Status == LoadStatusFailed
}
