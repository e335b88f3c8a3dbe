package domain

// Bar is one already-fetched market data bar. The engine only reads
// bars through the bar source interface; fetching and caching them is
// a separate system's concern.
type Bar struct {
	Symbol    string
	Interval  string  // e.g. "1m", "5m"
	Timestamp int64   // bar open time, unix ms
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
