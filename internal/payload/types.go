// Package payload turns raw feed frames into typed domain events.
//
// Everything here is a pure mapping: no state is read or written, unknown
// fields are ignored, and field values are resolved through small fallback
// chains because the upstream feed is not consistent about key names.
package payload

// StockItem is one item of a stock batch. TS is a unix timestamp (0 = unset).
type StockItem struct {
	Name string
	Qty  int
	TS   int64
}

// StockBatch is a full snapshot of one category's stock.
type StockBatch struct {
	Category string
	Items    []StockItem
}

// MerchantOffer is the rotating merchant's current inventory.
// Name may be empty when the feed reports the merchant slot without one.
type MerchantOffer struct {
	Name  string
	Items []StockItem
}

// WeatherRecord is one active time-limited condition.
type WeatherRecord struct {
	RawID string // feed identifier, stable across frames
	Name  string // repaired display name

	// Remaining seconds, clamped to >= 0. HasRemaining is false when the
	// feed gave neither an end epoch nor a start+duration pair.
	Remaining    int64
	HasRemaining bool

	End  int64 // unix end epoch (0 = unknown)
	Icon string
}

// ItemUpdate is a single-item stock change outside a full batch.
type ItemUpdate struct {
	Category string
	Item     string
	Fields   map[string]any
}

// Frame is the normalized view of one raw feed frame.
// HasWeather distinguishes "weather key absent" from "no active weathers".
type Frame struct {
	Batches    []StockBatch
	Merchant   *MerchantOffer
	Weather    []WeatherRecord
	HasWeather bool
	Updates    []ItemUpdate
}
