package payload

import (
	"sort"
	"strings"
	"time"
)

const unknownName = "(unknown)"

const merchantKey = "travelingmerchant_stock"

// Normalizer maps raw frames to typed events for a fixed category set.
// It carries only immutable configuration and is safe for concurrent use.
type Normalizer struct {
	aliases map[string]string
	known   map[string]struct{}
}

// NewNormalizer builds a normalizer for the given alias table and the set
// of canonical categories that have routes. Batches for categories outside
// the set are dropped.
func NewNormalizer(aliases map[string]string, categories []string) *Normalizer {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return &Normalizer{aliases: aliases, known: known}
}

// MapCategory folds a raw category name through the alias table.
// Returns "" for empty input.
func (n *Normalizer) MapCategory(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if canon, ok := n.aliases[s]; ok {
		return canon
	}
	return s
}

// Frame normalizes one decoded feed frame. now anchors the remaining-time
// computation for weather records.
func (n *Normalizer) Frame(raw map[string]any, now time.Time) Frame {
	var out Frame
	if raw == nil {
		return out
	}

	for key, val := range raw {
		items, ok := val.([]any)
		if !ok || key == merchantKey || !strings.HasSuffix(key, "_stock") {
			continue
		}
		base := strings.TrimSuffix(key, "_stock")
		base = strings.TrimRight(base, "s")
		cat := n.MapCategory(base)
		if _, ok := n.known[cat]; !ok {
			continue
		}
		out.Batches = append(out.Batches, StockBatch{Category: cat, Items: normalizeItems(items)})
	}

	if tm, ok := raw[merchantKey].(map[string]any); ok {
		offer := &MerchantOffer{
			Name: strings.TrimSpace(firstString(tm, "merchantName", "merchant_name")),
		}
		if items, ok := tm["stock"].([]any); ok {
			offer.Items = normalizeItems(items)
		}
		out.Merchant = offer
	}

	if arr, ok := raw["weather"].([]any); ok {
		out.HasWeather = true
		out.Weather = normalizeWeather(arr, now)
	}

	if upd, ok := raw["item_update"].(map[string]any); ok {
		cat := n.MapCategory(firstString(upd, "category"))
		item := strings.TrimSpace(firstString(upd, "item", "item_id", "name"))
		if _, known := n.known[cat]; known && item != "" {
			out.Updates = append(out.Updates, ItemUpdate{Category: cat, Item: item, Fields: upd})
		}
	}

	return out
}

func normalizeItems(items []any) []StockItem {
	out := make([]StockItem, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(m, "display_name", "item_id", "name")
		if name == "" {
			name = unknownName
		}
		qty, _ := firstNumber(m, "quantity", "stock", "amount", "qty")
		ts, _ := firstNumber(m, "Date_Start", "Date_Start_ISO", "ts", "start_date_unix")
		out = append(out, StockItem{Name: name, Qty: int(qty), TS: int64(ts)})
	}
	return out
}

func normalizeWeather(arr []any, now time.Time) []WeatherRecord {
	nowUnix := now.Unix()
	out := make([]WeatherRecord, 0, len(arr))
	for _, el := range arr {
		w, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if active, _ := w["active"].(bool); !active {
			continue
		}
		rawID := firstString(w, "weather_name", "weather_id")
		if rawID == "" {
			rawID = unknownName
		}
		rec := WeatherRecord{
			RawID: rawID,
			Name:  RepairWeatherName(rawID),
			Icon:  firstString(w, "icon", "image", "thumbnail"),
		}

		end, hasEnd := firstNumber(w, "end_duration_unix")
		start, hasStart := firstNumber(w, "start_duration_unix")
		dur, hasDur := firstNumber(w, "duration")
		switch {
		case hasEnd && end > 0:
			rec.End = int64(end)
			rec.Remaining = clampSeconds(int64(end) - nowUnix)
			rec.HasRemaining = true
		case hasDur && hasStart && start > 0:
			rec.End = int64(start + dur)
			rec.Remaining = clampSeconds(int64(start+dur) - nowUnix)
			rec.HasRemaining = true
		}

		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func clampSeconds(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// firstString walks the fallback chain and returns the first non-empty
// string value.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstNumber walks the fallback chain and returns the first numeric value.
// JSON numbers decode as float64; anything else does not count.
func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}
