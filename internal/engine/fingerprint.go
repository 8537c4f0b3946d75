package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"growbot/internal/payload"
)

// Fingerprints are order-independent equality digests: two item lists with
// the same (name, quantity) multiset always hash identically, regardless of
// arrival order. Timestamps deliberately do not participate.

type itemKV struct {
	N string `json:"n"`
	Q int    `json:"q"`
}

// FingerprintItems digests a stock batch.
func FingerprintItems(items []payload.StockItem) string {
	norm := make([]itemKV, 0, len(items))
	for _, it := range items {
		norm = append(norm, itemKV{N: strings.TrimSpace(it.Name), Q: it.Qty})
	}
	sort.Slice(norm, func(i, j int) bool {
		a, b := norm[i], norm[j]
		al, bl := strings.ToLower(a.N), strings.ToLower(b.N)
		if al != bl {
			return al < bl
		}
		if a.Q != b.Q {
			return a.Q < b.Q
		}
		return a.N < b.N
	})
	return hashJSON(norm)
}

type weatherKV struct {
	ID  string `json:"id"`
	End int64  `json:"end"`
}

// FingerprintWeather digests an active-condition batch over (raw id, end)
// pairs, so a condition extending its end time counts as a change.
func FingerprintWeather(recs []payload.WeatherRecord) string {
	norm := make([]weatherKV, 0, len(recs))
	for _, r := range recs {
		norm = append(norm, weatherKV{ID: r.RawID, End: r.End})
	}
	sort.Slice(norm, func(i, j int) bool {
		a, b := norm[i], norm[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.End < b.End
	})
	return hashJSON(norm)
}

// DigestPayload digests an arbitrary decoded-JSON value. encoding/json
// writes map keys in sorted order, which makes the encoding canonical.
func DigestPayload(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("digest payload: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func hashJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with non-encodable inputs, which the normalized
		// forms above never produce.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
