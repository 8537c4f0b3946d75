package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Load reads, strictly decodes and validates the config file.
// YAML and JSON are both accepted.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the startup-fatal parts of the config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Feed.URL) == "" {
		return fmt.Errorf("feed.url is required")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("channels: at least one category route is required")
	}
	for cat, raw := range c.Channels {
		if _, err := ParseTarget(raw); err != nil {
			return fmt.Errorf("channels.%s: %w", cat, err)
		}
	}
	for _, field := range []struct{ path, raw string }{
		{"windows.debounce", c.Windows.Debounce},
		{"windows.cosmetics_cooldown", c.Windows.CosmeticsCooldown},
		{"windows.merchant_suppress", c.Windows.MerchantSuppress},
		{"windows.weather_burst", c.Windows.WeatherBurst},
		{"feed.ping_interval", c.Feed.PingInterval},
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
	} {
		if _, err := ParseDuration(field.path, field.raw); err != nil {
			return err
		}
	}
	if len(c.Feed.Subscribe) > 0 && !json.Valid(c.Feed.Subscribe) {
		return fmt.Errorf("feed.subscribe: not valid JSON")
	}
	return nil
}

// ParseDuration parses a duration-valued config field such as "5s" or
// "240m". A blank field parses to zero, which callers treat as "unset".
func ParseDuration(path, raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(trimmed)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: bad duration %q: %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	return d, nil
}

// ParseDurationDefault substitutes def when the field is blank or zero.
func ParseDurationDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDuration(path, raw)
	if err != nil || d > 0 {
		return d, err
	}
	return def, nil
}

// DefaultAliases is the built-in synonym table. Config aliases are layered
// on top of it.
func DefaultAliases() map[string]string {
	return map[string]string{
		"egg":              "pets",
		"eggs":             "pets",
		"pet":              "pets",
		"pets":             "pets",
		"weather":          "weathers",
		"weathers":         "weathers",
		"cosmetic":         "cosmetics",
		"cosmetics":        "cosmetics",
		"seed":             "seeds",
		"seeds":            "seeds",
		"gear":             "gears",
		"gears":            "gears",
		"merchant":         "merchant",
		"travelingmerchant": "merchant",
	}
}

// AliasTable merges the built-in synonyms with config additions.
func (c *Config) AliasTable() map[string]string {
	out := DefaultAliases()
	for k, v := range c.Aliases {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// TrackedCategories returns the snapshot-tracked set.
func (c *Config) TrackedCategories() []string {
	if len(c.Tracked) > 0 {
		return c.Tracked
	}
	return []string{"seeds", "pets", "gears"}
}

// RoutedCategories returns every canonical category that can be announced:
// the alias-folded channel keys plus the merchant and weather categories,
// which have dedicated frame shapes rather than *_stock batches.
func (c *Config) RoutedCategories() []string {
	aliases := c.AliasTable()
	seen := map[string]struct{}{"merchant": {}, "weathers": {}}
	for cat := range c.Channels {
		k := strings.ToLower(strings.TrimSpace(cat))
		if canon, ok := aliases[k]; ok {
			k = canon
		}
		seen[k] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// coerceToJSONBytes converts YAML config to JSON bytes so we can re-use the
// strict JSON decoder (DisallowUnknownFields) for both formats.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}

	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
