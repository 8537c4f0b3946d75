package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const minimalJSON = `{
	"telegram": {"token": "123:abc"},
	"feed": {"url": "wss://feed.example/ws"},
	"channels": {"seeds": "-100123"}
}`

func TestLoadMinimalJSON(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeFile(t, "config.json", minimalJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.URL != "wss://feed.example/ws" || cfg.Telegram.Token != "123:abc" {
		t.Fatalf("fields lost: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
telegram:
  token: "123:abc"
feed:
  url: wss://feed.example/ws
  ping_interval: 15s
channels:
  seeds: "-100123:7"
windows:
  debounce: 3s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Windows.Debounce != "3s" || cfg.Feed.PingInterval != "15s" {
		t.Fatalf("yaml fields lost: %+v", cfg)
	}
	routes, err := cfg.Routes()
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	if r := routes["seeds"]; r.ChatID != -100123 || r.ThreadID != 7 {
		t.Fatalf("route wrong: %+v", r)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{
		"telegram": {"token": "123:abc"},
		"feed": {"url": "wss://x"},
		"channels": {"seeds": "-1"},
		"typo_field": true
	}`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "typo_field") {
		t.Fatalf("unknown field accepted: %v", err)
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", minimalJSON+`{"again": true}`)
	if _, err := Load(path); err == nil {
		t.Fatal("trailing data accepted")
	}
}

func TestValidateRequiredFields(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing feed url", `{"telegram": {"token": "t"}, "channels": {"seeds": "-1"}}`, "feed.url"},
		{"missing token", `{"feed": {"url": "wss://x"}, "channels": {"seeds": "-1"}}`, "telegram.token"},
		{"no channels", `{"telegram": {"token": "t"}, "feed": {"url": "wss://x"}}`, "channels"},
		{"bad route", `{"telegram": {"token": "t"}, "feed": {"url": "wss://x"}, "channels": {"seeds": "abc"}}`, "channels.seeds"},
		{"bad duration", `{"telegram": {"token": "t"}, "feed": {"url": "wss://x"}, "channels": {"seeds": "-1"}, "windows": {"debounce": "5 parsecs"}}`, "windows.debounce"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeFile(t, "config.json", tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateRejectsBrokenSubscribe(t *testing.T) {
	t.Parallel()
	c := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Feed:     FeedConfig{URL: "wss://x", Subscribe: []byte("{oops")},
		Channels: map[string]string{"seeds": "-1"},
	}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "feed.subscribe") {
		t.Fatalf("broken subscribe accepted: %v", err)
	}
}

func TestParseTarget(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		chat    int64
		thread  int
		wantErr bool
	}{
		{"-100123", -100123, 0, false},
		{"-100123:7", -100123, 7, false},
		{" 42 : 3 ", 42, 3, false},
		{"", 0, 0, true},
		{"0", 0, 0, true},
		{"abc", 0, 0, true},
		{"-1:x", 0, 0, true},
		{"-1:-2", 0, 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTarget(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseTarget(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTarget(%q): %v", tc.raw, err)
		}
		if got.ChatID != tc.chat || got.ThreadID != tc.thread {
			t.Fatalf("ParseTarget(%q) = %+v", tc.raw, got)
		}
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	if d, err := ParseDuration("p", "  "); err != nil || d != 0 {
		t.Fatalf("blank: %v, %v", d, err)
	}
	if d, err := ParseDuration("p", "2m30s"); err != nil || d != 2*time.Minute+30*time.Second {
		t.Fatalf("valid: %v, %v", d, err)
	}
	if _, err := ParseDuration("p", "-5s"); err == nil {
		t.Fatal("negative accepted")
	}
	if _, err := ParseDuration("p", "fast"); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestParseDurationDefault(t *testing.T) {
	t.Parallel()
	if d, _ := ParseDurationDefault("p", "", 5*time.Second); d != 5*time.Second {
		t.Fatalf("default not applied: %v", d)
	}
	if d, _ := ParseDurationDefault("p", "7s", 5*time.Second); d != 7*time.Second {
		t.Fatalf("explicit value lost: %v", d)
	}
}

func TestAliasTableLayering(t *testing.T) {
	t.Parallel()
	c := &Config{Aliases: map[string]string{"Honey": "cosmetics", "EGG": "eggs"}}
	table := c.AliasTable()
	if table["honey"] != "cosmetics" {
		t.Fatalf("config alias missing: %v", table["honey"])
	}
	if table["egg"] != "eggs" {
		t.Fatal("config alias should override the built-in")
	}
	if table["seed"] != "seeds" {
		t.Fatal("built-in alias lost")
	}
}

func TestRoutedCategories(t *testing.T) {
	t.Parallel()
	c := &Config{Channels: map[string]string{
		"seeds":    "-1",
		"Cosmetic": "-2",
		"egg":      "-3",
	}}
	got := c.RoutedCategories()
	want := []string{"cosmetics", "merchant", "pets", "seeds", "weathers"}
	if len(got) != len(want) {
		t.Fatalf("routed set: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("routed set: got %v, want %v", got, want)
		}
	}
}

func TestRoutesFoldAliases(t *testing.T) {
	t.Parallel()
	c := &Config{Channels: map[string]string{"Cosmetic": "-2:5"}}
	routes, err := c.Routes()
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	r, ok := routes["cosmetics"]
	if !ok || r.ChatID != -2 || r.ThreadID != 5 {
		t.Fatalf("cosmetics route missing or wrong: %v", routes)
	}
}

func TestTrackedCategoriesDefault(t *testing.T) {
	t.Parallel()
	c := &Config{}
	got := c.TrackedCategories()
	if len(got) != 3 || got[0] != "seeds" {
		t.Fatalf("default tracked set: %v", got)
	}
	c.Tracked = []string{"honey"}
	if got := c.TrackedCategories(); len(got) != 1 || got[0] != "honey" {
		t.Fatalf("explicit tracked set lost: %v", got)
	}
}
