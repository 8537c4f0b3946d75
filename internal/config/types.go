package config

import "encoding/json"

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Feed     FeedConfig     `json:"feed"`

	// Channels routes canonical category names to chat targets.
	// Values are "chatID" or "chatID:threadID".
	Channels map[string]string `json:"channels"`

	// Aliases adds synonym -> canonical category folds on top of the
	// built-in table (egg->pets, weather->weathers, ...).
	Aliases map[string]string `json:"aliases,omitempty"`

	// Tracked lists the categories that keep an announced snapshot and get
	// single-change debouncing. Defaults to seeds, pets, gears.
	Tracked []string `json:"tracked,omitempty"`

	Windows  WindowsConfig  `json:"windows"`
	Mentions MentionsConfig `json:"mentions"`
	Ordering OrderingConfig `json:"ordering"`
	Debug    DebugConfig    `json:"debug"`
	Logging  LoggingConfig  `json:"logging"`
	Journal  *JournalConfig `json:"journal,omitempty"`
	Health   HealthConfig   `json:"health"`
	Status   StatusConfig   `json:"status"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
	// RatePerSec caps outbound sends (Telegram API etiquette).
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// FeedConfig describes the upstream websocket endpoint.
//
// URL is required; starting without it is a configuration error.
// Subscribe, when present, is sent verbatim as one JSON frame right after
// connecting.
type FeedConfig struct {
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	Subscribe json.RawMessage   `json:"subscribe,omitempty"`
	// PingInterval is a Go duration string. Default "20s", "0s" disables.
	PingInterval string `json:"ping_interval,omitempty"`
}

// WindowsConfig tunes the suppression windows.
// All fields are Go duration strings; zero values take the documented defaults.
type WindowsConfig struct {
	Debounce          string `json:"debounce,omitempty"`           // default "5s"
	CosmeticsCooldown string `json:"cosmetics_cooldown,omitempty"` // default "240m"
	MerchantSuppress  string `json:"merchant_suppress,omitempty"`  // default "30m"
	WeatherBurst      string `json:"weather_burst,omitempty"`      // default "10s"
}

type MentionsConfig struct {
	Enabled bool `json:"enabled"`
	// Prefixes holds per-category audience-tag prefixes tried by the resolver.
	Prefixes map[string]string `json:"prefixes,omitempty"`
	// Tags maps slugged display names to audience tags (e.g. "@carrot_crew").
	Tags map[string]string `json:"tags,omitempty"`
	// EventAudience is the audience name used for the special weather-id set.
	EventAudience string `json:"event_audience,omitempty"`
}

type OrderingConfig struct {
	// Path of the JSON ordering file ({"seeds": ["Carrot", ...], ...}).
	Path string `json:"path,omitempty"`
	// Fallback supplies per-category orderings used when the file has none.
	Fallback map[string][]string `json:"fallback,omitempty"`
}

type DebugConfig struct {
	// CapturePayload retains the most recent raw frame for the /payload
	// command. Off by default.
	CapturePayload bool `json:"capture_payload"`
	// Channel restricts /payload to one chat ("chatID" or "chatID:threadID").
	Channel string `json:"channel,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	Target     string `json:"target,omitempty"` // "chatID" or "chatID:threadID"
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// JournalConfig controls the optional announcement journal.
//
// Driver values:
//   - "file": dependency-free JSONL backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If the section is omitted or Driver is empty/"none", the journal is disabled.
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type HealthConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default "127.0.0.1:10000"
	Pprof   bool   `json:"pprof,omitempty"`
}

type StatusConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron spec (5 or 6 fields) or descriptor like "@hourly".
	Schedule string `json:"schedule,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
