// Package journal persists a record of every announcement the bot sends
// (or fails to send). It is optional: when disabled, Open returns (nil, nil)
// and callers skip journaling entirely.
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "growbot/pkg/logx"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the journal backend.
//
// Driver values:
//   - "file": dependency-free JSONL backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one announcement attempt.
// Keep it compact and schema-stable.
type Entry struct {
	At       time.Time `json:"at"`
	Category string    `json:"category"`
	Kind     string    `json:"kind"`
	Items    int       `json:"items,omitempty"`
	Chars    int       `json:"chars,omitempty"`
	Tags     int       `json:"tags,omitempty"`
	Deferred bool      `json:"deferred,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Store is the minimal persistence API used by the dispatcher.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
