package config

import (
	"fmt"
	"strconv"
	"strings"

	"growbot/internal/transport"
)

// ParseTarget parses a "chatID" or "chatID:threadID" route value.
func ParseTarget(raw string) (transport.ChatTarget, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return transport.ChatTarget{}, fmt.Errorf("empty chat target")
	}
	chatPart, threadPart, hasThread := strings.Cut(s, ":")
	chatID, err := strconv.ParseInt(strings.TrimSpace(chatPart), 10, 64)
	if err != nil || chatID == 0 {
		return transport.ChatTarget{}, fmt.Errorf("invalid chat id %q", chatPart)
	}
	t := transport.ChatTarget{ChatID: chatID}
	if hasThread {
		th, err := strconv.Atoi(strings.TrimSpace(threadPart))
		if err != nil || th < 0 {
			return transport.ChatTarget{}, fmt.Errorf("invalid thread id %q", threadPart)
		}
		t.ThreadID = th
	}
	return t, nil
}

// Routes parses the channels block into chat targets keyed by canonical
// category. Keys are alias-folded so a "cosmetic" route serves the
// "cosmetics" category.
func (c *Config) Routes() (map[string]transport.ChatTarget, error) {
	aliases := c.AliasTable()
	out := make(map[string]transport.ChatTarget, len(c.Channels))
	for cat, raw := range c.Channels {
		t, err := ParseTarget(raw)
		if err != nil {
			return nil, fmt.Errorf("channels.%s: %w", cat, err)
		}
		k := strings.ToLower(strings.TrimSpace(cat))
		if canon, ok := aliases[k]; ok {
			k = canon
		}
		out[k] = t
	}
	return out, nil
}
