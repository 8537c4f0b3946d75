package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"growbot/internal/journal"
	kit "growbot/internal/transport"
	logx "growbot/pkg/logx"
)

// Commands wires the operator commands into the bot.
type Commands struct {
	// Payload returns the most recent raw feed frame, or nil when capture
	// is disabled or nothing arrived yet.
	Payload func() []byte
	// PayloadChannel, when non-zero, restricts /payload to that chat.
	PayloadChannel kit.ChatTarget
	// Journal backs /history; nil disables it.
	Journal journal.Store
}

// RegisterCommands installs /payload and /history. Both are owner-gated:
// with no owners configured, every request is denied.
func (a *Adapter) RegisterCommands(cmds Commands) {
	a.bot.Handle("/payload", func(c tele.Context) error {
		m := c.Message()
		if m == nil || !a.isOwner(m.Sender) {
			return nil
		}
		if cmds.PayloadChannel.ChatID != 0 && m.Chat.ID != cmds.PayloadChannel.ChatID {
			return nil
		}
		if cmds.Payload == nil {
			return c.Send("Payload capture is disabled.")
		}
		data := cmds.Payload()
		if len(data) == 0 {
			return c.Send("No payload captured yet.")
		}
		to := kit.ChatTarget{ChatID: m.Chat.ID, ThreadID: m.ThreadID}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		name := "payload-" + time.Now().UTC().Format("20060102T150405") + ".json"
		if err := a.SendDocument(ctx, to, name, data, "Most recent feed frame"); err != nil {
			a.log.Warn("telegram: /payload upload failed", logx.Err(err))
		}
		return nil
	})

	a.bot.Handle("/history", func(c tele.Context) error {
		m := c.Message()
		if m == nil || !a.isOwner(m.Sender) {
			return nil
		}
		if cmds.Journal == nil {
			return c.Send("Journal is disabled.")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entries, err := cmds.Journal.Recent(ctx, 15)
		if err != nil {
			a.log.Warn("telegram: /history read failed", logx.Err(err))
			return c.Send("Journal read failed.")
		}
		return c.Send(formatHistory(entries))
	})
}

func (a *Adapter) isOwner(u *tele.User) bool {
	if u == nil {
		return false
	}
	for _, id := range a.cfg.OwnerUserIDs {
		if u.ID == id {
			return true
		}
	}
	return false
}

func formatHistory(entries []journal.Entry) string {
	if len(entries) == 0 {
		return "No announcements journaled yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last %d announcements:\n", len(entries))
	for _, e := range entries {
		status := "ok"
		if e.Error != "" {
			status = "FAILED"
		}
		note := ""
		if e.Deferred {
			note = " (deferred)"
		}
		fmt.Fprintf(&b, "%s %s/%s %d items %s%s\n",
			e.At.Format("15:04:05"), e.Category, e.Kind, e.Items, status, note)
	}
	return strings.TrimRight(b.String(), "\n")
}
