// Package telegram adapts the generic transport.Sink to the Telegram Bot
// API via telebot. Outbound sends share one rate limiter so announcement
// bursts stay inside API etiquette.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"

	kit "growbot/internal/transport"
	logx "growbot/pkg/logx"
)

type Config struct {
	Token        string
	PollTimeout  time.Duration // long-poll timeout; 0 means 10s
	RatePerSec   int           // outbound send cap; 0 means 1/s
	OwnerUserIDs []int64       // users allowed to run operator commands
}

type Adapter struct {
	cfg Config
	log logx.Logger

	bot *tele.Bot
	lim *rate.Limiter

	runMu   sync.Mutex
	running bool
	stopped chan struct{}
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Adapter{
		cfg: cfg,
		log: log,
		bot: b,
		lim: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Start begins long-polling for incoming updates (operator commands).
// The poll loop stops when ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return
	}
	a.running = true
	a.stopped = make(chan struct{})
	stopped := a.stopped
	a.runMu.Unlock()

	go func() {
		<-ctx.Done()
		a.bot.Stop()
	}()
	go func() {
		defer close(stopped)
		a.log.Info("telegram: polling started")
		a.bot.Start()
		a.log.Info("telegram: polling stopped")
	}()
}

// Stop waits for the poll loop to exit, bounded by ctx.
func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	running := a.running
	a.running = false
	stopped := a.stopped
	a.runMu.Unlock()
	if !running {
		return nil
	}

	go a.bot.Stop()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		a.log.Warn("telegram: stop timed out", logx.Err(ctx.Err()))
		return nil
	}
}

const textLimit = 4000

// SendText implements transport.Sink. Long texts are split on newline
// boundaries; mentions not already present in the text are appended as a
// trailing line so the audience still gets pinged.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if missing := missingMentions(text, opt.Mentions); missing != "" {
		text = text + "\n" + missing
	}

	chat := &tele.Chat{ID: to.ChatID}
	for _, chunk := range splitText(text, textLimit, opt.ParseMode) {
		if err := a.lim.Wait(ctx); err != nil {
			return err
		}
		_, err := a.bot.Send(chat, chunk, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SendDocument implements transport.Sink.
func (a *Adapter) SendDocument(ctx context.Context, to kit.ChatTarget, filename string, data []byte, caption string) error {
	if err := a.lim.Wait(ctx); err != nil {
		return err
	}
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: filename,
		Caption:  caption,
	}
	_, err := a.bot.Send(&tele.Chat{ID: to.ChatID}, doc, &tele.SendOptions{ThreadID: to.ThreadID})
	return err
}

// missingMentions returns a space-joined line of mentions absent from text.
func missingMentions(text string, mentions []string) string {
	var out []string
	for _, m := range mentions {
		if m == "" || strings.Contains(text, m) {
			continue
		}
		out = append(out, m)
	}
	return strings.Join(out, " ")
}

// splitText splits long messages into chunks safe to send to Telegram.
// It prefers newline boundaries and (best-effort) avoids splitting inside
// HTML tags when the parse mode is HTML.
func splitText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			cut := -1
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					cut = i + 1
					break
				}
			}
			if cut != -1 {
				end = cut
			}
		}

		// Don't split inside a tag for HTML parse mode.
		if strings.EqualFold(parseMode, "HTML") && end < len(rs) {
			lastOpen, lastClose := -1, -1
			for i := start; i < end; i++ {
				switch rs[i] {
				case '<':
					lastOpen = i
				case '>':
					lastClose = i
				}
			}
			if lastOpen > lastClose && lastOpen > start+1 {
				end = lastOpen
			}
		}

		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		out = append(out, chunk)

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
