// Package status posts a periodic operational summary (frames consumed,
// announcements sent, suppressions, reconnects) to a chat target.
package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"growbot/internal/transport"
	logx "growbot/pkg/logx"
)

// Stats supplies the counters rendered into each report. All funcs must
// be safe for concurrent use.
type Stats struct {
	Frames     func() uint64
	Emissions  func() uint64
	Suppressed func() uint64
	Sent       func() uint64
	Failed     func() uint64
	Reconnects func() uint64
}

type Config struct {
	// Schedule is a cron spec (5 or 6 fields) or a descriptor like
	// "@hourly". Empty means "@hourly".
	Schedule string
	Timezone string
	Target   transport.ChatTarget
}

type Reporter struct {
	sink  transport.Sink
	stats Stats
	log   logx.Logger

	target  transport.ChatTarget
	started time.Time

	c *cron.Cron
}

func NewReporter(cfg Config, sink transport.Sink, stats Stats, log logx.Logger) (*Reporter, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = "@hourly"
	}

	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("status timezone: %w", err)
		}
		loc = l
	}

	r := &Reporter{
		sink:    sink,
		stats:   stats,
		log:     log.With(logx.String("comp", "status")),
		target:  cfg.Target,
		started: time.Now(),
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	r.c = cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	if _, err := r.c.AddFunc(schedule, r.report); err != nil {
		return nil, fmt.Errorf("status schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Reporter) Start() { r.c.Start() }

// Stop halts the schedule and waits for an in-flight report, bounded by ctx.
func (r *Reporter) Stop(ctx context.Context) {
	done := r.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (r *Reporter) report() {
	text := r.render()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.sink.SendText(ctx, r.target, text, &transport.SendOptions{ParseMode: "HTML"}); err != nil {
		r.log.Warn("report send failed", logx.Err(err))
	}
}

func (r *Reporter) render() string {
	read := func(f func() uint64) uint64 {
		if f == nil {
			return 0
		}
		return f()
	}
	up := time.Since(r.started).Round(time.Second)
	var b strings.Builder
	b.WriteString("<b>Status report</b>\n")
	fmt.Fprintf(&b, "• uptime: %s\n", up)
	fmt.Fprintf(&b, "• frames: %d\n", read(r.stats.Frames))
	fmt.Fprintf(&b, "• announced: %d (engine %d, suppressed %d)\n",
		read(r.stats.Sent), read(r.stats.Emissions), read(r.stats.Suppressed))
	fmt.Fprintf(&b, "• send failures: %d\n", read(r.stats.Failed))
	fmt.Fprintf(&b, "• feed reconnects: %d", read(r.stats.Reconnects))
	return b.String()
}
