// Package app assembles the bot: config, logging, the Telegram adapter,
// the feed connector, the suppression engine, and the dispatch pipeline.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"growbot/internal/config"
	"growbot/internal/dispatch"
	"growbot/internal/engine"
	"growbot/internal/feed"
	"growbot/internal/format"
	"growbot/internal/health"
	"growbot/internal/journal"
	"growbot/internal/mention"
	"growbot/internal/payload"
	"growbot/internal/runtime/supervisor"
	"growbot/internal/status"
	"growbot/internal/transport"
	"growbot/internal/transport/telegram"
	logx "growbot/pkg/logx"
)

type App struct {
	cfg *config.Config

	logSvc *logx.Service
	log    logx.Logger

	adapter   *telegram.Adapter
	norm      *payload.Normalizer
	eng       *engine.Engine
	disp      *dispatch.Dispatcher
	conn      *feed.Connector
	ordering  *format.Ordering
	store     journal.Store // nil when disabled
	health    *health.Server
	reporter  *status.Reporter // nil when disabled
	sup       *supervisor.Supervisor

	frames      atomic.Uint64
	lastPayload atomic.Value // stores []byte
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}

	pollTimeout, err := config.ParseDurationDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	a.adapter, err = telegram.New(telegram.Config{
		Token:        cfg.Telegram.Token,
		PollTimeout:  pollTimeout,
		RatePerSec:   cfg.Telegram.RatePerSec,
		OwnerUserIDs: cfg.Telegram.OwnerUserIDs,
	}, logx.NewConsole(cfg.Logging.Level))
	if err != nil {
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	a.logSvc, a.log = logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Chat: logx.ChatConfig{
			Enabled:    cfg.Logging.Chat.Enabled,
			MinLevel:   cfg.Logging.Chat.MinLevel,
			RatePerSec: cfg.Logging.Chat.RatePerSec,
		},
	}, a.adapter)
	if cfg.Logging.Chat.Enabled {
		target, terr := config.ParseTarget(cfg.Logging.Chat.Target)
		if terr != nil {
			return nil, fmt.Errorf("logging.chat.target: %w", terr)
		}
		a.logSvc.SetChatTarget(target)
	}

	routes, err := cfg.Routes()
	if err != nil {
		return nil, err
	}

	if err := a.buildPipeline(routes); err != nil {
		return nil, err
	}
	if err := a.buildFeed(); err != nil {
		return nil, err
	}
	if err := a.buildOps(); err != nil {
		return nil, err
	}

	a.registerCommands()
	return a, nil
}

func (a *App) buildPipeline(routes map[string]transport.ChatTarget) error {
	var resolver format.Resolver
	if a.cfg.Mentions.Enabled {
		resolver = mention.NewStatic(mention.Config{
			Prefixes: a.cfg.Mentions.Prefixes,
			Tags:     a.cfg.Mentions.Tags,
		})
	}

	a.ordering = format.NewOrdering(a.cfg.Ordering.Path, a.cfg.Ordering.Fallback, nil,
		a.log.With(logx.String("comp", "ordering")))

	fmtr := format.New(format.Config{
		Mentions:      a.cfg.Mentions.Enabled,
		EventAudience: a.cfg.Mentions.EventAudience,
	}, a.ordering, resolver)

	if a.cfg.Journal != nil {
		busy, err := config.ParseDurationDefault("journal.busy_timeout", a.cfg.Journal.BusyTimeout, 0)
		if err != nil {
			return err
		}
		a.store, err = journal.Open(journal.Config{
			Driver:      a.cfg.Journal.Driver,
			Path:        a.cfg.Journal.Path,
			BusyTimeout: busy,
		}, a.log.With(logx.String("comp", "journal")))
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	a.disp = dispatch.New(a.adapter, routes, fmtr, a.store,
		a.log.With(logx.String("comp", "dispatch")))

	w := a.cfg.Windows
	debounce, err := config.ParseDurationDefault("windows.debounce", w.Debounce, 0)
	if err != nil {
		return err
	}
	cooldown, err := config.ParseDurationDefault("windows.cosmetics_cooldown", w.CosmeticsCooldown, 0)
	if err != nil {
		return err
	}
	suppress, err := config.ParseDurationDefault("windows.merchant_suppress", w.MerchantSuppress, 0)
	if err != nil {
		return err
	}
	burst, err := config.ParseDurationDefault("windows.weather_burst", w.WeatherBurst, 0)
	if err != nil {
		return err
	}
	a.eng = engine.New(engine.Config{
		Tracked:           a.cfg.TrackedCategories(),
		DebounceDelay:     debounce,
		CosmeticsCooldown: cooldown,
		MerchantSuppress:  suppress,
		WeatherBurst:      burst,
	}, a.disp.Emit, a.log.With(logx.String("comp", "engine")))

	a.norm = payload.NewNormalizer(a.cfg.AliasTable(), a.cfg.RoutedCategories())
	return nil
}

func (a *App) buildFeed() error {
	// An explicit "0s" disables pinging; only an unset field takes the
	// default.
	ping := 20 * time.Second
	if strings.TrimSpace(a.cfg.Feed.PingInterval) != "" {
		d, err := config.ParseDuration("feed.ping_interval", a.cfg.Feed.PingInterval)
		if err != nil {
			return err
		}
		ping = d
	}
	a.conn = feed.NewConnector(feed.Options{
		URL:          a.cfg.Feed.URL,
		Headers:      a.cfg.Feed.Headers,
		Subscribe:    a.cfg.Feed.Subscribe,
		PingInterval: ping,
	}, a.log.With(logx.String("comp", "feed")))
	return nil
}

func (a *App) buildOps() error {
	a.health = health.NewServer(a.log)

	if !a.cfg.Status.Enabled {
		return nil
	}
	target, err := config.ParseTarget(a.cfg.Status.Channel)
	if err != nil {
		return fmt.Errorf("status.channel: %w", err)
	}
	a.reporter, err = status.NewReporter(status.Config{
		Schedule: a.cfg.Status.Schedule,
		Timezone: a.cfg.Status.Timezone,
		Target:   target,
	}, a.adapter, status.Stats{
		Frames:     a.frames.Load,
		Emissions:  func() uint64 { return a.eng.Stats().Emissions },
		Suppressed: func() uint64 { return a.eng.Stats().Suppressed },
		Sent:       a.disp.Sent,
		Failed:     a.disp.Failed,
		Reconnects: a.conn.Reconnects,
	}, a.log)
	if err != nil {
		return err
	}
	return nil
}

func (a *App) registerCommands() {
	cmds := telegram.Commands{Journal: a.store}
	if a.cfg.Debug.CapturePayload {
		cmds.Payload = func() []byte {
			b, _ := a.lastPayload.Load().([]byte)
			return b
		}
	}
	if ch := strings.TrimSpace(a.cfg.Debug.Channel); ch != "" {
		if target, err := config.ParseTarget(ch); err == nil {
			cmds.PayloadChannel = target
		} else {
			a.log.Warn("debug.channel unparseable, gate disabled", logx.Err(err))
		}
	}
	a.adapter.RegisterCommands(cmds)
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, a.log)

	if a.cfg.Health.Enabled {
		a.health.Start(health.Config{Addr: a.cfg.Health.Addr, Pprof: a.cfg.Health.Pprof})
	}

	a.adapter.Start(a.sup.Context())

	if a.ordering != nil && strings.TrimSpace(a.cfg.Ordering.Path) != "" {
		a.sup.Go("ordering.watch", func(c context.Context) {
			if err := a.ordering.Watch(c); err != nil {
				a.log.Warn("ordering watch unavailable", logx.Err(err))
			}
		})
	}

	a.sup.Go("feed.connector", a.conn.Run)
	a.sup.Go("feed.consume", a.consume)

	if a.reporter != nil {
		a.reporter.Start()
	}

	a.log.Info("started",
		logx.String("feed", a.cfg.Feed.URL),
		logx.Int("routes", len(a.cfg.Channels)))
	return nil
}

// consume drains decoded frames, normalizes them, and feeds the engine.
func (a *App) consume(ctx context.Context) {
	for raw := range a.conn.Frames() {
		a.frames.Add(1)
		if a.cfg.Debug.CapturePayload {
			if b, err := json.Marshal(raw); err == nil {
				a.lastPayload.Store(b)
			}
		}
		fr := a.norm.Frame(raw, time.Now())
		a.eng.HandleFrame(ctx, fr)
	}
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")

	if a.reporter != nil {
		a.reporter.Stop(ctx)
	}
	if a.sup != nil {
		a.sup.Cancel()
		if err := a.sup.Wait(ctx); err != nil {
			a.log.Warn("workers did not stop in time", logx.Err(err))
		}
	}
	_ = a.adapter.Stop(ctx)
	a.eng.Stop()
	a.health.Stop(ctx)

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("journal close failed", logx.Err(err))
		}
	}
	return a.logSvc.Close()
}
