// Package dispatch turns engine emissions into chat messages: it picks the
// route for the category, renders the text, sends it, and journals the
// attempt. Send failures are logged and swallowed so one flaky delivery
// never stalls the feed consumer.
package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"growbot/internal/engine"
	"growbot/internal/format"
	"growbot/internal/journal"
	"growbot/internal/transport"
	logx "growbot/pkg/logx"
)

type Dispatcher struct {
	sink   transport.Sink
	routes map[string]transport.ChatTarget
	fmt    *format.Formatter
	store  journal.Store // nil when journaling is disabled
	log    logx.Logger

	sent   atomic.Uint64
	failed atomic.Uint64
}

func New(sink transport.Sink, routes map[string]transport.ChatTarget, f *format.Formatter, store journal.Store, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{sink: sink, routes: routes, fmt: f, store: store, log: log}
}

// Sent reports successfully delivered announcements.
func (d *Dispatcher) Sent() uint64 { return d.sent.Load() }

// Failed reports announcements whose delivery errored.
func (d *Dispatcher) Failed() uint64 { return d.failed.Load() }

// Emit satisfies engine.EmitFunc.
func (d *Dispatcher) Emit(ctx context.Context, em engine.Emission) {
	to, ok := d.routes[em.Category]
	if !ok {
		d.log.Warn("dispatch: no route for category",
			logx.String("category", em.Category),
			logx.String("kind", string(em.Kind)))
		return
	}

	var msg format.Message
	switch em.Kind {
	case engine.KindStock, engine.KindMerchant:
		msg = d.fmt.Stock(em.Category, em.Items, em.TitleHint)
	case engine.KindMerchantAbsent:
		msg = d.fmt.MerchantAbsent(em.TitleHint)
	case engine.KindWeather:
		msg = d.fmt.Weather(em.Weather)
	case engine.KindItemUpdate:
		msg = d.fmt.ItemUpdate(em.Update)
	default:
		d.log.Warn("dispatch: unknown emission kind", logx.String("kind", string(em.Kind)))
		return
	}
	if msg.Text == "" {
		return
	}

	err := d.sink.SendText(ctx, to, msg.Text, &transport.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
		Mentions:       msg.Tags,
	})
	if err != nil {
		d.failed.Add(1)
		d.log.Error("dispatch: send failed",
			logx.String("category", em.Category),
			logx.String("kind", string(em.Kind)),
			logx.Err(err))
	} else {
		d.sent.Add(1)
		d.log.Info("dispatch: announced",
			logx.String("category", em.Category),
			logx.String("kind", string(em.Kind)),
			logx.Int("items", len(em.Items)),
			logx.Bool("deferred", em.Deferred))
	}

	d.journal(ctx, em, msg, err)
}

func (d *Dispatcher) journal(ctx context.Context, em engine.Emission, msg format.Message, sendErr error) {
	if d.store == nil {
		return
	}
	e := journal.Entry{
		At:       time.Now(),
		Category: em.Category,
		Kind:     string(em.Kind),
		Items:    len(em.Items),
		Chars:    len(msg.Text),
		Tags:     len(msg.Tags),
		Deferred: em.Deferred,
	}
	if em.Kind == engine.KindWeather {
		e.Items = len(em.Weather)
	}
	if sendErr != nil {
		e.Error = sendErr.Error()
	}
	if err := d.store.Append(ctx, e); err != nil {
		d.log.Warn("dispatch: journal append failed", logx.Err(err))
	}
}
