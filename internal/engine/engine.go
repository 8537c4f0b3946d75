// Package engine decides, per category, whether a freshly normalized batch
// gets announced, deferred, or suppressed. It owns every piece of
// suppression memory; nothing here survives a restart on purpose.
package engine

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"growbot/internal/payload"
	logx "growbot/pkg/logx"
)

// Kind tags what an emission carries.
type Kind string

const (
	KindStock          Kind = "stock"
	KindMerchant       Kind = "merchant"
	KindMerchantAbsent Kind = "merchant_absent"
	KindWeather        Kind = "weather"
	KindItemUpdate     Kind = "item_update"
)

// Emission is a decided announcement handed to the dispatch layer.
type Emission struct {
	Category string
	Kind     Kind

	Items   []payload.StockItem
	Weather []payload.WeatherRecord
	Update  *payload.ItemUpdate

	// TitleHint carries the merchant name (current or, for an absence
	// notice, the last announced one).
	TitleHint string

	// Deferred marks emissions produced by a debounce fire.
	Deferred bool
}

// EmitFunc delivers an emission. Failures are the receiver's problem: the
// engine never retries and never rolls back memory on a failed dispatch.
type EmitFunc func(ctx context.Context, em Emission)

const (
	merchantCategory  = "merchant"
	weathersCategory  = "weathers"
	cosmeticsCategory = "cosmetics"
)

type Config struct {
	// Tracked categories keep an announced snapshot and debounce
	// single-item changes.
	Tracked []string

	DebounceDelay     time.Duration // default 5s
	CosmeticsCooldown time.Duration // default 240m
	MerchantSuppress  time.Duration // default 30m
	WeatherBurst      time.Duration // default 10s
}

func (c Config) withDefaults() Config {
	if len(c.Tracked) == 0 {
		c.Tracked = []string{"seeds", "pets", "gears"}
	}
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = 5 * time.Second
	}
	if c.CosmeticsCooldown <= 0 {
		c.CosmeticsCooldown = 240 * time.Minute
	}
	if c.MerchantSuppress <= 0 {
		c.MerchantSuppress = 30 * time.Minute
	}
	if c.WeatherBurst <= 0 {
		c.WeatherBurst = 10 * time.Second
	}
	return c
}

type itemKey struct {
	Category string
	Item     string
}

// Engine is the change-detection state machine. One instance owns all
// suppression memory; methods serialize on an internal mutex so debounce
// fires and the frame consumer never interleave mid-decision.
type Engine struct {
	cfg  Config
	log  logx.Logger
	emit EmitFunc
	deb  *Debouncer

	// now is sampled once per decision. Injectable for tests.
	now func() time.Time

	mu      sync.Mutex
	tracked map[string]struct{}

	lastBatch map[string]string         // category -> last announced fingerprint
	announced map[string]map[string]int // tracked category -> announced name->qty
	lastItem  map[itemKey]string        // keyed single-update digests

	cosmetics struct {
		fp string
		at time.Time
	}
	merchant struct {
		name string
		fp   string
		at   time.Time
	}
	weather struct {
		fp        string
		announced map[string]struct{}
		lastMsg   time.Time
	}

	emissions  atomic.Uint64
	suppressed atomic.Uint64
}

func New(cfg Config, emit EmitFunc, log logx.Logger) *Engine {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	e := &Engine{
		cfg:       cfg,
		log:       log,
		emit:      emit,
		deb:       NewDebouncer(),
		now:       time.Now,
		tracked:   make(map[string]struct{}, len(cfg.Tracked)),
		lastBatch: map[string]string{},
		announced: map[string]map[string]int{},
		lastItem:  map[itemKey]string{},
	}
	for _, cat := range cfg.Tracked {
		e.tracked[strings.ToLower(strings.TrimSpace(cat))] = struct{}{}
	}
	e.weather.announced = map[string]struct{}{}
	return e
}

// Stop cancels all pending deferrals.
func (e *Engine) Stop() { e.deb.Stop() }

// Stats are best-effort operational counters.
type Stats struct {
	Emissions  uint64
	Suppressed uint64
}

func (e *Engine) Stats() Stats {
	return Stats{Emissions: e.emissions.Load(), Suppressed: e.suppressed.Load()}
}

// HandleFrame evaluates every event of a normalized frame. A failure in one
// category is logged and does not stop the others; memory for a failing
// category stays untouched because updates happen only after a decision
// completes.
func (e *Engine) HandleFrame(ctx context.Context, fr payload.Frame) {
	for _, batch := range fr.Batches {
		b := batch
		e.guard(b.Category, func() { e.HandleStock(ctx, b.Category, b.Items) })
	}
	if fr.Merchant != nil {
		e.guard(merchantCategory, func() { e.HandleMerchant(ctx, fr.Merchant) })
	}
	if fr.HasWeather && len(fr.Weather) > 0 {
		e.guard(weathersCategory, func() { e.HandleWeather(ctx, fr.Weather) })
	}
	for _, upd := range fr.Updates {
		u := upd
		e.guard(u.Category, func() { e.HandleItemUpdate(ctx, u) })
	}
}

func (e *Engine) guard(category string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("category evaluation failed",
				logx.String("category", category),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())))
		}
	}()
	fn()
}

// HandleStock applies the tracked-snapshot, cooldown or plain policy,
// depending on the category class.
func (e *Engine) HandleStock(ctx context.Context, category string, items []payload.StockItem) {
	if len(items) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()

	if _, ok := e.tracked[category]; ok {
		e.handleTrackedLocked(ctx, category, items)
		return
	}
	if category == cosmeticsCategory {
		e.handleCooldownLocked(ctx, category, items, now)
		return
	}
	e.handlePlainLocked(ctx, category, items)
}

func (e *Engine) handleTrackedLocked(ctx context.Context, category string, items []payload.StockItem) {
	curr := snapshotOf(items)
	changed := changedNames(e.announced[category], curr)

	if len(changed) == 1 {
		// A lone change is usually the front of a burst: hold it back and
		// let a follow-up either supersede or confirm it.
		pending := append([]payload.StockItem(nil), items...)
		e.deb.Schedule(category, e.cfg.DebounceDelay, func(gen uint64) {
			e.fireDeferred(ctx, category, pending, gen)
		})
		return
	}

	e.deb.Cancel(category)
	fp := FingerprintItems(items)
	if e.lastBatch[category] == fp {
		e.suppressed.Add(1)
		return
	}
	e.lastBatch[category] = fp
	e.announced[category] = curr
	e.emitLocked(ctx, Emission{Category: category, Kind: KindStock, Items: items})
}

// fireDeferred runs on the debounce timer goroutine. The generation claim
// makes a stale fire (superseded or cancelled while we waited for the lock)
// a no-op, so it never writes memory.
func (e *Engine) fireDeferred(ctx context.Context, category string, items []payload.StockItem, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.deb.Take(category, gen) {
		return
	}
	e.lastBatch[category] = FingerprintItems(items)
	e.announced[category] = snapshotOf(items)
	e.emitLocked(ctx, Emission{Category: category, Kind: KindStock, Items: items, Deferred: true})
}

func (e *Engine) handleCooldownLocked(ctx context.Context, category string, items []payload.StockItem, now time.Time) {
	fp := FingerprintItems(items)
	if e.cosmetics.fp == fp {
		e.suppressed.Add(1)
		return
	}
	if !e.cosmetics.at.IsZero() && now.Sub(e.cosmetics.at) < e.cfg.CosmeticsCooldown {
		// Dropped, not queued: if this change never repeats after the
		// window, it is never announced.
		e.suppressed.Add(1)
		return
	}
	e.cosmetics.fp = fp
	e.cosmetics.at = now
	e.emitLocked(ctx, Emission{Category: category, Kind: KindStock, Items: items})
}

func (e *Engine) handlePlainLocked(ctx context.Context, category string, items []payload.StockItem) {
	fp := FingerprintItems(items)
	if e.lastBatch[category] == fp {
		e.suppressed.Add(1)
		return
	}
	e.lastBatch[category] = fp
	e.emitLocked(ctx, Emission{Category: category, Kind: KindStock, Items: items})
}

// HandleMerchant applies the presence-windowed policy. A name change always
// announces; an inventory change under the same name waits out the suppress
// window. An emptied slot produces one absence notice.
func (e *Engine) HandleMerchant(ctx context.Context, offer *payload.MerchantOffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()

	name := strings.TrimSpace(offer.Name)
	if name == "" || len(offer.Items) == 0 {
		if e.merchant.name == "" {
			e.suppressed.Add(1)
			return
		}
		last := e.merchant.name
		e.merchant.name = ""
		e.merchant.fp = ""
		e.emitLocked(ctx, Emission{Category: merchantCategory, Kind: KindMerchantAbsent, TitleHint: last})
		return
	}

	fp := FingerprintItems(offer.Items)
	announce := e.merchant.name != name
	if !announce && fp != e.merchant.fp {
		announce = e.merchant.at.IsZero() || now.Sub(e.merchant.at) >= e.cfg.MerchantSuppress
	}
	if !announce {
		e.suppressed.Add(1)
		return
	}
	e.merchant.name = name
	e.merchant.fp = fp
	e.merchant.at = now
	e.emitLocked(ctx, Emission{Category: merchantCategory, Kind: KindMerchant, Items: offer.Items, TitleHint: name})
}

// HandleWeather applies burst coalescing: within the burst window only
// genuinely new arrivals are announced; outside it the full active set is.
func (e *Engine) HandleWeather(ctx context.Context, recs []payload.WeatherRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()

	fp := FingerprintWeather(recs)
	if fp == e.weather.fp {
		e.suppressed.Add(1)
		return
	}

	// Prune the announced set to conditions still active, so a condition
	// that ends and later returns counts as new again.
	current := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		current[r.RawID] = struct{}{}
	}
	for id := range e.weather.announced {
		if _, ok := current[id]; !ok {
			delete(e.weather.announced, id)
		}
	}

	toPost := recs
	if !e.weather.lastMsg.IsZero() && now.Sub(e.weather.lastMsg) <= e.cfg.WeatherBurst {
		fresh := make([]payload.WeatherRecord, 0, len(recs))
		for _, r := range recs {
			if _, seen := e.weather.announced[r.RawID]; !seen {
				fresh = append(fresh, r)
			}
		}
		if len(fresh) == 0 {
			// Fingerprint deliberately not stored here: a repeat of this
			// batch after the window still gets announced in full.
			e.suppressed.Add(1)
			return
		}
		toPost = fresh
	}

	e.weather.fp = fp
	for _, r := range toPost {
		e.weather.announced[r.RawID] = struct{}{}
	}
	e.weather.lastMsg = now
	e.emitLocked(ctx, Emission{Category: weathersCategory, Kind: KindWeather, Weather: toPost})
}

// HandleItemUpdate applies the keyed single-update policy: one digest per
// (category, item) identity.
func (e *Engine) HandleItemUpdate(ctx context.Context, upd payload.ItemUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	digest, err := DigestPayload(upd.Fields)
	if err != nil {
		e.log.Warn("item update digest failed",
			logx.String("category", upd.Category),
			logx.String("item", upd.Item),
			logx.Err(err))
		return
	}
	key := itemKey{Category: upd.Category, Item: upd.Item}
	if e.lastItem[key] == digest {
		e.suppressed.Add(1)
		return
	}
	e.lastItem[key] = digest
	u := upd
	e.emitLocked(ctx, Emission{Category: upd.Category, Kind: KindItemUpdate, Update: &u})
}

func (e *Engine) emitLocked(ctx context.Context, em Emission) {
	e.emissions.Add(1)
	if e.emit != nil {
		e.emit(ctx, em)
	}
}

// snapshotOf collapses a batch into a name->qty map. Duplicate names keep
// the last value.
func snapshotOf(items []payload.StockItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[strings.TrimSpace(it.Name)] = it.Qty
	}
	return out
}

// changedNames is the symmetric difference of names whose quantity differs,
// including additions and removals.
func changedNames(prev, curr map[string]int) map[string]struct{} {
	out := map[string]struct{}{}
	for n, q := range curr {
		if pq, ok := prev[n]; !ok || pq != q {
			out[n] = struct{}{}
		}
	}
	for n := range prev {
		if _, ok := curr[n]; !ok {
			out[n] = struct{}{}
		}
	}
	return out
}
