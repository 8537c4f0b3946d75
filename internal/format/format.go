// Package format renders engine emissions into bounded chat messages and
// collects the audience tags actually used, so the sink can keep mentions
// scoped instead of broadcast.
package format

import (
	"fmt"
	"html"
	"strings"

	"growbot/internal/payload"
)

// DefaultLimit is the per-message content budget.
const DefaultLimit = 2000

// Resolver maps a display name to an audience tag for a category.
// Implementations report ok=false when no tag is configured.
type Resolver interface {
	Resolve(displayName, category string) (tag string, ok bool)
}

// Message is rendered content plus the distinct tags embedded in it.
type Message struct {
	Text string
	Tags []string
}

type Config struct {
	// Limit bounds the message size. Zero means DefaultLimit.
	Limit int
	// Mentions toggles audience-tag substitution.
	Mentions bool
	// EventAudience is the shared audience name for admin-triggered
	// weather conditions.
	EventAudience string
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if strings.TrimSpace(c.EventAudience) == "" {
		c.EventAudience = "Admin Abuse"
	}
	return c
}

type Formatter struct {
	cfg      Config
	order    *Ordering
	resolver Resolver
}

// New builds a formatter. order and resolver may be nil.
func New(cfg Config, order *Ordering, resolver Resolver) *Formatter {
	return &Formatter{cfg: cfg.withDefaults(), order: order, resolver: resolver}
}

// Stock renders a batch announcement. hint becomes part of the header
// (merchant name). Lines past the budget collapse into a "+N more" trailer.
func (f *Formatter) Stock(category string, items []payload.StockItem, hint string) Message {
	if f.order != nil {
		items = f.order.Sort(category, items)
	}

	var tags tagSet
	title := capitalize(category) + " stock"
	if category == "merchant" {
		title = "Merchant stock"
		if hint != "" {
			if tag, ok := f.resolve(hint, category); ok {
				title += " — " + tag
				tags.add(tag)
			} else {
				title += " — " + html.EscapeString(hint)
			}
		}
	}
	header := fmt.Sprintf("<b>%s (%d %s)</b>", title, len(items), plural(len(items), "item"))

	lines := []string{header}
	remaining := f.cfg.Limit - len(header) - 1
	shown := 0
	for _, it := range items {
		label := html.EscapeString(it.Name)
		if tag, ok := f.resolve(it.Name, category); ok {
			label = tag
			tags.add(tag)
		}
		line := fmt.Sprintf("• %s — <b>%d</b>", label, it.Qty)
		if len(line)+1 > remaining {
			break
		}
		lines = append(lines, line)
		remaining -= len(line) + 1
		shown++
	}
	if shown < len(items) {
		lines = append(lines, fmt.Sprintf("… +%d more", len(items)-shown))
	}

	return Message{Text: strings.Join(lines, "\n"), Tags: tags.list}
}

// Weather renders a set of active conditions, one line each, with whatever
// remaining-time information the feed gave us.
func (f *Formatter) Weather(recs []payload.WeatherRecord) Message {
	var tags tagSet
	header := fmt.Sprintf("<b>Active weathers (%d)</b>", len(recs))
	lines := []string{header}
	remaining := f.cfg.Limit - len(header) - 1
	shown := 0
	for _, rec := range recs {
		label := html.EscapeString(rec.Name)
		audience := rec.Name
		if payload.IsAdminEvent(rec.RawID) {
			audience = f.cfg.EventAudience
		}
		if tag, ok := f.resolve(audience, "weathers"); ok {
			label = tag
			tags.add(tag)
		}
		line := fmt.Sprintf("• %s — %s", label, FormatRemaining(rec))
		if len(line)+1 > remaining {
			break
		}
		lines = append(lines, line)
		remaining -= len(line) + 1
		shown++
	}
	if shown < len(recs) {
		lines = append(lines, fmt.Sprintf("… +%d more", len(recs)-shown))
	}
	return Message{Text: strings.Join(lines, "\n"), Tags: tags.list}
}

// ItemUpdate renders a keyed single-item change.
func (f *Formatter) ItemUpdate(upd *payload.ItemUpdate) Message {
	qty := "?"
	for _, key := range []string{"quantity", "stock", "amount", "qty"} {
		if v, ok := upd.Fields[key].(float64); ok {
			qty = fmt.Sprintf("%d", int(v))
			break
		}
	}
	text := fmt.Sprintf("<b>%s update:</b> %s — <b>%s</b>",
		capitalize(upd.Category), html.EscapeString(upd.Item), qty)
	return Message{Text: text}
}

// MerchantAbsent renders the one-shot "merchant left" notice.
func (f *Formatter) MerchantAbsent(lastName string) Message {
	if lastName == "" {
		return Message{Text: "<b>Traveling Merchant</b> — none right now."}
	}
	return Message{Text: fmt.Sprintf("<b>Traveling Merchant</b> — none right now (last: %s).", html.EscapeString(lastName))}
}

// FormatRemaining renders a weather record's time budget.
func FormatRemaining(rec payload.WeatherRecord) string {
	if !rec.HasRemaining {
		return "active"
	}
	if rec.Remaining <= 0 {
		return "ending"
	}
	m, s := rec.Remaining/60, rec.Remaining%60
	if m > 0 {
		return fmt.Sprintf("%dm %ds left", m, s)
	}
	return fmt.Sprintf("%ds left", s)
}

func (f *Formatter) resolve(name, category string) (string, bool) {
	if !f.cfg.Mentions || f.resolver == nil {
		return "", false
	}
	return f.resolver.Resolve(name, category)
}

// tagSet keeps distinct tags in first-use order.
type tagSet struct {
	seen map[string]struct{}
	list []string
}

func (t *tagSet) add(tag string) {
	if t.seen == nil {
		t.seen = map[string]struct{}{}
	}
	if _, ok := t.seen[tag]; ok {
		return
	}
	t.seen[tag] = struct{}{}
	t.list = append(t.list, tag)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
