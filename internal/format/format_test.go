package format

import (
	"strings"
	"testing"

	"growbot/internal/payload"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(name, category string) (string, bool) {
	tag, ok := m[name]
	return tag, ok
}

func TestStockBasic(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil)
	msg := f.Stock("seeds", []payload.StockItem{
		{Name: "Carrot", Qty: 5},
		{Name: "Tomato", Qty: 2},
	}, "")

	if !strings.Contains(msg.Text, "<b>Seeds stock (2 items)</b>") {
		t.Fatalf("header wrong:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "• Carrot — <b>5</b>") {
		t.Fatalf("item line wrong:\n%s", msg.Text)
	}
	if len(msg.Tags) != 0 {
		t.Fatalf("tags without resolver: %v", msg.Tags)
	}
}

func TestStockSingularHeader(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil)
	msg := f.Stock("gears", []payload.StockItem{{Name: "Trowel", Qty: 1}}, "")
	if !strings.Contains(msg.Text, "(1 item)") {
		t.Fatalf("singular form wrong:\n%s", msg.Text)
	}
}

func TestStockEscapesHTML(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil)
	msg := f.Stock("seeds", []payload.StockItem{{Name: "Carrot <2>", Qty: 1}}, "")
	if !strings.Contains(msg.Text, "Carrot &lt;2&gt;") {
		t.Fatalf("name not escaped:\n%s", msg.Text)
	}
}

func TestStockBudgetTrailer(t *testing.T) {
	t.Parallel()
	f := New(Config{Limit: 120}, nil, nil)
	items := make([]payload.StockItem, 10)
	for i := range items {
		items[i] = payload.StockItem{Name: strings.Repeat("x", 20), Qty: i}
	}
	msg := f.Stock("seeds", items, "")

	if len(msg.Text) > 120 {
		t.Fatalf("message over budget: %d bytes", len(msg.Text))
	}
	if !strings.Contains(msg.Text, "more") {
		t.Fatalf("missing trailer:\n%s", msg.Text)
	}
}

func TestStockMentionsAndTagDedup(t *testing.T) {
	t.Parallel()
	f := New(Config{Mentions: true}, nil, mapResolver{
		"Carrot": "@carrot_crew",
		"Tomato": "@carrot_crew", // same audience on purpose
	})
	msg := f.Stock("seeds", []payload.StockItem{
		{Name: "Carrot", Qty: 5},
		{Name: "Tomato", Qty: 2},
		{Name: "Kale", Qty: 1},
	}, "")

	if !strings.Contains(msg.Text, "• @carrot_crew — <b>5</b>") {
		t.Fatalf("tag substitution missing:\n%s", msg.Text)
	}
	if len(msg.Tags) != 1 || msg.Tags[0] != "@carrot_crew" {
		t.Fatalf("tags not deduplicated: %v", msg.Tags)
	}
}

func TestStockMerchantTitle(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil)
	msg := f.Stock("merchant", []payload.StockItem{{Name: "Night Egg", Qty: 1}}, "Jandel")
	if !strings.Contains(msg.Text, "Merchant stock — Jandel") {
		t.Fatalf("merchant title wrong:\n%s", msg.Text)
	}
}

func TestStockRespectsOrdering(t *testing.T) {
	t.Parallel()
	ord := NewOrdering("", map[string][]string{
		"seeds": {"Tomato", "Carrot"},
	}, nil, testLogger())
	f := New(Config{}, ord, nil)
	msg := f.Stock("seeds", []payload.StockItem{
		{Name: "Carrot", Qty: 5},
		{Name: "Tomato", Qty: 2},
	}, "")

	ti := strings.Index(msg.Text, "Tomato")
	ci := strings.Index(msg.Text, "Carrot")
	if ti == -1 || ci == -1 || ti > ci {
		t.Fatalf("ordering not applied:\n%s", msg.Text)
	}
}

func TestWeatherLines(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil)
	msg := f.Weather([]payload.WeatherRecord{
		{RawID: "JandelStorm", Name: "Jandel Storm", Remaining: 192, HasRemaining: true},
		{RawID: "NightEvent", Name: "Night"},
		{RawID: "rain", Name: "rain", Remaining: 0, HasRemaining: true},
	})

	if !strings.Contains(msg.Text, "<b>Active weathers (3)</b>") {
		t.Fatalf("header wrong:\n%s", msg.Text)
	}
	for _, want := range []string{"Jandel Storm — 3m 12s left", "Night — active", "rain — ending"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestWeatherAdminEventAudience(t *testing.T) {
	t.Parallel()
	f := New(Config{Mentions: true}, nil, mapResolver{
		"Admin Abuse": "@admin_abuse",
	})
	msg := f.Weather([]payload.WeatherRecord{
		{RawID: "Brainrot Portal", Name: "Brainrot Portal"},
	})
	if !strings.Contains(msg.Text, "@admin_abuse") {
		t.Fatalf("admin event not folded to the shared audience:\n%s", msg.Text)
	}
	if len(msg.Tags) != 1 || msg.Tags[0] != "@admin_abuse" {
		t.Fatalf("tags: %v", msg.Tags)
	}
}

func TestItemUpdate(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil)
	msg := f.ItemUpdate(&payload.ItemUpdate{
		Category: "seeds",
		Item:     "Carrot",
		Fields:   map[string]any{"stock": 7.0},
	})
	if !strings.Contains(msg.Text, "<b>Seeds update:</b> Carrot — <b>7</b>") {
		t.Fatalf("update line wrong:\n%s", msg.Text)
	}

	msg = f.ItemUpdate(&payload.ItemUpdate{Category: "seeds", Item: "Carrot", Fields: map[string]any{}})
	if !strings.Contains(msg.Text, "<b>?</b>") {
		t.Fatalf("missing quantity placeholder:\n%s", msg.Text)
	}
}

func TestMerchantAbsent(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil)
	if msg := f.MerchantAbsent("Jandel"); !strings.Contains(msg.Text, "(last: Jandel)") {
		t.Fatalf("last name missing:\n%s", msg.Text)
	}
	if msg := f.MerchantAbsent(""); strings.Contains(msg.Text, "last:") {
		t.Fatalf("empty name rendered:\n%s", msg.Text)
	}
}

func TestFormatRemaining(t *testing.T) {
	t.Parallel()
	cases := []struct {
		rec  payload.WeatherRecord
		want string
	}{
		{payload.WeatherRecord{}, "active"},
		{payload.WeatherRecord{HasRemaining: true, Remaining: 0}, "ending"},
		{payload.WeatherRecord{HasRemaining: true, Remaining: 45}, "45s left"},
		{payload.WeatherRecord{HasRemaining: true, Remaining: 192}, "3m 12s left"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.rec); got != tc.want {
			t.Fatalf("FormatRemaining(%+v) = %q, want %q", tc.rec, got, tc.want)
		}
	}
}
