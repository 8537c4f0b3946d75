package format

import (
	"os"
	"path/filepath"
	"testing"

	"growbot/internal/payload"
	logx "growbot/pkg/logx"
)

func testLogger() logx.Logger { return logx.Nop() }

func names(items []payload.StockItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestSortFallbackRanks(t *testing.T) {
	t.Parallel()
	o := NewOrdering("", map[string][]string{
		"seeds": {"Tomato", "Carrot"},
	}, nil, testLogger())

	in := []payload.StockItem{
		{Name: "Kale", Qty: 1},
		{Name: "Carrot", Qty: 5},
		{Name: "Tomato", Qty: 2},
	}
	got := names(o.Sort("seeds", in))
	want := []string{"Tomato", "Carrot", "Kale"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}
	// Input untouched.
	if in[0].Name != "Kale" {
		t.Fatal("Sort modified its input")
	}
}

func TestSortUnrankedKeepArrivalOrder(t *testing.T) {
	t.Parallel()
	o := NewOrdering("", map[string][]string{"seeds": {"Carrot"}}, nil, testLogger())
	got := names(o.Sort("seeds", []payload.StockItem{
		{Name: "Zebra Grass"},
		{Name: "Apple Sprout"},
		{Name: "Carrot"},
	}))
	want := []string{"Carrot", "Zebra Grass", "Apple Sprout"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSortNoRanksIsIdentity(t *testing.T) {
	t.Parallel()
	o := NewOrdering("", nil, nil, testLogger())
	in := []payload.StockItem{{Name: "B"}, {Name: "A"}}
	got := names(o.Sort("seeds", in))
	if got[0] != "B" || got[1] != "A" {
		t.Fatalf("identity broken: %v", got)
	}
}

func TestSortCaseInsensitive(t *testing.T) {
	t.Parallel()
	o := NewOrdering("", map[string][]string{"Seeds": {"CARROT"}}, nil, testLogger())
	got := names(o.Sort("seeds", []payload.StockItem{
		{Name: "Kale"},
		{Name: "carrot"},
	}))
	if got[0] != "carrot" {
		t.Fatalf("fold not applied: %v", got)
	}
}

func TestFileLayerBeatsFallback(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ordering.json")
	if err := os.WriteFile(path, []byte(`{"seeds": ["Kale", "Carrot"]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	o := NewOrdering(path, map[string][]string{"seeds": {"Carrot", "Kale"}}, nil, testLogger())
	got := names(o.Sort("seeds", []payload.StockItem{
		{Name: "Carrot"},
		{Name: "Kale"},
	}))
	if got[0] != "Kale" {
		t.Fatalf("file layer ignored: %v", got)
	}
}

func TestReloadMissingFileClearsLayer(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "ordering.json")
	if err := os.WriteFile(path, []byte(`{"seeds": ["Kale", "Carrot"]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	o := NewOrdering(path, map[string][]string{"seeds": {"Carrot", "Kale"}}, nil, testLogger())

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := o.Reload(); err != nil {
		t.Fatalf("Reload after remove: %v", err)
	}
	got := names(o.Sort("seeds", []payload.StockItem{
		{Name: "Kale"},
		{Name: "Carrot"},
	}))
	if got[0] != "Carrot" {
		t.Fatalf("fallback not restored: %v", got)
	}
}

func TestReloadRejectsBrokenJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ordering.json")
	if err := os.WriteFile(path, []byte(`{"seeds": ["Kale"]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	o := NewOrdering(path, nil, nil, testLogger())

	if err := os.WriteFile(path, []byte(`{broken`), 0o600); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	if err := o.Reload(); err == nil {
		t.Fatal("expected JSON error")
	}
	// Last good table survives.
	got := names(o.Sort("seeds", []payload.StockItem{{Name: "Carrot"}, {Name: "Kale"}}))
	if got[0] != "Kale" {
		t.Fatalf("good table lost on failed reload: %v", got)
	}
}
