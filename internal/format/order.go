package format

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"growbot/internal/payload"
	logx "growbot/pkg/logx"
)

// Ordering holds the optional per-category explicit item order. It only
// affects how announcements are rendered; suppression decisions never see it.
//
// Precedence per category: ordering file, then config fallback list. Items
// not listed keep their arrival order after the listed ones.
type Ordering struct {
	path string
	fold func(string) string
	log  logx.Logger

	mu       sync.RWMutex
	fromFile map[string]map[string]int
	fallback map[string]map[string]int
}

// NewOrdering loads the ordering file (a JSON object of category ->
// display-name list). A missing file is fine; a broken one is logged and
// ignored.
func NewOrdering(path string, fallback map[string][]string, fold func(string) string, log logx.Logger) *Ordering {
	if fold == nil {
		fold = func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	o := &Ordering{
		path:     path,
		fold:     fold,
		log:      log,
		fromFile: map[string]map[string]int{},
		fallback: rankTable(fallback, fold),
	}
	if err := o.Reload(); err != nil {
		o.log.Warn("ordering file unreadable", logx.String("path", path), logx.Err(err))
	}
	return o
}

// Reload re-reads the ordering file. A missing path clears the file layer.
func (o *Ordering) Reload() error {
	if strings.TrimSpace(o.path) == "" {
		return nil
	}
	b, err := os.ReadFile(o.path)
	if err != nil {
		if os.IsNotExist(err) {
			o.mu.Lock()
			o.fromFile = map[string]map[string]int{}
			o.mu.Unlock()
			return nil
		}
		return err
	}
	var raw map[string][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	table := rankTable(raw, o.fold)
	o.mu.Lock()
	o.fromFile = table
	o.mu.Unlock()
	return nil
}

// Watch reloads the ordering file when it changes on disk. Blocks until ctx
// is done. A nil error on return means a clean shutdown.
func (o *Ordering) Watch(ctx context.Context) error {
	if strings.TrimSpace(o.path) == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	// Watch the directory: editors replace files instead of writing in place.
	dir := filepath.Dir(o.path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(o.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if err := o.Reload(); err != nil {
				o.log.Warn("ordering reload failed", logx.String("path", o.path), logx.Err(err))
				continue
			}
			o.log.Info("ordering reloaded", logx.String("path", o.path))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			o.log.Warn("ordering watcher error", logx.Err(err))
		}
	}
}

const unrankedBase = 10_000

// Sort applies the category's explicit order, keeping arrival order for
// unlisted items. The input slice is not modified.
func (o *Ordering) Sort(category string, items []payload.StockItem) []payload.StockItem {
	ranks := o.ranks(category)
	if len(ranks) == 0 {
		return items
	}
	out := append([]payload.StockItem(nil), items...)
	pos := make([]int, len(out))
	for i, it := range out {
		if r, ok := ranks[o.fold(it.Name)]; ok {
			pos[i] = r
		} else {
			pos[i] = unrankedBase + i
		}
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return pos[idx[a]] < pos[idx[b]] })
	sorted := make([]payload.StockItem, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

func (o *Ordering) ranks(category string) map[string]int {
	cat := o.fold(category)
	o.mu.RLock()
	defer o.mu.RUnlock()
	if m, ok := o.fromFile[cat]; ok && len(m) > 0 {
		return m
	}
	return o.fallback[cat]
}

func rankTable(raw map[string][]string, fold func(string) string) map[string]map[string]int {
	out := make(map[string]map[string]int, len(raw))
	for cat, names := range raw {
		if len(names) == 0 {
			continue
		}
		m := make(map[string]int, len(names))
		for i, n := range names {
			m[fold(n)] = i
		}
		out[fold(cat)] = m
	}
	return out
}
