package status

import (
	"context"
	"strings"
	"testing"

	"growbot/internal/transport"
	logx "growbot/pkg/logx"
)

type recordSink struct {
	texts []string
}

func (s *recordSink) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) error {
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordSink) SendDocument(ctx context.Context, to transport.ChatTarget, filename string, data []byte, caption string) error {
	return nil
}

func TestNewReporterBadSchedule(t *testing.T) {
	t.Parallel()
	_, err := NewReporter(Config{Schedule: "not a cron spec"}, &recordSink{}, Stats{}, logx.Nop())
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewReporterBadTimezone(t *testing.T) {
	t.Parallel()
	_, err := NewReporter(Config{Timezone: "Mars/Olympus"}, &recordSink{}, Stats{}, logx.Nop())
	if err == nil {
		t.Fatal("expected timezone error")
	}
}

func TestReportRendersCounters(t *testing.T) {
	t.Parallel()
	sink := &recordSink{}
	n := uint64(0)
	r, err := NewReporter(Config{}, sink, Stats{
		Frames:     func() uint64 { return 120 },
		Emissions:  func() uint64 { return 30 },
		Suppressed: func() uint64 { return 90 },
		Sent:       func() uint64 { return 29 },
		Failed:     func() uint64 { return 1 },
		Reconnects: func() uint64 { n++; return n },
	}, logx.Nop())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	r.report()
	if len(sink.texts) != 1 {
		t.Fatalf("got %d sends, want 1", len(sink.texts))
	}
	text := sink.texts[0]
	for _, want := range []string{"frames: 120", "announced: 29 (engine 30, suppressed 90)", "send failures: 1", "reconnects: 1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
}

func TestRenderNilStats(t *testing.T) {
	t.Parallel()
	r, err := NewReporter(Config{}, &recordSink{}, Stats{}, logx.Nop())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}
	if text := r.render(); !strings.Contains(text, "frames: 0") {
		t.Fatalf("nil stats should read as zero:\n%s", text)
	}
}
