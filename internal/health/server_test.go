package health

import (
	"context"
	"io"
	"net/http"
	"testing"

	logx "growbot/pkg/logx"
)

func TestServerLiveness(t *testing.T) {
	t.Parallel()
	s := NewServer(logx.Nop())
	s.Start(Config{Addr: "127.0.0.1:0"})
	defer s.Stop(context.Background())

	addr := s.Addr()
	if addr == "" {
		t.Fatal("server did not bind")
	}

	for _, path := range []string{"/", "/healthz"} {
		resp, err := http.Get("http://" + addr + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(body) != "ok" {
			t.Fatalf("GET %s: status=%d body=%q", path, resp.StatusCode, body)
		}
	}
}

func TestServerStopIdempotent(t *testing.T) {
	t.Parallel()
	s := NewServer(logx.Nop())
	s.Start(Config{Addr: "127.0.0.1:0"})
	s.Stop(context.Background())
	s.Stop(context.Background())
	if s.Addr() != "" {
		t.Fatal("addr should be empty after stop")
	}
}
