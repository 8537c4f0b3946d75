// Package feed maintains the websocket connection to the upstream stock
// feed. It reconnects forever with capped exponential backoff and hands
// decoded frames to the consumer over a channel.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	logx "growbot/pkg/logx"
)

const defaultPingInterval = 20 * time.Second

// Options configures a Connector.
type Options struct {
	URL     string
	Headers map[string]string
	// Subscribe, when non-empty, is written verbatim as one text frame
	// right after connecting.
	Subscribe json.RawMessage
	// PingInterval between client pings; 0 disables pinging. The read
	// deadline is extended on every pong (and on every frame).
	PingInterval time.Duration
}

// Connector owns the websocket lifecycle. Frames() delivers each decoded
// JSON object; frames that fail to decode are logged and dropped.
type Connector struct {
	opt Options
	log logx.Logger
	bo  *backoff

	frames chan map[string]any

	reconnects atomic.Uint64

	// sleep waits out the re-dial delay; swapped in tests. Returns false
	// when ctx ended during the wait.
	sleep func(ctx context.Context, d time.Duration) bool
}

func NewConnector(opt Options, log logx.Logger) *Connector {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Connector{
		opt:    opt,
		log:    log,
		bo:     newBackoff(),
		frames: make(chan map[string]any, 8),
		sleep: func(ctx context.Context, d time.Duration) bool {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(d):
				return true
			}
		},
	}
}

// Frames returns the channel of decoded feed frames. It is closed when
// Run returns.
func (c *Connector) Frames() <-chan map[string]any { return c.frames }

// Reconnects reports how many times the connection had to be re-dialed.
func (c *Connector) Reconnects() uint64 { return c.reconnects.Load() }

// Run dials and reads until ctx is cancelled. Any connection error tears
// the session down and schedules a re-dial.
func (c *Connector) Run(ctx context.Context) {
	defer close(c.frames)

	first := true
	for {
		if ctx.Err() != nil {
			return
		}
		if !first {
			delay := c.bo.Next()
			c.log.Info("feed: reconnecting",
				logx.Duration("in", delay),
				logx.Uint64("attempts", c.reconnects.Load()))
			if !c.sleep(ctx, delay) {
				return
			}
			c.reconnects.Add(1)
		}
		first = false

		dialed, err := c.session(ctx)
		if dialed {
			// A dial that went through restarts the ladder at 1s, no
			// matter how the session ends afterwards.
			c.bo.Reset()
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.Warn("feed: connection lost", logx.Err(err))
		}
		// Clean close from the server still means re-dial.
	}
}

// session runs one connect-read cycle and returns when the connection
// drops or ctx is cancelled. dialed reports whether the handshake
// completed, regardless of how the session ended.
func (c *Connector) session(ctx context.Context) (dialed bool, _ error) {
	header := http.Header{}
	for k, v := range c.opt.Headers {
		header.Set(k, v)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opt.URL, header)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	c.log.Info("feed: connected", logx.String("url", c.opt.URL))

	if len(c.opt.Subscribe) > 0 {
		if err := conn.WriteMessage(websocket.TextMessage, c.opt.Subscribe); err != nil {
			return true, err
		}
	}

	ping := c.opt.PingInterval
	readWait := 2 * ping
	if ping > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
	}

	// Close the connection when ctx ends so the blocked read returns.
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-sessionDone:
		}
	}()

	if ping > 0 {
		go func() {
			t := time.NewTicker(ping)
			defer t.Stop()
			for {
				select {
				case <-sessionDone:
					return
				case <-t.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
						return
					}
				}
			}
		}()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		if ping > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
		}

		var frame map[string]any
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("feed: dropping undecodable frame",
				logx.Int("bytes", len(data)), logx.Err(err))
			continue
		}
		select {
		case c.frames <- frame:
		case <-ctx.Done():
			return true, nil
		}
	}
}
