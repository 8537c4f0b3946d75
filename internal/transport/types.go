package transport

import "context"

// ChatTarget identifies a destination channel on the chat platform.
// ThreadID is the forum-topic thread id (0 if none).
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

// SendOptions carries per-message delivery knobs.
//
// Mentions is the set of audience tags actually used inside the text.
// It is advisory: adapters that support scoped mention control use it to
// keep notifications non-broadcast; others may ignore it.
type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	Mentions       []string
}

// Sink delivers rendered notification content to a chat target.
//
// Delivery is at-least-once best effort: a failed send is reported to the
// caller and not retried here.
type Sink interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
	SendDocument(ctx context.Context, to ChatTarget, filename string, data []byte, caption string) error
}
