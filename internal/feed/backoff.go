package feed

import "time"

const (
	backoffInitial = 1 * time.Second
	backoffCap     = 30 * time.Second
)

// backoff is the reconnect delay ladder: 1s doubling up to 30s,
// reset after a successful connect.
type backoff struct {
	next time.Duration
}

func newBackoff() *backoff {
	return &backoff{next: backoffInitial}
}

// Next returns the delay to sleep before the upcoming attempt and
// advances the ladder.
func (b *backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > backoffCap {
		b.next = backoffCap
	}
	return d
}

func (b *backoff) Reset() {
	b.next = backoffInitial
}
