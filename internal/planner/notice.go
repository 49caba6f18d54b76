// internal/planner/notice.go
package planner

import (
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a transient user-visible message.
type Notice struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Inbox is a bounded Notifier. When full, the oldest notice is dropped.
type Inbox struct {
	mu      sync.Mutex
	max     int
	notices []Notice
}

func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = 50
	}
	return &Inbox{max: max}
}

func (b *Inbox) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.notices) == b.max {
		b.notices = b.notices[1:]
	}
	b.notices = append(b.notices, n)
}

// Drain returns and clears the pending notices.
func (b *Inbox) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

type discard struct{}

func (discard) Notify(Notice) {}
