package registry

import (
	"fmt"
	"time"
)

// opLog is a fixed-size ring of recent operation descriptions kept for
// diagnostics. It is accessed only under the registry lock, so it carries no
// locking of its own.
type opLog struct {
	entries []string
	next    int
	full    bool
}

func newOpLog(capacity int) *opLog {
	if capacity <= 0 {
		capacity = 1
	}
	return &opLog{entries: make([]string, capacity)}
}

func (l *opLog) add(format string, args ...any) {
	entry := time.Now().UTC().Format(time.RFC3339) + " " + fmt.Sprintf(format, args...)
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// list returns the logged entries oldest first.
func (l *opLog) list() []string {
	if !l.full {
		out := make([]string, l.next)
		copy(out, l.entries[:l.next])
		return out
	}
	out := make([]string, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}
