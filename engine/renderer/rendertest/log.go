// Package rendertest provides an in-memory renderer.Backend that records
// every call it receives, for tests that must run without a GPU.
package rendertest

import (
	"fmt"
	"strings"
	"sync"
)

// Log is the ordered list of calls shared by every fake object of a Backend.
type Log struct {
	mu    sync.Mutex
	calls []string
}

func (l *Log) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the log.
func (l *Log) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// Filter returns the calls starting with any of the prefixes, in order.
func (l *Log) Filter(prefixes ...string) []string {
	var out []string
	for _, c := range l.Calls() {
		for _, p := range prefixes {
			if strings.HasPrefix(c, p) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Count returns how many calls start with prefix.
func (l *Log) Count(prefix string) int {
	return len(l.Filter(prefix))
}

// Index returns the position of the first call equal to call, or -1.
func (l *Log) Index(call string) int {
	for i, c := range l.Calls() {
		if c == call {
			return i
		}
	}
	return -1
}
