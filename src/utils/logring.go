package utils

import (
	"strings"
	"sync"
)

// LogRing keeps the most recent log lines in memory for the admin log
// endpoint. Bounded, best-effort, non-durable.
type LogRing struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func NewLogRing(max int) *LogRing {
	return &LogRing{max: max}
}

// Write implements io.Writer so the ring can sit in a MultiWriter
// behind the standard logger.
func (r *LogRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		r.lines = append(r.lines, line)
	}
	if n := len(r.lines) - r.max; n > 0 {
		r.lines = r.lines[n:]
	}
	return len(p), nil
}

func (r *LogRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
