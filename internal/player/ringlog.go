package player

import (
	"sync"
	"time"
)

const ringLogMax = 300

// ringLog is a bounded FIFO log buffer: timestamp-prefixed lines, oldest
// entries evicted once the buffer exceeds ringLogMax. Appending takes its
// own lock independent of the player's state lock so log readers draining
// ffmpeg stdout never block on a state transition in progress.
type ringLog struct {
	mu    sync.Mutex
	lines []string
}

func newRingLog() *ringLog {
	return &ringLog{lines: make([]string, 0, ringLogMax)}
}

func (r *ringLog) append(msg string) {
	line := "[" + time.Now().Format("2006-01-02 15:04:05") + "] " + msg
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if len(r.lines) > ringLogMax {
		r.lines = r.lines[len(r.lines)-ringLogMax:]
	}
}

// snapshot returns up to limit of the most recent lines, oldest first.
// limit <= 0 returns everything currently buffered.
func (r *ringLog) snapshot(limit int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit >= len(r.lines) {
		out := make([]string, len(r.lines))
		copy(out, r.lines)
		return out
	}
	out := make([]string, limit)
	copy(out, r.lines[len(r.lines)-limit:])
	return out
}
