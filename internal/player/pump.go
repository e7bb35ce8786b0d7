package player

import (
	"io"
	"time"
)

const pumpChunkSize = 4096
const seekSuppressionWindow = 2 * time.Second

// runPump copies fixed-size chunks from the decoder's stdout to the
// encoder's stdin until EOF, a write failure, or it's superseded by a
// newer pump (gen mismatch). It holds the lock only briefly, when
// inspecting flags and when invoking advance.
func (s *Supervisor) runPump(gen int, a *worker, aStdout io.ReadCloser, c *worker, cStdin io.WriteCloser) {
	defer func() {
		if aStdout != nil {
			aStdout.Close()
		}
	}()
	if aStdout == nil {
		return
	}
	buf := make([]byte, pumpChunkSize)
	for {
		n, readErr := aStdout.Read(buf)
		if n > 0 && cStdin != nil {
			if _, writeErr := cStdin.Write(buf[:n]); writeErr != nil {
				pumpEOFTotal.WithLabelValues("broken_pipe").Inc()
				return
			}
		}
		if readErr != nil {
			s.handlePumpEOF(gen)
			return
		}
	}
}

// handlePumpEOF classifies a decoder EOF and decides whether to advance
// the track. Mirrors the termination conditions in the component design:
// a pump superseded by a newer one, or told to stop, or observed while
// not playing, exits silently; an EOF arriving within the seek
// suppression window after a seek is treated as a short/failed seek, not
// a natural end; anything else is a natural end and triggers advance.
func (s *Supervisor) handlePumpEOF(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.pumpGen {
		pumpEOFTotal.WithLabelValues("stale").Inc()
		return
	}
	if s.stopPumpFlag {
		pumpEOFTotal.WithLabelValues("stopped").Inc()
		return
	}
	if s.status != StatusPlaying {
		pumpEOFTotal.WithLabelValues("not_playing").Inc()
		return
	}
	if !s.recentSeekMonotonic.IsZero() && time.Since(s.recentSeekMonotonic) < seekSuppressionWindow {
		pumpEOFTotal.WithLabelValues("seek_suppressed").Inc()
		return
	}
	pumpEOFTotal.WithLabelValues("natural_end").Inc()
	s.advanceTrackLocked(true)
}
