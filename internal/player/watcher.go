package player

import (
	"context"
	"time"
)

const maxConsecutiveFailures = 5

// RunWatcher polls the encoder's liveness at interval until ctx is
// canceled. On an abnormal encoder exit while playing, it attempts a
// full pipeline restart from the last known position, bounded both by a
// consecutive-failure counter and by a token-bucket rate limiter so a
// persistently broken ffmpeg binary doesn't spin the daemon into a busy
// restart loop.
func (s *Supervisor) RunWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.watcherTick()
		}
	}
}

func (s *Supervisor) watcherTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying {
		return
	}
	if s.c == nil || s.c.alive() {
		return
	}

	exitCode := s.c.exitCode()
	s.killAudioLocked()

	if exitCode == 0 {
		s.killVideoLocked()
		s.c = nil
		s.setStatusLocked(StatusStopped)
		encoderRestartTotal.WithLabelValues("clean_exit").Inc()
		return
	}

	if s.playlist.Len() == 0 || s.shutdownRequested {
		s.setStatusLocked(StatusError)
		encoderRestartTotal.WithLabelValues("no_restart").Inc()
		return
	}

	if s.failureCount >= maxConsecutiveFailures || !s.limiter.Allow() {
		s.log.append("watcher: giving up after repeated encoder failures")
		s.setStatusLocked(StatusError)
		consecutiveFailures.Set(float64(s.failureCount))
		encoderRestartTotal.WithLabelValues("rate_limited").Inc()
		return
	}

	pos := s.anchor.live(true)
	s.log.append("watcher: restarting pipeline after encoder crash")
	if err := s.restartFullPipelineLocked(pos); err != nil {
		s.failureCount++
		consecutiveFailures.Set(float64(s.failureCount))
		s.log.append("watcher: restart failed: " + err.Error())
		s.setStatusLocked(StatusError)
		encoderRestartTotal.WithLabelValues("failed").Inc()
		return
	}
	s.failureCount = 0
	consecutiveFailures.Set(0)
	encoderRestartTotal.WithLabelValues("recovered").Inc()
}
