package player

// advanceTrackLocked moves to the next track. If currently at the last
// index and loopQueue is false, the playlist has run its course: kill A
// and stop. Otherwise wrap to (index+1) mod len(playlist), reset position
// to 0, and start a fresh A at offset 0 — B and C are never touched, so
// the RTMP viewer never observes a reconnect. Caller must hold mu.
func (s *Supervisor) advanceTrackLocked(loopQueue bool) {
	n := s.playlist.Len()
	if n == 0 {
		s.killAudioLocked()
		s.setStatusLocked(StatusStopped)
		return
	}
	if s.currentIndex < 0 || s.currentIndex >= n {
		s.currentIndex = 0
	}
	atLast := s.currentIndex == n-1
	if atLast && !loopQueue {
		s.killAudioLocked()
		s.anchor = newAnchor(0)
		s.setStatusLocked(StatusStopped)
		return
	}
	s.currentIndex = (s.currentIndex + 1) % n

	if s.c == nil || !s.c.alive() {
		s.log.append("encoder unexpectedly dead during track advance")
		s.killAudioLocked()
		s.setStatusLocked(StatusStopped)
		return
	}

	trackAdvanceTotal.Inc()
	if err := s.startAudioLocked(0); err != nil {
		s.log.append("failed to start audio after advance: " + err.Error())
		s.setStatusLocked(StatusError)
		return
	}
	s.anchor = newAnchor(0)
}
