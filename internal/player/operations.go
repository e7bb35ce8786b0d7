package player

import (
	"context"
	"time"
)

// LoadPlaylist replaces the playlist, resets current_index and position
// to 0, and triggers an asynchronous duration refresh for any path not
// already known. Does not alter status or touch workers.
func (s *Supervisor) LoadPlaylist(paths []string) {
	s.mu.Lock()
	s.playlist.Replace(paths)
	s.currentIndex = 0
	s.anchor = newAnchor(0)
	missing := s.playlist.MissingDurations()
	s.mu.Unlock()

	s.refreshDurationsAsync(missing)
}

// SetPlaylistOrder replaces the playlist ordering; if the previously
// current path still appears, current_index follows it, otherwise it
// resets to 0. Does not touch workers.
func (s *Supervisor) SetPlaylistOrder(paths []string) {
	s.mu.Lock()
	currentPath, hadCurrent := s.playlist.At(s.currentIndex)
	s.playlist.Reorder(paths)
	s.currentIndex = 0
	if hadCurrent {
		for i, p := range paths {
			if p == currentPath {
				s.currentIndex = i
				break
			}
		}
	}
	missing := s.playlist.MissingDurations()
	s.mu.Unlock()

	s.refreshDurationsAsync(missing)
}

// restartIfPlayingLocked performs a full pipeline restart from the
// current live position if status is playing. Used by the config
// setters, whose changes are baked into a worker command line. Caller
// must hold mu.
func (s *Supervisor) restartIfPlayingLocked() error {
	if s.status != StatusPlaying {
		return nil
	}
	pos := s.anchor.live(true)
	return s.restartFullPipelineLocked(pos)
}

// SetVideo updates the video bed path, restarting the pipeline exactly
// once if currently playing.
func (s *Supervisor) SetVideo(path string) error {
	if path == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.VideoFile = path
	return s.restartIfPlayingLocked()
}

// SetOverlayText rewrites the overlay text file in place. The video
// worker's drawtext filter is configured with reload=1 so this takes
// effect on the next frame with no pipeline restart, the preferred path
// over a config-triggered restart.
func (s *Supervisor) SetOverlayText(text string) error {
	s.mu.Lock()
	s.cfg.OverlayText = text
	path := s.overlayTextPath
	s.mu.Unlock()
	if path == "" {
		return nil
	}
	return writeOverlayFile(path, text)
}

// SetNowPlaying rewrites the "now playing" overlay file in place.
func (s *Supervisor) SetNowPlaying(text string) error {
	s.mu.Lock()
	path := s.nowPlayingPath
	s.mu.Unlock()
	if path == "" {
		return nil
	}
	return writeOverlayFile(path, text)
}

// SetRTMP updates the RTMP target URL, restarting the pipeline exactly
// once if currently playing. (The original control path called a
// restart helper and then a second, redundant start helper; this
// implementation performs exactly one restart.)
func (s *Supervisor) SetRTMP(url string) error {
	if url == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.RTMPURL = url
	return s.restartIfPlayingLocked()
}

// SetFFmpegPath updates the ffmpeg binary path, restarting the pipeline
// exactly once if currently playing.
func (s *Supervisor) SetFFmpegPath(path string) error {
	if path == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FFmpegPath = path
	return s.restartIfPlayingLocked()
}

// SetFFProbePath updates the ffprobe binary path used by the duration
// probe. No pipeline restart: ffprobe is not part of the live pipeline.
func (s *Supervisor) SetFFProbePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FFProbePath = path
}

// SetVideoSize updates the encoder's target resolution, restarting the
// pipeline exactly once if currently playing.
func (s *Supervisor) SetVideoSize(size string) error {
	if size == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.VideoSize = size
	return s.restartIfPlayingLocked()
}

// SetVideoUDPURL updates the internal B->C transport endpoint, restarting
// the pipeline exactly once if currently playing.
func (s *Supervisor) SetVideoUDPURL(url string) error {
	if url == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.VideoUDPURL = url
	return s.restartIfPlayingLocked()
}

// SetEncoderSettings applies any non-zero-value fields of cfg over the
// current encoder settings, restarting the pipeline exactly once if
// currently playing.
func (s *Supervisor) SetEncoderSettings(cfg EncoderSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.AudioBitrate != "" {
		s.encSettings.AudioBitrate = cfg.AudioBitrate
	}
	if cfg.VideoBitrate != "" {
		s.encSettings.VideoBitrate = cfg.VideoBitrate
	}
	if cfg.Maxrate != "" {
		s.encSettings.Maxrate = cfg.Maxrate
	}
	if cfg.Bufsize != "" {
		s.encSettings.Bufsize = cfg.Bufsize
	}
	if cfg.VideoFPS != 0 {
		s.encSettings.VideoFPS = cfg.VideoFPS
	}
	return s.restartIfPlayingLocked()
}

// Play starts the pipeline from the stored position if stopped, paused,
// or in error. No-op if already playing.
func (s *Supervisor) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusPlaying {
		return nil
	}
	pos := s.anchor.live(false)
	return s.startPipelineLocked(pos)
}

// PlayIndex validates the index, sets current_index and position to 0,
// and starts the pipeline from 0.
func (s *Supervisor) PlayIndex(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.playlist.Len()
	if n == 0 || index < 0 || index >= n {
		return ErrInvalidArgument
	}
	s.currentIndex = index
	return s.startPipelineLocked(0)
}

// Pause snapshots the live position, kills all workers, and sets status
// to paused.
func (s *Supervisor) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPlaying {
		return
	}
	pos := s.anchor.live(true)
	s.killAllLocked()
	s.anchor = newAnchor(pos)
	s.setStatusLocked(StatusPaused)
}

// Stop kills all workers, zeros position, and sets status to stopped.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killAllLocked()
	s.anchor = newAnchor(0)
	s.setStatusLocked(StatusStopped)
}

// SkipNext triggers a track advance with queue looping enabled.
func (s *Supervisor) SkipNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPlaying {
		return
	}
	s.advanceTrackLocked(true)
}

// Seek clamps negative seconds to 0 and, when the current track's
// duration is known, clamps seconds at or past it to duration-1 (never
// below 0); it stores the result as the live position, stamps the seek
// suppression window, and — if playing — restarts only the audio
// decoder at the new offset. The encoder and video worker are left
// running.
func (s *Supervisor) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if path, ok := s.playlist.At(s.currentIndex); ok {
		if d, known := s.playlist.Duration(path); known && seconds >= d {
			seconds = d - 1
			if seconds < 0 {
				seconds = 0
			}
		}
	}

	s.anchor = newAnchor(seconds)
	s.recentSeekMonotonic = time.Now()

	if s.status == StatusPlaying {
		return s.startAudioLocked(seconds)
	}
	return nil
}

// GetState returns a snapshot of status, index, current path, computed
// live position, playlist, durations, config, and encoder settings.
func (s *Supervisor) GetState() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentPath, _ := s.playlist.At(s.currentIndex)
	pos := s.anchor.live(s.status == StatusPlaying)
	positionSeconds.Set(pos)
	playlistLength.Set(float64(s.playlist.Len()))
	return StateSnapshot{
		Status:          s.status,
		CurrentIndex:    s.currentIndex,
		CurrentPath:     currentPath,
		PositionSec:     pos,
		Playlist:        s.playlist.Paths(),
		Durations:       s.playlist.DurationsSnapshot(),
		Config:          s.cfg,
		EncoderSettings: s.encSettings,
	}
}

// RequestShutdown marks the supervisor as shutting down so the watcher
// stops attempting restarts, then stops the pipeline.
func (s *Supervisor) RequestShutdown() {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.Stop()
}

// Shutdown marks the supervisor as shutting down and terminates any live
// workers, bounding the wait on ctx instead of the usual fixed timeout —
// used by the daemon's signal handler so SIGTERM/SIGINT shutdown respects
// an overall deadline across all three workers.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.mu.Lock()
	s.shutdownRequested = true
	s.stopPumpFlag = true
	a, b, c := s.a, s.b, s.c
	s.mu.Unlock()

	if a != nil {
		a.terminateCtx(ctx)
	}
	if b != nil {
		b.terminateCtx(ctx)
	}
	if c != nil {
		c.terminateCtx(ctx)
	}

	s.mu.Lock()
	s.a, s.b, s.c = nil, nil, nil
	s.cStdin, s.aStdout = nil, nil
	s.setStatusLocked(StatusStopped)
	s.mu.Unlock()
}
