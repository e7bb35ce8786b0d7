package player

import (
	"time"
)

const terminateTimeout = 5 * time.Second

// killEncoderLocked terminates C if running. Caller must hold mu.
func (s *Supervisor) killEncoderLocked() {
	if s.c != nil && s.c.alive() {
		s.log.append("terminating encoder (C) ffmpeg process")
		s.c.terminate(terminateTimeout)
	}
	s.c = nil
	s.cStdin = nil
}

// killVideoLocked terminates B if running. Caller must hold mu.
func (s *Supervisor) killVideoLocked() {
	if s.b != nil && s.b.alive() {
		s.log.append("terminating video (B) ffmpeg process")
		s.b.terminate(terminateTimeout)
	}
	s.b = nil
}

// killAudioLocked terminates A and signals the pump to stop silently.
// Caller must hold mu.
func (s *Supervisor) killAudioLocked() {
	s.stopPumpFlag = true
	if s.a != nil && s.a.alive() {
		s.log.append("terminating audio decoder (A) ffmpeg process")
		s.a.terminate(terminateTimeout)
	}
	s.a = nil
	s.aStdout = nil
}

// killAllLocked tears down all three workers, audio first (cheapest,
// avoids a pump write racing a dying encoder), then video and encoder.
func (s *Supervisor) killAllLocked() {
	s.killAudioLocked()
	s.killVideoLocked()
	s.killEncoderLocked()
}

// startEncoderLocked ensures C is running. No-op if already alive.
func (s *Supervisor) startEncoderLocked() error {
	if s.c != nil && s.c.alive() {
		return nil
	}
	s.killEncoderLocked()
	if s.cfg.VideoFile == "" {
		return ErrConfigMissing
	}
	if s.cfg.RTMPURL == "" {
		return ErrConfigMissing
	}
	args := encoderArgs(s.cfg.FFmpegPath, s.cfg.VideoUDPURL, s.cfg.RTMPURL, s.encSettings)
	s.log.append("launching encoder (C): " + joinArgs(args))
	w, stdin, _, err := newWorker("ffmpeg-C", s.cfg.FFmpegPath, args[1:], s.log, true, modeLog)
	if err != nil {
		s.log.append("ERROR starting encoder: " + err.Error())
		s.setStatusLocked(StatusStopped)
		return err
	}
	if err := w.start(); err != nil {
		s.log.append("ERROR starting encoder: " + err.Error())
		s.setStatusLocked(StatusStopped)
		return err
	}
	s.c = w
	s.cStdin = stdin
	return nil
}

// startVideoLocked ensures B is running. No-op if already alive.
// Must be called after the encoder so the UDP listener is ready.
func (s *Supervisor) startVideoLocked() error {
	if s.b != nil && s.b.alive() {
		return nil
	}
	s.killVideoLocked()
	if s.cfg.VideoFile == "" {
		s.log.append("no video file, cannot start Stream B")
		return ErrConfigMissing
	}
	if s.cfg.VideoUDPURL == "" {
		s.log.append("no video_udp_url configured, cannot start Stream B")
		return ErrConfigMissing
	}
	waitEncoderReady(s.cfg.VideoUDPURL)
	args := videoArgs(s.cfg.FFmpegPath, s.cfg.VideoFile, videoSizeOrDefault(s.cfg.VideoSize), s.encSettings.VideoFPS, s.overlayTextPath, s.nowPlayingPath, s.cfg.VideoUDPURL)
	s.log.append("launching video encoder (B): " + joinArgs(args))
	w, _, _, err := newWorker("ffmpeg-B", s.cfg.FFmpegPath, args[1:], s.log, false, modeLog)
	if err != nil {
		s.log.append("ERROR starting video (B): " + err.Error())
		return err
	}
	if err := w.start(); err != nil {
		s.log.append("ERROR starting video (B): " + err.Error())
		return err
	}
	s.b = w
	return nil
}

// startAudioLocked replaces A with a fresh decoder for the track at
// currentIndex starting at startSec, and starts a new pump for it.
func (s *Supervisor) startAudioLocked(startSec float64) error {
	s.killAudioLocked()
	path, ok := s.playlist.At(s.currentIndex)
	if !ok {
		return ErrInvalidArgument
	}
	args := audioArgs(s.cfg.FFmpegPath, path, startSec)
	s.log.append("launching audio decoder (A): " + joinArgs(args))
	w, _, rawStdout, err := newWorker("ffmpeg-A", s.cfg.FFmpegPath, args[1:], s.log, false, modeRawStdout)
	if err != nil {
		s.log.append("ERROR starting audio decoder: " + err.Error())
		return err
	}
	s.stopPumpFlag = false
	if err := w.start(); err != nil {
		s.log.append("ERROR starting audio decoder: " + err.Error())
		return err
	}
	s.a = w
	s.aStdout = rawStdout
	s.pumpGen++
	gen := s.pumpGen
	go s.runPump(gen, w, rawStdout, s.c, s.cStdin)
	return nil
}

// startPipelineLocked brings up C, then B, then A at startSec, and sets
// status to playing. Caller must hold mu.
func (s *Supervisor) startPipelineLocked(startSec float64) error {
	if s.playlist.Len() == 0 {
		s.log.append("play requested with empty playlist")
		return nil
	}
	if err := s.startEncoderLocked(); err != nil {
		return err
	}
	if err := s.startVideoLocked(); err != nil {
		return err
	}
	if err := s.startAudioLocked(startSec); err != nil {
		return err
	}
	s.anchor = newAnchor(startSec)
	s.setStatusLocked(StatusPlaying)
	s.failureCount = 0
	return nil
}

// restartFullPipelineLocked tears down all workers and starts fresh from
// startSec. Used by config changes that are baked into a worker command
// line and by watcher-driven recovery.
func (s *Supervisor) restartFullPipelineLocked(startSec float64) error {
	s.killAllLocked()
	return s.startPipelineLocked(startSec)
}

func videoSizeOrDefault(size string) string {
	if size == "" {
		return "1920x1080"
	}
	return size
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
