// Package player implements the streaming core: a state-machine supervisor
// over three ffmpeg subprocesses (decoder A, video worker B, encoder C),
// the PCM pump bridging A and C, the watcher that restarts on crash, and
// the playlist/position/duration model that backs it all.
package player

import "time"

// Status is the supervisor's top-level playback state.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusPaused  Status = "paused"
	StatusPlaying Status = "playing"
	StatusError   Status = "error"
)

// PositionModel anchors a position-in-seconds to a monotonic timestamp so
// that live position can be computed without touching the lock on every
// read. While playing, live position is anchorPositionSec plus elapsed
// time since anchorMonotonic; otherwise it is just anchorPositionSec.
type PositionModel struct {
	anchorPositionSec float64
	anchorMonotonic   time.Time
}

func (p PositionModel) live(playing bool) float64 {
	if !playing {
		return p.anchorPositionSec
	}
	return p.anchorPositionSec + time.Since(p.anchorMonotonic).Seconds()
}

func newAnchor(positionSec float64) PositionModel {
	return PositionModel{anchorPositionSec: positionSec, anchorMonotonic: time.Now()}
}

// PipelineConfig holds the settings baked into the worker command lines.
type PipelineConfig struct {
	RTMPURL     string
	VideoFile   string
	OverlayText string
	FFmpegPath  string
	FFProbePath string
	VideoSize   string
	VideoUDPURL string
}

// StateSnapshot is the read-only view returned by GetState.
type StateSnapshot struct {
	Status          Status
	CurrentIndex    int
	CurrentPath     string
	PositionSec     float64
	Playlist        []string
	Durations       map[string]float64
	Config          PipelineConfig
	EncoderSettings EncoderSettings
}
