package player

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "loopcast_status",
		Help: "One-hot gauge of the current supervisor status (1 for the active status, 0 otherwise)",
	}, []string{"status"})

	positionSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loopcast_position_seconds",
		Help: "Current playback position within the active track, in seconds",
	})

	playlistLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loopcast_playlist_length",
		Help: "Number of tracks in the current playlist",
	})

	consecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loopcast_consecutive_encoder_failures",
		Help: "Consecutive encoder restart failures observed by the watcher",
	})

	trackAdvanceTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loopcast_track_advance_total",
		Help: "Total number of playlist track advances",
	})

	encoderRestartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopcast_encoder_restart_total",
		Help: "Total number of encoder pipeline restarts initiated by the watcher",
	}, []string{"result"})

	pumpEOFTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopcast_pump_eof_total",
		Help: "Total number of PCM pump terminations, labeled by cause",
	}, []string{"cause"})
)

var allStatuses = []string{string(StatusStopped), string(StatusPaused), string(StatusPlaying), string(StatusError)}

func observeStatus(s Status) {
	for _, candidate := range allStatuses {
		v := 0.0
		if candidate == string(s) {
			v = 1.0
		}
		statusGauge.WithLabelValues(candidate).Set(v)
	}
}
