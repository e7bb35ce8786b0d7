package player

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/loopcast/loopcast/internal/durationcache"
	"github.com/loopcast/loopcast/internal/playlist"
)

// Supervisor is the single state-machine struct owning playlist, position,
// status, and the three media worker handles. Exported methods acquire mu
// around every read and mutation of this state (a few, such as
// LoadPlaylist, SetOverlayText and Shutdown, release it before their
// file writes, duration probes or worker waits); internal callers that already hold
// mu call the matching *Locked method directly instead of re-locking,
// since sync.Mutex is not reentrant. This mirrors the lock+locked_impl
// factoring recommended for subprocess-heavy control-plane code without a
// native reentrant mutex.
type Supervisor struct {
	mu sync.Mutex

	cfg         PipelineConfig
	encSettings EncoderSettings

	status       Status
	playlist     *playlist.Playlist
	currentIndex int
	anchor       PositionModel

	recentSeekMonotonic time.Time
	stopPumpFlag        bool

	a, b, c *worker
	cStdin  io.WriteCloser
	aStdout io.ReadCloser
	pumpGen int // bumped each time a new pump starts, lets a stale pump detect it's been superseded

	failureCount int
	limiter      *rate.Limiter

	overlayTextPath string
	nowPlayingPath  string

	durationCache *durationcache.Cache
	log           *ringLog

	shutdownRequested bool
}

// New builds a Supervisor. overlayTextPath/nowPlayingPath must already
// exist (callers create them empty at startup per the overlay file
// contract); durationCache may be nil to disable cross-restart duration
// persistence.
func New(pl *playlist.Playlist, durationCache *durationcache.Cache, overlayTextPath, nowPlayingPath string) *Supervisor {
	s := &Supervisor{
		status:          StatusStopped,
		playlist:        pl,
		anchor:          newAnchor(0),
		overlayTextPath: overlayTextPath,
		nowPlayingPath:  nowPlayingPath,
		durationCache:   durationCache,
		log:             newRingLog(),
		limiter:         rate.NewLimiter(rate.Every(60*time.Second), 5),
		encSettings:     EncoderSettings{}.withDefaults(),
	}
	observeStatus(s.status)
	return s
}

// Log returns every line currently in the ring log.
func (s *Supervisor) Log() []string {
	return s.log.snapshot(0)
}

// LogLimit returns the most recent limit lines, for the HTTP layer's
// /logs endpoint.
func (s *Supervisor) LogLimit(limit int) []string {
	return s.log.snapshot(limit)
}

func (s *Supervisor) setStatusLocked(st Status) {
	s.status = st
	observeStatus(st)
}

// writeOverlayFile rewrites an overlay text file in place. Writing a new
// file and renaming over the target would break ffmpeg's reload=1 file
// watch (it reopens by path, but a rename can race a read); a plain
// truncate-and-write matches the overlay contract's expectation that the
// video worker simply re-reads the same inode each frame.
func writeOverlayFile(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

// InitOverlayFiles creates the two overlay files empty if they don't
// already exist, per the Overlay state contract in the data model.
func InitOverlayFiles(overlayTextPath, nowPlayingPath string) error {
	for _, p := range []string{overlayTextPath, nowPlayingPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			if err := os.WriteFile(p, nil, 0o644); err != nil {
				return fmt.Errorf("init overlay file %s: %w", p, err)
			}
		}
	}
	return nil
}
