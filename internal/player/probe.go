package player

import (
	"bytes"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// probeDuration runs ffprobe against path and parses a single
// floating-point number of seconds from its output. Returns false on any
// failure (missing binary, non-zero exit, unparsable output) rather than
// an error, matching the duration map's "unknowns are simply absent"
// contract.
func probeDuration(ffprobePath, path string) (float64, bool) {
	cmd := exec.Command(ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return seconds, true
}

// refreshDurationsAsync probes every path in paths that doesn't already
// have a known duration, checking the persistent cache first. Results are
// installed into the playlist's duration map under its own lock as they
// complete; this runs without holding the supervisor's lock so a large
// playlist load stays responsive, per the recommended async design.
func (s *Supervisor) refreshDurationsAsync(paths []string) {
	for _, path := range paths {
		path := path
		go func() {
			if s.durationCache != nil {
				if seconds, ok := s.durationCache.Get(path); ok {
					s.playlist.SetDuration(path, seconds)
					return
				}
			}
			seconds, ok := probeDuration(s.cfg.FFProbePath, path)
			if !ok {
				return
			}
			s.playlist.SetDuration(path, seconds)
			if s.durationCache != nil {
				_ = s.durationCache.Put(path, seconds, time.Now().Unix())
			}
		}()
	}
}
