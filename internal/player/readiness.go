package player

import (
	"net"
	"net/url"
	"time"
)

// waitEncoderReady gives the encoder's UDP listener a moment to bind
// before the video worker starts writing to it. ffmpeg's UDP input opens
// the socket very early in its own startup, but not instantaneously; the
// original design papered over this with a flat multi-second sleep. Here
// we poll-probe the port instead, bounded at 500ms total, falling back to
// a short fixed delay if we can't tell.
//
// The probe works by trying to bind the same host:port ourselves: while
// the encoder hasn't claimed it yet, our bind succeeds and we immediately
// release it and retry; once the encoder owns the port, our bind fails
// with "address already in use" and we know it's listening.
func waitEncoderReady(videoUDPURL string) {
	host, port, ok := parseUDPHostPort(videoUDPURL)
	if !ok {
		time.Sleep(150 * time.Millisecond)
		return
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		pc, err := net.ListenPacket("udp", net.JoinHostPort(host, port))
		if err != nil {
			// Bind failed: something already owns the port.
			return
		}
		pc.Close()
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
}

func parseUDPHostPort(rawURL string) (host, port string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	host, port, err = net.SplitHostPort(u.Host)
	if err != nil {
		return "", "", false
	}
	return host, port, true
}
