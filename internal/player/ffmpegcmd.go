package player

import "fmt"

// EncoderSettings controls the long-lived encoder's (worker C) bitrate
// and framerate knobs. Zero values fall back to sane defaults in
// encoderArgs.
type EncoderSettings struct {
	AudioBitrate string
	VideoBitrate string
	Maxrate      string
	Bufsize      string
	VideoFPS     int
}

func (s EncoderSettings) withDefaults() EncoderSettings {
	if s.AudioBitrate == "" {
		s.AudioBitrate = "320k"
	}
	if s.VideoBitrate == "" {
		s.VideoBitrate = "800k"
	}
	if s.Maxrate == "" {
		s.Maxrate = "800k"
	}
	if s.Bufsize == "" {
		s.Bufsize = "1600k"
	}
	if s.VideoFPS == 0 {
		s.VideoFPS = 24
	}
	return s
}

// audioArgs builds worker A's argv: decode one track to raw PCM on stdout,
// optionally seeking to startSec first.
func audioArgs(ffmpegPath, audioPath string, startSec float64) []string {
	args := []string{ffmpegPath, "-hide_banner", "-loglevel", "warning"}
	if startSec > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", startSec))
	}
	args = append(args,
		"-re",
		"-i", audioPath,
		"-vn",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"pipe:1",
	)
	return args
}

// videoArgs builds worker B's argv: loop the video bed, apply the two
// live-reloadable text overlays, and emit H.264/MPEG-TS to videoUDPURL.
func videoArgs(ffmpegPath, videoFile, videoSize string, fps int, overlayTextPath, nowPlayingPath, videoUDPURL string) []string {
	if fps == 0 {
		fps = 24
	}
	vf := fmt.Sprintf("scale=%s,format=yuv420p", videoSize)
	vf += fmt.Sprintf(",drawtext=textfile='%s':reload=1:x=20:y=50:fontsize=36:fontcolor=white:box=1:boxcolor=black", overlayTextPath)
	vf += fmt.Sprintf(",drawtext=textfile='%s':reload=1:x=20:y=h-80:fontsize=32:fontcolor=white:box=1:boxcolor=black", nowPlayingPath)

	return []string{
		ffmpegPath,
		"-hide_banner", "-loglevel", "warning",
		"-analyzeduration", "10M",
		"-probesize", "10M",
		"-re",
		"-stream_loop", "-1",
		"-i", videoFile,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", fps),
		"-f", "mpegts",
		videoUDPURL,
	}
}

// encoderArgs builds worker C's argv: mux PCM from stdin with the
// MPEG-TS video fed in over UDP from worker B, and push RTMP/FLV out.
// Video is copied, not re-encoded, since B already produced H.264.
func encoderArgs(ffmpegPath, videoUDPURL, rtmpURL string, settings EncoderSettings) []string {
	s := settings.withDefaults()
	return []string{
		ffmpegPath,
		"-hide_banner", "-loglevel", "warning",
		"-nostdin",
		"-f", "s16le", "-ar", "48000", "-ac", "2",
		"-i", "pipe:0",
		"-i", videoUDPURL,
		"-map", "1:v:0",
		"-map", "0:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", s.AudioBitrate,
		"-b:v", s.VideoBitrate,
		"-maxrate", s.Maxrate,
		"-bufsize", s.Bufsize,
		"-threads", "1",
		"-f", "flv",
		rtmpURL,
	}
}
