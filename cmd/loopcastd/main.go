// Command loopcastd mixes a playlist of audio tracks with a looping video
// bed and pushes a single uninterrupted RTMP broadcast, controlled over an
// HTTP/JSON admin surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loopcast/loopcast/internal/authsession"
	"github.com/loopcast/loopcast/internal/config"
	"github.com/loopcast/loopcast/internal/durationcache"
	"github.com/loopcast/loopcast/internal/httpapi"
	"github.com/loopcast/loopcast/internal/player"
	"github.com/loopcast/loopcast/internal/playlist"
	"github.com/loopcast/loopcast/internal/profiles"
	"github.com/loopcast/loopcast/internal/uploads"
)

func main() {
	envFile := flag.String("env", ".env", "Path to .env file (optional)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Printf("load env file: %v", err)
	}
	cfg := config.Load()

	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	if err := os.MkdirAll(cfg.UploadAudioDir, 0o755); err != nil {
		log.Fatalf("create upload audio dir: %v", err)
	}
	if err := os.MkdirAll(cfg.UploadVideoDir, 0o755); err != nil {
		log.Fatalf("create upload video dir: %v", err)
	}

	overlayTextPath := "overlay_text.txt"
	nowPlayingPath := "now_playing.txt"
	if err := player.InitOverlayFiles(overlayTextPath, nowPlayingPath); err != nil {
		log.Fatalf("init overlay files: %v", err)
	}

	durationCache, err := durationcache.Open(cfg.DurationCachePath)
	if err != nil {
		log.Fatalf("open duration cache: %v", err)
	}
	defer durationCache.Close()

	pl := playlist.New()
	sup := player.New(pl, durationCache, overlayTextPath, nowPlayingPath)

	persisted, err := config.LoadPersisted(cfg.ConfigPath)
	if err != nil {
		log.Printf("load persisted config: %v", err)
	}
	applyPersisted(sup, cfg, persisted)

	watcherCtx, cancelWatcher := context.WithCancel(context.Background())
	go sup.RunWatcher(watcherCtx, cfg.WatcherInterval)

	sessions := authsession.New(cfg.AdminUsername, cfg.AdminPassword)
	audioRoot := uploads.NewAudioRoot(cfg.UploadAudioDir)
	videoRoot := uploads.NewVideoRoot(cfg.UploadVideoDir)
	profileStore, err := profiles.Open(cfg.ProfilesPath)
	if err != nil {
		log.Fatalf("open profiles: %v", err)
	}

	server := httpapi.New(sup, sessions, audioRoot, videoRoot, profileStore, cfg.ConfigPath)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{Addr: addr, Handler: server.Mux()}

	go func() {
		log.Printf("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down")

	cancelWatcher()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	sup.Shutdown(shutdownCtx)
	httpServer.Shutdown(shutdownCtx)
}

// applyPersisted seeds the supervisor's config from the last saved run,
// falling back to environment defaults for anything not yet persisted.
func applyPersisted(sup *player.Supervisor, cfg *config.Config, p config.PersistedSettings) {
	rtmpURL := cfg.DefaultRTMPURL
	if p.RTMPURL != "" {
		rtmpURL = p.RTMPURL
	}
	ffmpegPath := cfg.FFmpegPath
	if p.FFmpegPath != "" {
		ffmpegPath = p.FFmpegPath
	}

	sup.SetFFProbePath(cfg.FFProbePath)
	sup.SetVideoSize(cfg.VideoSize)
	sup.SetVideoUDPURL(cfg.VideoUDPURL)
	if ffmpegPath != "" {
		sup.SetFFmpegPath(ffmpegPath)
	}
	if rtmpURL != "" {
		sup.SetRTMP(rtmpURL)
	}
	if p.VideoFile != "" {
		sup.SetVideo(p.VideoFile)
	}
	if p.OverlayText != "" {
		sup.SetOverlayText(p.OverlayText)
	}
	if len(p.Playlist) > 0 {
		sup.LoadPlaylist(p.Playlist)
	}
	sup.SetEncoderSettings(player.EncoderSettings{
		AudioBitrate: p.AudioBitrate,
		VideoBitrate: p.VideoBitrate,
		Maxrate:      p.Maxrate,
		Bufsize:      p.Bufsize,
		VideoFPS:     p.VideoFPS,
	})
}
