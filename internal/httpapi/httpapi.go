// Package httpapi exposes the JSON control surface described by the
// external interfaces: login/logout, state and logs, playlist and config
// mutation, transport controls, upload management, and saved RTMP
// profiles. It is a thin translation layer — all state lives in
// player.Supervisor, authsession.Store, uploads.Root, and profiles.Store;
// this package only decodes requests, calls them, and encodes responses.
package httpapi

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loopcast/loopcast/internal/authsession"
	"github.com/loopcast/loopcast/internal/config"
	"github.com/loopcast/loopcast/internal/player"
	"github.com/loopcast/loopcast/internal/profiles"
	"github.com/loopcast/loopcast/internal/uploads"
)

// Server wires the supervisor and its collaborators into an HTTP mux.
type Server struct {
	sup        *player.Supervisor
	sessions   *authsession.Store
	audio      *uploads.Root
	video      *uploads.Root
	profiles   *profiles.Store
	configPath string
}

// New builds a Server. configPath may be empty to disable persistence.
func New(sup *player.Supervisor, sessions *authsession.Store, audio, video *uploads.Root, pr *profiles.Store, configPath string) *Server {
	return &Server{sup: sup, sessions: sessions, audio: audio, video: video, profiles: pr, configPath: configPath}
}

// Mux builds the complete routing table.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.Handle("POST /logout", s.auth(s.handleLogout))

	mux.Handle("GET /state", s.auth(s.compressed(s.handleState)))
	mux.Handle("GET /logs", s.auth(s.compressed(s.handleLogs)))

	mux.Handle("POST /playlist", s.auth(s.handlePlaylist))
	mux.Handle("POST /playlist/order", s.auth(s.handlePlaylistOrder))

	mux.Handle("POST /video", s.auth(s.handleVideo))
	mux.Handle("POST /rtmp", s.auth(s.handleRTMP))
	mux.Handle("POST /ffmpeg", s.auth(s.handleFFmpeg))
	mux.Handle("POST /overlay", s.auth(s.handleOverlay))
	mux.Handle("POST /encoder_settings", s.auth(s.handleEncoderSettings))

	mux.Handle("POST /play", s.auth(s.handlePlay))
	mux.Handle("POST /play_index", s.auth(s.handlePlayIndex))
	mux.Handle("POST /pause", s.auth(s.handlePause))
	mux.Handle("POST /stop", s.auth(s.handleStop))
	mux.Handle("POST /skip", s.auth(s.handleSkip))
	mux.Handle("POST /seek", s.auth(s.handleSeek))

	mux.Handle("POST /uploads/audio", s.auth(s.handleUpload(s.audio)))
	mux.Handle("GET /uploads/audio", s.auth(s.handleListUploads(s.audio)))
	mux.Handle("DELETE /uploads/audio/{name}", s.auth(s.handleDeleteUpload(s.audio)))

	mux.Handle("POST /uploads/video", s.auth(s.handleUpload(s.video)))
	mux.Handle("GET /uploads/video", s.auth(s.handleListUploads(s.video)))
	mux.Handle("DELETE /uploads/video/{name}", s.auth(s.handleDeleteUpload(s.video)))

	mux.Handle("GET /profiles", s.auth(s.handleListProfiles))
	mux.Handle("POST /profiles", s.auth(s.handlePutProfile))
	mux.Handle("DELETE /profiles/{name}", s.auth(s.handleDeleteProfile))

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// --- auth ---

func (s *Server) tokenFromHeader(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

func (s *Server) auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.Valid(s.tokenFromHeader(r)) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

// compressed wraps the handler so /state and /logs responses are brotli- or
// gzip-encoded when the client advertises support, since both are
// JSON bodies that tend to grow with playlist/log size.
func (s *Server) compressed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept-Encoding")
		switch {
		case strings.Contains(accept, "br"):
			bw := brotli.NewWriter(w)
			defer bw.Close()
			w.Header().Set("Content-Encoding", "br")
			next(&compressedWriter{ResponseWriter: w, w: bw}, r)
		case strings.Contains(accept, "gzip"):
			gw := gzip.NewWriter(w)
			defer gw.Close()
			w.Header().Set("Content-Encoding", "gzip")
			next(&compressedWriter{ResponseWriter: w, w: gw}, r)
		default:
			next(w, r)
		}
	}
}

type compressedWriter struct {
	http.ResponseWriter
	w io.Writer
}

func (c *compressedWriter) Write(b []byte) (int, error) { return c.w.Write(b) }

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusForErr maps a core error to the HTTP status the external
// interfaces section specifies: InvalidArgument -> 400, auth -> 401,
// traversal -> 403, missing profile/entity -> 404.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, player.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, player.ErrConfigMissing):
		return http.StatusBadRequest
	case errors.Is(err, uploads.ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, uploads.ErrUnsupportedExtension):
		return http.StatusBadRequest
	case errors.Is(err, uploads.ErrContentMismatch):
		return http.StatusBadRequest
	case errors.Is(err, profiles.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleErr(w http.ResponseWriter, err error) {
	writeError(w, statusForErr(err), err.Error())
}

// persist snapshots the supervisor's persistable settings to configPath.
// Best-effort: a failure here is logged, not surfaced, since the in-memory
// state remains authoritative for the running process.
func (s *Server) persist() {
	if s.configPath == "" {
		return
	}
	st := s.sup.GetState()
	settings := config.PersistedSettings{
		RTMPURL:      st.Config.RTMPURL,
		FFmpegPath:   st.Config.FFmpegPath,
		VideoFile:    st.Config.VideoFile,
		OverlayText:  st.Config.OverlayText,
		Playlist:     st.Playlist,
		AudioBitrate: st.EncoderSettings.AudioBitrate,
		VideoBitrate: st.EncoderSettings.VideoBitrate,
		Maxrate:      st.EncoderSettings.Maxrate,
		Bufsize:      st.EncoderSettings.Bufsize,
		VideoFPS:     st.EncoderSettings.VideoFPS,
	}
	if err := config.SavePersisted(s.configPath, settings); err != nil {
		log.Printf("httpapi: persist config: %v", err)
	}
}

// --- handlers: auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct{ Username, Password string }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, ok := s.sessions.Login(req.Username, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(s.tokenFromHeader(r))
	w.WriteHeader(http.StatusNoContent)
}

// --- handlers: state/logs ---

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.sup.GetState()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        st.Status,
		"current_index": st.CurrentIndex,
		"current_path":  st.CurrentPath,
		"position":      st.PositionSec,
		"playlist":      st.Playlist,
		"durations":     st.Durations,
		"rtmp_url":      st.Config.RTMPURL,
		"video_file":    st.Config.VideoFile,
		"overlay_text":  st.Config.OverlayText,
		"ffmpeg_path":   st.Config.FFmpegPath,
		"video_size":    st.Config.VideoSize,
		"audio_bitrate": st.EncoderSettings.AudioBitrate,
		"video_bitrate": st.EncoderSettings.VideoBitrate,
		"maxrate":       st.EncoderSettings.Maxrate,
		"bufsize":       st.EncoderSettings.Bufsize,
		"video_fps":     st.EncoderSettings.VideoFPS,
		"profiles":      s.profiles.List(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": s.sup.LogLimit(limit)})
}

// --- handlers: playlist ---

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct{ Files []string }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.sup.LoadPlaylist(req.Files)
	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlaylistOrder(w http.ResponseWriter, r *http.Request) {
	var req struct{ Files []string }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.sup.SetPlaylistOrder(req.Files)
	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

// --- handlers: config mutation ---

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	var req struct{ Path string }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.sup.SetVideo(req.Path); err != nil {
		s.handleErr(w, err)
		return
	}
	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRTMP(w http.ResponseWriter, r *http.Request) {
	var req struct{ URL string }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.sup.SetRTMP(req.URL); err != nil {
		s.handleErr(w, err)
		return
	}
	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFFmpeg(w http.ResponseWriter, r *http.Request) {
	var req struct{ Path string }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.sup.SetFFmpegPath(req.Path); err != nil {
		s.handleErr(w, err)
		return
	}
	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var req struct{ Text string }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.sup.SetOverlayText(req.Text); err != nil {
		s.handleErr(w, err)
		return
	}
	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEncoderSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AudioBitrate string `json:"audio_bitrate"`
		VideoBitrate string `json:"video_bitrate"`
		Maxrate      string `json:"maxrate"`
		Bufsize      string `json:"bufsize"`
		VideoFPS     int    `json:"video_fps"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.sup.SetEncoderSettings(player.EncoderSettings{
		AudioBitrate: req.AudioBitrate,
		VideoBitrate: req.VideoBitrate,
		Maxrate:      req.Maxrate,
		Bufsize:      req.Bufsize,
		VideoFPS:     req.VideoFPS,
	})
	if err != nil {
		s.handleErr(w, err)
		return
	}
	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

// --- handlers: transport ---

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := s.sup.Play(); err != nil {
		s.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlayIndex(w http.ResponseWriter, r *http.Request) {
	var req struct{ Index int }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.sup.PlayIndex(req.Index); err != nil {
		s.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.sup.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.sup.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.sup.SkipNext()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req struct{ Seconds float64 }
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.sup.Seek(req.Seconds); err != nil {
		s.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- handlers: uploads ---

func (s *Server) handleUpload(root *uploads.Root) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()
		path, err := root.Save(header.Filename, file)
		if err != nil {
			s.handleErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	}
}

func (s *Server) handleListUploads(root *uploads.Root) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := root.List()
		if err != nil {
			s.handleErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": names})
	}
}

func (s *Server) handleDeleteUpload(root *uploads.Root) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if err := root.Delete(name); err != nil {
			s.handleErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- handlers: profiles ---

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"profiles": s.profiles.List()})
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p profiles.Profile
	if err := decodeJSON(r, &p); err != nil || p.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid profile")
		return
	}
	if err := s.profiles.Put(p); err != nil {
		s.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.profiles.Delete(name); err != nil {
		s.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
