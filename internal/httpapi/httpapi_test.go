package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/loopcast/loopcast/internal/authsession"
	"github.com/loopcast/loopcast/internal/player"
	"github.com/loopcast/loopcast/internal/playlist"
	"github.com/loopcast/loopcast/internal/profiles"
	"github.com/loopcast/loopcast/internal/uploads"
)

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	overlay := filepath.Join(dir, "overlay_text.txt")
	nowPlaying := filepath.Join(dir, "now_playing.txt")
	if err := player.InitOverlayFiles(overlay, nowPlaying); err != nil {
		t.Fatalf("InitOverlayFiles: %v", err)
	}
	pl := playlist.New()
	sup := player.New(pl, nil, overlay, nowPlaying)

	sessions := authsession.New("admin", "secret")
	audio := uploads.NewAudioRoot(filepath.Join(dir, "audio"))
	video := uploads.NewVideoRoot(filepath.Join(dir, "video"))
	pr, err := profiles.Open(filepath.Join(dir, "profiles.json"))
	if err != nil {
		t.Fatalf("profiles.Open: %v", err)
	}
	return New(sup, sessions, audio, video, pr, "")
}

func doJSON(t *testing.T, mux http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestLoginThenAuthenticatedStateAccess(t *testing.T) {
	s := newTestServer(t)
	mux := s.Mux()

	loginRec := doJSON(t, mux, "POST", "/login", "", map[string]string{"username": "admin", "password": "secret"})
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", loginRec.Code, loginRec.Body.String())
	}
	var loginResp struct{ Token string }
	if err := json.Unmarshal(loginRec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatal("expected non-empty token")
	}

	stateRec := doJSON(t, mux, "GET", "/state", loginResp.Token, nil)
	if stateRec.Code != http.StatusOK {
		t.Fatalf("state status=%d body=%s", stateRec.Code, stateRec.Body.String())
	}
}

func TestStateWithoutTokenIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Mux(), "GET", "/state", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", rec.Code)
	}
}

func TestLoginWithBadCredentialsIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Mux(), "POST", "/login", "", map[string]string{"username": "admin", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", rec.Code)
	}
}

func TestVideoWithEmptyPathIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	mux := s.Mux()
	token, _ := s.sessions.Login("admin", "secret")
	rec := doJSON(t, mux, "POST", "/video", token, map[string]string{"path": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteUploadOutsideRootIsForbidden(t *testing.T) {
	s := newTestServer(t)
	mux := s.Mux()
	token, _ := s.sessions.Login("admin", "secret")
	rec := doJSON(t, mux, "DELETE", "/uploads/audio/..%2F..%2Fetc%2Fpasswd", token, nil)
	if rec.Code != http.StatusForbidden && rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 403 (or 404 if mux normalizes the path first), body=%s", rec.Code, rec.Body.String())
	}
}

func TestUploadRejectsContentMismatchedWithExtension(t *testing.T) {
	s := newTestServer(t)
	mux := s.Mux()
	token, _ := s.sessions.Login("admin", "secret")

	ftyp := []byte{0, 0, 0, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
	body, contentType := multipartUpload(t, "song.mp3", ftyp)
	req := httptest.NewRequest("POST", "/uploads/audio", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestUploadAcceptsMatchingContent(t *testing.T) {
	s := newTestServer(t)
	mux := s.Mux()
	token, _ := s.sessions.Login("admin", "secret")

	body, contentType := multipartUpload(t, "song.mp3", []byte("ID3\x03\x00\x00\x00"))
	req := httptest.NewRequest("POST", "/uploads/audio", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteUnknownProfileIsNotFound(t *testing.T) {
	s := newTestServer(t)
	mux := s.Mux()
	token, _ := s.sessions.Login("admin", "secret")
	rec := doJSON(t, mux, "DELETE", "/profiles/ghost", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404, body=%s", rec.Code, rec.Body.String())
	}
}

func TestPutAndListProfile(t *testing.T) {
	s := newTestServer(t)
	mux := s.Mux()
	token, _ := s.sessions.Login("admin", "secret")
	putRec := doJSON(t, mux, "POST", "/profiles", token, profiles.Profile{Name: "main", URL: "rtmp://host/live/key"})
	if putRec.Code != http.StatusNoContent {
		t.Fatalf("put status=%d body=%s", putRec.Code, putRec.Body.String())
	}
	listRec := doJSON(t, mux, "GET", "/profiles", token, nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status=%d", listRec.Code)
	}
	var resp struct{ Profiles []profiles.Profile }
	if err := json.Unmarshal(listRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Profiles) != 1 || resp.Profiles[0].Name != "main" {
		t.Fatalf("profiles=%v", resp.Profiles)
	}
}
