package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadPersistedMissingFileReturnsZeroValue(t *testing.T) {
	s, err := LoadPersisted(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadPersisted err=%v", err)
	}
	if !reflect.DeepEqual(s, PersistedSettings{}) {
		t.Fatalf("expected zero value, got %+v", s)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	want := PersistedSettings{
		RTMPURL:      "rtmp://host/live/key",
		FFmpegPath:   "/usr/bin/ffmpeg",
		VideoFile:    "/media/loop.mp4",
		OverlayText:  "Now streaming",
		Playlist:     []string{"/music/a.mp3", "/music/b.mp3"},
		AudioBitrate: "320k",
		VideoBitrate: "800k",
		Maxrate:      "800k",
		Bufsize:      "1600k",
		VideoFPS:     24,
	}
	if err := SavePersisted(path, want); err != nil {
		t.Fatalf("SavePersisted err=%v", err)
	}
	got, err := LoadPersisted(path)
	if err != nil {
		t.Fatalf("LoadPersisted err=%v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}
