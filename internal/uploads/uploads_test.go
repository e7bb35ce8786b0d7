package uploads

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	r := NewAudioRoot(t.TempDir())
	if _, err := r.Save("track.exe", strings.NewReader("data")); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("err=%v want ErrUnsupportedExtension", err)
	}
}

func TestSaveRejectsPathTraversal(t *testing.T) {
	r := NewAudioRoot(t.TempDir())
	for _, name := range []string{"../escape.mp3", "../../etc/passwd.mp3", "sub/dir.mp3"} {
		if _, err := r.Save(name, strings.NewReader("data")); !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("name=%q err=%v want ErrOutsideRoot", name, err)
		}
	}
}

func TestSaveAndListRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewAudioRoot(dir)
	path, err := r.Save("song.mp3", strings.NewReader("fake mp3 bytes"))
	if err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Fatalf("path=%q not under root %q", path, dir)
	}
	names, err := r.List()
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if len(names) != 1 || names[0] != "song.mp3" {
		t.Fatalf("names=%v want [song.mp3]", names)
	}
}

func TestDeleteRejectsTraversal(t *testing.T) {
	r := NewVideoRoot(t.TempDir())
	if err := r.Delete("../outside.mp4"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("err=%v want ErrOutsideRoot", err)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	r := NewVideoRoot(dir)
	path, err := r.Save("loop.mp4", strings.NewReader("fake mp4 bytes"))
	if err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if err := r.Delete("loop.mp4"); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
}

func TestListOnMissingDirReturnsEmpty(t *testing.T) {
	r := NewAudioRoot(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := r.List()
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if len(names) != 0 {
		t.Fatalf("names=%v want empty", names)
	}
}

func TestSaveRejectsContentThatDoesNotMatchClaimedKind(t *testing.T) {
	dir := t.TempDir()
	r := NewAudioRoot(dir)
	ftyp := []byte{0, 0, 0, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
	if _, err := r.Save("song.mp3", strings.NewReader(string(ftyp))); !errors.Is(err, ErrContentMismatch) {
		t.Fatalf("err=%v want ErrContentMismatch", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "song.mp3")); !os.IsNotExist(err) {
		t.Fatalf("expected rejected upload to be removed, stat err=%v", err)
	}
}

func TestSaveAcceptsContentMatchingClaimedKind(t *testing.T) {
	r := NewAudioRoot(t.TempDir())
	if _, err := r.Save("song.mp3", strings.NewReader("ID3\x03\x00\x00\x00")); err != nil {
		t.Fatalf("Save err=%v", err)
	}
}

func TestSniffDetectsID3AudioAndFtypVideo(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(audioPath, []byte("ID3\x03\x00\x00\x00"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	kind, err := Sniff(audioPath)
	if err != nil {
		t.Fatalf("Sniff err=%v", err)
	}
	if kind != KindAudio {
		t.Fatalf("kind=%v want audio", kind)
	}

	videoPath := filepath.Join(dir, "v.bin")
	if err := os.WriteFile(videoPath, []byte{0, 0, 0, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	kind, err = Sniff(videoPath)
	if err != nil {
		t.Fatalf("Sniff err=%v", err)
	}
	if kind != KindVideo {
		t.Fatalf("kind=%v want video", kind)
	}
}
