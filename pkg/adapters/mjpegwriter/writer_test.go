package mjpegwriter

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestBackend_WritesAVI(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.avi")
	w, err := New().Open(out, Codec, 2.4, 32, 24, 80)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !w.IsOpen() {
		t.Fatal("expected open writer")
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(image.NewRGBA(image.Rect(0, 0, 32, 24))); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.IsOpen() {
		t.Error("expected closed writer")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("AVI ")) {
		t.Errorf("output is not an AVI file: % x", data[:12])
	}
}

func TestBackend_RejectsOtherCodecs(t *testing.T) {
	_, err := New().Open(filepath.Join(t.TempDir(), "x.avi"), "libx264", 10, 32, 24, 80)
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("expected ErrUnsupportedCodec, got %v", err)
	}
}

func TestWriter_EmptyFileRemoved(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.avi")
	w, err := New().Open(out, Codec, 10, 32, 24, 80)
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("expected empty AVI removed, stat err=%v", err)
	}
}

func TestWriter_SizeMismatch(t *testing.T) {
	w, err := New().Open(filepath.Join(t.TempDir(), "x.avi"), Codec, 10, 32, 24, 80)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Write(image.NewRGBA(image.Rect(0, 0, 16, 16))); err == nil {
		t.Error("expected size mismatch error")
	}
}
