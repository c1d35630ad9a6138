package record

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/aleskucera/simview/internal/sim/playback"
)

// Writer captures playback frames into a zstd-compressed JSONL file, one
// entry per tick, with the recording metadata as the first line. It
// implements playback.Recorder; Begin acquires the file handle and End
// releases it, so the scheduler's stop paths leave no open file behind.
type Writer struct {
	baseDir string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Path returns the file a recording with the given ID is written to.
func (w *Writer) Path(id string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("capture-%s.jsonl.zst", id))
}

func (w *Writer) Begin(meta playback.RecordingMeta) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f != nil {
		return fmt.Errorf("recording already open")
	}
	if meta.ID == "" {
		return fmt.Errorf("recording without id")
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.Path(meta.ID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	return w.writeLocked(meta)
}

func (w *Writer) Capture(f playback.CaptureFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return fmt.Errorf("recording not open")
	}
	return w.writeLocked(f)
}

// End flushes and closes the capture file. Safe to call when no recording
// is open.
func (w *Writer) End() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) writeLocked(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.w = nil
	return err
}
