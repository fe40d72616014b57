package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotateWriter is an io.Writer that appends to a file and rolls it over once
// it grows past MaxSize bytes.
type RotateWriter struct {
	filename    string
	maxSize     int64
	maxBackups  int
	mu          sync.Mutex
	file        *os.File
	currentSize int64
}

// RotateConfig holds configuration for log rotation.
type RotateConfig struct {
	Filename   string
	MaxSize    int64 // bytes, default 50MB
	MaxBackups int   // rotated files kept, 0 keeps all
}

// NewRotateWriter opens (or creates) cfg.Filename for appending.
func NewRotateWriter(cfg *RotateConfig) (*RotateWriter, error) {
	if cfg == nil || cfg.Filename == "" {
		return nil, fmt.Errorf("rotate writer: filename cannot be empty")
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 50 * 1024 * 1024
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0o755); err != nil {
		return nil, fmt.Errorf("rotate writer: create log dir: %w", err)
	}

	w := &RotateWriter{
		filename:   cfg.Filename,
		maxSize:    maxSize,
		maxBackups: cfg.MaxBackups,
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer.
func (w *RotateWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.currentSize+int64(len(p)) > w.maxSize && w.currentSize > 0 {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

// Close closes the current log file. It is safe to call more than once.
func (w *RotateWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotateWriter) openFile() error {
	if info, err := os.Stat(w.filename); err == nil {
		w.currentSize = info.Size()
	}
	f, err := os.OpenFile(w.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("rotate writer: open log file: %w", err)
	}
	w.file = f
	return nil
}

func (w *RotateWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	ext := filepath.Ext(w.filename)
	stem := strings.TrimSuffix(w.filename, ext)
	backup := fmt.Sprintf("%s-%s%s", stem, time.Now().Format("20060102-150405.000"), ext)
	if err := os.Rename(w.filename, backup); err != nil {
		return fmt.Errorf("rotate writer: rename log file: %w", err)
	}

	w.pruneBackups(stem, ext)
	w.currentSize = 0
	return w.openFile()
}

// pruneBackups removes the oldest rotated files beyond maxBackups. Backup
// names embed a sortable timestamp, so lexical order is age order.
func (w *RotateWriter) pruneBackups(stem, ext string) {
	if w.maxBackups <= 0 {
		return
	}
	matches, err := filepath.Glob(stem + "-*" + ext)
	if err != nil || len(matches) <= w.maxBackups {
		return
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-w.maxBackups] {
		_ = os.Remove(old)
	}
}
