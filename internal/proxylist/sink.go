package proxylist

import (
	"fmt"
	"os"
	"path/filepath"

	"proxycheck/internal/domain"
)

// Sink persists the finalized result set of a run.
type Sink interface {
	Write(results domain.ResultSet) (bool, error)
	Location() string
}

// FileSink writes the working proxies newline-joined to Path. The file is
// replaced atomically so a reader never sees a partial list.
type FileSink struct {
	Path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (sink *FileSink) Location() string {
	return sink.Path
}

// Write reports whether anything was written. An empty result set leaves
// the target untouched.
func (sink *FileSink) Write(results domain.ResultSet) (bool, error) {
	if results.Len() == 0 {
		return false, nil
	}

	dir := filepath.Dir(sink.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(sink.Path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("proxylist: create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(results.Text()); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("proxylist: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("proxylist: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("proxylist: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return false, fmt.Errorf("proxylist: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, sink.Path); err != nil {
		return false, fmt.Errorf("proxylist: replace %s: %w", sink.Path, err)
	}

	committed = true
	return true, nil
}
