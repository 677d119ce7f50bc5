package header

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/verte-zerg/chi2plookup/internal/model"
)

// Written describes a header file after it has been saved.
type Written struct {
	Path   string
	Bytes  int64
	SHA256 string
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// WriteFile renders set into path, replacing any existing file only once the
// full header has been written.
func WriteFile(path string, set model.TableSet) (Written, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Written{}, fmt.Errorf("failed to create header dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".chi2pvalues-*.h")
	if err != nil {
		return Written{}, fmt.Errorf("failed to create temp header: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	hash := sha256.New()
	counter := &countingWriter{}
	if err := Write(io.MultiWriter(tmpFile, hash, counter), set); err != nil {
		return Written{}, fmt.Errorf("failed to write header: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		return Written{}, fmt.Errorf("failed to chmod header: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Written{}, fmt.Errorf("failed to close header: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return Written{}, fmt.Errorf("failed to write header: %w", err)
	}
	return Written{
		Path:   path,
		Bytes:  counter.n,
		SHA256: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}
