package gaugedata

import (
	"fmt"
	"os"
	"path/filepath"
)

// Publisher writes gauge-data.txt. Each write goes to a temporary file in
// the same directory which is then renamed over the target, so readers see
// either the previous snapshot or the new one in full.
type Publisher struct {
	path string
}

// NewPublisher returns a Publisher writing to path.
func NewPublisher(path string) *Publisher {
	return &Publisher{path: path}
}

// Path returns the file the Publisher writes.
func (p *Publisher) Path() string {
	return p.path
}

// Write atomically replaces the file with data, creating the directory if
// needed. Errors wrap ErrPublish.
func (p *Publisher) Write(data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	tmpName := tmp.Name()

	if err := writeAndClose(tmp, data); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", ErrPublish, tmpName, err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
