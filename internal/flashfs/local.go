package flashfs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Local is a Filesystem backed by an ordinary directory on disk. Mount
// fails unless the directory already exists; Format removes and recreates it. This
// stands in for the littlefs-over-SPI-NOR filesystem on the target
// gateway hardware.
type Local struct {
	dir string
}

// NewLocal returns a Local filesystem rooted at dir. Mount must be called
// before Open.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

func (l *Local) Mount() error {
	info, err := os.Stat(l.dir)
	if err != nil {
		return fmt.Errorf("flashfs: mount: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("flashfs: mount: %s is not a directory", l.dir)
	}
	return nil
}

func (l *Local) Format() error {
	if err := os.RemoveAll(l.dir); err != nil {
		return fmt.Errorf("flashfs: format: %w", err)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("flashfs: format: %w", err)
	}
	return nil
}

func (l *Local) Open(path string) (File, error) {
	full := filepath.Join(l.dir, path)
	f, err := os.OpenFile(full, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("flashfs: open %s: %w", path, err)
	}
	return &localFile{f: f}, nil
}

type localFile struct {
	f *os.File
}

func (lf *localFile) Read(p []byte) (int, error)  { return lf.f.Read(p) }
func (lf *localFile) Write(p []byte) (int, error) { return lf.f.Write(p) }
func (lf *localFile) Seek(offset int64, whence int) (int64, error) {
	return lf.f.Seek(offset, whence)
}
func (lf *localFile) Close() error            { return lf.f.Close() }
func (lf *localFile) Truncate(size int64) error { return lf.f.Truncate(size) }
func (lf *localFile) Size() (int64, error) {
	info, err := lf.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
