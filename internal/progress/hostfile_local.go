package progress

import "os"

// LocalHostFile implements HostFile atop an ordinary *os.File. It stands
// in for the embedded host-provided mutable-file peripheral (spec.md §6)
// when the agent runs on a Linux gateway rather than the microcontroller
// it was originally specified for.
type LocalHostFile struct {
	f *os.File
}

// OpenLocalHostFile opens (creating if necessary) the mutable record file
// at path.
func OpenLocalHostFile(path string) (*LocalHostFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &LocalHostFile{f: f}, nil
}

func (l *LocalHostFile) ReadAt(p []byte, off int64) (int, error) {
	return l.f.ReadAt(p, off)
}

func (l *LocalHostFile) WriteAt(p []byte, off int64) (int, error) {
	return l.f.WriteAt(p, off)
}

func (l *LocalHostFile) Truncate(size int64) error {
	return l.f.Truncate(size)
}

func (l *LocalHostFile) Size() (int64, error) {
	info, err := l.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close releases the underlying file descriptor.
func (l *LocalHostFile) Close() error {
	return l.f.Close()
}
