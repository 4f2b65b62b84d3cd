package extmcu

import "sync"

// Fake is an in-memory Transport used in tests and local development
// where no physical ExtMCU is attached.
type Fake struct {
	mu          sync.Mutex
	version     uint32
	downloadOK  bool
	initCalls   int
	downloadN   int
}

// NewFake returns a Fake reporting installedVersion as the currently
// installed firmware version. DownloadSucceeds controls the outcome of
// every subsequent Download call.
func NewFake(installedVersion uint32, downloadSucceeds bool) *Fake {
	return &Fake{version: installedVersion, downloadOK: downloadSucceeds}
}

func (f *Fake) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return nil
}

func (f *Fake) GetVersion() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, nil
}

func (f *Fake) Download() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadN++
	return f.downloadOK, nil
}

// SetDownloadSucceeds lets a test flip the outcome of future Download calls.
func (f *Fake) SetDownloadSucceeds(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadOK = ok
}

// SetVersion lets a test simulate the ExtMCU reporting a new installed
// version after a successful Download.
func (f *Fake) SetVersion(v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
}

// DownloadCalls reports how many times Download has been invoked.
func (f *Fake) DownloadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloadN
}
