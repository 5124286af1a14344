package redisconn

import (
	"sync"

	"github.com/relaydb/redisconn/command"
)

// fakeTransport is a minimal in-memory Transport double used across the
// package's tests. It records every write and lets a test decide when (or
// whether) to invoke each write's callback.
type fakeTransport struct {
	mu      sync.Mutex
	addr    string
	active  bool
	writes  []command.Command
	flushes int
	closed  chan struct{}
	closeMu sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{active: true, closed: make(chan struct{})}
}

func (f *fakeTransport) IsActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeTransport) RemoteAddr() string { return f.addr }

func (f *fakeTransport) Write(cmd command.Command, cb WriteCallback) {
	f.mu.Lock()
	f.writes = append(f.writes, cmd)
	f.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
}

func (f *fakeTransport) Flush() {
	f.mu.Lock()
	f.flushes++
	f.mu.Unlock()
}

func (f *fakeTransport) FireUserEvent(evt UserEvent) {}

func (f *fakeTransport) Submit(fn func()) { fn() }

func (f *fakeTransport) Close() <-chan struct{} {
	f.closeMu.Do(func() {
		f.mu.Lock()
		f.active = false
		f.mu.Unlock()
		close(f.closed)
	})
	return f.closed
}

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}
