package transport

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

// FakeSession is an in-memory Session for tests: it records everything
// written to it and lets the test script bytes to be read back, so channel
// and driver tests never dial a real SSH server.
type FakeSession struct {
	mu       sync.Mutex
	written  bytes.Buffer
	chunks   chan chunk
	closed   bool
	alive    bool
	onWrite  func(written []byte) // optional: synchronously react to writes
}

// NewFakeSession constructs a FakeSession. onWrite, if non-nil, is invoked
// synchronously on every Write call, letting a test script canned replies
// (via Feed) in response to specific commands.
func NewFakeSession(onWrite func(written []byte)) *FakeSession {
	return &FakeSession{
		chunks:  make(chan chunk, 256),
		alive:   true,
		onWrite: onWrite,
	}
}

// Feed makes p available to the next ReadChunk call(s).
func (f *FakeSession) Feed(p []byte) {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.chunks <- chunk{data: cp}
}

// FeedEOF makes the next ReadChunk call return a channel-closed error.
func (f *FakeSession) FeedEOF() {
	f.chunks <- chunk{err: io.EOF}
}

// Written returns everything written to the session so far.
func (f *FakeSession) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written.Bytes()...)
}

func (f *FakeSession) Write(p []byte) (int, error) {
	f.mu.Lock()
	f.written.Write(p)
	f.mu.Unlock()
	if f.onWrite != nil {
		f.onWrite(p)
	}
	return len(p), nil
}

func (f *FakeSession) ReadChunk(deadline time.Time) ([]byte, error) {
	var timerC <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return nil, clierrors.PatternTimeout(0)
		}
		t := time.NewTimer(d)
		defer t.Stop()
		timerC = t.C
	}
	select {
	case c := <-f.chunks:
		if c.err != nil {
			f.alive = false
			return nil, clierrors.ChannelClosed(c.err)
		}
		return c.data, nil
	case <-timerC:
		return nil, clierrors.PatternTimeout(time.Until(deadline))
	}
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.alive = false
	return nil
}

func (f *FakeSession) Alive() bool { return f.alive }
