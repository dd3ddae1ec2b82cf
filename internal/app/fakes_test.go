package app

import (
	"errors"
	"sync"

	"github.com/dkeye/Lobby/internal/core"
)

var (
	errFakeFull   = errors.New("buffer full")
	errFakeClosed = errors.New("closed")
)

// fakeConn records every frame it accepts.
type fakeConn struct {
	mu     sync.Mutex
	frames []string
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errFakeClosed
	}
	if c.full {
		return errFakeFull
	}
	c.frames = append(c.frames, string(f))
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}
