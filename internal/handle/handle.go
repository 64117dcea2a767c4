//go:build windows

// Package handle provides a move-only scoped wrapper around a kernel
// object handle, generalizing the defer windows.CloseHandle(h) idiom used
// throughout this module into something that can be handed off across
// function boundaries (e.g. into a child process) without double-closing.
package handle

import (
	"sync"

	"golang.org/x/sys/windows"
)

// Closer releases a handle and reports any error, matching the shape of
// windows.CloseHandle.
type Closer func(windows.Handle) error

// Scoped owns a single kernel handle and a closer for it. The zero value is
// not usable; construct with New. A Scoped must not be copied after
// construction — pass it by pointer.
type Scoped struct {
	mu     sync.Mutex
	h      windows.Handle
	close  Closer
	closed bool
}

// New wraps h, using closer to release it. If closer is nil,
// windows.CloseHandle is used.
func New(h windows.Handle, closer Closer) *Scoped {
	if closer == nil {
		closer = windows.CloseHandle
	}
	return &Scoped{h: h, close: closer}
}

// Handle returns the underlying handle. It remains valid until Close or
// Release is called.
func (s *Scoped) Handle() windows.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h
}

// Valid reports whether s still owns an open handle.
func (s *Scoped) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.h != 0 && s.h != windows.InvalidHandle
}

// Close releases the handle if still owned. Close is idempotent: calling it
// more than once is a no-op after the first call.
func (s *Scoped) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	h := s.h
	s.h = 0
	if h == 0 || h == windows.InvalidHandle {
		return nil
	}
	return s.close(h)
}

// Release hands ownership of the underlying handle to the caller: it
// returns the raw handle and marks s as no longer owning anything, so a
// subsequent Close is a no-op. Used when a handle is about to be inherited
// into a child process and must outlive the Scoped wrapper that acquired it.
func (s *Scoped) Release() windows.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.h
	s.h = 0
	s.closed = true
	return h
}
