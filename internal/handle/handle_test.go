//go:build windows

package handle

import (
	"testing"

	"golang.org/x/sys/windows"
)

func TestCloseInvokesCloserOnce(t *testing.T) {
	closes := 0
	s := New(windows.Handle(1), func(windows.Handle) error {
		closes++
		return nil
	})

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if closes != 1 {
		t.Fatalf("expected exactly one close, got %d", closes)
	}
	if s.Valid() {
		t.Fatal("expected Valid to be false after Close")
	}
}

func TestReleaseHandsOffOwnership(t *testing.T) {
	closes := 0
	s := New(windows.Handle(42), func(windows.Handle) error {
		closes++
		return nil
	})

	h := s.Release()
	if h != windows.Handle(42) {
		t.Fatalf("expected Release to return the original handle, got %v", h)
	}
	if s.Valid() {
		t.Fatal("expected Valid to be false after Release")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if closes != 0 {
		t.Fatal("expected Release to prevent the closer from ever running")
	}
}

func TestHandleReturnsUnderlyingValueUntilClosed(t *testing.T) {
	s := New(windows.Handle(7), func(windows.Handle) error { return nil })
	if s.Handle() != windows.Handle(7) {
		t.Fatal("expected Handle() to return the wrapped value")
	}
	s.Close()
	if s.Handle() != 0 {
		t.Fatal("expected Handle() to return 0 after Close")
	}
}
