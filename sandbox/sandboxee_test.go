//go:build windows

package sandbox

import (
	"errors"
	"testing"

	"golang.org/x/sys/windows"
)

func TestParseJobHandleHexValue(t *testing.T) {
	h, err := ParseJobHandle([]string{"--job", "1a2b"})
	if err != nil {
		t.Fatal(err)
	}
	if h != windows.Handle(0x1a2b) {
		t.Fatalf("expected handle 0x1a2b, got %#x", h)
	}
}

func TestParseJobHandleIgnoresPrecedingArgs(t *testing.T) {
	h, err := ParseJobHandle([]string{"some", "unrelated", "args", "--job", "ff"})
	if err != nil {
		t.Fatal(err)
	}
	if h != windows.Handle(0xff) {
		t.Fatalf("expected handle 0xff, got %#x", h)
	}
}

func TestParseJobHandleMissingSwitch(t *testing.T) {
	_, err := ParseJobHandle([]string{"foo", "bar"})
	if !errors.Is(err, ErrJobSwitchMissingValue) {
		t.Fatalf("expected ErrJobSwitchMissingValue, got %v", err)
	}
}

func TestParseJobHandleSwitchIsLastArg(t *testing.T) {
	_, err := ParseJobHandle([]string{"--job"})
	if !errors.Is(err, ErrJobSwitchMissingValue) {
		t.Fatalf("expected ErrJobSwitchMissingValue, got %v", err)
	}
}

func TestParseJobHandleNonHexValue(t *testing.T) {
	_, err := ParseJobHandle([]string{"--job", "not-hex"})
	if !errors.Is(err, ErrJobHandleInvalid) {
		t.Fatalf("expected ErrJobHandleInvalid, got %v", err)
	}
}

func TestIsMitigationUnavailable(t *testing.T) {
	if !isMitigationUnavailable(windows.ERROR_PROC_NOT_FOUND) {
		t.Fatal("expected ERROR_PROC_NOT_FOUND to be treated as unavailable")
	}
	if !isMitigationUnavailable(windows.ERROR_CALL_NOT_IMPLEMENTED) {
		t.Fatal("expected ERROR_CALL_NOT_IMPLEMENTED to be treated as unavailable")
	}
	if isMitigationUnavailable(errors.New("some other failure")) {
		t.Fatal("expected an unrelated error not to be treated as unavailable")
	}
}
