//go:build windows

package sandbox

import (
	"fmt"

	"github.com/dblohm7/sandbox-win32/internal/security"
	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"golang.org/x/sys/windows"
)

// buildWindowStation creates a new window station when l.flags doesn't ask
// to skip it, and returns the "winsta" path component passed to
// CreateProcess's desktop string. If NoSeparateWindowStation is set, the
// returned winsta name is empty and the caller's current window station is
// used.
func (l *Launcher) buildWindowStation() (string, error) {
	if l.flags&NoSeparateWindowStation != 0 {
		return "", nil
	}

	curWinsta, err := winapi.GetProcessWindowStation()
	if err != nil {
		return "", fmt.Errorf("get process window station: %w", err)
	}
	curSD, err := security.GetHandleSD(curWinsta, windows.SE_WINDOW_OBJECT)
	if err != nil {
		return "", fmt.Errorf("get current window station sd: %w", err)
	}

	h, err := winapi.CreateWindowStation(nil, 0, windows.GENERIC_READ|winapi.WINSTA_CREATEDESKTOP, winapi.NewSecurityAttributes(curSD, false))
	if err != nil {
		return "", fmt.Errorf("create window station: %w", err)
	}
	l.winsta = h

	name, err := winapi.GetThreadDesktopName(h)
	if err != nil {
		return "", fmt.Errorf("get window station name: %w", err)
	}
	return name, nil
}

// buildDesktop snapshots the *current* desktop's SD before patching its DACL
// with a deny-all ACE for l.customSID (closing the SetThreadDesktop hole,
// §4.5 step 2), then creates a fresh desktop on l.winsta (or the caller's
// current window station, if none was created) carrying that pre-patch
// snapshot. Both steps must succeed or this returns failure with no partial
// patch left behind.
func (l *Launcher) buildDesktop() (string, error) {
	curDesktop, err := winapi.GetThreadDesktop(windows.GetCurrentThreadId())
	if err != nil {
		return "", fmt.Errorf("get current thread desktop: %w", err)
	}

	curDesktopSD, err := security.GetHandleSD(curDesktop, windows.SE_WINDOW_OBJECT)
	if err != nil {
		return "", fmt.Errorf("snapshot current desktop sd: %w", err)
	}

	denyAce := security.DenyAccessForSID(l.customSID.PSID(), windows.GENERIC_ALL, windows.NO_INHERITANCE)
	if err := security.UpdateHandleDACL(curDesktop, []windows.EXPLICIT_ACCESS{denyAce}, windows.SE_WINDOW_OBJECT); err != nil {
		return "", fmt.Errorf("patch current desktop dacl: %w", err)
	}
	keepPatch := false
	defer func() {
		if keepPatch {
			return
		}
		if prevDACL, _, err := curDesktopSD.DACL(); err == nil {
			windows.SetSecurityInfo(curDesktop, windows.SE_WINDOW_OBJECT, windows.SECURITY_INFORMATION(windows.DACL_SECURITY_INFORMATION), nil, nil, prevDACL, nil) //nolint:errcheck
		}
	}()

	var prevWinsta windows.Handle
	if l.winsta != 0 {
		prevWinsta, err = winapi.GetProcessWindowStation()
		if err != nil {
			return "", fmt.Errorf("get process window station: %w", err)
		}
		if err := winapi.SetProcessWindowStation(l.winsta); err != nil {
			return "", fmt.Errorf("set process window station: %w", err)
		}
		defer winapi.SetProcessWindowStation(prevWinsta) //nolint:errcheck
	}

	h, err := winapi.CreateDesktop(nil, nil, 0, winapi.DESKTOP_CREATEWINDOW, winapi.DESKTOP_CREATEWINDOW, winapi.NewSecurityAttributes(curDesktopSD, false))
	if err != nil {
		return "", fmt.Errorf("create desktop: %w", err)
	}
	l.desktop = h

	name, err := winapi.GetThreadDesktopName(h)
	if err != nil {
		return "", fmt.Errorf("get desktop name: %w", err)
	}
	keepPatch = true
	return name, nil
}
