//go:build windows

package winapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Desktop/window-station access rights and flags not exposed by
// golang.org/x/sys/windows.
//
//nolint:revive,stylecheck
const (
	DF_ALLOWOTHERACCOUNTHOOK = 0x0001

	WINSTA_ALL_ACCESS    = 0x37F
	WINSTA_CREATEDESKTOP = 0x0008

	DESKTOP_CREATEWINDOW    = 0x0002
	DESKTOP_CREATEMENU      = 0x0004
	DESKTOP_HOOKCONTROL     = 0x0008
	DESKTOP_JOURNALRECORD   = 0x0010
	DESKTOP_JOURNALPLAYBACK = 0x0020
	DESKTOP_ENUMERATE       = 0x0040
	DESKTOP_WRITEOBJECTS    = 0x0080
	DESKTOP_SWITCHDESKTOP   = 0x0100
	DESKTOP_READOBJECTS     = 0x0001

	GENERIC_ALL_DESKTOP = DESKTOP_CREATEWINDOW | DESKTOP_CREATEMENU | DESKTOP_HOOKCONTROL |
		DESKTOP_JOURNALRECORD | DESKTOP_JOURNALPLAYBACK | DESKTOP_ENUMERATE |
		DESKTOP_WRITEOBJECTS | DESKTOP_SWITCHDESKTOP | DESKTOP_READOBJECTS

	UOI_NAME = 2
)

// HWINSTA CreateWindowStationW(
//   [in, optional] LPCWSTR               lpwinsta,
//   [in]           DWORD                 dwFlags,
//   [in]           ACCESS_MASK           dwDesiredAccess,
//   [in]           LPSECURITY_ATTRIBUTES lpsa
// );
//
//sys CreateWindowStation(name *uint16, flags uint32, desiredAccess uint32, sa *windows.SecurityAttributes) (handle windows.Handle, err error) = user32.CreateWindowStationW

// HDESK CreateDesktopW(
//   [in]           LPCWSTR               lpszDesktop,
//   [in, optional] LPCWSTR               lpszDevice,
//   [in, optional] DEVMODEW              *pDevmode,
//   [in]           DWORD                 dwFlags,
//   [in]           ACCESS_MASK           dwDesiredAccess,
//   [in, optional] LPSECURITY_ATTRIBUTES lpsa
// );
//
//sys CreateDesktop(name *uint16, device *uint16, deviceMode uintptr, flags uint32, desiredAccess uint32, sa *windows.SecurityAttributes) (handle windows.Handle, err error) = user32.CreateDesktopW

// HDESK GetThreadDesktop(
//   [in] DWORD dwThreadId
// );
//
//sys GetThreadDesktop(threadID uint32) (handle windows.Handle, err error) = user32.GetThreadDesktop

// BOOL SetProcessWindowStation(
//   [in] HWINSTA hWinSta
// );
//
//sys SetProcessWindowStation(winsta windows.Handle) (err error) = user32.SetProcessWindowStation

// HWINSTA GetProcessWindowStation();
//
//sys GetProcessWindowStation() (handle windows.Handle, err error) = user32.GetProcessWindowStation

// BOOL GetUserObjectInformationW(
//   [in]            HANDLE hObj,
//   [in]            int    nIndex,
//   [out, optional] PVOID  pvInfo,
//   [in]            DWORD  nLength,
//   [out, optional] LPDWORD lpnLengthNeeded
// );
//
//sys GetUserObjectInformation(handle windows.Handle, index int32, info *byte, length uint32, lengthNeeded *uint32) (err error) = user32.GetUserObjectInformationW

// BOOL CloseWindowStation(
//   [in] HWINSTA hWinSta
// );
//
//sys CloseWindowStation(winsta windows.Handle) (err error) = user32.CloseWindowStation

// BOOL CloseDesktop(
//   [in] HDESK hDesktop
// );
//
//sys CloseDesktop(desktop windows.Handle) (err error) = user32.CloseDesktop

// GetThreadDesktopName returns the UOI_NAME of a desktop or window-station
// handle — used to build the child's "winsta\desktop" path.
func GetThreadDesktopName(desktop windows.Handle) (string, error) {
	b, err := retryBuffer(128, func(p *byte, l *uint32) error {
		return GetUserObjectInformation(desktop, UOI_NAME, p, *l, l)
	})
	if err != nil {
		return "", err
	}
	u16 := unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
	return windows.UTF16ToString(u16), nil
}
