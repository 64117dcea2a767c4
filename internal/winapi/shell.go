//go:build windows

package winapi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// FolderIDLocalAppDataLow is FOLDERID_LocalAppDataLow: on a Low-integrity
// token, one of the few locations still writable, used as the sandboxed
// child's working directory (§4.10).
var FolderIDLocalAppDataLow = windows.GUID{
	Data1: 0xA520A1A4,
	Data2: 0x1780,
	Data3: 0x4FF6,
	Data4: [8]byte{0xBD, 0x18, 0x16, 0x73, 0x43, 0xC5, 0xAF, 0x16},
}

// HRESULT SHGetKnownFolderPath(
//   [in]           REFKNOWNFOLDERID rfid,
//   [in]           DWORD            dwFlags,
//   [in, optional] HANDLE           hToken,
//   [out]          PWSTR            *ppszPath
// );
//
//sys shGetKnownFolderPath(rfid *windows.GUID, flags uint32, token windows.Token, path **uint16) (hr error) = shell32.SHGetKnownFolderPath

// GetKnownFolderPath wraps SHGetKnownFolderPath, resolving folderID's path
// as seen by token (nil meaning the calling process's own token).
func GetKnownFolderPath(folderID *windows.GUID, token windows.Token) (string, error) {
	var p *uint16
	if err := shGetKnownFolderPath(folderID, 0, token, &p); err != nil {
		return "", fmt.Errorf("SHGetKnownFolderPath: %w", err)
	}
	defer windows.CoTaskMemFree(unsafe.Pointer(p))
	return windows.UTF16PtrToString(p), nil
}
