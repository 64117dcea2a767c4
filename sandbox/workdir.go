//go:build windows

package sandbox

import (
	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"golang.org/x/sys/windows"
)

// localAppDataLow resolves FOLDERID_LocalAppDataLow as seen through token,
// per §4.10: on a Low-integrity token this is one of the few writable
// locations, so it is used as the child's working directory.
func localAppDataLow(token windows.Token) (string, error) {
	return winapi.GetKnownFolderPath(&winapi.FolderIDLocalAppDataLow, token)
}
