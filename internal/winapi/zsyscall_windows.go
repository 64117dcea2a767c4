//go:build windows

// Hand-maintained trampoline for this package's //sys directives, in the
// shape mksyscall_windows.exe would generate (lazy DLL + Proc lookup,
// syscall.Syscall, BOOL-return -> errnoErr translation).

package winapi

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var _ unsafe.Pointer

const (
	errnoERROR_IO_PENDING = 997
)

var errERROR_IO_PENDING error = syscall.Errno(errnoERROR_IO_PENDING)

// errnoErr returns common boxed Errno values, to prevent allocations at
// runtime.
func errnoErr(e syscall.Errno) error {
	switch e {
	case 0:
		return nil
	case errnoERROR_IO_PENDING:
		return errERROR_IO_PENDING
	}
	return e
}

var (
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")
	moduser32   = windows.NewLazySystemDLL("user32.dll")
	modshell32  = windows.NewLazySystemDLL("shell32.dll")

	procCreateRestrictedToken       = modadvapi32.NewProc("CreateRestrictedToken")
	procIsTokenRestricted           = modadvapi32.NewProc("IsTokenRestricted")
	procSetTokenInformation         = modadvapi32.NewProc("SetTokenInformation")
	procLookupPrivilegeNameW        = modadvapi32.NewProc("LookupPrivilegeNameW")
	procLookupPrivilegeDisplayNameW = modadvapi32.NewProc("LookupPrivilegeDisplayNameW")

	procIsProcessInJob              = modkernel32.NewProc("IsProcessInJob")
	procQueryInformationJobObject   = modkernel32.NewProc("QueryInformationJobObject")
	procSetProcessMitigationPolicy  = modkernel32.NewProc("SetProcessMitigationPolicy")
	procGetProcessMitigationPolicy  = modkernel32.NewProc("GetProcessMitigationPolicy")

	procCreateWindowStationW      = moduser32.NewProc("CreateWindowStationW")
	procCreateDesktopW            = moduser32.NewProc("CreateDesktopW")
	procGetThreadDesktop          = moduser32.NewProc("GetThreadDesktop")
	procSetProcessWindowStation   = moduser32.NewProc("SetProcessWindowStation")
	procGetProcessWindowStation   = moduser32.NewProc("GetProcessWindowStation")
	procGetUserObjectInformationW = moduser32.NewProc("GetUserObjectInformationW")
	procCloseWindowStation        = moduser32.NewProc("CloseWindowStation")
	procCloseDesktop              = moduser32.NewProc("CloseDesktop")

	procSHGetKnownFolderPath = modshell32.NewProc("SHGetKnownFolderPath")
)

func createRestrictedToken(existing windows.Token, flags uint32, disableSidCount uint32, sidsToDisable *windows.SIDAndAttributes, deletePrivilegeCount uint32, privilegesToDelete *windows.LUIDAndAttributes, restrictedSidCount uint32, sidsToRestrict *windows.SIDAndAttributes, newToken *windows.Token) (err error) {
	r1, _, e1 := syscall.Syscall9(procCreateRestrictedToken.Addr(), 9,
		uintptr(existing),
		uintptr(flags),
		uintptr(disableSidCount),
		uintptr(unsafe.Pointer(sidsToDisable)),
		uintptr(deletePrivilegeCount),
		uintptr(unsafe.Pointer(privilegesToDelete)),
		uintptr(restrictedSidCount),
		uintptr(unsafe.Pointer(sidsToRestrict)),
		uintptr(unsafe.Pointer(newToken)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func IsTokenRestricted(token windows.Token) (b bool) {
	r0, _, _ := syscall.Syscall(procIsTokenRestricted.Addr(), 1, uintptr(token), 0, 0)
	b = r0 != 0
	return
}

func SetTokenInformation(token windows.Token, infoClass uint32, info unsafe.Pointer, infoLen uint32) (err error) {
	r1, _, e1 := syscall.Syscall6(procSetTokenInformation.Addr(), 4,
		uintptr(token),
		uintptr(infoClass),
		uintptr(info),
		uintptr(infoLen),
		0, 0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func lookupPrivilegeName(systemName string, luid *windows.LUID, buffer *uint16, size *uint32) (err error) {
	var _p0 *uint16
	_p0, err = syscall.UTF16PtrFromString(systemName)
	if err != nil {
		return
	}
	r1, _, e1 := syscall.Syscall6(procLookupPrivilegeNameW.Addr(), 4,
		uintptr(unsafe.Pointer(_p0)),
		uintptr(unsafe.Pointer(luid)),
		uintptr(unsafe.Pointer(buffer)),
		uintptr(unsafe.Pointer(size)),
		0, 0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func lookupPrivilegeDisplayName(systemName string, name string, buffer *uint16, size *uint32, languageId *uint32) (err error) {
	var _p0 *uint16
	_p0, err = syscall.UTF16PtrFromString(systemName)
	if err != nil {
		return
	}
	var _p1 *uint16
	_p1, err = syscall.UTF16PtrFromString(name)
	if err != nil {
		return
	}
	r1, _, e1 := syscall.Syscall6(procLookupPrivilegeDisplayNameW.Addr(), 5,
		uintptr(unsafe.Pointer(_p0)),
		uintptr(unsafe.Pointer(_p1)),
		uintptr(unsafe.Pointer(buffer)),
		uintptr(unsafe.Pointer(size)),
		uintptr(unsafe.Pointer(languageId)),
		0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func IsProcessInJob(procHandle windows.Handle, jobHandle uintptr, result *bool) (err error) {
	var _p0 uint32
	r1, _, e1 := syscall.Syscall(procIsProcessInJob.Addr(), 3,
		uintptr(procHandle),
		jobHandle,
		uintptr(unsafe.Pointer(&_p0)))
	*result = _p0 != 0
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func QueryInformationJobObject(jobHandle windows.Handle, infoClass uint32, jobObjectInfo uintptr, jobObjectInformationLength uint32, lpReturnLength *uint32) (err error) {
	r1, _, e1 := syscall.Syscall6(procQueryInformationJobObject.Addr(), 5,
		uintptr(jobHandle),
		uintptr(infoClass),
		jobObjectInfo,
		uintptr(jobObjectInformationLength),
		uintptr(unsafe.Pointer(lpReturnLength)),
		0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func SetProcessMitigationPolicy(policy ProcessMitigationPolicy, buffer uintptr, length uintptr) (err error) {
	err = procSetProcessMitigationPolicy.Find()
	if err != nil {
		return
	}
	r1, _, e1 := syscall.Syscall(procSetProcessMitigationPolicy.Addr(), 3,
		uintptr(policy), buffer, length)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func GetProcessMitigationPolicy(process windows.Handle, policy ProcessMitigationPolicy, buffer uintptr, length uintptr) (err error) {
	r1, _, e1 := syscall.Syscall6(procGetProcessMitigationPolicy.Addr(), 4,
		uintptr(process), uintptr(policy), buffer, length, 0, 0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func CreateWindowStation(name *uint16, flags uint32, desiredAccess uint32, sa *windows.SecurityAttributes) (handle windows.Handle, err error) {
	r0, _, e1 := syscall.Syscall6(procCreateWindowStationW.Addr(), 4,
		uintptr(unsafe.Pointer(name)),
		uintptr(flags),
		uintptr(desiredAccess),
		uintptr(unsafe.Pointer(sa)),
		0, 0)
	handle = windows.Handle(r0)
	if handle == 0 {
		err = errnoErr(e1)
	}
	return
}

func CreateDesktop(name *uint16, device *uint16, deviceMode uintptr, flags uint32, desiredAccess uint32, sa *windows.SecurityAttributes) (handle windows.Handle, err error) {
	r0, _, e1 := syscall.Syscall6(procCreateDesktopW.Addr(), 6,
		uintptr(unsafe.Pointer(name)),
		uintptr(unsafe.Pointer(device)),
		deviceMode,
		uintptr(flags),
		uintptr(desiredAccess),
		uintptr(unsafe.Pointer(sa)))
	handle = windows.Handle(r0)
	if handle == 0 {
		err = errnoErr(e1)
	}
	return
}

func GetThreadDesktop(threadID uint32) (handle windows.Handle, err error) {
	r0, _, e1 := syscall.Syscall(procGetThreadDesktop.Addr(), 1, uintptr(threadID), 0, 0)
	handle = windows.Handle(r0)
	if handle == 0 {
		err = errnoErr(e1)
	}
	return
}

func SetProcessWindowStation(winsta windows.Handle) (err error) {
	r1, _, e1 := syscall.Syscall(procSetProcessWindowStation.Addr(), 1, uintptr(winsta), 0, 0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func GetProcessWindowStation() (handle windows.Handle, err error) {
	r0, _, e1 := syscall.Syscall(procGetProcessWindowStation.Addr(), 0, 0, 0, 0)
	handle = windows.Handle(r0)
	if handle == 0 {
		err = errnoErr(e1)
	}
	return
}

func GetUserObjectInformation(handle windows.Handle, index int32, info *byte, length uint32, lengthNeeded *uint32) (err error) {
	r1, _, e1 := syscall.Syscall6(procGetUserObjectInformationW.Addr(), 5,
		uintptr(handle),
		uintptr(index),
		uintptr(unsafe.Pointer(info)),
		uintptr(length),
		uintptr(unsafe.Pointer(lengthNeeded)),
		0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func CloseWindowStation(winsta windows.Handle) (err error) {
	r1, _, e1 := syscall.Syscall(procCloseWindowStation.Addr(), 1, uintptr(winsta), 0, 0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func CloseDesktop(desktop windows.Handle) (err error) {
	r1, _, e1 := syscall.Syscall(procCloseDesktop.Addr(), 1, uintptr(desktop), 0, 0)
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

// shGetKnownFolderPath returns an HRESULT, not a BOOL: a negative signed
// 32-bit result is the failure convention here, not a zero return.
func shGetKnownFolderPath(rfid *windows.GUID, flags uint32, token windows.Token, path **uint16) (hr error) {
	r0, _, _ := syscall.Syscall6(procSHGetKnownFolderPath.Addr(), 4,
		uintptr(unsafe.Pointer(rfid)),
		uintptr(flags),
		uintptr(token),
		uintptr(unsafe.Pointer(path)),
		0, 0)
	if int32(r0) < 0 {
		hr = syscall.Errno(r0)
	}
	return
}
