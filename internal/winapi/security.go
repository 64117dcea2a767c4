package winapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// NewSecurityAttributes wraps descriptor in a SecurityAttributes struct
// suitable for passing to a Win32 *W creation call (CreateJobObject,
// CreateWindowStation, CreateDesktop, CreateProcess's thread/process
// attributes, ...). inherit controls whether the resulting handle is
// marked inheritable by child processes.
func NewSecurityAttributes(descriptor *windows.SECURITY_DESCRIPTOR, inherit bool) *windows.SecurityAttributes {
	i := uint32(0)
	if inherit {
		i = 1
	}
	sa := &windows.SecurityAttributes{
		SecurityDescriptor: descriptor,
		InheritHandle:      i,
	}
	sa.Length = uint32(unsafe.Sizeof(*sa))
	return sa
}
