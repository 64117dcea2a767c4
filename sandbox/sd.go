//go:build windows

package sandbox

import (
	"fmt"

	"github.com/dblohm7/sandbox-win32/internal/dacl"
	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"github.com/dblohm7/sandbox-win32/internal/winsid"
	"golang.org/x/sys/windows"
)

// inheritableSD is the self-relative security descriptor built once per
// Launcher, immediately after the caller's Logon SID is known. The job
// object the child inherits is created with this SD, inheritable, as its
// security attribute; the window station and desktop instead carry copies
// of the current window station's and desktop's SDs.
type inheritableSD struct {
	builder dacl.Builder
	sd      *windows.SECURITY_DESCRIPTOR
}

// build grants GENERIC_ALL to LocalSystem, Administrators, and logonSID.
// Failure clears any partially-built DACL.
func (s *inheritableSD) build(logonSID *winsid.SID) error {
	s.builder.Clear()
	s.sd = nil

	system, err := winsid.Get(winsid.LocalSystem)
	if err != nil {
		return fmt.Errorf("inheritable sd: %w", err)
	}
	admins, err := winsid.Get(winsid.Administrators)
	if err != nil {
		return fmt.Errorf("inheritable sd: %w", err)
	}

	s.builder.AddAllowedAce(system.PSID(), windows.GENERIC_ALL)
	s.builder.AddAllowedAce(admins.PSID(), windows.GENERIC_ALL)
	if logonSID != nil && logonSID.Valid() {
		s.builder.AddAllowedAce(logonSID.PSID(), windows.GENERIC_ALL)
	}

	acl, err := s.builder.Materialize()
	if err != nil {
		s.builder.Clear()
		return fmt.Errorf("inheritable sd: materialize dacl: %w", err)
	}

	sd, err := windows.NewSecurityDescriptor()
	if err != nil {
		s.builder.Clear()
		return fmt.Errorf("inheritable sd: new security descriptor: %w", err)
	}
	if err := sd.SetDACL(acl, true, false); err != nil {
		s.builder.Clear()
		return fmt.Errorf("inheritable sd: set dacl: %w", err)
	}

	s.sd = sd
	return nil
}

// valid reports whether build has succeeded at least once since the last
// Clear.
func (s *inheritableSD) valid() bool {
	return s.sd != nil
}

// securityAttributes hands back a SECURITY_ATTRIBUTES pointing at the built
// SD, marked inheritable, for use in Win32 creation calls. valid must be
// true.
func (s *inheritableSD) securityAttributes() *windows.SecurityAttributes {
	return winapi.NewSecurityAttributes(s.sd, true)
}

// descriptor exposes the raw *windows.SECURITY_DESCRIPTOR, e.g. for
// internal/jobobject.Create which builds its own SecurityAttributes.
func (s *inheritableSD) descriptor() *windows.SECURITY_DESCRIPTOR {
	return s.sd
}
