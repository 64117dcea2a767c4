//go:build windows

// Package winsid models a Windows SID as a value type: construct from a
// well-known enum, from a raw SID (copied), from an (authority,
// sub-authorities) tuple, or fresh via a UUID for a one-off cryptographically
// unique identity. Every constructor hands back an owned copy; there is no
// aliasing between a winsid.SID and the *windows.SID it was built from.
package winsid

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"
)

// SID is an owned copy of a Windows SID. The zero value is invalid.
type SID struct {
	sid *windows.SID
}

// Valid reports whether s was successfully constructed.
func (s SID) Valid() bool {
	return s.sid != nil
}

// PSID returns the raw SID pointer for Win32 interop. Callers must not
// retain it past s's lifetime.
func (s SID) PSID() *windows.SID {
	return s.sid
}

// Equal compares SID contents, not pointers.
func (s SID) Equal(o SID) bool {
	if s.sid == nil || o.sid == nil {
		return s.sid == o.sid
	}
	return windows.EqualSid(s.sid, o.sid)
}

// EqualPSID compares s against a raw PSID.
func (s SID) EqualPSID(psid *windows.SID) bool {
	if s.sid == nil || psid == nil {
		return s.sid == nil && psid == nil
	}
	return windows.EqualSid(s.sid, psid)
}

// Copy duplicates s's storage.
func (s SID) Copy() (SID, error) {
	if s.sid == nil {
		return SID{}, nil
	}
	c, err := s.sid.Copy()
	if err != nil {
		return SID{}, fmt.Errorf("copy sid: %w", err)
	}
	return SID{sid: c}, nil
}

// Trustee converts s into a TRUSTEE for EXPLICIT_ACCESS construction
// (BuildTrusteeWithSid).
func (s SID) Trustee() windows.TRUSTEE {
	return windows.TRUSTEE{
		TrusteeForm:  windows.TRUSTEE_IS_SID,
		TrusteeType:  windows.TRUSTEE_IS_UNKNOWN,
		TrusteeValue: windows.TrusteeValueFromSID(s.sid),
	}
}

// FromPSID copies an externally-owned raw SID.
func FromPSID(psid *windows.SID) (SID, error) {
	if psid == nil {
		return SID{}, fmt.Errorf("nil PSID")
	}
	c, err := psid.Copy()
	if err != nil {
		return SID{}, fmt.Errorf("copy sid: %w", err)
	}
	return SID{sid: c}, nil
}

// FromAuthority builds a SID under authority with subAuths sub-authorities
// (at most 8). Trailing zero sub-authorities are trimmed; an all-zero or
// empty tuple is a construction failure.
func FromAuthority(authority windows.SidIdentifierAuthority, subAuths ...uint32) (SID, error) {
	n := len(subAuths)
	for n > 0 && subAuths[n-1] == 0 {
		n--
	}
	if n == 0 {
		return SID{}, fmt.Errorf("no non-zero sub-authorities")
	}
	if n > 8 {
		return SID{}, fmt.Errorf("too many sub-authorities: %d", n)
	}
	subAuths = subAuths[:n]

	var a [8]uint32
	copy(a[:], subAuths)

	var s *windows.SID
	if err := windows.AllocateAndInitializeSid(&authority, byte(n), a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7], &s); err != nil {
		return SID{}, fmt.Errorf("allocate sid: %w", err)
	}
	defer windows.FreeSid(s) //nolint:errcheck

	return FromPSID(s)
}

// resourceManagerAuthority is SECURITY_RESOURCE_MANAGER_AUTHORITY
// (used to mint the custom SID that plugs the SetThreadDesktop hole).
var resourceManagerAuthority = windows.SidIdentifierAuthority{Value: [6]byte{0, 0, 0, 0, 0, 9}}

// NewCustom generates a fresh UUID, reinterprets its 128 bits as four
// 32-bit sub-authorities, and builds a SID under the resource-manager
// authority from them. Each call yields a distinct SID with overwhelming
// probability.
func NewCustom() (SID, error) {
	id := uuid.New()
	b := id[:]
	var sub [4]uint32
	for i := 0; i < 4; i++ {
		sub[i] = uint32(b[i*4])<<24 | uint32(b[i*4+1])<<16 | uint32(b[i*4+2])<<8 | uint32(b[i*4+3])
	}
	return FromAuthority(resourceManagerAuthority, sub[0], sub[1], sub[2], sub[3])
}

// WellKnown names a process-wide, lazily-initialised, immutable SID.
type WellKnown int

const (
	Everyone WellKnown = iota
	Users
	RestrictedCode
	LocalSystem
	Administrators
	LowIntegrity
)

var wellKnownType = map[WellKnown]windows.WELL_KNOWN_SID_TYPE{
	Everyone:       windows.WinWorldSid,
	Users:          windows.WinBuiltinUsersSid,
	RestrictedCode: windows.WinRestrictedCodeSid,
	LocalSystem:    windows.WinLocalSystemSid,
	Administrators: windows.WinBuiltinAdministratorsSid,
	LowIntegrity:   windows.WinLowLabelSid,
}

var wellKnownCache = map[WellKnown]SID{}

// Get returns the process-wide shared instance of the well-known SID w,
// building it on first access. The returned SID must not be mutated or
// freed by callers — it is held for the life of the process.
func Get(w WellKnown) (SID, error) {
	if s, ok := wellKnownCache[w]; ok {
		return s, nil
	}

	t, ok := wellKnownType[w]
	if !ok {
		return SID{}, fmt.Errorf("unknown well-known SID %d", w)
	}

	sid, err := windows.CreateWellKnownSid(t)
	if err != nil {
		return SID{}, fmt.Errorf("create well-known sid %d: %w", w, err)
	}

	s := SID{sid: sid}
	wellKnownCache[w] = s
	return s, nil
}
