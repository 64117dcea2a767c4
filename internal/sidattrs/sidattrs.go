//go:build windows

// Package sidattrs builds (SID, attribute) vectors out of a token's group
// membership for feeding into CreateRestrictedToken's disable/restrict
// lists. It is implemented as a single-pass (Sid, attrs) vector rather than
// a literal two-pass count-then-populate port: Go slices don't alias the
// way a raw PSID* handed to Win32 would if rebuilt between passes, so one
// pass over a growable slice is both simpler and safe.
package sidattrs

import (
	"fmt"
	"unsafe"

	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"github.com/dblohm7/sandbox-win32/internal/winsid"
	"golang.org/x/sys/windows"
)

// Filter bits controlling CreateFromTokenGroups.
type Filter uint32

const (
	// FilterIntegrity skips groups whose attributes include SE_GROUP_INTEGRITY.
	FilterIntegrity Filter = 1 << iota
	// FilterRestrictedDisable skips Logon-ID, Everyone, and Users; the
	// Logon SID is captured into the returned logon SID before being skipped.
	FilterRestrictedDisable
	// FilterAddRestricted appends the well-known Restricted-Code SID after
	// the scan.
	FilterAddRestricted
)

// Entry pairs a SID with its SE_GROUP_* attribute bits.
type Entry struct {
	SID   *windows.SID
	Attrs uint32
}

// CreateFromTokenGroups snapshots token's group membership via
// GetTokenInformation(TokenGroups) and returns the filtered (SID, attrs)
// vector. If the Logon SID is encountered (and FilterRestrictedDisable is
// set), it is returned as logonSID.
func CreateFromTokenGroups(token windows.Token, filter Filter) (entries []Entry, logonSID *windows.SID, err error) {
	b, err := retryTokenGroups(token)
	if err != nil {
		return nil, nil, fmt.Errorf("query token groups: %w", err)
	}

	groups := (*windows.Tokengroups)(unsafe.Pointer(&b[0]))
	all := groups.AllGroups()

	everyone, err := winsid.Get(winsid.Everyone)
	if err != nil {
		return nil, nil, err
	}
	users, err := winsid.Get(winsid.Users)
	if err != nil {
		return nil, nil, err
	}

	entries = make([]Entry, 0, len(all))
	for _, g := range all {
		if filter&FilterIntegrity != 0 && g.Attributes&winapi.SE_GROUP_INTEGRITY != 0 {
			continue
		}

		if filter&FilterRestrictedDisable != 0 {
			if g.Attributes&winapi.SE_GROUP_LOGON_ID == winapi.SE_GROUP_LOGON_ID {
				logonSID, err = g.Sid.Copy()
				if err != nil {
					return nil, nil, fmt.Errorf("copy logon sid: %w", err)
				}
				continue
			}
			if everyone.EqualPSID(g.Sid) || users.EqualPSID(g.Sid) {
				continue
			}
		}

		entries = append(entries, Entry{SID: g.Sid, Attrs: g.Attributes})
	}

	if filter&FilterAddRestricted != 0 {
		rc, err := winsid.Get(winsid.RestrictedCode)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, Entry{SID: rc.PSID(), Attrs: 0})
	}

	return entries, logonSID, nil
}

// ToSIDAndAttributes converts entries to the raw Win32 shape needed by
// CreateRestrictedToken, in a single pass over the already-built vector.
func ToSIDAndAttributes(entries []Entry) []windows.SIDAndAttributes {
	out := make([]windows.SIDAndAttributes, len(entries))
	for i, e := range entries {
		out[i] = windows.SIDAndAttributes{Sid: e.SID, Attributes: e.Attrs}
	}
	return out
}

func retryTokenGroups(token windows.Token) ([]byte, error) {
	var l uint32
	err := windows.GetTokenInformation(token, windows.TokenGroups, nil, 0, &l)
	for i := 0; i < 2 && err != nil; i++ {
		b := make([]byte, l)
		err = windows.GetTokenInformation(token, windows.TokenGroups, &b[0], l, &l)
		if err == nil {
			return b, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("unreachable")
}
