//go:build windows

// Package dacl provides an ordered DACL builder: accumulate allow/deny
// entries, then materialize them atop an existing ACL via SetEntriesInAcl.
// A failed materialize leaves the builder's previously cached ACL untouched.
package dacl

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Builder accumulates EXPLICIT_ACCESS entries in the order they were added
// and lazily rebuilds a native ACL from them on Materialize.
type Builder struct {
	entries []windows.EXPLICIT_ACCESS
	cached  *windows.ACL
	dirty   bool
}

// AddAllowedAce appends an allow entry for sid with mask, no inheritance.
func (b *Builder) AddAllowedAce(sid *windows.SID, mask windows.ACCESS_MASK) {
	b.entries = append(b.entries, windows.EXPLICIT_ACCESS{
		AccessPermissions: mask,
		AccessMode:        windows.SET_ACCESS,
		Inheritance:        windows.NO_INHERITANCE,
		Trustee: windows.TRUSTEE{
			TrusteeForm:  windows.TRUSTEE_IS_SID,
			TrusteeType:  windows.TRUSTEE_IS_UNKNOWN,
			TrusteeValue: windows.TrusteeValueFromSID(sid),
		},
	})
	b.dirty = true
}

// AddDeniedAce appends a deny entry for sid with mask, no inheritance.
func (b *Builder) AddDeniedAce(sid *windows.SID, mask windows.ACCESS_MASK) {
	b.entries = append(b.entries, windows.EXPLICIT_ACCESS{
		AccessPermissions: mask,
		AccessMode:        windows.DENY_ACCESS,
		Inheritance:        windows.NO_INHERITANCE,
		Trustee: windows.TRUSTEE{
			TrusteeForm:  windows.TRUSTEE_IS_SID,
			TrusteeType:  windows.TRUSTEE_IS_UNKNOWN,
			TrusteeValue: windows.TrusteeValueFromSID(sid),
		},
	})
	b.dirty = true
}

// Clear discards all accumulated entries and the cached ACL.
func (b *Builder) Clear() {
	b.entries = nil
	b.cached = nil
	b.dirty = false
}

// Merge rebuilds the native ACL from the accumulated entries merged atop
// existing (may be nil). On success the result becomes the new cached ACL
// and the builder is no longer dirty. On failure the previously cached ACL
// is preserved unchanged and the error is returned.
func (b *Builder) Merge(existing *windows.ACL) (*windows.ACL, error) {
	acl, err := windows.ACLFromEntries(b.entries, existing)
	if err != nil {
		return nil, fmt.Errorf("merge dacl entries: %w", err)
	}
	b.cached = acl
	b.dirty = false
	return acl, nil
}

// Materialize returns the cached native ACL, rebuilding atop a nil base
// first if the builder has unmerged entries. Rebuilding on top of nil base
// starts fresh rather than merging onto a prior materialization — callers
// that need to extend an existing ACL should call Merge explicitly.
func (b *Builder) Materialize() (*windows.ACL, error) {
	if !b.dirty && b.cached != nil {
		return b.cached, nil
	}
	if len(b.entries) == 0 {
		return b.cached, nil
	}
	return b.Merge(nil)
}
