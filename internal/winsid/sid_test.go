//go:build windows

package winsid

import (
	"testing"

	"golang.org/x/sys/windows"
)

func TestWellKnownEveryoneMatchesStdlib(t *testing.T) {
	everyone, err := Get(Everyone)
	if err != nil {
		t.Fatal(err)
	}
	if !everyone.Valid() {
		t.Fatal("expected a valid SID")
	}

	want, err := windows.CreateWellKnownSid(windows.WinWorldSid)
	if err != nil {
		t.Fatal(err)
	}
	if !everyone.EqualPSID(want) {
		t.Fatal("Everyone did not match windows.WinWorldSid")
	}
}

func TestWellKnownIsCached(t *testing.T) {
	a, err := Get(LocalSystem)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Get(LocalSystem)
	if err != nil {
		t.Fatal(err)
	}
	if a.PSID() != b.PSID() {
		t.Fatal("expected the same cached instance across calls")
	}
}

func TestWellKnownUnknown(t *testing.T) {
	if _, err := Get(WellKnown(999)); err == nil {
		t.Fatal("expected an error for an unrecognized WellKnown value")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	s, err := Get(Administrators)
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.Copy()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(c) {
		t.Fatal("copy should compare equal by content")
	}
	if s.PSID() == c.PSID() {
		t.Fatal("copy should not alias the original's storage")
	}
}

func TestNewCustomProducesDistinctSIDs(t *testing.T) {
	a, err := NewCustom()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCustom()
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) {
		t.Fatal("two independently minted custom SIDs should not be equal")
	}
}

func TestFromAuthorityTrimsTrailingZeros(t *testing.T) {
	auth := windows.SidIdentifierAuthority{Value: [6]byte{0, 0, 0, 0, 0, 5}}
	s, err := FromAuthority(auth, 21, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Valid() {
		t.Fatal("expected a valid SID")
	}
}

func TestFromAuthorityAllZeroFails(t *testing.T) {
	auth := windows.SidIdentifierAuthority{Value: [6]byte{0, 0, 0, 0, 0, 5}}
	if _, err := FromAuthority(auth, 0, 0, 0); err == nil {
		t.Fatal("expected an error for an all-zero sub-authority tuple")
	}
}

func TestFromPSIDNil(t *testing.T) {
	if _, err := FromPSID(nil); err == nil {
		t.Fatal("expected an error for a nil PSID")
	}
}

func TestEqualHandlesInvalidSIDs(t *testing.T) {
	var a, b SID
	if !a.Equal(b) {
		t.Fatal("two invalid SIDs should compare equal")
	}
	valid, err := Get(Users)
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(valid) {
		t.Fatal("an invalid SID should never equal a valid one")
	}
}
