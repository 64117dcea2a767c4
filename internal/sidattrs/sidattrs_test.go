//go:build windows

package sidattrs

import (
	"testing"

	"golang.org/x/sys/windows"
)

func currentProcessToken(t *testing.T) windows.Token {
	t.Helper()
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { token.Close() })
	return token
}

func TestCreateFromTokenGroupsNoFilter(t *testing.T) {
	token := currentProcessToken(t)

	entries, logonSID, err := CreateFromTokenGroups(token, 0)
	if err != nil {
		t.Fatal(err)
	}
	if logonSID != nil {
		t.Fatal("expected no logon SID capture without FilterRestrictedDisable")
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one group entry for the current process token")
	}
}

func TestCreateFromTokenGroupsRestrictedDisableDropsEveryoneAndUsers(t *testing.T) {
	token := currentProcessToken(t)

	unfiltered, _, err := CreateFromTokenGroups(token, 0)
	if err != nil {
		t.Fatal(err)
	}
	filtered, _, err := CreateFromTokenGroups(token, FilterRestrictedDisable)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) >= len(unfiltered) {
		t.Fatal("expected FilterRestrictedDisable to drop at least one entry")
	}
}

func TestCreateFromTokenGroupsAddRestrictedAppendsEntry(t *testing.T) {
	token := currentProcessToken(t)

	without, _, err := CreateFromTokenGroups(token, 0)
	if err != nil {
		t.Fatal(err)
	}
	with, _, err := CreateFromTokenGroups(token, FilterAddRestricted)
	if err != nil {
		t.Fatal(err)
	}
	if len(with) != len(without)+1 {
		t.Fatalf("expected exactly one extra entry, got %d vs %d", len(with), len(without))
	}
}

func TestToSIDAndAttributesPreservesOrderAndLength(t *testing.T) {
	entries := []Entry{
		{SID: nil, Attrs: 1},
		{SID: nil, Attrs: 2},
	}
	out := ToSIDAndAttributes(entries)
	if len(out) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(out))
	}
	for i, e := range entries {
		if out[i].Attributes != e.Attrs {
			t.Fatalf("entry %d: attrs mismatch: %d != %d", i, out[i].Attributes, e.Attrs)
		}
	}
}
