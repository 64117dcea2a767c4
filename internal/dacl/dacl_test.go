//go:build windows

package dacl

import (
	"testing"

	"github.com/dblohm7/sandbox-win32/internal/winsid"
	"golang.org/x/sys/windows"
)

func TestMaterializeEmptyBuilder(t *testing.T) {
	var b Builder
	acl, err := b.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if acl != nil {
		t.Fatal("expected a nil ACL from an empty builder")
	}
}

func TestMaterializeIsCachedUntilDirty(t *testing.T) {
	everyone, err := winsid.Get(winsid.Everyone)
	if err != nil {
		t.Fatal(err)
	}

	var b Builder
	b.AddAllowedAce(everyone.PSID(), windows.GENERIC_ALL)

	first, err := b.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("expected Materialize to return the cached ACL when not dirty")
	}
}

func TestAddAceMarksDirtyForRematerialize(t *testing.T) {
	everyone, err := winsid.Get(winsid.Everyone)
	if err != nil {
		t.Fatal(err)
	}
	users, err := winsid.Get(winsid.Users)
	if err != nil {
		t.Fatal(err)
	}

	var b Builder
	b.AddAllowedAce(everyone.PSID(), windows.GENERIC_READ)
	first, err := b.Materialize()
	if err != nil {
		t.Fatal(err)
	}

	b.AddDeniedAce(users.PSID(), windows.GENERIC_WRITE)
	second, err := b.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("expected a new ACL after adding another entry")
	}
}

func TestClearDropsEntriesAndCache(t *testing.T) {
	everyone, err := winsid.Get(winsid.Everyone)
	if err != nil {
		t.Fatal(err)
	}

	var b Builder
	b.AddAllowedAce(everyone.PSID(), windows.GENERIC_ALL)
	if _, err := b.Materialize(); err != nil {
		t.Fatal(err)
	}

	b.Clear()
	acl, err := b.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	if acl != nil {
		t.Fatal("expected Materialize to return nil after Clear")
	}
}

func TestMergeOntoExisting(t *testing.T) {
	everyone, err := winsid.Get(winsid.Everyone)
	if err != nil {
		t.Fatal(err)
	}
	admins, err := winsid.Get(winsid.Administrators)
	if err != nil {
		t.Fatal(err)
	}

	var first Builder
	first.AddAllowedAce(everyone.PSID(), windows.GENERIC_READ)
	base, err := first.Materialize()
	if err != nil {
		t.Fatal(err)
	}

	var second Builder
	second.AddAllowedAce(admins.PSID(), windows.GENERIC_ALL)
	merged, err := second.Merge(base)
	if err != nil {
		t.Fatal(err)
	}
	if merged == nil {
		t.Fatal("expected a non-nil merged ACL")
	}
}
