//go:build windows

package mitigation

import "testing"

func TestCreationBlobMasksPreWin10BlockNonMicrosoft(t *testing.T) {
	flags := BlockNonMicrosoftBinaries | DEP
	blob := CreationBlob(flags, 9600) // Windows 8.1
	if blob&policyBlockNonMicrosoftBinariesAlwaysOn != 0 {
		t.Fatal("expected BlockNonMicrosoftBinaries to be masked out below Windows 10")
	}
	if blob&policyDEPEnable == 0 {
		t.Fatal("expected DEP to still be set")
	}
}

func TestCreationBlobKeepsBlockNonMicrosoftOnWin10(t *testing.T) {
	blob := CreationBlob(BlockNonMicrosoftBinaries, osBuildWin10)
	if blob&policyBlockNonMicrosoftBinariesAlwaysOn == 0 {
		t.Fatal("expected BlockNonMicrosoftBinaries to survive on a Windows 10 build")
	}
}

func TestCreationBlobIgnoresRuntimeOnlyBits(t *testing.T) {
	blob := CreationBlob(BinarySignaturePolicy, osBuildWin10)
	if blob != 0 {
		t.Fatalf("expected BinarySignaturePolicy (runtime-only) to produce no creation bits, got %#x", blob)
	}
}

func TestRuntimeCallsRejectsCreationOnlyFlags(t *testing.T) {
	_, err := RuntimeCalls(ForceRelocateImages)
	if err == nil {
		t.Fatal("expected an error for a creation-only mitigation flag")
	}
}

func TestRuntimeCallsAcceptsRuntimeSet(t *testing.T) {
	calls, err := RuntimeCalls(RuntimeSet)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 6 {
		t.Fatalf("expected 6 calls for the full runtime set, got %d", len(calls))
	}
}

func TestCreationBlobSetsDEPATLThunkIndependently(t *testing.T) {
	blob := CreationBlob(DEPATLThunk, osBuildWin10)
	if blob&policyDEPATLThunkEnable == 0 {
		t.Fatal("expected DEPATLThunk to set its own policy bit")
	}
	if blob&policyDEPEnable != 0 {
		t.Fatal("expected DEPATLThunk alone not to imply plain DEP")
	}
}

func TestRuntimeCallsEmptyForZeroFlags(t *testing.T) {
	calls, err := RuntimeCalls(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no calls, got %d", len(calls))
	}
}
