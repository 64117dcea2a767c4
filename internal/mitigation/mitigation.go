//go:build windows

// Package mitigation translates a single logical mitigation set into the
// two distinct Win32 shapes process-creation mitigation policy actually
// needs: the PROC_THREAD_ATTRIBUTE_MITIGATION_POLICY blob handed to
// CreateProcessAsUser at creation time, and the sequence of
// SetProcessMitigationPolicy calls issued by the sandboxed process itself
// once it is running (since a handful of mitigations, e.g. win32k disable,
// strict-handle-checks, binary-signature and extension-point disable, can
// also be turned on post-creation, while SEHOP, heap-terminate and
// force-relocate only ever apply at start).
package mitigation

import (
	"fmt"
	"unsafe"

	"github.com/dblohm7/sandbox-win32/internal/winapi"
)

// Flag is a single named mitigation, independent of which Win32 bitfield it
// eventually maps to.
type Flag uint32

const (
	SEHOP Flag = 1 << iota
	HeapTerminate
	ForceRelocateImages
	DEP
	DEPATLThunk // disables ATL thunk emulation; creation-time only, paired with DEP
	ASLR
	StrictHandleChecks
	Win32kDisable
	BlockNonMicrosoftBinaries // creation-time only, Win10+
	BinarySignaturePolicy     // runtime equivalent of BlockNonMicrosoftBinaries, Win10+
	ExtensionPointDisable
)

// CreationSet is the superset of mitigations applicable at process creation.
const CreationSet = SEHOP | HeapTerminate | ForceRelocateImages | DEP | DEPATLThunk | ASLR |
	StrictHandleChecks | Win32kDisable | BlockNonMicrosoftBinaries | ExtensionPointDisable

// RuntimeSet is the subset of mitigations that can also be (re-)applied by
// the sandboxed process against itself after it has started. Notably it
// lacks SEHOP, heap-terminate, and force-relocate: those are creation-time
// only, since they affect how the loader maps the image before any code in
// the new process can run.
const RuntimeSet = DEP | ASLR | StrictHandleChecks | Win32kDisable | BinarySignaturePolicy | ExtensionPointDisable

// ErrMitigationNotRuntime is returned by RuntimeCalls for any bit outside
// RuntimeSet.
var ErrMitigationNotRuntime = fmt.Errorf("mitigation flag is not applicable at runtime")

// Win32 PROCESS_CREATION_MITIGATION_POLICY_* bits of the 64-bit
// creation-time mitigation value, per the documented CreateProcess
// mitigation-policy bitfield.
const (
	policyDEPEnable                         uint64 = 0x01
	policyDEPATLThunkEnable                 uint64 = 0x02
	policySEHOPEnable                       uint64 = 0x04
	policyForceRelocateImagesAlwaysOn       uint64 = 0x1 << 8
	policyForceRelocateImagesAlwaysOnReq    uint64 = 0x3 << 8
	policyHeapTerminateAlwaysOn             uint64 = 0x1 << 12
	policyBottomUpASLRAlwaysOn              uint64 = 0x1 << 16
	policyHighEntropyASLRAlwaysOn           uint64 = 0x1 << 20
	policyStrictHandleChecksAlwaysOn        uint64 = 0x1 << 24
	policyWin32kSystemCallDisableAlwaysOn   uint64 = 0x1 << 28
	policyExtensionPointDisableAlwaysOn     uint64 = 0x1 << 32
	policyBlockNonMicrosoftBinariesAlwaysOn uint64 = 0x1 << 44
)

// osBuildWin10 is the first Windows 10 build number; block-non-Microsoft-
// binaries is masked out below it.
const osBuildWin10 = 10240

// CreationBlob builds the 64-bit value to pass as the
// PROC_THREAD_ATTRIBUTE_MITIGATION_POLICY attribute, restricting flags to
// CreationSet and masking out BlockNonMicrosoftBinaries on pre-Win10 hosts.
func CreationBlob(flags Flag, osBuild uint32) uint64 {
	flags &= CreationSet
	if osBuild < osBuildWin10 {
		flags &^= BlockNonMicrosoftBinaries
	}

	var v uint64
	if flags&DEP != 0 {
		v |= policyDEPEnable
	}
	if flags&DEPATLThunk != 0 {
		v |= policyDEPATLThunkEnable
	}
	if flags&SEHOP != 0 {
		v |= policySEHOPEnable
	}
	if flags&ForceRelocateImages != 0 {
		v |= policyForceRelocateImagesAlwaysOnReq
	}
	if flags&HeapTerminate != 0 {
		v |= policyHeapTerminateAlwaysOn
	}
	if flags&ASLR != 0 {
		v |= policyBottomUpASLRAlwaysOn | policyHighEntropyASLRAlwaysOn
	}
	if flags&StrictHandleChecks != 0 {
		v |= policyStrictHandleChecksAlwaysOn
	}
	if flags&Win32kDisable != 0 {
		v |= policyWin32kSystemCallDisableAlwaysOn
	}
	if flags&ExtensionPointDisable != 0 {
		v |= policyExtensionPointDisableAlwaysOn
	}
	if flags&BlockNonMicrosoftBinaries != 0 {
		v |= policyBlockNonMicrosoftBinariesAlwaysOn
	}
	return v
}

// call pairs a runtime mitigation policy class with its ON payload.
type call struct {
	policy  winapi.ProcessMitigationPolicy
	payload uint32
}

// RuntimeCalls returns, in a stable order, the SetProcessMitigationPolicy
// invocations needed to apply flags against the calling process. Any bit
// outside RuntimeSet is rejected with ErrMitigationNotRuntime rather than
// silently dropped, so a caller asking for a creation-only mitigation at
// runtime finds out immediately.
func RuntimeCalls(flags Flag) ([]call, error) {
	if flags&^RuntimeSet != 0 {
		return nil, fmt.Errorf("%w: %#x", ErrMitigationNotRuntime, flags&^RuntimeSet)
	}

	var calls []call
	if flags&DEP != 0 {
		calls = append(calls, call{winapi.ProcessDEPPolicy, 1})
	}
	if flags&ASLR != 0 {
		calls = append(calls, call{winapi.ProcessASLRPolicy, 1})
	}
	if flags&StrictHandleChecks != 0 {
		calls = append(calls, call{winapi.ProcessStrictHandleCheckPolicy, 1})
	}
	if flags&Win32kDisable != 0 {
		calls = append(calls, call{winapi.ProcessSystemCallDisablePolicy, 1})
	}
	if flags&BinarySignaturePolicy != 0 {
		calls = append(calls, call{winapi.ProcessSignaturePolicy, 1})
	}
	if flags&ExtensionPointDisable != 0 {
		calls = append(calls, call{winapi.ProcessExtensionPointDisablePolicy, 1})
	}
	return calls, nil
}

// Apply issues every call in calls against the running process via
// SetProcessMitigationPolicy, stopping at the first failure.
func Apply(calls []call) error {
	for _, c := range calls {
		payload := c.payload
		if err := winapi.SetProcessMitigationPolicy(c.policy, uintptr(unsafe.Pointer(&payload)), unsafe.Sizeof(payload)); err != nil {
			return fmt.Errorf("set mitigation policy %d: %w", c.policy, err)
		}
	}
	return nil
}
