//go:build windows

package winapi

import (
	"golang.org/x/sys/windows"
)

// PROCESS_MITIGATION_POLICY selects which runtime mitigation is being
// queried/set via GetProcessMitigationPolicy/SetProcessMitigationPolicy.
// golang.org/x/sys/windows does not expose these two calls.
//
// https://docs.microsoft.com/en-us/windows/win32/api/processthreadsapi/ne-processthreadsapi-process_mitigation_policy
type ProcessMitigationPolicy uint32

//nolint:revive,stylecheck
const (
	ProcessDEPPolicy ProcessMitigationPolicy = iota
	ProcessASLRPolicy
	ProcessDynamicCodePolicy
	ProcessStrictHandleCheckPolicy
	ProcessSystemCallDisablePolicy
	ProcessMitigationOptionsMask
	ProcessExtensionPointDisablePolicy
	ProcessControlFlowGuardPolicy
	ProcessSignaturePolicy
	ProcessFontDisablePolicy
	ProcessImageLoadPolicy
)

// BOOL SetProcessMitigationPolicy(
//   [in] PROCESS_MITIGATION_POLICY MitigationPolicy,
//   [in] PVOID                     lpBuffer,
//   [in] SIZE_T                    dwLength
// );
//
// On a host whose kernel32 does not export this symbol (pre-Win8) the call
// returns an error wrapping ERROR_PROC_NOT_FOUND instead of panicking; the
// sandboxee bootstrap treats that as "mitigation unavailable, not an error"
// — see isMitigationUnavailable in sandbox/sandboxee.go.
//
//sys SetProcessMitigationPolicy(policy ProcessMitigationPolicy, buffer uintptr, length uintptr) (err error) = kernel32.SetProcessMitigationPolicy?

// BOOL GetProcessMitigationPolicy(
//   [in]  HANDLE                    hProcess,
//   [in]  PROCESS_MITIGATION_POLICY MitigationPolicy,
//   [out] PVOID                     lpBuffer,
//   [in]  SIZE_T                    dwLength
// );
//
//sys GetProcessMitigationPolicy(process windows.Handle, policy ProcessMitigationPolicy, buffer uintptr, length uintptr) (err error) = kernel32.GetProcessMitigationPolicy
