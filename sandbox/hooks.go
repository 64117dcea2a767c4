//go:build windows

// Package sandbox implements the Launcher/Sandboxee split: a parent process
// that composes a restricted token, a private window station and desktop,
// and a capped job object around a suspended child, and a child-side
// bootstrap that joins that confinement before handing control to the
// embedder's payload.
package sandbox

import "github.com/dblohm7/sandbox-win32/internal/mitigation"

// InitFlags selects launcher-side behavior that cannot be expressed as a
// mitigation bit.
type InitFlags uint32

const (
	// Normal creates a dedicated window station for the child.
	Normal InitFlags = 0
	// NoSeparateWindowStation creates the new desktop on the caller's
	// existing window station instead of a fresh one.
	NoSeparateWindowStation InitFlags = 1 << iota
)

// DefaultMitigations is the recommended mitigation bag: DEP, DEP-ATL-thunk,
// SEHOP, force-relocate, heap-terminate, ASLR (bottom-up and high-entropy),
// strict-handle-checks, block-non-Microsoft-binaries (masked out below
// Win10 by CreationBlob), and extension-point-disable.
const DefaultMitigations mitigation.Flag = mitigation.DEP | mitigation.DEPATLThunk | mitigation.SEHOP |
	mitigation.ForceRelocateImages | mitigation.HeapTerminate | mitigation.ASLR | mitigation.StrictHandleChecks |
	mitigation.BlockNonMicrosoftBinaries | mitigation.ExtensionPointDisable

// LauncherHooks lets an embedder observe/influence the parent side of a
// launch. PreResume runs on the launcher after the child's thread token has
// been installed but before ResumeThread; a non-nil error aborts Launch and
// the child is terminated.
type LauncherHooks interface {
	PreResume() error
}

// NopLauncherHooks is a LauncherHooks that does nothing; embedders that
// don't need a PreResume hook can embed it.
type NopLauncherHooks struct{}

// PreResume implements LauncherHooks.
func (NopLauncherHooks) PreResume() error { return nil }

// SandboxeeHooks lets the embedder's payload run at each bootstrap
// transition, on the child side.
type SandboxeeHooks interface {
	// OnPrivInit runs while the child is still impersonating the launcher's
	// impersonation token, before RevertToSelf. Use it for any privileged
	// setup (e.g. opening a handle inherited for this purpose) that must
	// happen before integrity is dropped.
	OnPrivInit() error
	// OnInit runs once confinement is fully installed: integrity dropped,
	// job joined, mitigations applied. This is where the untrusted payload
	// begins.
	OnInit() error
	// OnFini runs once, as the bootstrap tears down.
	OnFini()
}

// NopSandboxeeHooks is a SandboxeeHooks whose OnPrivInit/OnInit do nothing
// and whose OnFini is a no-op.
type NopSandboxeeHooks struct{}

func (NopSandboxeeHooks) OnPrivInit() error { return nil }
func (NopSandboxeeHooks) OnInit() error     { return nil }
func (NopSandboxeeHooks) OnFini()           {}
