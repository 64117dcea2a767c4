//go:build windows

package sandbox

import (
	"fmt"
	"unsafe"

	"github.com/dblohm7/sandbox-win32/internal/dacl"
	"github.com/dblohm7/sandbox-win32/internal/sidattrs"
	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"github.com/dblohm7/sandbox-win32/internal/winsid"
	"golang.org/x/sys/windows"
)

// buildTokens implements §4.4: opens the caller's own token, derives the
// restricted token the child process will run as and the impersonation
// token its main thread will adopt until RevertToSelf, and builds the
// inheritable SD (§4.7) along the way, since that needs the Logon SID this
// step captures.
func (l *Launcher) buildTokens() error {
	var procToken windows.Token
	if err := windows.OpenProcessToken(
		windows.CurrentProcess(),
		windows.TOKEN_ADJUST_DEFAULT|windows.TOKEN_ASSIGN_PRIMARY|windows.TOKEN_DUPLICATE|windows.TOKEN_QUERY,
		&procToken,
	); err != nil {
		return fmt.Errorf("open process token: %w", err)
	}
	defer procToken.Close()

	toDisable, logonSID, err := sidattrs.CreateFromTokenGroups(procToken, sidattrs.FilterRestrictedDisable)
	if err != nil {
		return fmt.Errorf("build to-disable list: %w", err)
	}
	l.logonSID = logonSID

	logon, err := winsid.FromPSID(logonSID)
	if err != nil {
		return fmt.Errorf("copy logon sid: %w", err)
	}
	if err := l.sd.build(&logon); err != nil {
		return fmt.Errorf("build inheritable sd: %w", err)
	}

	everyone, err := winsid.Get(winsid.Everyone)
	if err != nil {
		return err
	}
	users, err := winsid.Get(winsid.Users)
	if err != nil {
		return err
	}
	restrictedCode, err := winsid.Get(winsid.RestrictedCode)
	if err != nil {
		return err
	}

	restrictSet := []windows.SIDAndAttributes{
		{Sid: everyone.PSID()},
		{Sid: users.PSID()},
		{Sid: restrictedCode.PSID()},
		{Sid: logonSID},
		{Sid: l.customSID.PSID()},
	}

	var restricted windows.Token
	if err := winapi.CreateRestrictedToken(
		procToken,
		winapi.TOKEN_DISABLE_MAX_PRIVILEGE|winapi.TOKEN_SANDBOX_INERT,
		sidattrs.ToSIDAndAttributes(toDisable),
		nil,
		restrictSet,
		&restricted,
	); err != nil {
		return fmt.Errorf("create restricted token: %w", err)
	}
	l.restrictedToken = restricted

	if err := l.setRestrictedTokenDefaultDACL(); err != nil {
		return err
	}

	impSource, _, err := sidattrs.CreateFromTokenGroups(procToken, sidattrs.FilterIntegrity|sidattrs.FilterAddRestricted)
	if err != nil {
		return fmt.Errorf("build impersonation-source list: %w", err)
	}

	var impRestricted windows.Token
	if err := winapi.CreateRestrictedToken(
		procToken,
		winapi.TOKEN_SANDBOX_INERT,
		nil,
		nil,
		sidattrs.ToSIDAndAttributes(impSource),
		&impRestricted,
	); err != nil {
		return fmt.Errorf("create impersonation-source restricted token: %w", err)
	}
	defer impRestricted.Close()

	var impToken windows.Token
	if err := windows.DuplicateTokenEx(
		impRestricted,
		windows.TOKEN_ALL_ACCESS,
		nil,
		windows.SecurityImpersonation,
		windows.TokenImpersonation,
		&impToken,
	); err != nil {
		return fmt.Errorf("duplicate impersonation token: %w", err)
	}
	l.impersonationToken = impToken

	return nil
}

// setRestrictedTokenDefaultDACL installs a default DACL on l.restrictedToken
// granting full control to LocalSystem, Administrators, and the Logon SID,
// per §4.4 step 5.
func (l *Launcher) setRestrictedTokenDefaultDACL() error {
	system, err := winsid.Get(winsid.LocalSystem)
	if err != nil {
		return err
	}
	admins, err := winsid.Get(winsid.Administrators)
	if err != nil {
		return err
	}
	logon, err := winsid.FromPSID(l.logonSID)
	if err != nil {
		return fmt.Errorf("copy logon sid: %w", err)
	}

	var b dacl.Builder
	b.AddAllowedAce(system.PSID(), windows.GENERIC_ALL)
	b.AddAllowedAce(admins.PSID(), windows.GENERIC_ALL)
	b.AddAllowedAce(logon.PSID(), windows.GENERIC_ALL)

	acl, err := b.Materialize()
	if err != nil {
		return fmt.Errorf("materialize default dacl: %w", err)
	}

	defaultDACL := winapi.TokenDefaultDACL{DefaultDacl: acl}
	return winapi.SetTokenInformation(
		l.restrictedToken,
		winapi.TokenDefaultDacl,
		unsafe.Pointer(&defaultDACL),
		uint32(unsafe.Sizeof(defaultDACL)),
	)
}
