//go:build windows

package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/Microsoft/go-winio/pkg/osversion"
	"github.com/dblohm7/sandbox-win32/internal/exec"
	"github.com/dblohm7/sandbox-win32/internal/jobobject"
	"github.com/dblohm7/sandbox-win32/internal/log"
	"github.com/dblohm7/sandbox-win32/internal/logfields"
	"github.com/dblohm7/sandbox-win32/internal/mitigation"
	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"github.com/dblohm7/sandbox-win32/internal/winsid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// jobSwitch is the literal argv switch the launcher appends, and the
// sandboxee looks for, per §6.
const jobSwitch = "--job"

// win8MinMinor is the minor version that, with major version 6, marks a
// Win8-class host (Windows 8 / Server 2012); jobs cannot nest before this.
const win8MinMinor = 2

// Launcher orchestrates one sandboxed child: token construction, window
// station + desktop creation, job creation, attribute-list assembly,
// suspended-process creation, impersonation hand-off, and resume. One
// instance covers exactly one child.
type Launcher struct {
	flags       InitFlags
	mitigations mitigation.Flag
	hooks       LauncherHooks
	logger      *logrus.Entry

	extraInherit []windows.Handle

	osVersion  osversion.Version
	win8Class  bool
	win10Class bool

	customSID winsid.SID
	logonSID  *windows.SID

	sd inheritableSD

	restrictedToken    windows.Token
	impersonationToken windows.Token

	winsta  windows.Handle
	desktop windows.Handle
	job     *jobobject.JobObject

	proc *exec.Exec
}

// NewLauncher constructs a Launcher. logger may be nil, meaning
// logrus.StandardLogger() is used.
func NewLauncher(flags InitFlags, mitigations mitigation.Flag, hooks LauncherHooks, logger *logrus.Entry) *Launcher {
	if hooks == nil {
		hooks = NopLauncherHooks{}
	}
	if logger == nil {
		logger = log.L
	}
	return &Launcher{flags: flags, mitigations: mitigations, hooks: hooks, logger: logger}
}

// AddHandleToInherit extends the set of handles the child inherits beyond
// {impersonation token, job handle}.
func (l *Launcher) AddHandleToInherit(h windows.Handle) {
	l.extraInherit = append(l.extraInherit, h)
}

// Init detects OS-version facts and masks l.mitigations for the running
// platform. It must run before Launch.
func (l *Launcher) Init() error {
	l.osVersion = osversion.Get()
	l.win8Class = int(l.osVersion.Major) > 6 || (int(l.osVersion.Major) == 6 && int(l.osVersion.Minor) >= win8MinMinor)
	l.win10Class = int(l.osVersion.Major) >= 10

	if !l.win10Class {
		l.mitigations &^= mitigation.BlockNonMicrosoftBinaries
	}

	custom, err := winsid.NewCustom()
	if err != nil {
		return fmt.Errorf("init: build custom sid: %w", err)
	}
	l.customSID = custom

	return nil
}

// Launch implements §4.10/§5's ordering: tokens -> inheritable SD (folded
// into buildTokens) -> window station -> desktop -> job -> attribute list ->
// suspended process -> thread token -> PreResume -> resume. Any failure
// after the child is created terminates it; all earlier failures simply
// release whatever was acquired.
func (l *Launcher) Launch(exePath, baseCmdLine string) (err error) {
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return errors.Wrap(err, "launch: resolve executable path")
	}

	if err := l.buildTokens(); err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: build tokens")
	}

	winstaName, err := l.buildWindowStation()
	if err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: build window station")
	}

	deskName, err := l.buildDesktop()
	if err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: build desktop")
	}
	desktopPath := deskName
	if winstaName != "" {
		desktopPath = winstaName + "\\" + deskName
	}

	job, err := jobobject.Create(l.sd.descriptor())
	if err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: create job")
	}
	l.job = job
	if err := job.SetActiveProcessLimit(1); err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: set job active process limit")
	}
	if err := job.SetUIRestrictions(winapi.JOB_OBJECT_UILIMIT_ALL); err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: set job ui restrictions")
	}

	cmdline := fmt.Sprintf("%s %s %s %s", exePath, baseCmdLine, jobSwitch, strconv.FormatUint(uint64(job.Handle()), 16))

	workDir, err := localAppDataLow(l.restrictedToken)
	if err != nil {
		l.logger.WithError(err).Warn("launch: could not resolve LocalAppDataLow, using default working directory")
		workDir = ""
	}

	inherit := append([]windows.Handle{windows.Handle(l.impersonationToken), job.Handle()}, l.extraInherit...)

	processFlags := uint32(0)
	if !l.win8Class {
		processFlags |= windows.CREATE_BREAKAWAY_FROM_JOB
	}

	creationBlob := mitigation.CreationBlob(l.mitigations, uint32(l.osVersion.Build))

	opts := []exec.ExecOpts{
		exec.WithToken(l.restrictedToken),
		exec.WithSuspended(),
		exec.WithDesktop(desktopPath),
		exec.WithProcessFlags(processFlags),
		exec.WithInheritHandles(inherit),
		exec.WithMitigationPolicy(creationBlob),
	}
	if workDir != "" {
		opts = append(opts, exec.WithDir(workDir))
	}

	e, err := exec.New(exePath, cmdline, opts...)
	if err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: build exec")
	}
	l.proc = e

	if err := e.Start(); err != nil {
		l.cleanupPreProcess()
		return errors.Wrap(err, "launch: start child")
	}

	if err := l.finishHandoff(); err != nil {
		l.terminateChild()
		return errors.Wrap(err, "launch: finish handoff")
	}

	l.logger.WithFields(logrus.Fields{
		logfields.PID: e.Pid(),
		logfields.Job: job.Handle(),
	}).Debug("launched sandboxed child")
	return nil
}

// finishHandoff installs the impersonation token on the child's main
// thread, runs the PreResume hook, then resumes — the three-step atomic
// hand-off required by §5.
func (l *Launcher) finishHandoff() error {
	mainThread := l.proc.MainThread()
	if err := windows.SetThreadToken(&mainThread, l.impersonationToken); err != nil {
		return fmt.Errorf("set thread token: %w", err)
	}
	if err := l.hooks.PreResume(); err != nil {
		return fmt.Errorf("pre-resume hook: %w", err)
	}
	if err := l.proc.Resume(); err != nil {
		return fmt.Errorf("resume thread: %w", err)
	}
	return nil
}

// terminateChild implements §4.11's "any failure after CreateProcessAsUser
// terminates the child" rule.
func (l *Launcher) terminateChild() {
	if l.proc != nil {
		l.proc.Kill() //nolint:errcheck
	}
	l.cleanupPreProcess()
}

// cleanupPreProcess releases handles acquired before/independent of the
// child process itself (job, desktop, window station, tokens).
func (l *Launcher) cleanupPreProcess() {
	if l.job != nil {
		l.job.Close() //nolint:errcheck
		l.job = nil
	}
	if l.desktop != 0 {
		winapi.CloseDesktop(l.desktop) //nolint:errcheck
		l.desktop = 0
	}
	if l.winsta != 0 {
		winapi.CloseWindowStation(l.winsta) //nolint:errcheck
		l.winsta = 0
	}
	if l.impersonationToken != 0 {
		l.impersonationToken.Close()
		l.impersonationToken = 0
	}
	if l.restrictedToken != 0 {
		l.restrictedToken.Close()
		l.restrictedToken = 0
	}
}

// IsSandboxRunning reports whether the child process is still alive.
func (l *Launcher) IsSandboxRunning() bool {
	if l.proc == nil {
		return false
	}
	return !l.proc.Exited()
}

// Wait blocks until the child exits or timeout elapses, forwarding to
// WaitForSingleObject per §5.
func (l *Launcher) Wait(ctx context.Context) error {
	if l.proc == nil {
		return errors.New("launcher: child was never started")
	}
	done := make(chan error, 1)
	go func() { done <- l.proc.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases every handle the Launcher owns.
func (l *Launcher) Close() error {
	if l.proc != nil {
		l.proc.Close() //nolint:errcheck
	}
	l.cleanupPreProcess()
	return nil
}

