//go:build windows

package sandbox

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/dblohm7/sandbox-win32/internal/log"
	"github.com/dblohm7/sandbox-win32/internal/logfields"
	"github.com/dblohm7/sandbox-win32/internal/mitigation"
	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"github.com/dblohm7/sandbox-win32/internal/winsid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// ErrJobHandleInvalid is §4.9/§4.11's "integrity failure": the value after
// --job did not survive QueryInformationJobObject validation.
var ErrJobHandleInvalid = fmt.Errorf("job handle does not name a job object")

// ErrJobSwitchMissingValue is §6's "unpaired --job": the switch appeared as
// argv's last element with no following value. ParseJobHandle also returns
// it, wrapped, when argv holds no --job switch at all.
var ErrJobSwitchMissingValue = fmt.Errorf("--job switch given without a value")

// Sandboxee runs the child-side bootstrap: parse the job handle, run
// privileged init, revert to self, drop integrity, join the job, apply
// deferred mitigations, then hand control to the payload.
type Sandboxee struct {
	hooks          SandboxeeHooks
	mitigations    mitigation.Flag
	logger         *logrus.Entry
	impersonation  windows.Token
	job            windows.Handle
	jobInitialized bool
}

// NewSandboxee constructs a Sandboxee. hooks must not be nil. logger may be
// nil, meaning logrus.StandardLogger() is used.
func NewSandboxee(hooks SandboxeeHooks, mitigations mitigation.Flag, logger *logrus.Entry) *Sandboxee {
	if logger == nil {
		logger = log.L
	}
	return &Sandboxee{hooks: hooks, mitigations: mitigations, logger: logger}
}

// ParseJobHandle scans argv for the literal "--job" switch followed by a
// hexadecimal handle value, per §6/§4.9.
func ParseJobHandle(argv []string) (windows.Handle, error) {
	for i, a := range argv {
		if a != jobSwitch {
			continue
		}
		if i+1 >= len(argv) {
			return 0, ErrJobSwitchMissingValue
		}
		v, err := strconv.ParseUint(argv[i+1], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: parse job handle value: %v", ErrJobHandleInvalid, err)
		}
		return windows.Handle(v), nil
	}
	return 0, fmt.Errorf("%w: no --job switch present", ErrJobSwitchMissingValue)
}

// Init runs the bootstrap state machine of §4.9. Each step is guarded by
// the success of the previous one; on the first failure it returns
// immediately without running OnInit.
func (s *Sandboxee) Init(argv []string) error {
	job, err := ParseJobHandle(argv)
	if err != nil {
		return errors.Wrap(err, "sandboxee: parse job handle")
	}

	if err := validateJobHandle(job); err != nil {
		return errors.Wrap(err, "sandboxee: validate job handle")
	}
	s.job = job

	if err := s.hooks.OnPrivInit(); err != nil {
		return errors.Wrap(err, "sandboxee: OnPrivInit")
	}

	self, err := windows.GetCurrentThread()
	if err != nil {
		return errors.Wrap(err, "sandboxee: get current thread")
	}
	var impersonation windows.Token
	if err := windows.OpenThreadToken(self, windows.TOKEN_QUERY, false, &impersonation); err != nil {
		return errors.Wrap(err, "sandboxee: open thread token")
	}
	s.impersonation = impersonation

	if err := windows.RevertToSelf(); err != nil {
		return errors.Wrap(err, "sandboxee: RevertToSelf")
	}

	if err := dropProcessIntegrityLevel(); err != nil {
		return errors.Wrap(err, "sandboxee: drop integrity level")
	}

	if err := windows.AssignProcessToJobObject(s.job, windows.CurrentProcess()); err != nil {
		return errors.Wrap(err, "sandboxee: assign to job")
	}
	s.jobInitialized = true

	calls, err := mitigation.RuntimeCalls(s.mitigations)
	if err != nil {
		return errors.Wrap(err, "sandboxee: compute runtime mitigations")
	}
	if err := mitigation.Apply(calls); err != nil {
		if isMitigationUnavailable(err) {
			s.logger.Debug("sandboxee: SetProcessMitigationPolicy unavailable on this OS, skipping")
		} else {
			return errors.Wrap(err, "sandboxee: apply runtime mitigations")
		}
	}

	// The job handle is closed before OnInit so the payload cannot pass it
	// further (§4.9).
	windows.CloseHandle(s.job) //nolint:errcheck
	s.job = 0

	s.logger.WithFields(logrus.Fields{
		logfields.PID: windows.GetCurrentProcessId(),
	}).Debug("sandboxee bootstrap complete, entering OnInit")

	if err := s.hooks.OnInit(); err != nil {
		return errors.Wrap(err, "sandboxee: OnInit")
	}
	return nil
}

// Fini tears down once; the impersonation token (held open past
// RevertToSelf per the supplemented-features decision) is closed here.
func (s *Sandboxee) Fini() {
	s.hooks.OnFini()
	if s.impersonation != 0 {
		s.impersonation.Close()
		s.impersonation = 0
	}
}

// validateJobHandle implements §4.9's defence against argv spoofing: the
// handle must actually name a job object.
func validateJobHandle(job windows.Handle) error {
	var info winapi.JOBOBJECT_BASIC_ACCOUNTING_INFORMATION
	var ret uint32
	if err := winapi.QueryInformationJobObject(
		job,
		winapi.JobObjectBasicAccountingInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
		&ret,
	); err != nil {
		return fmt.Errorf("%w: %v", ErrJobHandleInvalid, err)
	}
	return nil
}

// dropProcessIntegrityLevel implements §4.9's DropProcessIntegrityLevel:
// open own token with TOKEN_ADJUST_DEFAULT, set TokenIntegrityLevel to the
// well-known Low label.
func dropProcessIntegrityLevel() error {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_DEFAULT, &token); err != nil {
		return fmt.Errorf("open process token: %w", err)
	}
	defer token.Close()

	low, err := winsid.Get(winsid.LowIntegrity)
	if err != nil {
		return err
	}

	label := windows.Tokenmandatorylabel{
		Label: windows.SIDAndAttributes{
			Sid:        low.PSID(),
			Attributes: winapi.SE_GROUP_INTEGRITY_ENABLED,
		},
	}
	return winapi.SetTokenInformation(
		token,
		winapi.TokenIntegrityLevel,
		unsafe.Pointer(&label),
		uint32(unsafe.Sizeof(label)),
	)
}

// isMitigationUnavailable matches the original source's allowance: a
// pre-Win8 host without SetProcessMitigationPolicy is treated as success.
func isMitigationUnavailable(err error) bool {
	return errors.Is(err, windows.ERROR_PROC_NOT_FOUND) || errors.Is(err, windows.ERROR_CALL_NOT_IMPLEMENTED)
}
