//go:build windows

// Package jobobject provides a high level wrapper around the pieces of the
// Win32 job object API this module's sandboxing core needs: a single-process
// cap and the full set of desktop/UI restriction bits, created with an
// inheritable security descriptor so a suspended child can be handed the job
// handle across CreateProcess.
package jobobject

import (
	"sync"
	"unsafe"

	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"golang.org/x/sys/windows"
)

// JobObject is a thin, synchronized wrapper around a job object handle.
type JobObject struct {
	handle     windows.Handle
	handleLock sync.RWMutex
}

var ErrAlreadyClosed = winapi.ErrAlreadyClosed

// Create creates an unnamed job object. sd, when non-nil, is attached as the
// job's security descriptor and marked inheritable so the handle can be
// passed to a child process via PROC_THREAD_ATTRIBUTE_HANDLE_LIST.
func Create(sd *windows.SECURITY_DESCRIPTOR) (*JobObject, error) {
	var sa *windows.SecurityAttributes
	if sd != nil {
		sa = &windows.SecurityAttributes{
			Length:             uint32(unsafe.Sizeof(windows.SecurityAttributes{})),
			SecurityDescriptor: sd,
			InheritHandle:      1,
		}
	}

	h, err := windows.CreateJobObject(sa, nil)
	if err != nil {
		return nil, err
	}
	return &JobObject{handle: h}, nil
}

// Handle returns the raw job object handle. Valid for the lifetime of the
// JobObject or until Close is called.
func (job *JobObject) Handle() windows.Handle {
	job.handleLock.RLock()
	defer job.handleLock.RUnlock()
	return job.handle
}

// SetActiveProcessLimit caps the number of processes the job may ever
// contain concurrently to limit, preventing the sandboxed process from
// spawning children that escape confinement.
func (job *JobObject) SetActiveProcessLimit(limit uint32) error {
	job.handleLock.RLock()
	defer job.handleLock.RUnlock()
	if job.handle == 0 {
		return ErrAlreadyClosed
	}

	info := winapi.JOBOBJECT_BASIC_LIMIT_INFORMATION{
		LimitFlags:         winapi.JOB_OBJECT_LIMIT_ACTIVE_PROCESS,
		ActiveProcessLimit: limit,
	}
	_, err := windows.SetInformationJobObject(
		job.handle,
		windows.JobObjectBasicLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	return err
}

// SetUIRestrictions applies a JOBOBJECT_BASIC_UI_RESTRICTIONS with the given
// restriction bitmask (a combination of JOB_OBJECT_UILIMIT_* flags).
func (job *JobObject) SetUIRestrictions(limits uint32) error {
	job.handleLock.RLock()
	defer job.handleLock.RUnlock()
	if job.handle == 0 {
		return ErrAlreadyClosed
	}

	info := winapi.JOBOBJECT_BASIC_UI_RESTRICTIONS{UIRestrictionsClass: limits}
	_, err := windows.SetInformationJobObject(
		job.handle,
		winapi.JobObjectBasicUIRestrictions,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	return err
}

// Assign assigns the process identified by pid to the job.
func (job *JobObject) Assign(pid uint32) error {
	job.handleLock.RLock()
	defer job.handleLock.RUnlock()
	if job.handle == 0 {
		return ErrAlreadyClosed
	}
	if pid == 0 {
		return winapi.ErrInvalidPid
	}

	hProc, err := windows.OpenProcess(winapi.PROCESS_ALL_ACCESS, true, pid)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(hProc) //nolint:errcheck
	return windows.AssignProcessToJobObject(job.handle, hProc)
}

// Terminate terminates every process currently in the job.
func (job *JobObject) Terminate(exitCode uint32) error {
	job.handleLock.RLock()
	defer job.handleLock.RUnlock()
	if job.handle == 0 {
		return ErrAlreadyClosed
	}
	return windows.TerminateJobObject(job.handle, exitCode)
}

// Close closes the job object handle.
func (job *JobObject) Close() error {
	job.handleLock.Lock()
	defer job.handleLock.Unlock()
	if job.handle == 0 {
		return ErrAlreadyClosed
	}
	err := windows.CloseHandle(job.handle)
	job.handle = 0
	return err
}

// IsProcessInJob reports whether proc is assigned to job, or to any job when
// job is 0 — used by cmd/sandboxdemo to report the sandboxee's job
// membership.
func IsProcessInJob(proc windows.Handle, job windows.Handle) (bool, error) {
	var result bool
	if err := winapi.IsProcessInJob(proc, uintptr(job), &result); err != nil {
		return false, err
	}
	return result, nil
}
