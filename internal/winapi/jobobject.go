package winapi

import (
	"errors"

	"golang.org/x/sys/windows"
)

var (
	ErrAlreadyClosed = errors.New("the handle has already been closed")
	ErrInvalidPid    = errors.New("invalid pid: 0")
)

// JOB_OBJECT_LIMIT_ACTIVE_PROCESS caps the number of processes the job can
// contain concurrently (used with JOBOBJECT_BASIC_LIMIT_INFORMATION).
//
// https://docs.microsoft.com/en-us/windows/win32/api/winnt/ns-winnt-jobobject_basic_limit_information
//
//nolint:revive,stylecheck
const JOB_OBJECT_LIMIT_ACTIVE_PROCESS = 0x00000008

type JOBOBJECT_BASIC_LIMIT_INFORMATION struct { //nolint:revive,stylecheck
	PerProcessUserTimeLimit int64
	PerJobUserTimeLimit     int64
	LimitFlags              uint32
	MinimumWorkingSetSize   uintptr
	MaximumWorkingSetSize   uintptr
	ActiveProcessLimit      uint32
	Affinity                uintptr
	PriorityClass           uint32
	SchedulingClass         uint32
}

// JOBOBJECT_BASIC_UI_RESTRICTIONS / JOB_OBJECT_UILIMIT_* restrict what the
// desktop-owning side of a job can do — window-handle enumeration,
// clipboard, global atoms, display settings, and exit-Windows.
//
// https://docs.microsoft.com/en-us/windows/win32/api/winuser/ns-winuser-jobobject_basic_ui_restrictions
const JobObjectBasicUIRestrictions uint32 = 4

type JOBOBJECT_BASIC_UI_RESTRICTIONS struct { //nolint:revive,stylecheck
	UIRestrictionsClass uint32
}

//nolint:revive,stylecheck
const (
	JOB_OBJECT_UILIMIT_HANDLES          = 0x00000001
	JOB_OBJECT_UILIMIT_READCLIPBOARD    = 0x00000002
	JOB_OBJECT_UILIMIT_WRITECLIPBOARD   = 0x00000004
	JOB_OBJECT_UILIMIT_SYSTEMPARAMETERS = 0x00000008
	JOB_OBJECT_UILIMIT_DISPLAYSETTINGS  = 0x00000010
	JOB_OBJECT_UILIMIT_GLOBALATOMS      = 0x00000020
	JOB_OBJECT_UILIMIT_DESKTOP          = 0x00000040
	JOB_OBJECT_UILIMIT_EXITWINDOWS      = 0x00000080

	JOB_OBJECT_UILIMIT_ALL = JOB_OBJECT_UILIMIT_HANDLES |
		JOB_OBJECT_UILIMIT_READCLIPBOARD |
		JOB_OBJECT_UILIMIT_WRITECLIPBOARD |
		JOB_OBJECT_UILIMIT_SYSTEMPARAMETERS |
		JOB_OBJECT_UILIMIT_DISPLAYSETTINGS |
		JOB_OBJECT_UILIMIT_GLOBALATOMS |
		JOB_OBJECT_UILIMIT_DESKTOP |
		JOB_OBJECT_UILIMIT_EXITWINDOWS
)

const (
	JobObjectBasicAccountingInformation uint32 = 1
	JobObjectBasicProcessIdList         uint32 = 3
)

// JOBOBJECT_BASIC_ACCOUNTING_INFORMATION is queried by the sandboxee to
// confirm an inherited handle actually names a job object before trusting
// it (§4.9's defence against argv spoofing).
//
// https://docs.microsoft.com/en-us/windows/win32/api/winnt/ns-winnt-jobobject_basic_accounting_information
type JOBOBJECT_BASIC_ACCOUNTING_INFORMATION struct { //nolint:revive,stylecheck
	TotalUserTime             int64
	TotalKernelTime           int64
	ThisPeriodTotalUserTime   int64
	ThisPeriodTotalKernelTime int64
	TotalPageFaultCount       uint32
	TotalProcesses            uint32
	ActiveProcesses           uint32
	TotalTerminatedProcesses  uint32
}

type JOBOBJECT_BASIC_PROCESS_ID_LIST struct { //nolint:revive,stylecheck
	NumberOfAssignedProcesses uint32
	NumberOfProcessIdsInList  uint32
	ProcessIdList             [1]uintptr
}

// BOOL IsProcessInJob(
// 		HANDLE ProcessHandle,
// 		HANDLE JobHandle,
// 		PBOOL  Result
// );
//
//sys IsProcessInJob(procHandle windows.Handle, jobHandle uintptr, result *bool) (err error) = kernel32.IsProcessInJob

// BOOL QueryInformationJobObject(
//		HANDLE             hJob,
//		JOBOBJECTINFOCLASS JobObjectInformationClass,
//		LPVOID             lpJobObjectInformation,
//		DWORD              cbJobObjectInformationLength,
//		LPDWORD            lpReturnLength
// );
//
//sys QueryInformationJobObject(jobHandle windows.Handle, infoClass uint32, jobObjectInfo uintptr, jobObjectInformationLength uint32, lpReturnLength *uint32) (err error) = kernel32.QueryInformationJobObject
