// Package logfields names the structured field keys used by logrus calls
// throughout this module, so call sites agree on spelling.
package logfields

const (
	// Identifiers

	PID    = "pid"
	JobPID = "job-pid"

	// SIDs / security identity

	SID      = "sid"
	TokenID  = "token-id"
	LogonSID = "logon-sid"

	// Desktop / window station

	WindowStation = "winsta"
	Desktop       = "desktop"

	// Job object

	Job             = "job"
	ActiveProcesses = "active-processes"

	// Mitigation

	MitigationFlags = "mitigation-flags"
	MitigationClass = "mitigation-class"

	// Common misc

	Path      = "path"
	Attempt   = "attemptNo"
	ExitCode  = "exitCode"
	Duration  = "duration"
	StartTime = "startTime"
)
