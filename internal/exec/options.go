//go:build windows

package exec

import (
	"os"

	"golang.org/x/sys/windows"
)

type ExecOpts func(e *execConfig) error

type execConfig struct {
	dir string
	env []string

	stdin, stdout, stderr bool
	// pass in files directly to process, rather than create pipes
	stdinF, stdoutF, stderrF *os.File

	token            windows.Token
	processFlags     uint32
	suspended        bool
	desktop          string
	mitigationPolicy uint64
	inheritHandles   []windows.Handle
}

// WithDir will use `dir` as the working directory for the process.
func WithDir(dir string) ExecOpts {
	return func(e *execConfig) error {
		e.dir = dir
		return nil
	}
}

// WithStdio will hook up stdio for the process to a pipe, the other end of which can be retrieved by calling Stdout(), StdErr(), or Stdin()
// respectively on the Exec object. Stdio will be hooked up to the NUL device otherwise.
func WithStdio(stdout, stderr, stdin bool) ExecOpts {
	return func(e *execConfig) error {
		e.stdout = stdout
		e.stderr = stderr
		e.stdin = stdin
		return nil
	}
}

// UsingStdio will pass the file handles to the process stdio directly. The files can be retrieved
// by calling Stdout(), StdErr(), or Stdin(), respectively, on the Exec object.
// Stdio will be hooked up to the NUL device otherwise.
func UsingStdio(stdin, stdout, stderr *os.File) ExecOpts {
	return func(e *execConfig) error {
		e.stdinF = stdin
		e.stdoutF = stdout
		e.stderrF = stderr
		return nil
	}
}

// WithEnv will use the passed in environment variables for the new process.
func WithEnv(env []string) ExecOpts {
	return func(e *execConfig) error {
		e.env = env
		return nil
	}
}

// WithToken will run the process as the user that `token` represents.
func WithToken(token windows.Token) ExecOpts {
	return func(e *execConfig) error {
		e.token = token
		return nil
	}
}

// WithProcessFlags will OR `flags` into CreateProcess's creationFlags parameter.
func WithProcessFlags(flags uint32) ExecOpts {
	return func(e *execConfig) error {
		e.processFlags |= flags
		return nil
	}
}

// WithSuspended starts the process with its primary thread suspended
// (CREATE_SUSPENDED); the caller is responsible for resuming it.
func WithSuspended() ExecOpts {
	return func(e *execConfig) error {
		e.suspended = true
		return nil
	}
}

// WithDesktop sets the "winsta\desktop" path the process's main thread is
// started on.
func WithDesktop(desktop string) ExecOpts {
	return func(e *execConfig) error {
		e.desktop = desktop
		return nil
	}
}

// WithMitigationPolicy attaches a PROC_THREAD_ATTRIBUTE_MITIGATION_POLICY
// value to the process's creation attribute list.
func WithMitigationPolicy(policy uint64) ExecOpts {
	return func(e *execConfig) error {
		e.mitigationPolicy = policy
		return nil
	}
}

// WithInheritHandles restricts the set of inheritable handles the child
// receives (via PROC_THREAD_ATTRIBUTE_HANDLE_LIST) to exactly `handles`,
// regardless of how many other inheritable handles exist in this process.
func WithInheritHandles(handles []windows.Handle) ExecOpts {
	return func(e *execConfig) error {
		e.inheritHandles = append(e.inheritHandles, handles...)
		return nil
	}
}
