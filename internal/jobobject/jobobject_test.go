//go:build windows

package jobobject

import (
	"testing"

	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"golang.org/x/sys/windows"
)

func TestJobCreateNoSD(t *testing.T) {
	job, err := Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()

	if job.Handle() == 0 {
		t.Fatal("expected a valid job handle")
	}
}

func TestJobActiveProcessLimit(t *testing.T) {
	job, err := Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()

	if err := job.SetActiveProcessLimit(1); err != nil {
		t.Fatal(err)
	}
}

func TestJobUIRestrictions(t *testing.T) {
	job, err := Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()

	if err := job.SetUIRestrictions(winapi.JOB_OBJECT_UILIMIT_ALL); err != nil {
		t.Fatal(err)
	}
}

func TestJobAssignInvalidPid(t *testing.T) {
	job, err := Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()

	if err := job.Assign(0); err != winapi.ErrInvalidPid {
		t.Fatalf("expected ErrInvalidPid, got %v", err)
	}
}

func TestJobDoubleClose(t *testing.T) {
	job, err := Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := job.Close(); err != nil {
		t.Fatal(err)
	}
	if err := job.Close(); err != ErrAlreadyClosed {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestIsProcessInJobCurrentProcess(t *testing.T) {
	job, err := Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()

	if err := job.Assign(windows.GetCurrentProcessId()); err != nil {
		t.Fatal(err)
	}

	inJob, err := IsProcessInJob(windows.CurrentProcess(), job.Handle())
	if err != nil {
		t.Fatal(err)
	}
	if !inJob {
		t.Fatal("expected current process to be a member of the job")
	}
}
