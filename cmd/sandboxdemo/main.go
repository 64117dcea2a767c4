//go:build windows

// sandboxdemo is a minimal two-faced binary: run with no arguments it is the
// launcher, spawning a suspended copy of itself into a sandboxed job; run
// with the "--job <hex>" switch appended (as the launcher does on the
// child's command line) it is the sandboxee, performing its own bootstrap
// and then printing what it ended up running as.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dblohm7/sandbox-win32/internal/jobobject"
	"github.com/dblohm7/sandbox-win32/internal/log"
	"github.com/dblohm7/sandbox-win32/internal/mitigation"
	"github.com/dblohm7/sandbox-win32/internal/winapi"
	"github.com/dblohm7/sandbox-win32/sandbox"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sys/windows"
)

func main() {
	if _, err := sandbox.ParseJobHandle(os.Args[1:]); err == nil {
		runSandboxee()
		return
	}

	app := &cli.App{
		Name:  "sandboxdemo",
		Usage: "launch a sandboxed child process",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "exe", Usage: "path to the executable to sandbox (defaults to self)"},
			&cli.BoolFlag{Name: "no-winsta", Usage: "skip creating a private window station"},
		},
		Action: runLauncher,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("sandboxdemo")
	}
}

func runLauncher(c *cli.Context) error {
	if winapi.IsEvelated() {
		logrus.Warn("running elevated: the sandboxed child will still be restricted, but prefer a non-elevated shell for this demo")
	}

	exe := c.String("exe")
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve self path: %w", err)
		}
		exe = self
	}

	flags := sandbox.Normal
	if c.Bool("no-winsta") {
		flags |= sandbox.NoSeparateWindowStation
	}

	l := sandbox.NewLauncher(flags, sandbox.DefaultMitigations, sandbox.NopLauncherHooks{}, log.L)
	if err := l.Init(); err != nil {
		return fmt.Errorf("init launcher: %w", err)
	}
	defer l.Close()

	if err := l.Launch(exe, ""); err != nil {
		return fmt.Errorf("launch sandboxed child: %w", err)
	}

	logrus.Info("sandboxed child launched, waiting for exit")
	if err := l.Wait(context.Background()); err != nil {
		return fmt.Errorf("wait for sandboxed child: %w", err)
	}
	return nil
}

func runSandboxee() {
	s := sandbox.NewSandboxee(demoHooks{}, mitigation.RuntimeSet, log.L)
	if err := s.Init(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatal("sandboxee bootstrap failed")
	}
	defer s.Fini()

	token := windows.GetCurrentProcessToken()
	elevated := token.IsElevated()

	integrity := "unknown"
	if sid, err := winapi.GetTokenIntegrityLevel(token); err != nil {
		logrus.WithError(err).Warn("sandboxee: could not query integrity level")
	} else {
		integrity = sid.String()
	}

	inJob, err := jobobject.IsProcessInJob(windows.CurrentProcess(), 0)
	if err != nil {
		logrus.WithError(err).Warn("sandboxee: could not query job membership")
	}

	fmt.Printf("sandboxee running, pid=%d elevated=%v integrity=%s inJob=%v\n", os.Getpid(), elevated, integrity, inJob)
}

type demoHooks struct{}

func (demoHooks) OnPrivInit() error { return nil }
func (demoHooks) OnInit() error     { return nil }
func (demoHooks) OnFini()           {}
