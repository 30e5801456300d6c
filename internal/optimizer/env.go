// Package optimizer implements the maintenance tasks behind the menu and the
// CLI subcommands: cleanup, Docker pruning, kernel tuning, hardening and
// system reports.
package optimizer

import (
	"errors"
	"os"
	"os/exec"

	"vps-optimizer/internal/config"
)

// ErrNotRoot is returned by operations that modify the system when the
// process lacks root privileges.
var ErrNotRoot = errors.New("this operation requires root privileges, please run with sudo")

// Env bundles the dependencies shared by every maintenance task.
type Env struct {
	Config  config.Config
	Console *Console
	Runner  Runner
	Distro  *DistroManager
	Probe   SystemProbe

	// LookPath resolves executables; exec.LookPath when nil.
	LookPath func(string) (string, error)
	// Geteuid reports the effective user id; os.Geteuid when nil.
	Geteuid func() int
}

func (e *Env) lookPath(name string) (string, error) {
	if e.LookPath != nil {
		return e.LookPath(name)
	}

	return exec.LookPath(name)
}

// CheckRoot fails unless running as root. Dry runs are allowed for anyone.
func (e *Env) CheckRoot() error {
	if e.Config.DryRun {
		return nil
	}

	euid := os.Geteuid
	if e.Geteuid != nil {
		euid = e.Geteuid
	}

	if euid() != 0 {
		return ErrNotRoot
	}

	return nil
}
