// Package config holds the explicit runtime configuration passed to every
// component, replacing process-wide settings such as the log file path and
// color switches.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"vps-optimizer/internal/scanner"
)

const (
	// DefaultLimit is the number of directories shown by a scan.
	DefaultLimit = 20
	// DefaultListenAddr is where the status API listens.
	DefaultListenAddr = "127.0.0.1:8087"
	// DefaultBackupRoot is where file backups are stored.
	DefaultBackupRoot = "/root/.vps-optimizer-backups"
)

// Config is the configuration shared by the CLI, the menu and the API.
type Config struct {
	// LogFile receives the action log.
	LogFile string
	// Color enables ANSI colors on terminal output.
	Color bool
	// DryRun prints commands instead of running them.
	DryRun bool
	// AssumeYes answers every confirmation prompt with yes.
	AssumeYes bool
	// ScanRoot is the default directory for scans.
	ScanRoot string
	// SortMode is the scan ordering ("size" or "name").
	SortMode string
	// Limit caps the number of scanned directories shown (0 = unlimited).
	Limit int
	// Workers bounds concurrent directory sizing.
	Workers int
	// SysRoot prefixes /sys, /proc and /etc lookups; "/" on a live system.
	SysRoot string
	// BackupRoot is the parent directory of timestamped backups.
	BackupRoot string
	// ListenAddr is the status API address.
	ListenAddr string
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		LogFile:    DefaultLogFile(time.Now()),
		Color:      true,
		ScanRoot:   "/",
		SortMode:   scanner.SortBySize.String(),
		Limit:      DefaultLimit,
		Workers:    scanner.DefaultWorkers,
		SysRoot:    "/",
		BackupRoot: DefaultBackupRoot,
		ListenAddr: DefaultListenAddr,
	}
}

// DefaultLogFile returns the timestamped log path for a run started at t.
func DefaultLogFile(t time.Time) string {
	return filepath.Join("/tmp", fmt.Sprintf("vps_optimizer_%s.log", t.Format("20060102_150405")))
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return errors.New("limit cannot be negative")
	}

	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	if _, err := scanner.ParseSortMode(c.SortMode); err != nil {
		return err
	}

	if c.LogFile == "" {
		return errors.New("log file path is required")
	}

	return nil
}

// ScanOptions converts the scan fields into scanner options.
func (c Config) ScanOptions() (scanner.Options, error) {
	mode, err := scanner.ParseSortMode(c.SortMode)
	if err != nil {
		return scanner.Options{}, err
	}

	return scanner.Options{
		Sort:    mode,
		Limit:   c.Limit,
		Workers: c.Workers,
	}, nil
}

// SysPath joins a system path such as /proc/sys/vm/swappiness onto SysRoot.
func (c Config) SysPath(path string) string {
	root := c.SysRoot
	if root == "" {
		root = "/"
	}

	return filepath.Join(root, path)
}
