package optimizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cpuGovernor  = "performance"
	ioScheduler  = "mq-deadline"
	governorGlob = "/sys/devices/system/cpu/cpu*/cpufreq/scaling_governor"
	schedGlob    = "/sys/block/*/queue/scheduler"
	dropInPath   = "/etc/sysctl.d/99-vps-optimizer.conf"
)

// Setting is a kernel parameter and the value it should hold.
type Setting struct {
	Key   string
	Value string
}

// String renders the setting as key=value.
func (s Setting) String() string {
	return s.Key + "=" + s.Value
}

// ProcPath is the /proc/sys file backing the setting.
func (s Setting) ProcPath() string {
	return filepath.Join("/proc/sys", strings.ReplaceAll(s.Key, ".", "/"))
}

// Mismatch is a setting whose live value differs from the desired one.
type Mismatch struct {
	Setting Setting
	Current string
	Err     error
}

// OptimizeTuner applies CPU, memory, network and I/O tuning
type OptimizeTuner struct {
	env *Env
	// Persist also writes the sysctl settings to a drop-in file.
	Persist bool
	now     func() time.Time
}

// NewOptimizeTuner creates a new optimize tuner
func NewOptimizeTuner(env *Env, persist bool) *OptimizeTuner {
	return &OptimizeTuner{env: env, Persist: persist, now: time.Now}
}

// Settings returns the kernel parameters applied by Run.
func (ot *OptimizeTuner) Settings() []Setting {
	return []Setting{
		{Key: "vm.swappiness", Value: "10"},
		{Key: "net.core.rmem_max", Value: "134217728"},
		{Key: "net.core.wmem_max", Value: "134217728"},
		{Key: "net.ipv4.tcp_rmem", Value: "4096 87380 134217728"},
		{Key: "net.ipv4.tcp_wmem", Value: "4096 65536 134217728"},
		{Key: "net.ipv4.tcp_congestion_control", Value: "bbr"},
	}
}

// Run applies the tuning.
func (ot *OptimizeTuner) Run(ctx context.Context) error {
	if err := ot.env.CheckRoot(); err != nil {
		return err
	}

	console := ot.env.Console
	console.Step("System Optimization")

	console.Bullet("Setting CPU governor to %s", cpuGovernor)
	ot.writeSysfs(governorGlob, cpuGovernor, "CPU frequency scaling")

	settings := ot.Settings()

	console.Bullet("Optimizing swappiness")
	ot.applySettings(ctx, settings[:1])

	console.Bullet("Applying network optimizations")
	ot.applySettings(ctx, settings[1:])

	console.Bullet("Optimizing I/O scheduler")
	ot.writeSysfs(schedGlob, ioScheduler, "block devices")

	if ot.Persist {
		console.Bullet("Persisting sysctl settings")

		if err := ot.persist(); err != nil {
			console.Warning("  %v", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	console.Log("System optimization completed")
	console.Success("  Optimization complete")

	return nil
}

func (ot *OptimizeTuner) applySettings(ctx context.Context, settings []Setting) {
	for _, s := range settings {
		if _, err := ot.env.Runner.Run(ctx, "sysctl -w "+shellQuote(s.String())); err != nil {
			ot.env.Console.Logger().Warn("sysctl failed", "setting", s.String(), "error", err)
			ot.env.Console.Warning("  %s not applied", s.Key)
		}
	}
}

// writeSysfs writes value to every file matching pattern under SysRoot and
// returns how many writes succeeded.
func (ot *OptimizeTuner) writeSysfs(pattern, value, what string) int {
	console := ot.env.Console

	matches, err := filepath.Glob(ot.env.Config.SysPath(pattern))
	if err != nil || len(matches) == 0 {
		console.Info("  No %s controls found, skipping", what)
		return 0
	}

	written := 0

	for _, path := range matches {
		if ot.env.Config.DryRun {
			console.Printf("  [dry-run] write %q to %s\n", value, path)
			written++

			continue
		}

		if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
			console.Logger().Warn("sysfs write failed", "path", path, "value", value, "error", err)
			continue
		}

		written++
	}

	console.Info("  Updated %d of %d %s controls", written, len(matches), what)

	return written
}

// DropIn renders the persistent sysctl configuration.
func (ot *OptimizeTuner) DropIn() string {
	var b strings.Builder

	b.WriteString("# Managed by vps-optimizer\n")

	for _, s := range ot.Settings() {
		fmt.Fprintf(&b, "%s = %s\n", s.Key, s.Value)
	}

	return b.String()
}

func (ot *OptimizeTuner) persist() error {
	path := ot.env.Config.SysPath(dropInPath)

	if ot.env.Config.DryRun {
		ot.env.Console.Printf("  [dry-run] write %s\n", path)
		return nil
	}

	backup := NewBackupManager(ot.env.Config.BackupRoot, ot.now(), ot.env.Console)
	if _, err := backup.BackupFile(path); err != nil {
		return fmt.Errorf("failed to back up %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte(ot.DropIn()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	ot.env.Console.Log("Wrote " + path)

	return nil
}

// Verify compares the live kernel values with Settings.
func (ot *OptimizeTuner) Verify() []Mismatch {
	var mismatches []Mismatch

	for _, s := range ot.Settings() {
		data, err := os.ReadFile(ot.env.Config.SysPath(s.ProcPath()))
		if err != nil {
			mismatches = append(mismatches, Mismatch{Setting: s, Err: err})
			continue
		}

		current := strings.Join(strings.Fields(string(data)), " ")
		if current != strings.Join(strings.Fields(s.Value), " ") {
			mismatches = append(mismatches, Mismatch{Setting: s, Current: current})
		}
	}

	return mismatches
}

// RunVerify prints the outcome of Verify.
func (ot *OptimizeTuner) RunVerify() error {
	console := ot.env.Console
	console.Step("Verifying kernel parameters")

	mismatches := ot.Verify()
	for _, m := range mismatches {
		if m.Err != nil {
			console.Warning("%s: %v", m.Setting.Key, m.Err)
		} else {
			console.Warning("%s is %q, expected %q", m.Setting.Key, m.Current, m.Setting.Value)
		}
	}

	if len(mismatches) == 0 {
		console.Success("All kernel parameters are tuned")
		return nil
	}

	console.Info("Run 'vps-optimizer optimize' to apply tuning")

	return fmt.Errorf("%d of %d parameters not tuned", len(mismatches), len(ot.Settings()))
}
