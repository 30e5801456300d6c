package optimizer

import (
	"context"

	"github.com/dustin/go-humanize"
)

// CleanupTuner removes caches, stale logs and unused packages
type CleanupTuner struct {
	env *Env
}

// NewCleanupTuner creates a new cleanup tuner
func NewCleanupTuner(env *Env) *CleanupTuner {
	return &CleanupTuner{env: env}
}

// Tasks returns the cleanup sequence for the detected distribution.
func (ct *CleanupTuner) Tasks() []Task {
	var tasks []Task

	if ct.env.Distro != nil {
		tasks = append(tasks, ct.env.Distro.PackageCleanupTasks()...)
	}

	tasks = append(tasks,
		Task{Name: "Cleaning journal logs", Command: "journalctl --vacuum-time=7d"},
		Task{Name: "Cleaning tmp files", Command: "find /tmp -type f -atime +7 -delete"},
		Task{Name: "Cleaning old log files", Command: "find /var/log -name '*.log' -type f -mtime +30 -delete"},
		Task{Name: "Cleaning thumbnail cache", Command: "find /home -name '.thumbnails' -type d -exec rm -rf {} + 2>/dev/null || true"},
		Task{Name: "Cleaning browser cache", Command: "find /home -name '.cache' -type d -exec rm -rf {} + 2>/dev/null || true"},
		Task{Name: "Cleaning crash dumps", Command: "rm -rf /var/crash/* 2>/dev/null || true"},
	)

	if ct.env.Distro != nil {
		tasks = append(tasks, ct.env.Distro.KernelCleanupTasks()...)
	}

	return tasks
}

// Run performs the cleanup and reports the space reclaimed on /.
func (ct *CleanupTuner) Run(ctx context.Context) error {
	if err := ct.env.CheckRoot(); err != nil {
		return err
	}

	console := ct.env.Console
	console.Step("System Cleanup")

	before := ct.freeSpace(ctx)

	if failed := runTasks(ctx, ct.env, "Completed: ", ct.Tasks()); failed > 0 {
		console.Warning("%d cleanup task(s) were skipped or failed", failed)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	after := ct.freeSpace(ctx)
	if before > 0 && after > before {
		console.Success("Reclaimed %s on /", humanize.IBytes(after-before))
	} else if after > 0 {
		console.Info("Free space on /: %s", humanize.IBytes(after))
	}

	return nil
}

func (ct *CleanupTuner) freeSpace(ctx context.Context) uint64 {
	if ct.env.Probe == nil {
		return 0
	}

	usage, err := ct.env.Probe.Usage(ctx, "/")
	if err != nil {
		return 0
	}

	return usage.Free
}
