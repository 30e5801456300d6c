package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// StatusReporter displays system status
type StatusReporter struct {
	env *Env
}

// NewStatusReporter creates a new status reporter
func NewStatusReporter(env *Env) *StatusReporter {
	return &StatusReporter{env: env}
}

// Run prints uptime, load, CPU and memory.
func (sr *StatusReporter) Run(ctx context.Context) error {
	status, err := sr.env.Probe.Status(ctx)
	if err != nil {
		return err
	}

	console := sr.env.Console
	console.Step("System Status")

	if status.Hostname != "" {
		console.Printf("  %-20s: %s (%s, kernel %s)\n", "Host", status.Hostname, status.Platform, status.Kernel)
	}

	console.Printf("  %-20s: %s\n", "Uptime", FormatUptime(status.UptimeSeconds))
	console.Printf("  %-20s: %.2f %.2f %.2f\n", "Load Average", status.Load1, status.Load5, status.Load15)
	console.Printf("  %-20s: %s (%d vCPUs)\n", "CPU", status.CPUModel, status.CPUCount)
	console.Printf("  %-20s: %s / %s (%.1f%%)\n", "Memory",
		humanize.IBytes(status.Memory.Used), humanize.IBytes(status.Memory.Total), status.Memory.UsedPercent)

	return nil
}

// WriteJSON writes the status as indented JSON.
func (sr *StatusReporter) WriteJSON(ctx context.Context, w io.Writer) error {
	status, err := sr.env.Probe.Status(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatUptime renders seconds like uptime(1): "3 days, 4:05" or "0:42".
func FormatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60

	switch days {
	case 0:
		return fmt.Sprintf("%d:%02d", hours, minutes)
	case 1:
		return fmt.Sprintf("1 day, %d:%02d", hours, minutes)
	default:
		return fmt.Sprintf("%d days, %d:%02d", days, hours, minutes)
	}
}
