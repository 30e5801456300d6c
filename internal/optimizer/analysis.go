package optimizer

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"vps-optimizer/internal/scanner"
)

const (
	// DefaultLargeFileSize is the threshold used by disk analysis.
	DefaultLargeFileSize = "100MiB"

	topProcessCount = 10
	largeFileCount  = 20
	tabSpacing      = 2
)

// MemoryAnalyzer reports memory usage and the biggest consumers
type MemoryAnalyzer struct {
	env *Env
}

// NewMemoryAnalyzer creates a new memory analyzer
func NewMemoryAnalyzer(env *Env) *MemoryAnalyzer {
	return &MemoryAnalyzer{env: env}
}

// Run prints memory figures and the top processes by memory share.
func (ma *MemoryAnalyzer) Run(ctx context.Context) error {
	console := ma.env.Console
	console.Step("Memory Analysis")

	memory, err := ma.env.Probe.Memory(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(console.Out(), 0, 4, tabSpacing, ' ', 0)
	fmt.Fprintln(w, "\tTotal\tUsed\tFree\tAvailable\t")
	fmt.Fprintf(w, "Mem:\t%s\t%s\t%s\t%s\t\n",
		humanize.IBytes(memory.Total), humanize.IBytes(memory.Used),
		humanize.IBytes(memory.Free), humanize.IBytes(memory.Available))
	fmt.Fprintf(w, "Swap:\t%s\t%s\t%s\t\t\n",
		humanize.IBytes(memory.SwapTotal), humanize.IBytes(memory.SwapUsed),
		humanize.IBytes(memory.SwapTotal-min(memory.SwapUsed, memory.SwapTotal)))

	if err := w.Flush(); err != nil {
		return err
	}

	console.Println()
	console.Info("Top Memory Consumers:")

	procs, err := ma.env.Probe.TopProcesses(ctx, topProcessCount)
	if err != nil {
		return err
	}

	w = tabwriter.NewWriter(console.Out(), 0, 4, tabSpacing, ' ', 0)
	fmt.Fprintln(w, "PID\tUSER\t%MEM\tRSS\tCOMMAND\t")

	for _, p := range procs {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%s\t%s\t\n", p.PID, p.User, p.MemPercent, humanize.IBytes(p.RSS), p.Name)
	}

	return w.Flush()
}

// DiskAnalyzer reports filesystem usage and the largest files
type DiskAnalyzer struct {
	env *Env
	// Root is where the large-file search starts.
	Root string
	// MinSize is a human-readable threshold such as "100MiB".
	MinSize string
}

// NewDiskAnalyzer creates a new disk analyzer
func NewDiskAnalyzer(env *Env) *DiskAnalyzer {
	return &DiskAnalyzer{env: env, Root: "/", MinSize: DefaultLargeFileSize}
}

// Run prints partition usage followed by the largest files under Root.
func (da *DiskAnalyzer) Run(ctx context.Context) error {
	threshold, err := humanize.ParseBytes(da.MinSize)
	if err != nil {
		return fmt.Errorf("invalid size threshold %q: %w", da.MinSize, err)
	}

	console := da.env.Console
	console.Step("Disk Analysis")
	console.Info("Disk Usage:")

	partitions, err := da.env.Probe.Partitions(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(console.Out(), 0, 4, tabSpacing, ' ', 0)
	fmt.Fprintln(w, "Filesystem\tType\tSize\tUsed\tAvail\tUse%\tMounted on\t")

	for _, p := range partitions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\t\n",
			p.Device, p.Fstype, humanize.IBytes(p.Total), humanize.IBytes(p.Used),
			humanize.IBytes(p.Free), p.UsedPercent, p.Mountpoint)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	console.Println()
	console.Info("Largest Files (>%s):", humanize.IBytes(threshold))

	files, err := scanner.LargestFiles(ctx, da.Root, threshold, largeFileCount)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}

		console.Warning("Could not search %s: %v", da.Root, err)

		return nil
	}

	if len(files) == 0 {
		console.Info("  none")
		return nil
	}

	w = tabwriter.NewWriter(console.Out(), 0, 4, tabSpacing, ' ', 0)
	for _, f := range files {
		fmt.Fprintf(w, "  %s\t%s\t\n", scanner.FormatSize(f.Size), f.Path)
	}

	return w.Flush()
}
