package optimizer

import (
	"context"
	"fmt"
	"strconv"

	"vps-optimizer/internal/scanner"
)

// App wires the maintenance tasks to the menu and the CLI.
type App struct {
	env *Env
}

// NewApp creates an App over env.
func NewApp(env *Env) *App {
	return &App{env: env}
}

// Env returns the shared dependencies.
func (a *App) Env() *Env { return a.env }

// Scan measures the child directories of root and prints the table.
func (a *App) Scan(ctx context.Context, root string) error {
	opt, err := a.env.Config.ScanOptions()
	if err != nil {
		return err
	}

	res, err := scanner.Scan(ctx, root, opt)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	console := a.env.Console
	console.Step("Directory Scanner")
	console.Info("Scanning: %s", root)

	if err := scanner.Render(console.Out(), res, scanner.RenderOptions{Color: console.Colored()}); err != nil {
		return err
	}

	console.Logger().Info("scan completed",
		"root", root, "directories", res.Discovered, "total_bytes", res.Total, "sort", opt.Sort.String())

	return nil
}

// Rollback lets the operator pick a backup set and restores it.
func (a *App) Rollback(ctx context.Context) error {
	if err := a.env.CheckRoot(); err != nil {
		return err
	}

	console := a.env.Console
	console.Step("Restore Backup")

	backups, err := ListBackups(a.env.Config.BackupRoot)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		console.Warning("No backups found.")
		return nil
	}

	console.Println("Available backups:")

	for i, b := range backups {
		console.Printf("  [%d] %s\n", i+1, b)
	}

	console.Println("  [c] Cancel")

	selection := console.Prompt("Select backup to restore: ", "c")
	if selection == "c" || selection == "C" {
		console.Info("Rollback cancelled")
		return nil
	}

	index, err := strconv.Atoi(selection)
	if err != nil || index < 1 || index > len(backups) {
		return fmt.Errorf("invalid selection %q", selection)
	}

	backup := OpenBackup(a.env.Config.BackupRoot, backups[index-1], console)

	restored, err := backup.Restore()
	if err != nil {
		return err
	}

	if _, err := a.env.Runner.Run(ctx, "sysctl --system"); err != nil {
		console.Warning("Failed to reload sysctl settings: %v", err)
	}

	console.Log(fmt.Sprintf("Restored %d file(s) from backup %s", restored, backup.Timestamp))

	return nil
}

// Handlers is the menu dispatch table.
func (a *App) Handlers() map[Command]Handler {
	env := a.env

	return map[Command]Handler{
		CommandScan: func(ctx context.Context) error {
			root := env.Console.Prompt(fmt.Sprintf("Enter directory path (default: %s): ", env.Config.ScanRoot), env.Config.ScanRoot)
			return a.Scan(ctx, root)
		},
		CommandCleanup:  NewCleanupTuner(env).Run,
		CommandDocker:   NewDockerTuner(env).Run,
		CommandOptimize: NewOptimizeTuner(env, false).Run,
		CommandMemory:   NewMemoryAnalyzer(env).Run,
		CommandDisk:     NewDiskAnalyzer(env).Run,
		CommandHarden:   NewHardenTuner(env).Run,
		CommandSuite:    NewSuite(env).Run,
		CommandStatus:   NewStatusReporter(env).Run,
	}
}

// Menu returns the interactive menu bound to Handlers.
func (a *App) Menu() *Menu {
	return NewMenu(a.env.Console, a.Handlers(), a.env.Config.LogFile)
}
