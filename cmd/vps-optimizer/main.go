package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vps-optimizer/internal/api"
	"vps-optimizer/internal/config"
	"vps-optimizer/internal/optimizer"
)

var (
	version = "2.0.0"
	cfg     = config.Default()

	noColor     bool
	autoMode    bool
	scanPath    string
	persist     bool
	statusJSON  bool
	diskRoot    string
	diskMinSize string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "vps-optimizer",
		Short: "VPS Cleanup & Performance Optimization Suite",
		Long: heredoc.Doc(`
			VPS Optimizer

			Maintenance tool for Linux servers. Without arguments it opens an
			interactive menu offering:
			  - Directory size scanning
			  - Package, log and cache cleanup
			  - Docker pruning
			  - Kernel, network and I/O tuning
			  - Memory and disk analysis
			  - Basic security hardening

			Modifying operations require root. Files edited in place are backed up
			and can be restored with 'vps-optimizer rollback'.
		`),
		Example: heredoc.Doc(`
			vps-optimizer                      # interactive menu
			vps-optimizer --auto --yes         # run the full suite unattended
			vps-optimizer scan /var --limit 10
			vps-optimizer status --json
		`),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          withApp(runRoot),
	}

	rootCmd.Flags().BoolVar(&autoMode, "auto", false, "Run the full optimization suite and exit")
	rootCmd.Flags().StringVar(&scanPath, "scan", "", "Scan the given directory and exit")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Action log file")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&cfg.DryRun, "dry-run", false, "Print commands instead of running them")
	pf.BoolVarP(&cfg.AssumeYes, "yes", "y", false, "Answer yes to every confirmation")
	pf.StringVar(&cfg.SortMode, "sort", cfg.SortMode, "Scan order: size or name")
	pf.IntVar(&cfg.Limit, "limit", cfg.Limit, "Directories shown by a scan (0 = all)")
	pf.IntVar(&cfg.Workers, "workers", cfg.Workers, "Directories sized concurrently")

	var scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Show the size of each directory under path",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, app *optimizer.App, args []string) error {
			root := app.Env().Config.ScanRoot
			if len(args) == 1 {
				root = args[0]
			}

			return app.Scan(ctx, root)
		}),
	}

	var optimizeCmd = &cobra.Command{
		Use:   "optimize",
		Short: "Tune CPU governor, swappiness, network buffers and I/O scheduler",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *optimizer.App, _ []string) error {
			return optimizer.NewOptimizeTuner(app.Env(), persist).Run(ctx)
		}),
	}
	optimizeCmd.Flags().BoolVar(&persist, "persist", false, "Also write the sysctl settings to /etc/sysctl.d")

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show uptime, load, CPU and memory",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *optimizer.App, _ []string) error {
			reporter := optimizer.NewStatusReporter(app.Env())
			if statusJSON {
				return reporter.WriteJSON(ctx, os.Stdout)
			}

			return reporter.Run(ctx)
		}),
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")

	var diskCmd = &cobra.Command{
		Use:   "disk",
		Short: "Show filesystem usage and the largest files",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *optimizer.App, _ []string) error {
			analyzer := optimizer.NewDiskAnalyzer(app.Env())
			analyzer.Root = diskRoot
			analyzer.MinSize = diskMinSize

			return analyzer.Run(ctx)
		}),
	}
	diskCmd.Flags().StringVar(&diskRoot, "root", "/", "Where to search for large files")
	diskCmd.Flags().StringVar(&diskMinSize, "min-size", optimizer.DefaultLargeFileSize, "Smallest file to list (e.g. 500MB)")

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve status and scan results over HTTP",
		Long: heredoc.Doc(`
			Serve a read-only JSON API:

			  GET /api/status
			  GET /api/scan?path=/var&sort=size&limit=10
		`),
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *optimizer.App, _ []string) error {
			env := app.Env()
			env.Console.Info("Listening on http://%s", env.Config.ListenAddr)

			return api.NewServer(env.Probe, env.Config.Workers).Run(ctx, env.Config.ListenAddr)
		}),
	}
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Address to listen on")

	rootCmd.AddCommand(
		scanCmd,
		task("cleanup", "Clean package caches, logs, temp files and old kernels",
			func(env *optimizer.Env) optimizer.Handler { return optimizer.NewCleanupTuner(env).Run }),
		task("docker", "Prune unused Docker containers, images, volumes and networks",
			func(env *optimizer.Env) optimizer.Handler { return optimizer.NewDockerTuner(env).Run }),
		optimizeCmd,
		task("verify", "Check that the kernel parameters are tuned",
			func(env *optimizer.Env) optimizer.Handler {
				return func(context.Context) error { return optimizer.NewOptimizeTuner(env, false).RunVerify() }
			}),
		task("memory", "Show memory usage and the top consumers",
			func(env *optimizer.Env) optimizer.Handler { return optimizer.NewMemoryAnalyzer(env).Run }),
		diskCmd,
		task("harden", "Update packages, enable fail2ban and ufw, disable SSH root login",
			func(env *optimizer.Env) optimizer.Handler { return optimizer.NewHardenTuner(env).Run }),
		task("suite", "Run cleanup, docker, optimization and hardening in sequence",
			func(env *optimizer.Env) optimizer.Handler { return optimizer.NewSuite(env).Run }),
		statusCmd,
		&cobra.Command{
			Use:   "rollback",
			Short: "Restore files from a backup",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, app *optimizer.App, _ []string) error {
				return app.Rollback(ctx)
			}),
		},
		serveCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// task builds a subcommand that runs a single maintenance handler.
func task(use, short string, build func(*optimizer.Env) optimizer.Handler) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *optimizer.App, _ []string) error {
			return build(app.Env())(ctx)
		}),
	}
}

func withApp(fn func(context.Context, *optimizer.App, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg.Color = !noColor

		if err := cfg.Validate(); err != nil {
			return err
		}

		app, closer := newApp(cfg)
		defer closer.Close()

		return fn(cmd.Context(), app, args)
	}
}

func newApp(cfg config.Config) (*optimizer.App, io.Closer) {
	var closer io.Closer = io.NopCloser(nil)

	logger, logCloser, err := optimizer.OpenLog(cfg.LogFile)
	if err == nil {
		closer = logCloser
	}

	console := optimizer.NewConsole(optimizer.ConsoleOptions{
		Logger:    logger,
		Color:     cfg.Color,
		AssumeYes: cfg.AssumeYes,
	})

	if err != nil {
		console.Warning("Logging disabled: %v", err)
	}

	distro, derr := optimizer.NewDistroManager(cfg.SysPath("/etc/os-release"), exec.LookPath)
	if derr != nil {
		console.Warning("Could not detect distribution: %v", derr)
		distro = &optimizer.DistroManager{Type: optimizer.DistroUnknown, Name: "Unknown"}
	}

	console.Logger().Info("starting", "version", version, "distro", distro.Name, "dry_run", cfg.DryRun)

	return optimizer.NewApp(&optimizer.Env{
		Config:  cfg,
		Console: console,
		Runner:  &optimizer.ShellRunner{DryRun: cfg.DryRun, Out: console.Out()},
		Distro:  distro,
		Probe:   optimizer.HostProbe{},
	}), closer
}

func runRoot(ctx context.Context, app *optimizer.App, _ []string) error {
	console := app.Env().Console

	console.Println(optimizer.RenderBanner(version, console.Colored()))

	switch {
	case autoMode:
		return optimizer.NewSuite(app.Env()).Run(ctx)
	case scanPath != "":
		return app.Scan(ctx, scanPath)
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return errors.New("the interactive menu needs a terminal, use a subcommand or --auto instead")
	}

	// The menu blocks on stdin, so Ctrl-C has to terminate the process.
	signal.Reset(os.Interrupt)

	return app.Menu().Run(ctx)
}
