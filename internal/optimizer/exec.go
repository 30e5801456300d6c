package optimizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Task is a described shell command.
type Task struct {
	Name    string
	Command string
}

// Runner executes shell commands and returns their standard output.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ShellRunner runs commands through sh -c.
type ShellRunner struct {
	// Shell defaults to /bin/sh.
	Shell string
	// DryRun prints commands to Out instead of running them.
	DryRun bool
	Out    io.Writer
}

// Run executes command and returns stdout. A non-zero exit is an error that
// carries the command's stderr.
func (r *ShellRunner) Run(ctx context.Context, command string) (string, error) {
	if r.DryRun {
		if r.Out != nil {
			fmt.Fprintf(r.Out, "  [dry-run] %s\n", command)
		}

		return "", nil
	}

	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.String(), fmt.Errorf("command %q failed: %w", command, err)
		}

		return stdout.String(), fmt.Errorf("command %q failed: %w: %s", command, err, msg)
	}

	return stdout.String(), nil
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// runTasks runs each task in order. Failures are reported and logged but do
// not stop the sequence. It returns the number of tasks that failed.
func runTasks(ctx context.Context, env *Env, prefix string, tasks []Task) int {
	failed := 0

	for _, task := range tasks {
		if ctx.Err() != nil {
			return failed + 1
		}

		env.Console.Bullet("%s", task.Name)

		if _, err := env.Runner.Run(ctx, task.Command); err != nil {
			env.Console.Logger().Warn("task failed", "task", task.Name, "command", task.Command, "error", err)
			env.Console.Warning("  Skipped or failed")

			failed++

			continue
		}

		env.Console.Log(prefix + task.Name)
		env.Console.Success("  Done")
	}

	return failed
}
