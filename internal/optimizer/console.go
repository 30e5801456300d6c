package optimizer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const rule = "────────────────────────────────────────────────────────"

// Console prints colored status lines for the operator and mirrors logged
// actions into the structured log.
type Console struct {
	out       io.Writer
	errOut    io.Writer
	in        *bufio.Reader
	logger    *slog.Logger
	colored   bool
	assumeYes bool

	success *color.Color
	failure *color.Color
	warning *color.Color
	info    *color.Color
	step    *color.Color
	bullet  *color.Color
	logTag  *color.Color
}

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	Out       io.Writer
	ErrOut    io.Writer
	In        io.Reader
	Logger    *slog.Logger
	Color     bool
	AssumeYes bool
}

// NewConsole builds a Console. Color is only used when requested and Out is
// a terminal.
func NewConsole(opt ConsoleOptions) *Console {
	if opt.Out == nil {
		opt.Out = os.Stdout
	}

	if opt.ErrOut == nil {
		opt.ErrOut = os.Stderr
	}

	if opt.In == nil {
		opt.In = os.Stdin
	}

	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	c := &Console{
		out:       opt.Out,
		errOut:    opt.ErrOut,
		in:        bufio.NewReader(opt.In),
		logger:    opt.Logger,
		colored:   opt.Color && IsTerminal(opt.Out),
		assumeYes: opt.AssumeYes,
		success:   color.New(color.FgGreen, color.Bold),
		failure:   color.New(color.FgRed, color.Bold),
		warning:   color.New(color.FgYellow, color.Bold),
		info:      color.New(color.FgCyan),
		step:      color.New(color.FgMagenta, color.Bold),
		bullet:    color.New(color.FgCyan),
		logTag:    color.New(color.FgGreen),
	}

	for _, col := range []*color.Color{c.success, c.failure, c.warning, c.info, c.step, c.bullet, c.logTag} {
		if c.colored {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}

	return c
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Out is the writer for regular output.
func (c *Console) Out() io.Writer { return c.out }

// Colored reports whether ANSI colors are emitted.
func (c *Console) Colored() bool { return c.colored }

// Logger is the action log.
func (c *Console) Logger() *slog.Logger { return c.logger }

func (c *Console) Success(format string, args ...any) {
	fmt.Fprint(c.out, c.success.Sprint("✓ "))
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	fmt.Fprint(c.errOut, c.failure.Sprint("✗ "))
	fmt.Fprintf(c.errOut, format+"\n", args...)
}

func (c *Console) Warning(format string, args ...any) {
	fmt.Fprint(c.out, c.warning.Sprint("⚠ "))
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprint(c.out, c.info.Sprint("ℹ "))
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Step(format string, args ...any) {
	fmt.Fprintln(c.out)
	fmt.Fprint(c.out, c.step.Sprintf("▶ "+format+"\n", args...))
	fmt.Fprintln(c.out, rule)
}

// Bullet prints a "• task..." progress line.
func (c *Console) Bullet(format string, args ...any) {
	fmt.Fprintln(c.out, c.bullet.Sprintf("• "+format+"...", args...))
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Log records an action in the log file and echoes it to the operator.
func (c *Console) Log(msg string, args ...any) {
	c.logger.Info(msg, args...)
	fmt.Fprintf(c.out, "%s %s\n", c.logTag.Sprint("[LOG]"), msg)
}

// Prompt asks a question and returns the trimmed answer, or def when the
// answer is empty or input is exhausted.
func (c *Console) Prompt(question, def string) string {
	fmt.Fprint(c.out, c.info.Sprint(question))

	line, _ := c.in.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return def
	}

	return line
}

// Confirm asks a y/N question. Only "y" or "yes" count as consent.
func (c *Console) Confirm(question string) bool {
	if c.assumeYes {
		fmt.Fprintf(c.out, "%s (y/N): y\n", question)

		return true
	}

	answer := strings.ToLower(c.Prompt(question+" (y/N): ", "n"))

	return answer == "y" || answer == "yes"
}

// ReadLine reads one line from input. ok is false once input is exhausted.
func (c *Console) ReadLine() (line string, ok bool) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}

	return strings.TrimSpace(line), true
}

// OpenLog opens path for appending and returns a text logger writing to it.
func OpenLog(path string) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	return slog.New(slog.NewTextHandler(f, nil)), f, nil
}
