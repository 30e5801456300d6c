package optimizer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Command is a main menu entry.
type Command int

const (
	CommandExit Command = iota
	CommandScan
	CommandCleanup
	CommandDocker
	CommandOptimize
	CommandMemory
	CommandDisk
	CommandHarden
	CommandSuite
	CommandStatus
)

// menuOrder is the display order; Exit is listed last as in the prompt.
var menuOrder = []Command{
	CommandScan, CommandCleanup, CommandDocker, CommandOptimize, CommandMemory,
	CommandDisk, CommandHarden, CommandSuite, CommandStatus, CommandExit,
}

var commandLabels = map[Command]string{
	CommandExit:     "Exit",
	CommandScan:     "Directory Scanner",
	CommandCleanup:  "System Cleanup",
	CommandDocker:   "Docker Cleanup",
	CommandOptimize: "System Optimization",
	CommandMemory:   "Memory Analysis",
	CommandDisk:     "Disk Analysis",
	CommandHarden:   "Security Hardening",
	CommandSuite:    "Full Optimization Suite",
	CommandStatus:   "System Status",
}

func (c Command) String() string {
	if label, ok := commandLabels[c]; ok {
		return label
	}

	return "Command(" + strconv.Itoa(int(c)) + ")"
}

// ParseCommand maps a menu choice such as "3" to its Command.
func ParseCommand(input string) (Command, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return CommandExit, false
	}

	cmd := Command(n)
	if _, ok := commandLabels[cmd]; !ok {
		return CommandExit, false
	}

	return cmd, true
}

// Handler runs one menu command.
type Handler func(ctx context.Context) error

// Menu is the interactive main loop.
type Menu struct {
	console  *Console
	handlers map[Command]Handler
	logFile  string
}

// NewMenu creates a menu dispatching through handlers.
func NewMenu(console *Console, handlers map[Command]Handler, logFile string) *Menu {
	return &Menu{console: console, handlers: handlers, logFile: logFile}
}

// Render returns the menu box and its options.
func (m *Menu) Render() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		Width(78).
		Align(lipgloss.Center)
	if m.console.Colored() {
		box = box.Bold(true).BorderForeground(lipgloss.Color("6"))
	}

	var b strings.Builder

	b.WriteString(box.Render("MAIN MENU"))
	b.WriteString("\n")

	for _, cmd := range menuOrder {
		fmt.Fprintf(&b, "  %d. %s\n", int(cmd), cmd)
	}

	return b.String()
}

// Run shows the menu until the operator exits, input ends or ctx is done.
// Handler errors are reported and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.console.Println()
		m.console.Printf("%s", m.Render())
		m.console.Printf("\nSelect option: ")

		line, ok := m.console.ReadLine()
		if !ok {
			m.console.Println()
			return nil
		}

		cmd, valid := ParseCommand(line)
		if !valid {
			m.console.Error("Invalid option. Please try again.")
			continue
		}

		if cmd == CommandExit {
			m.console.Success("Thanks for using VPS Optimizer!")
			m.console.Info("Log file: %s", m.logFile)

			return nil
		}

		handler, ok := m.handlers[cmd]
		if !ok {
			m.console.Error("Invalid option. Please try again.")
			continue
		}

		if err := handler(ctx); err != nil {
			m.console.Error("%v", err)
		}
	}
}

// RenderBanner returns the program banner.
func RenderBanner(version string, colored bool) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		Padding(1, 4).
		Align(lipgloss.Center)
	title := lipgloss.NewStyle().Bold(true)
	tagline := lipgloss.NewStyle()

	if colored {
		box = box.BorderForeground(lipgloss.Color("6"))
		title = title.Foreground(lipgloss.Color("9"))
		tagline = tagline.Foreground(lipgloss.Color("11"))
	}

	return box.Render(lipgloss.JoinVertical(lipgloss.Center,
		title.Render("VPS OPTIMIZER"),
		tagline.Render("VPS Cleanup & Performance Optimization Suite"),
		"Version "+version,
	))
}
