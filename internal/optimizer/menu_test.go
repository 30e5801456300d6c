package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
		ok    bool
	}{
		{"0", CommandExit, true},
		{"1", CommandScan, true},
		{" 9 \n", CommandStatus, true},
		{"10", CommandExit, false},
		{"-1", CommandExit, false},
		{"abc", CommandExit, false},
		{"", CommandExit, false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCommand(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMenu_Render(t *testing.T) {
	te := newTestEnv(t, "")
	out := NewMenu(te.Console, nil, "").Render()

	if !strings.Contains(out, "MAIN MENU") {
		t.Errorf("missing title:\n%s", out)
	}

	for _, line := range []string{"  1. Directory Scanner\n", "  8. Full Optimization Suite\n", "  0. Exit\n"} {
		if !strings.Contains(out, line) {
			t.Errorf("missing %q:\n%s", line, out)
		}
	}

	if strings.Index(out, "9. System Status") > strings.Index(out, "0. Exit") {
		t.Error("Exit should be listed last")
	}
}

func TestMenu_Run(t *testing.T) {
	te := newTestEnv(t, "7\nx\n3\n0\n")

	var called []Command

	record := func(cmd Command, err error) Handler {
		return func(context.Context) error {
			called = append(called, cmd)
			return err
		}
	}

	handlers := map[Command]Handler{
		CommandHarden: record(CommandHarden, errors.New("boom")),
		CommandDocker: record(CommandDocker, nil),
	}

	if err := NewMenu(te.Console, handlers, "/tmp/test.log").Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(called) != 2 || called[0] != CommandHarden || called[1] != CommandDocker {
		t.Errorf("unexpected dispatch order %v", called)
	}

	errOut := te.errOut.String()
	if !strings.Contains(errOut, "boom") {
		t.Errorf("handler error not reported:\n%s", errOut)
	}

	if strings.Count(errOut, "Invalid option. Please try again.") != 1 {
		t.Errorf("expected one invalid option notice:\n%s", errOut)
	}

	out := te.out.String()
	if !strings.Contains(out, "Thanks for using VPS Optimizer!") || !strings.Contains(out, "Log file: /tmp/test.log") {
		t.Errorf("missing exit messages:\n%s", out)
	}
}

func TestMenu_RunStopsAtEndOfInput(t *testing.T) {
	te := newTestEnv(t, "5\n")
	calls := 0

	handlers := map[Command]Handler{
		CommandMemory: func(context.Context) error { calls++; return nil },
	}

	if err := NewMenu(te.Console, handlers, "").Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}

	if strings.Contains(te.out.String(), "Thanks for using") {
		t.Error("end of input should not print the exit message")
	}
}

func TestMenu_RunCancelled(t *testing.T) {
	te := newTestEnv(t, "1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMenu(te.Console, nil, "").Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
