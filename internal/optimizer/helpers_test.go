package optimizer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"vps-optimizer/internal/config"
)

// fakeRunner records commands and fails those containing a fail substring.
type fakeRunner struct {
	mu       sync.Mutex
	commands []string
	fail     []string
	output   map[string]string
}

func (r *fakeRunner) Run(_ context.Context, command string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = append(r.commands, command)

	for _, f := range r.fail {
		if strings.Contains(command, f) {
			return "", errors.New("exit status 1")
		}
	}

	return r.output[command], nil
}

type fakeProbe struct {
	memory     MemoryInfo
	partitions []PartitionUsage
	procs      []ProcessInfo
	status     Status
	free       []uint64
	calls      int
}

func (p *fakeProbe) Memory(context.Context) (*MemoryInfo, error) { return &p.memory, nil }

func (p *fakeProbe) Partitions(context.Context) ([]PartitionUsage, error) { return p.partitions, nil }

func (p *fakeProbe) Usage(_ context.Context, path string) (*PartitionUsage, error) {
	if len(p.free) == 0 {
		return nil, errors.New("no usage")
	}

	free := p.free[min(p.calls, len(p.free)-1)]
	p.calls++

	return &PartitionUsage{Mountpoint: path, Free: free}, nil
}

func (p *fakeProbe) TopProcesses(_ context.Context, n int) ([]ProcessInfo, error) {
	if len(p.procs) > n {
		return p.procs[:n], nil
	}

	return p.procs, nil
}

func (p *fakeProbe) Status(context.Context) (*Status, error) { return &p.status, nil }

type testEnv struct {
	*Env
	out    *bytes.Buffer
	errOut *bytes.Buffer
	log    *bytes.Buffer
	runner *fakeRunner
	probe  *fakeProbe
}

// newTestEnv builds an Env running as root on a Debian system, with input
// fed from the given lines.
func newTestEnv(t *testing.T, input string) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.SysRoot = t.TempDir()
	cfg.BackupRoot = t.TempDir()
	cfg.Color = false

	te := &testEnv{
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		log:    &bytes.Buffer{},
		runner: &fakeRunner{},
		probe:  &fakeProbe{},
	}

	te.Env = &Env{
		Config: cfg,
		Console: NewConsole(ConsoleOptions{
			Out:    te.out,
			ErrOut: te.errOut,
			In:     strings.NewReader(input),
			Logger: slog.New(slog.NewTextHandler(te.log, nil)),
		}),
		Runner:   te.runner,
		Distro:   &DistroManager{Type: DistroDebian, Name: "Debian/Ubuntu", PackageManager: "apt-get"},
		Probe:    te.probe,
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		Geteuid:  func() int { return 0 },
	}

	return te
}
