package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds uint64
		want    string
	}{
		{0, "0:00"},
		{42 * 60, "0:42"},
		{86400 + 3600 + 5*60, "1 day, 1:05"},
		{3*86400 + 4*3600 + 5*60 + 59, "3 days, 4:05"},
	}

	for _, tt := range tests {
		if got := FormatUptime(tt.seconds); got != tt.want {
			t.Errorf("FormatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestStatusReporter(t *testing.T) {
	te := newTestEnv(t, "")
	te.probe.status = Status{
		Hostname:      "web1",
		Platform:      "ubuntu",
		Kernel:        "6.1.0",
		UptimeSeconds: 2*86400 + 3*3600,
		Load1:         0.5,
		Load5:         0.25,
		Load15:        0.1,
		CPUModel:      "AMD EPYC",
		CPUCount:      2,
		Memory:        MemoryInfo{Total: 2 << 30, Used: 1 << 30, UsedPercent: 50},
	}

	sr := NewStatusReporter(te.Env)
	if err := sr.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := te.out.String()
	for _, want := range []string{
		"web1 (ubuntu, kernel 6.1.0)",
		"2 days, 3:00",
		"0.50 0.25 0.10",
		"AMD EPYC (2 vCPUs)",
		"1.0 GiB / 2.0 GiB (50.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}

	var buf bytes.Buffer
	if err := sr.WriteJSON(context.Background(), &buf); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var decoded Status
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if decoded.Hostname != "web1" || decoded.Memory.Total != 2<<30 {
		t.Errorf("unexpected decoded status %+v", decoded)
	}
}

func TestMemoryAnalyzer(t *testing.T) {
	te := newTestEnv(t, "")
	te.probe.memory = MemoryInfo{Total: 4 << 30, Used: 1 << 30, Free: 2 << 30, Available: 3 << 30, SwapTotal: 1 << 30}
	te.probe.procs = []ProcessInfo{
		{PID: 101, User: "mysql", Name: "mysqld", MemPercent: 25.5, RSS: 1 << 30},
		{PID: 7, User: "root", Name: "sshd", MemPercent: 0.1, RSS: 4 << 20},
	}

	if err := NewMemoryAnalyzer(te.Env).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := te.out.String()
	for _, want := range []string{"Mem:", "4.0 GiB", "3.0 GiB", "Swap:", "Top Memory Consumers:", "mysqld", "25.5", "sshd"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}

	if strings.Index(out, "mysqld") > strings.Index(out, "sshd") {
		t.Error("processes should keep probe order")
	}
}

func TestDiskAnalyzer(t *testing.T) {
	te := newTestEnv(t, "")
	te.probe.partitions = []PartitionUsage{
		{Device: "/dev/vda1", Mountpoint: "/", Fstype: "ext4", Total: 20 << 30, Used: 5 << 30, Free: 15 << 30, UsedPercent: 25},
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "big.iso"), make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, "small.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	da := NewDiskAnalyzer(te.Env)
	da.Root = root
	da.MinSize = "1KiB"

	if err := da.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := te.out.String()
	for _, want := range []string{"/dev/vda1", "ext4", "25%", "Largest Files (>1.0 KiB):", "4.00 KB", "big.iso"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}

	if strings.Contains(out, "small.txt") {
		t.Errorf("small file listed:\n%s", out)
	}

	da.MinSize = "lots"
	if err := da.Run(context.Background()); err == nil {
		t.Error("expected error for invalid threshold")
	}
}
