package optimizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vps-optimizer/internal/scanner"
)

func TestApp_Scan(t *testing.T) {
	te := newTestEnv(t, "")
	root := t.TempDir()

	for name, size := range map[string]int{"alpha": 2048, "beta": 10} {
		dir := filepath.Join(root, name)
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(filepath.Join(dir, "data"), make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := NewApp(te.Env).Scan(context.Background(), root); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	out := te.out.String()
	if !strings.Contains(out, "Scanning: "+root) {
		t.Errorf("missing scan banner:\n%s", out)
	}

	if strings.Index(out, "alpha") > strings.Index(out, "beta") {
		t.Errorf("expected size order:\n%s", out)
	}

	if !strings.Contains(out, "2.00 KB") {
		t.Errorf("missing formatted size:\n%s", out)
	}

	if !strings.Contains(te.log.String(), "directories=2") {
		t.Errorf("scan not logged:\n%s", te.log.String())
	}
}

func TestApp_ScanMissingPath(t *testing.T) {
	te := newTestEnv(t, "")

	err := NewApp(te.Env).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, scanner.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}

	if !strings.HasPrefix(err.Error(), "scan failed: ") {
		t.Errorf("unexpected message %q", err.Error())
	}

	if te.out.Len() != 0 {
		t.Errorf("failed scan printed output:\n%s", te.out.String())
	}
}

func TestApp_ScanHandlerPromptsForPath(t *testing.T) {
	root := t.TempDir()
	te := newTestEnv(t, root+"\n")

	if err := NewApp(te.Env).Handlers()[CommandScan](context.Background()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if !strings.Contains(te.out.String(), "Enter directory path (default: /): ") {
		t.Errorf("missing prompt:\n%s", te.out.String())
	}

	if !strings.Contains(te.out.String(), "Scanning: "+root) {
		t.Errorf("prompted path not scanned:\n%s", te.out.String())
	}
}

func TestApp_Rollback(t *testing.T) {
	te := newTestEnv(t, "1\n")
	target := filepath.Join(t.TempDir(), "sysctl.conf")

	if err := os.WriteFile(target, []byte("before"), 0o644); err != nil {
		t.Fatal(err)
	}

	bm := NewBackupManager(te.Config.BackupRoot, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), te.Console)
	if _, err := bm.BackupFile(target); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(target, []byte("after"), 0o644)

	if err := NewApp(te.Env).Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback returned error: %v", err)
	}

	if got := readFile(t, target); got != "before" {
		t.Errorf("target = %q, want before", got)
	}

	if len(te.runner.commands) != 1 || te.runner.commands[0] != "sysctl --system" {
		t.Errorf("unexpected commands %v", te.runner.commands)
	}

	if !strings.Contains(te.out.String(), "[1] 20240506-070809") {
		t.Errorf("backup not listed:\n%s", te.out.String())
	}
}

func TestApp_RollbackCancelAndInvalid(t *testing.T) {
	te := newTestEnv(t, "c\n")
	os.Mkdir(filepath.Join(te.Config.BackupRoot, "20240101-000000"), 0o700)

	if err := NewApp(te.Env).Rollback(context.Background()); err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}

	te = newTestEnv(t, "5\n")
	os.Mkdir(filepath.Join(te.Config.BackupRoot, "20240101-000000"), 0o700)

	if err := NewApp(te.Env).Rollback(context.Background()); err == nil {
		t.Error("expected error for out-of-range selection")
	}
}

func TestApp_RollbackWithoutBackups(t *testing.T) {
	te := newTestEnv(t, "")

	if err := NewApp(te.Env).Rollback(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(te.out.String(), "No backups found.") {
		t.Errorf("unexpected output:\n%s", te.out.String())
	}
}
