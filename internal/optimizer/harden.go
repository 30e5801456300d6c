package optimizer

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

const sshdConfigPath = "/etc/ssh/sshd_config"

var permitRootLoginRe = regexp.MustCompile(`(?i)^\s*#?\s*PermitRootLogin\s+(\S+)`)

// HardenTuner applies basic security hardening
type HardenTuner struct {
	env *Env
	now func() time.Time
}

// NewHardenTuner creates a new hardening tuner
func NewHardenTuner(env *Env) *HardenTuner {
	return &HardenTuner{env: env, now: time.Now}
}

// Tasks returns the package and firewall steps.
func (ht *HardenTuner) Tasks() []Task {
	var tasks []Task

	if ht.env.Distro != nil {
		tasks = append(tasks, ht.env.Distro.UpdateTasks()...)

		if install, ok := ht.env.Distro.InstallTask("fail2ban"); ok {
			install.Name = "Installing fail2ban"
			tasks = append(tasks, install)
		}
	}

	return append(tasks, Task{Name: "Configuring firewall", Command: "ufw --force enable"})
}

// Run performs the hardening.
func (ht *HardenTuner) Run(ctx context.Context) error {
	if err := ht.env.CheckRoot(); err != nil {
		return err
	}

	console := ht.env.Console
	console.Step("Security Hardening")

	if failed := runTasks(ctx, ht.env, "Security: ", ht.Tasks()); failed > 0 {
		console.Warning("%d hardening task(s) failed", failed)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	console.Bullet("Setting secure SSH config")

	if err := ht.secureSSH(ctx); err != nil {
		console.Warning("  %v", err)
	}

	return nil
}

// DisableRootLogin rewrites sshd_config content so root cannot log in. sshd
// honours the first active PermitRootLogin line; if that already says "no"
// the content is returned unchanged. Otherwise every PermitRootLogin line,
// commented or not, becomes "PermitRootLogin no", and the directive is
// appended when none exists.
func DisableRootLogin(content string) (string, bool) {
	lines := strings.Split(content, "\n")

	for _, line := range lines {
		m := permitRootLoginRe.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		if strings.EqualFold(m[1], "no") {
			return content, false
		}

		break
	}

	found := false

	for i, line := range lines {
		if permitRootLoginRe.MatchString(line) {
			lines[i] = "PermitRootLogin no"
			found = true
		}
	}

	if found {
		return strings.Join(lines, "\n"), true
	}

	trimmed := strings.TrimRight(content, "\n")
	if trimmed != "" {
		trimmed += "\n"
	}

	return trimmed + "\n# Added by vps-optimizer\nPermitRootLogin no\n", true
}

func (ht *HardenTuner) secureSSH(ctx context.Context) error {
	console := ht.env.Console
	path := ht.env.Config.SysPath(sshdConfigPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("sshd_config not readable: %w", err)
	}

	updated, changed := DisableRootLogin(string(data))
	if !changed {
		console.Success("  Root login already disabled")
		return nil
	}

	if ht.env.Config.DryRun {
		console.Printf("  [dry-run] set PermitRootLogin no in %s\n", path)
		return nil
	}

	backup := NewBackupManager(ht.env.Config.BackupRoot, ht.now(), console)

	backupPath, err := backup.BackupFile(path)
	if err != nil {
		return fmt.Errorf("failed to backup sshd_config: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write sshd_config: %w", err)
	}

	if _, err := ht.env.lookPath("sshd"); err == nil {
		if _, err := ht.env.Runner.Run(ctx, "sshd -t -f "+shellQuote(path)); err != nil {
			console.Error("Configuration check FAILED: %v", err)
			console.Warning("Restoring backup immediately...")

			if rerr := copyFile(backupPath, path, info.Mode()); rerr != nil {
				return fmt.Errorf("restore failed: %w", rerr)
			}

			return fmt.Errorf("safety check failed, changes reverted")
		}
	}

	console.Log("Security: Setting secure SSH config", "backup", backupPath)
	console.Success("  Done")

	if console.Confirm("Restart SSH service to apply?") {
		if _, err := ht.env.Runner.Run(ctx, "systemctl restart ssh || systemctl restart sshd"); err != nil {
			return fmt.Errorf("failed to restart ssh: %w", err)
		}

		console.Success("SSH service restarted")
	}

	return nil
}
