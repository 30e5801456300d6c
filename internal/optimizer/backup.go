package optimizer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const manifestName = "manifest.json"

// BackupManager copies files aside before they are edited
type BackupManager struct {
	BackupDir string
	Timestamp string
	console   *Console
}

// ManifestEntry represents a single backed up file
type ManifestEntry struct {
	OriginalPath string      `json:"original_path"`
	BackupPath   string      `json:"backup_path"`
	Mode         os.FileMode `json:"mode"`
}

// Manifest represents the backup manifest
type Manifest struct {
	Timestamp string          `json:"timestamp"`
	Entries   []ManifestEntry `json:"entries"`
}

// NewBackupManager creates a backup set under root named after now.
func NewBackupManager(root string, now time.Time, console *Console) *BackupManager {
	timestamp := now.Format("20060102-150405")

	return &BackupManager{
		BackupDir: filepath.Join(root, timestamp),
		Timestamp: timestamp,
		console:   console,
	}
}

// OpenBackup returns the manager for an existing backup set.
func OpenBackup(root, timestamp string, console *Console) *BackupManager {
	return &BackupManager{
		BackupDir: filepath.Join(root, timestamp),
		Timestamp: timestamp,
		console:   console,
	}
}

// Initialize creates the backup directory
func (bm *BackupManager) Initialize() error {
	if err := os.MkdirAll(bm.BackupDir, 0o700); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	return nil
}

// BackupFile copies filePath into the backup set and records it in the
// manifest. A missing source is not an error and yields an empty path.
func (bm *BackupManager) BackupFile(filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	if err := bm.Initialize(); err != nil {
		return "", err
	}

	backupName := filepath.Base(filePath)
	backupPath := filepath.Join(bm.BackupDir, backupName)

	if err := copyFile(filePath, backupPath, info.Mode()); err != nil {
		return "", err
	}

	if err := bm.addEntry(filePath, backupName, info.Mode()); err != nil {
		return "", fmt.Errorf("failed to update manifest: %w", err)
	}

	return backupPath, nil
}

func (bm *BackupManager) readManifest() (Manifest, error) {
	var manifest Manifest

	data, err := os.ReadFile(filepath.Join(bm.BackupDir, manifestName))
	if err != nil {
		return manifest, err
	}

	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return manifest, nil
}

// addEntry records a backed up file in manifest.json
func (bm *BackupManager) addEntry(original, backupName string, mode os.FileMode) error {
	manifest, err := bm.readManifest()
	if os.IsNotExist(err) {
		manifest = Manifest{Timestamp: bm.Timestamp}
	} else if err != nil {
		return err
	}

	manifest.Entries = append(manifest.Entries, ManifestEntry{
		OriginalPath: original,
		BackupPath:   backupName,
		Mode:         mode,
	})

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(filepath.Join(bm.BackupDir, manifestName), data, 0o600)
}

// Restore copies every file listed in the manifest back to its original
// location. Individual failures are reported and the rest still restored.
func (bm *BackupManager) Restore() (int, error) {
	manifest, err := bm.readManifest()
	if err != nil {
		return 0, fmt.Errorf("manifest not found in %s: %w", bm.BackupDir, err)
	}

	bm.console.Info("Restoring backup from %s...", manifest.Timestamp)

	restored := 0

	for _, entry := range manifest.Entries {
		src := filepath.Join(bm.BackupDir, entry.BackupPath)

		bm.console.Info("Restoring %s -> %s", entry.BackupPath, entry.OriginalPath)

		if err := copyFile(src, entry.OriginalPath, entry.Mode); err != nil {
			bm.console.Error("%v", err)
			continue
		}

		restored++
	}

	return restored, nil
}

// ListBackups lists the available backup timestamps under root, oldest first.
func ListBackups(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return []string{}, nil
	}

	if err != nil {
		return nil, err
	}

	backups := []string{}

	for _, entry := range entries {
		if entry.IsDir() {
			backups = append(backups, entry.Name())
		}
	}

	sort.Strings(backups)

	return backups, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := out.Chmod(mode.Perm()); err != nil {
		out.Close()
		return fmt.Errorf("failed to set mode on %s: %w", dst, err)
	}

	return out.Close()
}
