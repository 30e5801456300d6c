package optimizer

import (
	"fmt"
	"os"
	"strings"
)

// DistroType represents the Linux distribution family
type DistroType int

const (
	DistroUnknown DistroType = iota
	DistroDebian             // Debian, Ubuntu, Mint
	DistroRHEL               // RHEL, CentOS, Fedora, AlmaLinux, Rocky
)

// DistroManager knows which package manager commands fit the running system
type DistroManager struct {
	Type           DistroType
	Name           string
	PackageManager string
}

// NewDistroManager detects the distribution from osRelease, falling back to
// whichever package manager lookPath finds.
func NewDistroManager(osRelease string, lookPath func(string) (string, error)) (*DistroManager, error) {
	data, err := os.ReadFile(osRelease)
	if err == nil {
		if dm := DetectDistro(string(data)); dm.Type != DistroUnknown {
			dm.PackageManager = pickPackageManager(dm.Type, lookPath)
			return dm, nil
		}
	}

	for _, pm := range []string{"apt-get", "dnf", "yum"} {
		if _, lerr := lookPath(pm); lerr == nil {
			dm := &DistroManager{Type: DistroRHEL, Name: "RHEL-based", PackageManager: pm}
			if pm == "apt-get" {
				dm.Type = DistroDebian
				dm.Name = "Debian-based"
			}

			return dm, nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", osRelease, err)
	}

	return nil, fmt.Errorf("unsupported distribution")
}

// DetectDistro classifies the contents of an os-release file.
func DetectDistro(osRelease string) *DistroManager {
	content := strings.ToLower(osRelease)

	switch {
	case strings.Contains(content, "debian") || strings.Contains(content, "ubuntu"):
		return &DistroManager{Type: DistroDebian, Name: "Debian/Ubuntu", PackageManager: "apt-get"}
	case strings.Contains(content, "rhel") || strings.Contains(content, "centos") ||
		strings.Contains(content, "fedora") || strings.Contains(content, "almalinux") ||
		strings.Contains(content, "rocky"):
		return &DistroManager{Type: DistroRHEL, Name: "RHEL/CentOS", PackageManager: "dnf"}
	default:
		return &DistroManager{Type: DistroUnknown, Name: "Unknown"}
	}
}

func pickPackageManager(t DistroType, lookPath func(string) (string, error)) string {
	if t == DistroDebian {
		return "apt-get"
	}

	if _, err := lookPath("dnf"); err == nil {
		return "dnf"
	}

	return "yum"
}

// PackageCleanupTasks cleans the package cache and removes orphans.
func (dm *DistroManager) PackageCleanupTasks() []Task {
	switch dm.Type {
	case DistroDebian:
		return []Task{
			{Name: "Cleaning package cache", Command: "apt-get clean && apt-get autoclean"},
			{Name: "Removing orphaned packages", Command: "apt-get autoremove -y"},
		}
	case DistroRHEL:
		return []Task{
			{Name: "Cleaning package cache", Command: dm.PackageManager + " clean all"},
			{Name: "Removing orphaned packages", Command: dm.PackageManager + " autoremove -y"},
		}
	default:
		return nil
	}
}

// KernelCleanupTasks purges kernels that are no longer in use.
func (dm *DistroManager) KernelCleanupTasks() []Task {
	switch dm.Type {
	case DistroDebian:
		return []Task{{Name: "Cleaning old kernels", Command: "apt-get autoremove --purge -y"}}
	case DistroRHEL:
		if dm.PackageManager == "dnf" {
			return []Task{{Name: "Cleaning old kernels", Command: "dnf remove -y --oldinstallonly"}}
		}

		return nil
	default:
		return nil
	}
}

// UpdateTasks refreshes package lists and installs pending updates.
func (dm *DistroManager) UpdateTasks() []Task {
	switch dm.Type {
	case DistroDebian:
		return []Task{
			{Name: "Updating package lists", Command: "apt-get update"},
			{Name: "Installing security updates", Command: "apt-get upgrade -y"},
		}
	case DistroRHEL:
		return []Task{
			{Name: "Updating package lists", Command: dm.PackageManager + " makecache"},
			{Name: "Installing security updates", Command: dm.PackageManager + " upgrade -y"},
		}
	default:
		return nil
	}
}

// InstallTask installs pkg with the system package manager.
func (dm *DistroManager) InstallTask(pkg string) (Task, bool) {
	name := "Installing " + pkg

	switch dm.Type {
	case DistroDebian:
		return Task{Name: name, Command: "apt-get install -y " + shellQuote(pkg)}, true
	case DistroRHEL:
		return Task{Name: name, Command: dm.PackageManager + " install -y " + shellQuote(pkg)}, true
	default:
		return Task{}, false
	}
}
