package scanner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of child directories sized concurrently when
// Options.Workers is unset.
const DefaultWorkers = 4

var (
	// ErrPathNotFound is returned when the scan root does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrPermissionDenied is returned when the scan root cannot be read.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotDirectory is returned when the scan root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// SortMode selects the ordering of scan entries.
type SortMode int

const (
	// SortBySize orders entries by size, largest first.
	SortBySize SortMode = iota
	// SortByName orders entries by name, case-insensitive ascending.
	SortByName
)

func (m SortMode) String() string {
	switch m {
	case SortByName:
		return "name"
	default:
		return "size"
	}
}

// ParseSortMode converts a flag value into a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "size", "by-size":
		return SortBySize, nil
	case "name", "by-name":
		return SortByName, nil
	default:
		return SortBySize, fmt.Errorf("invalid sort mode %q: must be one of size, name", s)
	}
}

// Entry is one immediate child directory and its recursive size.
type Entry struct {
	// Name is the directory name relative to the scan root.
	Name string `json:"name"`
	// Size is the sum of all regular file sizes beneath the directory.
	Size uint64 `json:"size"`
}

// Result holds the outcome of a Scan.
type Result struct {
	// Root is the scanned path as given by the caller.
	Root string `json:"root"`
	// Entries are the sorted, possibly truncated, child directories.
	Entries []Entry `json:"entries"`
	// Total is the size of every discovered child, including truncated ones.
	Total uint64 `json:"total"`
	// Discovered is the number of child directories found before truncation.
	Discovered int `json:"discovered"`
}

// Options configures a Scan.
type Options struct {
	// Sort is the ordering applied before truncation.
	Sort SortMode
	// Limit caps the number of returned entries (0 = unlimited).
	Limit int
	// Workers bounds how many child directories are sized at once.
	Workers int
}

// Scan sizes every immediate child directory of root.
//
// Files directly inside root are ignored. Errors below a child directory are
// absorbed; only problems with root itself are returned. Entries are ordered
// deterministically regardless of how many workers run.
func Scan(ctx context.Context, root string, opt Options) (*Result, error) {
	if opt.Limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %d", opt.Limit)
	}

	children, err := childDirectories(root)
	if err != nil {
		return nil, err
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	sizes := make([]uint64, len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range children {
		g.Go(func() error {
			size, err := dirSize(gctx, filepath.Join(root, name))
			if err != nil {
				return err
			}

			sizes[i] = size

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(children))

	var total uint64

	for i, name := range children {
		entries[i] = Entry{Name: name, Size: sizes[i]}
		total += sizes[i]
	}

	sortEntries(entries, opt.Sort)

	if opt.Limit > 0 && len(entries) > opt.Limit {
		entries = entries[:opt.Limit]
	}

	return &Result{
		Root:       root,
		Entries:    entries,
		Total:      total,
		Discovered: len(children),
	}, nil
}

// childDirectories returns the names of the directories directly under root,
// including symlinks to directories, in the order the file system listing
// returns them.
func childDirectories(root string) ([]string, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, classify(root, err)
	}

	var names []string

	for _, d := range dirEntries {
		switch {
		case d.IsDir():
			names = append(names, d.Name())
		case d.Type()&fs.ModeSymlink != 0:
			// Links count when they resolve to a directory.
			if info, err := os.Stat(filepath.Join(root, d.Name())); err == nil && info.IsDir() {
				names = append(names, d.Name())
			}
		}
	}

	return names, nil
}

// checkRoot validates that root exists and is a directory.
func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return classify(root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	return nil
}

// classify maps file system errors on the root onto the package sentinels.
func classify(root string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrPathNotFound, root)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, root)
	default:
		return fmt.Errorf("accessing path %q: %w", root, err)
	}
}

// dirSize sums the sizes of all regular files below dir. A symlinked dir is
// resolved first; links below it are not followed. Unreadable directories and
// vanished files count as zero.
func dirSize(ctx context.Context, dir string) (uint64, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	var total atomic.Uint64

	conf := &fastwalk.Config{Follow: false}

	//nolint:varnamelen // d is standard for DirEntry
	err := fastwalk.Walk(conf, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable sub-paths
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file disappeared between listing and lstat
		}

		total.Add(uint64(info.Size())) //nolint:gosec // regular file sizes are non-negative

		return nil
	})
	if err != nil {
		return 0, err
	}

	return total.Load(), nil
}

func sortEntries(entries []Entry, mode SortMode) {
	switch mode {
	case SortByName:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	default:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return cmp.Compare(b.Size, a.Size)
		})
	}
}
