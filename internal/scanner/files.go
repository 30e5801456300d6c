package scanner

import (
	"cmp"
	"context"
	"io/fs"
	"slices"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// File is a regular file and its size.
type File struct {
	Path string `json:"path"`
	Size uint64 `json:"size"`
}

// fileCollector gathers matches from concurrent fastwalk callbacks.
type fileCollector struct {
	mu    sync.Mutex
	files []File
}

func (c *fileCollector) add(path string, size uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.files = append(c.files, File{Path: path, Size: size})
}

// LargestFiles walks root and returns regular files of at least minSize
// bytes, largest first with ties ordered by path. A positive limit keeps only
// that many files. Errors below root are skipped.
func LargestFiles(ctx context.Context, root string, minSize uint64, limit int) ([]File, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	collector := &fileCollector{}
	conf := &fastwalk.Config{Follow: false}

	//nolint:varnamelen // d is standard for DirEntry
	err := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // vanished files are ignored
		}

		if size := uint64(info.Size()); size >= minSize { //nolint:gosec // non-negative
			collector.add(path, size)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	files := collector.files

	slices.SortFunc(files, func(a, b File) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}

		return cmp.Compare(a.Path, b.Path)
	})

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	return files, nil
}
