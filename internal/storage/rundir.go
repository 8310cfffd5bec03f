// Package storage persists the audio parts, combined audio and metadata of a
// single run inside its own timestamped directory
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DirLayout is the time layout used for run directory names
	DirLayout    = "2006-01-02_15-04-05"
	CombinedBase = "combined"
)

// PathError records the operation and path that failed
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// RunDir is the output directory of one run. It is safe for concurrent use
type RunDir struct {
	path string
	ext  string

	mu    sync.Mutex
	parts map[int]string
}

// Create makes a fresh run directory under root named after the given time.
// When the name is taken, -1, -2, ... is appended until a free name is found
func Create(root string, at time.Time, ext string) (*RunDir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &PathError{Op: "create output root", Path: root, Err: err}
	}

	base := at.Format(DirLayout)
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(root, name)

		err := os.Mkdir(path, 0o755)
		if err == nil {
			return &RunDir{
				path:  path,
				ext:   "." + strings.TrimPrefix(ext, "."),
				parts: make(map[int]string),
			}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, &PathError{Op: "create run directory", Path: path, Err: err}
		}
	}
}

// Path returns the run directory path
func (d *RunDir) Path() string {
	return d.path
}

// PartName returns the file name used for the part at index
func (d *RunDir) PartName(index int) string {
	return fmt.Sprintf("part_%03d%s", index, d.ext)
}

// CombinedName returns the file name used for the combined audio
func (d *RunDir) CombinedName() string {
	return CombinedBase + d.ext
}

// SavePart writes the audio for one chunk and returns its file name
func (d *RunDir) SavePart(index int, data []byte) (string, error) {
	name := d.PartName(index)
	if err := d.write(name, data); err != nil {
		return "", err
	}

	d.mu.Lock()
	d.parts[index] = name
	d.mu.Unlock()
	return name, nil
}

// SaveCombined writes the concatenated audio and returns its file name
func (d *RunDir) SaveCombined(data []byte) (string, error) {
	name := d.CombinedName()
	if err := d.write(name, data); err != nil {
		return "", err
	}
	return name, nil
}

// SaveDocument writes v as indented JSON under name
func (d *RunDir) SaveDocument(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return d.write(name, append(data, '\n'))
}

// Parts returns the names of the saved parts in index order
func (d *RunDir) Parts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	indexes := make([]int, 0, len(d.parts))
	for i := range d.parts {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	names := make([]string, len(indexes))
	for i, idx := range indexes {
		names[i] = d.parts[idx]
	}
	return names
}

// write stores a file atomically: a temp file in the same directory is
// renamed into place once fully written
func (d *RunDir) write(name string, data []byte) error {
	path := filepath.Join(d.path, name)

	tmp, err := os.CreateTemp(d.path, "."+name+".*")
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &PathError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &PathError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &PathError{Op: "write", Path: path, Err: err}
	}
	return nil
}
