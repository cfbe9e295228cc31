package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harun/baxter/pkg/sandbox"
)

// ErrDirNotEmpty is returned when deleting a directory that still has entries.
var ErrDirNotEmpty = errors.New("directory not empty")

// Engine performs file reads and mutations inside a path sandbox.
type Engine struct {
	sb *sandbox.Sandbox
}

// New creates a file engine bound to the given sandbox.
func New(sb *sandbox.Sandbox) *Engine {
	return &Engine{sb: sb}
}

// ReadResult is the outcome of reading a file.
type ReadResult struct {
	Path         string
	ResolvedPath string
	Content      string
	Bytes        int
}

// ReadFile reads a file, resolving basename-only references when the exact
// relative path does not exist. Errors may wrap sandbox.ErrNotFound or be a
// *sandbox.AmbiguousError carrying candidate paths.
func (e *Engine) ReadFile(path string) (ReadResult, error) {
	if strings.TrimSpace(path) == "" {
		return ReadResult{}, fmt.Errorf("%w: missing path", sandbox.ErrInvalidPath)
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "." || trimmed == "./" || trimmed == ".\\" {
		return ReadResult{}, fmt.Errorf(`path %q is a directory; use list_dir for directories or provide a file path`, path)
	}

	full, err := e.sb.ResolveExistingFile(path)
	if err != nil {
		return ReadResult{}, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return ReadResult{}, err
	}

	return ReadResult{
		Path:         path,
		ResolvedPath: e.sb.Rel(full),
		Content:      string(data),
		Bytes:        len(data),
	}, nil
}

// WriteResult is the outcome of writing a file.
type WriteResult struct {
	Path  string
	Bytes int
}

// WriteFile writes content to path. An existing file is only replaced when
// overwrite is true; this also guards against truncating an existing file
// with empty content by accident. Parent directories are created as needed.
func (e *Engine) WriteFile(path, content string, overwrite bool) (WriteResult, error) {
	full, err := e.sb.Resolve(path)
	if err != nil {
		return WriteResult{}, err
	}

	if _, statErr := os.Stat(full); statErr == nil {
		if !overwrite {
			if content == "" {
				return WriteResult{}, fmt.Errorf("refusing to write empty content to existing file without overwrite=true: %s", path)
			}
			return WriteResult{}, fmt.Errorf("refusing to overwrite existing file without overwrite=true: %s", path)
		}
	}

	if parent := filepath.Dir(full); parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return WriteResult{}, err
		}
	}

	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return WriteResult{}, err
	}

	log.Debug().Str("path", path).Int("bytes", len(content)).Msg("File written")
	return WriteResult{Path: path, Bytes: len(content)}, nil
}

// DeleteResult reports what kind of entry was deleted.
type DeleteResult struct {
	Path    string
	Deleted string // "file" or "dir"
}

// DeletePath deletes a file outright, and a directory only when it is empty.
// Recursive deletion is deliberately unsupported to bound blast radius.
func (e *Engine) DeletePath(path string) (DeleteResult, error) {
	full, err := e.sb.Resolve(path)
	if err != nil {
		return DeleteResult{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return DeleteResult{}, fmt.Errorf("%w: %s", sandbox.ErrNotFound, path)
		}
		return DeleteResult{}, err
	}

	if info.IsDir() {
		entries, err := os.ReadDir(full)
		if err != nil {
			return DeleteResult{}, err
		}
		if len(entries) > 0 {
			return DeleteResult{}, fmt.Errorf("%w: %s", ErrDirNotEmpty, path)
		}
		if err := os.Remove(full); err != nil {
			return DeleteResult{}, err
		}
		log.Debug().Str("path", path).Msg("Directory deleted")
		return DeleteResult{Path: path, Deleted: "dir"}, nil
	}

	if err := os.Remove(full); err != nil {
		return DeleteResult{}, err
	}
	log.Debug().Str("path", path).Msg("File deleted")
	return DeleteResult{Path: path, Deleted: "file"}, nil
}

// DirEntry describes one listing entry. Size is nil for directories.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  *int64 `json:"size"`
}

// ListDir lists a directory, directories first, names sorted case-insensitively.
func (e *Engine) ListDir(path string) ([]DirEntry, error) {
	full, err := e.sb.Resolve(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(raw))
	for _, d := range raw {
		entry := DirEntry{Name: d.Name(), IsDir: d.IsDir()}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				size := info.Size()
				entry.Size = &size
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// MakeDir creates a directory (and parents) inside the sandbox.
func (e *Engine) MakeDir(path string) error {
	full, err := e.sb.Resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0755)
}

// Sandbox exposes the underlying sandbox for collaborators that need
// display-relative paths.
func (e *Engine) Sandbox() *sandbox.Sandbox {
	return e.sb
}
