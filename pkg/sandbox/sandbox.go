package sandbox

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// basenameSearchLimit caps how many matches a basename search collects.
const basenameSearchLimit = 25

// Sandbox confines all file and path operations to a single root directory.
// Every absolute path it hands out is either the root itself or lies strictly
// below it; nothing else in the program is allowed to build paths by string
// concatenation.
type Sandbox struct {
	root string
}

// New creates a sandbox rooted at dir. The directory must exist; symlinks in
// the root itself are resolved once so later prefix checks are stable.
func New(dir string) (*Sandbox, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty root", ErrInvalidPath)
	}
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox root: %w", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox root: %w", err)
	}

	log.Debug().Str("root", root).Msg("Sandbox initialized")

	return &Sandbox{root: root}, nil
}

// Root returns the absolute sandbox root directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a user-provided relative path to an absolute path inside the
// root. Empty or absolute input, and anything that normalizes to a location
// outside the root, fails with ErrInvalidPath.
func (s *Sandbox) Resolve(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("%w: missing path", ErrInvalidPath)
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: absolute paths are not allowed", ErrInvalidPath)
	}

	target := filepath.Clean(filepath.Join(s.root, rel))

	// Resolve symlinks on the longest existing prefix so a link inside the
	// root cannot point the path back out of it.
	resolved, err := resolveExistingPrefix(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, err)
	}

	if resolved != s.root && !strings.HasPrefix(resolved, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes root folder", ErrInvalidPath, rel)
	}
	return resolved, nil
}

// ResolveExistingFile resolves rel to an existing regular file. When the exact
// relative path does not exist on disk it falls back to a case-insensitive
// basename search under the root (skipping version-control metadata): zero
// matches yield ErrNotFound, exactly one match wins, and multiple matches
// yield an AmbiguousError carrying the candidate relative paths.
func (s *Sandbox) ResolveExistingFile(rel string) (string, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(full); statErr == nil && info.Mode().IsRegular() {
		return full, nil
	}

	basename := strings.TrimSpace(filepath.Base(rel))
	if basename == "" || basename == "." {
		return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
	}

	matches := s.findByBasename(basename)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
	case 1:
		return matches[0], nil
	default:
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, s.Rel(m))
		}
		return "", &AmbiguousError{Path: rel, Candidates: candidates}
	}
}

// Rel returns a project-relative, slash-separated display path for abs.
func (s *Sandbox) Rel(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// findByBasename walks the root collecting regular files whose name matches
// the target case-insensitively, capped at basenameSearchLimit.
func (s *Sandbox) findByBasename(basename string) []string {
	target := strings.ToLower(basename)
	var matches []string

	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.ToLower(d.Name()) == target {
			matches = append(matches, path)
			if len(matches) >= basenameSearchLimit {
				return filepath.SkipAll
			}
		}
		return nil
	})

	return matches
}

// resolveExistingPrefix evaluates symlinks on the longest existing ancestor of
// path and re-joins the remainder, so not-yet-created targets still resolve.
func resolveExistingPrefix(path string) (string, error) {
	remainder := ""
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			if remainder == "" {
				return resolved, nil
			}
			return filepath.Clean(filepath.Join(resolved, remainder)), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("cannot resolve %s", path)
		}
		if remainder == "" {
			remainder = filepath.Base(current)
		} else {
			remainder = filepath.Join(filepath.Base(current), remainder)
		}
		current = parent
	}
}
