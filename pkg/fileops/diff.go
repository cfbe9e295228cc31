package fileops

import (
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog/log"
)

// DiffResult reports an applied find/replace edit together with a reviewable
// line-level unified diff.
type DiffResult struct {
	Path          string
	Replacements  int
	AddedLines    int
	RemovedLines  int
	BytesBefore   int
	BytesAfter    int
	Diff          string
	DiffAvailable bool
}

// ApplyDiff replaces find with replace in the named file. Zero occurrences is
// an error; multiple occurrences with replaceAll=false is an error telling
// the caller to disambiguate rather than guessing which occurrence was meant.
func (e *Engine) ApplyDiff(path, find, replace string, replaceAll bool) (DiffResult, error) {
	if find == "" {
		return DiffResult{}, fmt.Errorf("missing/invalid find text")
	}

	full, err := e.sb.Resolve(path)
	if err != nil {
		return DiffResult{}, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return DiffResult{}, err
	}
	original := string(data)

	updated, replacements, err := substitute(original, find, replace, replaceAll, path)
	if err != nil {
		return DiffResult{}, err
	}

	diff, added, removed, err := unifiedDiff(original, updated, path)
	if err != nil {
		return DiffResult{}, err
	}

	if err := os.WriteFile(full, []byte(updated), 0644); err != nil {
		return DiffResult{}, err
	}

	log.Debug().
		Str("path", path).
		Int("replacements", replacements).
		Int("added", added).
		Int("removed", removed).
		Msg("Diff applied")

	return DiffResult{
		Path:          path,
		Replacements:  replacements,
		AddedLines:    added,
		RemovedLines:  removed,
		BytesBefore:   len(original),
		BytesAfter:    len(updated),
		Diff:          diff,
		DiffAvailable: true,
	}, nil
}

// PreviewDiff computes the unified diff ApplyDiff would produce without
// touching the file. Used for confirmation prompts.
func (e *Engine) PreviewDiff(path, find, replace string, replaceAll bool) (string, error) {
	if find == "" {
		return "", fmt.Errorf("missing/invalid find text")
	}
	full, err := e.sb.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	original := string(data)

	updated, _, err := substitute(original, find, replace, replaceAll, path)
	if err != nil {
		return "", err
	}
	diff, _, _, err := unifiedDiff(original, updated, path)
	return diff, err
}

// PreviewOverwrite computes the diff between an existing file and the content
// an overwrite write would install. A missing file yields a diff against
// empty content.
func (e *Engine) PreviewOverwrite(path, content string) (string, error) {
	full, err := e.sb.Resolve(path)
	if err != nil {
		return "", err
	}
	original := ""
	if data, err := os.ReadFile(full); err == nil {
		original = string(data)
	}
	diff, _, _, err := unifiedDiff(original, content, path)
	return diff, err
}

func substitute(original, find, replace string, replaceAll bool, path string) (string, int, error) {
	hits := strings.Count(original, find)
	if hits == 0 {
		return "", 0, fmt.Errorf("find text not found in: %s", path)
	}
	if !replaceAll && hits > 1 {
		return "", 0, fmt.Errorf(
			"find text matched %d locations in %s; set replace_all=true or provide a more specific find block",
			hits, path)
	}

	if replaceAll {
		return strings.ReplaceAll(original, find, replace), hits, nil
	}
	return strings.Replace(original, find, replace, 1), 1, nil
}

func unifiedDiff(original, updated, path string) (string, int, int, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(updated),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return "", 0, 0, err
	}

	added, removed := 0, 0
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") || strings.HasPrefix(line, "@@") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return strings.TrimRight(diff, "\n"), added, removed, nil
}
