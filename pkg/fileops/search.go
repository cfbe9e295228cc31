package fileops

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const searchTimeout = 60 * time.Second

// SearchOptions controls a recursive text search.
type SearchOptions struct {
	Query         string
	Path          string
	CaseSensitive bool
	IncludeHidden bool
	MaxResults    int
}

// SearchMatch is one located occurrence.
type SearchMatch struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

// SearchResult is the outcome of a code search.
type SearchResult struct {
	Matches   []SearchMatch
	Truncated bool
	Engine    string
}

var queryTermRe = regexp.MustCompile(`[A-Za-z0-9_.-]+`)

var queryStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {},
	"from": {}, "that": {}, "this": {}, "file": {}, "code": {},
}

// Search runs a recursive text search under the given directory, preferring
// ripgrep when available and falling back to a native walker. When content
// search finds nothing, filenames are matched as a discovery fallback.
func (e *Engine) Search(ctx context.Context, opts SearchOptions) (SearchResult, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return SearchResult{}, fmt.Errorf("missing/invalid query")
	}
	dir := opts.Path
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	full, err := e.sb.Resolve(dir)
	if err != nil {
		return SearchResult{}, err
	}
	if info, err := os.Stat(full); err != nil || !info.IsDir() {
		return SearchResult{}, fmt.Errorf("not a directory: %s", dir)
	}

	maxResults := opts.MaxResults
	if maxResults < 1 {
		maxResults = 50
	}
	if maxResults > 200 {
		maxResults = 200
	}

	var res SearchResult
	if _, lookErr := exec.LookPath("rg"); lookErr == nil {
		res, err = e.searchWithRipgrep(ctx, full, opts, maxResults)
	} else {
		res, err = e.searchNative(full, opts, maxResults)
	}
	if err != nil {
		return SearchResult{}, err
	}

	if len(res.Matches) == 0 {
		queries := append([]string{opts.Query}, extractQueryTerms(opts.Query)...)
		byName := e.searchFilenames(full, queries, opts, maxResults)
		if len(byName) > 0 {
			res.Matches = byName
			res.Truncated = len(byName) >= maxResults
			if res.Engine != "" {
				res.Engine += "+filename"
			} else {
				res.Engine = "filename"
			}
		}
	}
	return res, nil
}

func (e *Engine) searchWithRipgrep(ctx context.Context, full string, opts SearchOptions, maxResults int) (SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	args := []string{"--no-heading", "--line-number", "--column"}
	if !opts.CaseSensitive {
		args = append(args, "-i")
	}
	if opts.IncludeHidden {
		args = append(args, "--hidden")
	}
	args = append(args, "--glob", "!.git", opts.Query, ".")

	cmd := exec.CommandContext(ctx, "rg", args...)
	cmd.Dir = full
	out, err := cmd.Output()
	if err != nil {
		// Exit code 1 means no matches; anything else is a real failure.
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return SearchResult{Engine: "rg"}, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return SearchResult{}, fmt.Errorf("search timed out after %s", searchTimeout)
		}
		return SearchResult{}, fmt.Errorf("rg failed: %v", err)
	}

	res := SearchResult{Engine: "rg"}
	for _, raw := range strings.Split(string(out), "\n") {
		m, ok := parseRipgrepLine(raw)
		if !ok {
			continue
		}
		m.File = e.sb.Rel(filepath.Join(full, m.File))
		res.Matches = append(res.Matches, m)
		if len(res.Matches) >= maxResults {
			res.Truncated = true
			break
		}
	}
	return res, nil
}

func parseRipgrepLine(raw string) (SearchMatch, bool) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) != 4 {
		return SearchMatch{}, false
	}
	line, err := strconv.Atoi(parts[1])
	if err != nil {
		return SearchMatch{}, false
	}
	col, err := strconv.Atoi(parts[2])
	if err != nil {
		return SearchMatch{}, false
	}
	return SearchMatch{File: parts[0], Line: line, Column: col, Text: parts[3]}, true
}

func (e *Engine) searchNative(full string, opts SearchOptions, maxResults int) (SearchResult, error) {
	needle := opts.Query
	if !opts.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	res := SearchResult{Engine: "native"}
	err := filepath.WalkDir(full, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" || (!opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") && path != full) {
				return filepath.SkipDir
			}
			return nil
		}
		if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			haystack := line
			if !opts.CaseSensitive {
				haystack = strings.ToLower(line)
			}
			pos := strings.Index(haystack, needle)
			if pos == -1 {
				continue
			}
			res.Matches = append(res.Matches, SearchMatch{
				File:   e.sb.Rel(path),
				Line:   lineNo,
				Column: pos + 1,
				Text:   line,
			})
			if len(res.Matches) >= maxResults {
				res.Truncated = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return SearchResult{}, err
	}
	return res, nil
}

// searchFilenames matches project-relative paths against the query terms.
func (e *Engine) searchFilenames(full string, queries []string, opts SearchOptions, maxResults int) []SearchMatch {
	needles := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if !opts.CaseSensitive {
			q = strings.ToLower(q)
		}
		needles = append(needles, q)
	}
	if len(needles) == 0 {
		return nil
	}

	var matches []SearchMatch
	seen := map[string]struct{}{}

	_ = filepath.WalkDir(full, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" || (!opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") && path != full) {
				return filepath.SkipDir
			}
			return nil
		}
		if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel := e.sb.Rel(path)
		haystack := rel
		if !opts.CaseSensitive {
			haystack = strings.ToLower(rel)
		}
		for _, n := range needles {
			if strings.Contains(haystack, n) {
				if _, dup := seen[rel]; !dup {
					seen[rel] = struct{}{}
					matches = append(matches, SearchMatch{File: rel, Line: 1, Column: 1, Text: "[filename match]"})
				}
				break
			}
		}
		if len(matches) >= maxResults {
			return filepath.SkipAll
		}
		return nil
	})

	log.Debug().Int("matches", len(matches)).Msg("Filename fallback search completed")
	return matches
}

// extractQueryTerms pulls short identifier-like tokens out of a free-text
// query for the filename fallback.
func extractQueryTerms(query string) []string {
	var terms []string
	for _, tok := range queryTermRe.FindAllString(query, -1) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := queryStopWords[strings.ToLower(tok)]; stop {
			continue
		}
		dup := false
		for _, t := range terms {
			if t == tok {
				dup = true
				break
			}
		}
		if !dup {
			terms = append(terms, tok)
		}
		if len(terms) >= 6 {
			break
		}
	}
	return terms
}
