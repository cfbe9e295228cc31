package ui

import (
	"regexp"
	"strings"
)

var packageManagerBins = map[string]struct{}{
	"npm":     {},
	"npm.cmd": {},
	"npx":     {},
	"npx.cmd": {},
	"pnpm":    {},
	"yarn":    {},
}

func cmdWords(cmd []string) []string {
	words := make([]string, 0, len(cmd))
	for _, part := range cmd {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			words = append(words, token)
		}
	}
	return words
}

// ClassifyRunCmdStep names the high-level stage of a package manager
// invocation, or returns an empty string for anything else.
func ClassifyRunCmdStep(cmd []string) string {
	words := cmdWords(cmd)
	if len(words) == 0 {
		return ""
	}
	if _, ok := packageManagerBins[words[0]]; !ok {
		return ""
	}
	args := words[1:]

	joined := strings.Join(args, " ")
	if strings.Contains(joined, "create-react-app") ||
		strings.Contains(joined, "create vite") ||
		strings.Contains(joined, "create-vite") {
		return "scaffolding app"
	}
	for _, a := range args {
		switch a {
		case "install", "i", "ci", "add":
			return "installing dependencies"
		}
	}
	for _, a := range args {
		if a == "build" {
			return "building project"
		}
	}
	for _, a := range args {
		if a == "dev" || a == "start" {
			return "starting dev server"
		}
	}
	return "running package manager task"
}

// IsNoisyInstallCommand reports whether a command is expected to produce
// long install logs worth suppressing on success.
func IsNoisyInstallCommand(cmd []string) bool {
	words := cmdWords(cmd)
	if len(words) == 0 {
		return false
	}
	if _, ok := packageManagerBins[words[0]]; !ok {
		return false
	}
	args := words[1:]
	if strings.Contains(strings.Join(args, " "), "create-react-app") {
		return true
	}
	for _, a := range args {
		switch a {
		case "install", "i", "ci", "create", "add":
			return true
		}
	}
	return false
}

var installSummaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`created .+ at `),
	regexp.MustCompile(`added \d+ packages`),
	regexp.MustCompile(`up to date`),
	regexp.MustCompile(`audited \d+ packages`),
	regexp.MustCompile(`done in .+`),
	regexp.MustCompile(`found \d+ vulnerabilities?`),
}

// SummarizeInstallOutput extracts the few meaningful lines from install
// output, deduplicated and capped at three.
func SummarizeInstallOutput(stdout, stderr string) string {
	var summary []string
	seen := map[string]struct{}{}
	for _, raw := range []string{stdout, stderr} {
		for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
			compact := strings.TrimSpace(line)
			if compact == "" {
				continue
			}
			low := strings.ToLower(compact)
			for _, p := range installSummaryPatterns {
				if p.MatchString(low) {
					if _, dup := seen[compact]; !dup {
						seen[compact] = struct{}{}
						summary = append(summary, compact)
					}
					break
				}
			}
		}
	}
	if len(summary) > 3 {
		summary = summary[:3]
	}
	return strings.Join(summary, "; ")
}
