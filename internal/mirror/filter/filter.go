// Package filter decides which relative paths are excluded from a sync pass.
//
// Patterns use plain shell-glob semantics matched against the full POSIX
// relative path: `*` and `?` never cross a `/` boundary, and `**` carries no
// recursive meaning beyond a literal `*`. That limitation is intentional and
// kept stable so existing ignore files keep their meaning.
package filter

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/boxmirror/boxmirror/internal/mirror/ledger"
	"github.com/boxmirror/boxmirror/internal/utils"
)

// DefaultFilename is the rules filename at the watched root.
const DefaultFilename = "ignore.txt"

// LockFilename is the single-instance lock the workspace keeps at the
// watched root. Declared here so the built-ins can exclude it; the
// workspace package imports it back.
const LockFilename = ".boxmirror.lock"

// builtinPatterns always apply so the mirror never syncs its own bookkeeping.
var builtinPatterns = []string{
	ledger.DefaultFilename,
	"./" + ledger.DefaultFilename,
	DefaultFilename,
	"./" + DefaultFilename,
	LockFilename,
	"./" + LockFilename,
}

// RuleSet is an ordered list of glob patterns.
type RuleSet struct {
	patterns []string
}

// Load reads DefaultFilename under root if present, skipping blank lines and
// `#` comments, and appends the built-in bookkeeping exclusions. The
// built-ins are present even when no rules file exists.
func Load(root string) (*RuleSet, error) {
	var patterns []string

	rulesPath := filepath.Join(root, DefaultFilename)
	if utils.FileExists(rulesPath) {
		file, err := os.Open(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("open ignore rules: %w", err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read ignore rules: %w", err)
		}
		slog.Debug("ignore rules loaded", "path", rulesPath, "rules", len(patterns))
	}

	patterns = append(patterns, builtinPatterns...)
	return &RuleSet{patterns: patterns}, nil
}

// FromPatterns builds a rule set from the given patterns plus the built-ins.
func FromPatterns(patterns ...string) *RuleSet {
	all := make([]string, 0, len(patterns)+len(builtinPatterns))
	all = append(all, patterns...)
	all = append(all, builtinPatterns...)
	return &RuleSet{patterns: all}
}

// Match reports whether the POSIX relative path matches any pattern.
// Matching is case-sensitive. A syntactically bad pattern matches nothing.
func (r *RuleSet) Match(relPath string) bool {
	for _, pattern := range r.patterns {
		if ok, err := path.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// Len returns the number of patterns, built-ins included.
func (r *RuleSet) Len() int {
	return len(r.patterns)
}
