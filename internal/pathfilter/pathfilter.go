// Package pathfilter decides which files are eligible for random selection.
package pathfilter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/taigrr/randopen/internal/types"
)

// PathFilter filters candidate paths by exact exclusion, glob patterns and
// include/exclude rules.
type PathFilter struct {
	excluded        map[string]struct{}
	ignoredPatterns []*regexp.Regexp
	rules           []rule
	skipHidden      bool
}

type rule struct {
	types.FilterRule
	re *regexp.Regexp
}

// New creates a new PathFilter with the given configuration.
func New(config *types.PathFilterConfig) *PathFilter {
	pf := &PathFilter{
		excluded: make(map[string]struct{}),
	}
	if config == nil {
		return pf
	}

	for _, p := range config.ExcludedPaths {
		if p == "" {
			continue
		}
		pf.excluded[filepath.Clean(p)] = struct{}{}
	}
	for _, pattern := range config.IgnoredPatterns {
		if re, err := globToRegexp(pattern); err == nil {
			pf.ignoredPatterns = append(pf.ignoredPatterns, re)
		}
	}
	for _, r := range config.Rules {
		compiled := rule{FilterRule: r}
		if r.Type == types.MatchRegex {
			// Compiled as written: caseSensitive does not apply, use (?i) in
			// the pattern instead. An invalid expression never matches.
			compiled.re, _ = regexp.Compile(r.Pattern)
		}
		pf.rules = append(pf.rules, compiled)
	}
	pf.skipHidden = config.SkipHidden

	return pf
}

// globToRegexp converts a glob pattern to an anchored regular expression.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	// Normalize pattern path separators (Windows compatibility)
	normalizedPattern := strings.ReplaceAll(pattern, "\\", "/")

	// Escape all regex special chars first
	regexPattern := regexp.QuoteMeta(normalizedPattern)

	regexPattern = strings.ReplaceAll(regexPattern, `\*\*/`, "(.*/)?") // **/ matches zero or more dirs
	regexPattern = strings.ReplaceAll(regexPattern, `\*\*`, ".*")      // ** matches any
	regexPattern = strings.ReplaceAll(regexPattern, `\*`, "[^/]*")     // * matches non-slash
	regexPattern = strings.ReplaceAll(regexPattern, `\?`, "[^/]")      // ? matches single char

	return regexp.Compile("^" + regexPattern + "$")
}

// IsExcluded reports whether path is one of the exactly excluded paths.
func (pf *PathFilter) IsExcluded(path string) bool {
	_, ok := pf.excluded[filepath.Clean(path)]
	return ok
}

// IsAllowed checks a root-relative path against the hidden-file setting and
// the ignored patterns. Directories should be passed with a trailing slash.
func (pf *PathFilter) IsAllowed(relPath string) bool {
	normalizedPath := strings.ReplaceAll(relPath, "\\", "/")

	if pf.skipHidden && isHidden(normalizedPath) {
		return false
	}

	for _, re := range pf.ignoredPatterns {
		if re.MatchString(normalizedPath) {
			return false
		}
	}

	return true
}

// IsEligible reports whether a file may be selected. path is the absolute
// path of the file and relPath the same file relative to the walk root.
func (pf *PathFilter) IsEligible(path, relPath string) bool {
	if pf.IsExcluded(path) {
		return false
	}
	if !pf.IsAllowed(relPath) {
		return false
	}
	return pf.passesRules(path)
}

// passesRules applies include/exclude rules: an include match always wins,
// otherwise any exclude match drops the path.
func (pf *PathFilter) passesRules(path string) bool {
	if len(pf.rules) == 0 {
		return true
	}

	excluded := false
	for _, r := range pf.rules {
		if !r.matches(path) {
			continue
		}
		if r.Action == types.FilterInclude {
			return true
		}
		excluded = true
	}
	return !excluded
}

func (r rule) matches(path string) bool {
	if r.Type == types.MatchRegex {
		return r.re != nil && r.re.MatchString(path)
	}

	text, pattern := path, r.Pattern
	if !r.CaseSensitive {
		text = strings.ToLower(text)
		pattern = strings.ToLower(pattern)
	}

	switch r.Type {
	case types.MatchContains:
		return strings.Contains(text, pattern)
	case types.MatchStartsWith:
		return strings.HasPrefix(text, pattern)
	case types.MatchEndsWith:
		return strings.HasSuffix(text, pattern)
	}
	return false
}

// isHidden reports whether the last path component starts with a dot.
func isHidden(path string) bool {
	name := strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(name, "/"); i != -1 {
		name = name[i+1:]
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// FilterPaths drops exactly excluded paths, keeping the order of the rest.
func (pf *PathFilter) FilterPaths(paths []string) []string {
	allowed := make([]string, 0, len(paths))
	for _, path := range paths {
		if !pf.IsExcluded(path) {
			allowed = append(allowed, path)
		}
	}
	return allowed
}
