package types

// FilterAction decides what happens to a path matched by a FilterRule.
type FilterAction string

const (
	FilterInclude FilterAction = "include"
	FilterExclude FilterAction = "exclude"
)

// FilterMatchType is the comparison a FilterRule applies to a path.
type FilterMatchType string

const (
	MatchContains   FilterMatchType = "contains"
	MatchStartsWith FilterMatchType = "startsWith"
	MatchEndsWith   FilterMatchType = "endsWith"
	MatchRegex      FilterMatchType = "regex"
)

type (
	// FilterRule includes or excludes paths matching Pattern.
	FilterRule struct {
		Action        FilterAction    `yaml:"action" json:"action"`
		Type          FilterMatchType `yaml:"type" json:"type"`
		Pattern       string          `yaml:"pattern" json:"pattern"`
		CaseSensitive bool            `yaml:"caseSensitive,omitempty" json:"caseSensitive,omitempty"`
	}

	// PathFilterConfig contains configuration for the path filter.
	PathFilterConfig struct {
		// ExcludedPaths are absolute paths dropped by exact comparison.
		ExcludedPaths   []string     `json:"excludedPaths"`
		IgnoredPatterns []string     `json:"ignoredPatterns"`
		Rules           []FilterRule `json:"rules"`
		SkipHidden      bool         `json:"skipHidden"`
	}
)
