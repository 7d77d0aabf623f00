// Package search filters a cached file list by a text or regex query.
package search

import (
	"regexp"

	"github.com/taigrr/randopen/internal/types"
	"github.com/taigrr/randopen/internal/uri"
)

// Query returns the entries of files matching params, in cache order, along
// with the total number of matches before offset and limit are applied.
// An empty query matches every entry; a non-positive limit means no limit.
func Query(files []string, params types.QueryParams) ([]types.QueryResult, int, error) {
	pattern, err := compile(params)
	if err != nil {
		return nil, 0, err
	}

	var matches []types.QueryResult
	for i, path := range files {
		if pattern != nil && !pattern.MatchString(path) {
			continue
		}
		matches = append(matches, types.QueryResult{
			Index: i,
			Path:  path,
			URI:   uri.FileURI(path),
		})
	}

	total := len(matches)
	offset := max(params.Offset, 0)

	// Apply offset and limit
	if offset >= total {
		return []types.QueryResult{}, total, nil
	}
	endIdx := total
	if params.Limit > 0 {
		endIdx = min(offset+params.Limit, total)
	}

	return matches[offset:endIdx], total, nil
}

func compile(params types.QueryParams) (*regexp.Regexp, error) {
	query := params.Query
	if query == "" {
		return nil, nil
	}

	if !params.UseRegex {
		// Escape regex special chars for literal search
		query = regexp.QuoteMeta(query)
	}
	if !params.CaseSensitive {
		query = "(?i)" + query
	}

	re, err := regexp.Compile(query)
	if err != nil {
		return nil, &QueryError{Message: "Invalid regex pattern: " + err.Error()}
	}
	return re, nil
}

// QueryError represents an invalid query.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return e.Message
}
