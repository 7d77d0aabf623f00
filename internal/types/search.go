package types

type (
	// QueryParams narrows a cached file list down to matching paths.
	QueryParams struct {
		Query         string `json:"query"`
		UseRegex      bool   `json:"useRegex,omitempty"`
		CaseSensitive bool   `json:"caseSensitive,omitempty"`
		Limit         int    `json:"limit,omitempty"`
		Offset        int    `json:"offset,omitempty"`
	}

	// QueryResult is one path from the cache that matched a query.
	QueryResult struct {
		Index int    `json:"index"` // position in the cache file
		Path  string `json:"path"`
		URI   string `json:"uri"`
	}
)
