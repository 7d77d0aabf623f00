package main

import "github.com/modelcontextprotocol/go-sdk/mcp"

type (
	// PickInput contains parameters for picking a random file.
	PickInput struct {
		Open    bool `json:"open,omitempty" jsonschema:"Open the chosen file with the default application (default: false)"`
		Refresh bool `json:"refresh,omitempty" jsonschema:"Walk the directory tree again instead of using the cache (default: false)"`
	}

	// PickOutput contains the chosen file.
	PickOutput struct {
		Path   string `json:"path"`
		URI    string `json:"uri"`
		State  string `json:"state"`
		Total  int    `json:"total"`
		Opened bool   `json:"opened"`
	}

	// ListInput contains parameters for listing cached files.
	ListInput struct {
		Query         string `json:"query,omitempty" jsonschema:"Only return paths containing this text (or matching it if useRegex=true)"`
		UseRegex      bool   `json:"useRegex,omitempty" jsonschema:"Treat query as regex pattern (default: false)"`
		CaseSensitive bool   `json:"caseSensitive,omitempty" jsonschema:"Case sensitive matching (default: false)"`
		Limit         int    `json:"limit,omitempty" jsonschema:"Maximum results (default: 50)"`
		Offset        int    `json:"offset,omitempty" jsonschema:"Skip first N results for pagination (default: 0)"`
	}

	// ListedFile is one cached file.
	ListedFile struct {
		Index int    `json:"index"`
		Path  string `json:"path"`
		URI   string `json:"uri"`
	}

	// ListOutput contains cached files.
	ListOutput struct {
		Files   []ListedFile `json:"files"`
		Total   int          `json:"total"`
		HasMore bool         `json:"hasMore,omitempty"`
		Cached  bool         `json:"cached"`
	}

	// RefreshInput contains parameters for rebuilding the cache.
	RefreshInput struct{}

	// RefreshOutput contains the result of rebuilding the cache.
	RefreshOutput struct {
		CachePath string `json:"cachePath"`
		Total     int    `json:"total"`
	}
)

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "pick",
		Description: "Pick a random file from the cached list (building the cache on first use) and reshuffle the cache. Set open=true to open it with the default application.",
	}, handlePick)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list",
		Description: "List cached files in their current shuffled order. Supports text or regex filtering and pagination with offset/limit.",
	}, handleList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh",
		Description: "Walk the directory tree again and replace the cache with a freshly shuffled list. Does not open anything.",
	}, handleRefresh)
}
