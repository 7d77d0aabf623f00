// Package types defines the data structures shared across randopen.
package types

// DefaultShuffleRounds is how many times a freshly walked list is shuffled.
const DefaultShuffleRounds = 6

// CacheState reports which branch of the selector produced a Selection.
type CacheState string

const (
	// CacheHit means the file list came from an existing cache file.
	CacheHit CacheState = "hit"
	// CacheMiss means the tree was walked and a new cache file written.
	CacheMiss CacheState = "miss"
)

type (
	// Selection is the outcome of a single selector run.
	Selection struct {
		State     CacheState `json:"state"`
		CachePath string     `json:"cachePath"`
		Files     []string   `json:"files"`
		Chosen    string     `json:"chosen"`
		Opened    bool       `json:"opened"`
	}

	// Paths holds the locations a selector run works with.
	Paths struct {
		Root      string `json:"root"`
		CachePath string `json:"cachePath"`
		SelfPath  string `json:"selfPath,omitempty"`
	}
)
