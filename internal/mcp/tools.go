package mcp

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the literal text to find, matched case-insensitively"`
	Repository string `json:"repository,omitempty" jsonschema:"restrict to one repository, by name or path"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 50"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Term      string               `json:"term"`
	Total     int                  `json:"total" jsonschema:"number of matches before the limit was applied"`
	Truncated bool                 `json:"truncated,omitempty"`
	Results   []SearchResultOutput `json:"results"`
}

// SearchResultOutput is one match.
type SearchResultOutput struct {
	Repository   string `json:"repository"`
	FilePath     string `json:"file_path" jsonschema:"absolute path of the file"`
	RelativePath string `json:"relative_path" jsonschema:"path relative to the repository root"`
	Line         int    `json:"line"`
	Content      string `json:"content"`
	FileNameHit  bool   `json:"file_name_match,omitempty" jsonschema:"true when the file name matched rather than a line"`
}

// ListRepositoriesInput defines the input schema for the list_repositories tool (no parameters).
type ListRepositoriesInput struct{}

// ListRepositoriesOutput defines the output schema for the list_repositories tool.
type ListRepositoriesOutput struct {
	Repositories []RepositoryOutput `json:"repositories"`
}

// RepositoryOutput describes one configured repository.
type RepositoryOutput struct {
	Name            string   `json:"name"`
	Path            string   `json:"path"`
	Available       bool     `json:"available" jsonschema:"false when the repository path does not exist"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
}

// ListDirectoryInput defines the input schema for the list_directory tool.
type ListDirectoryInput struct {
	Repository string `json:"repository" jsonschema:"repository name or path"`
	Path       string `json:"path,omitempty" jsonschema:"directory relative to the repository root, empty for the root"`
}

// ListDirectoryOutput defines the output schema for the list_directory tool.
type ListDirectoryOutput struct {
	Repository string        `json:"repository"`
	Path       string        `json:"path"`
	Entries    []EntryOutput `json:"entries"`
}

// EntryOutput is one directory entry.
type EntryOutput struct {
	Name  string `json:"name"`
	Path  string `json:"path" jsonschema:"path relative to the repository root"`
	IsDir bool   `json:"is_dir"`
}

// ReadFileInput defines the input schema for the read_file tool.
type ReadFileInput struct {
	Repository string `json:"repository" jsonschema:"repository name or path"`
	Path       string `json:"path" jsonschema:"file path relative to the repository root"`
}

// ReadFileOutput defines the output schema for the read_file tool.
type ReadFileOutput struct {
	Path     string `json:"path"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
}

// SearchStatsInput defines the input schema for the search_stats tool (no parameters).
type SearchStatsInput struct{}

// SearchStatsOutput defines the output schema for the search_stats tool.
type SearchStatsOutput struct {
	Since             string           `json:"since" jsonschema:"When collection started (RFC 3339)"`
	TotalQueries      int64            `json:"total_queries"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	CancelledCount    int64            `json:"cancelled_count"`
	RepeatCount       int64            `json:"repeat_count" jsonschema:"Searches for a term seen before"`
	StrategyCounts    map[string]int64 `json:"strategy_counts" jsonschema:"Searches per content strategy (ripgrep or fallback)"`
	Latency           map[string]int64 `json:"latency_distribution" jsonschema:"Searches per latency bucket (p10 is under 10ms)"`
	TopTerms          []TermCount      `json:"top_terms"`
	ZeroResultQueries []string         `json:"zero_result_queries" jsonschema:"Recent terms that found nothing, oldest first"`
}

// TermCount is a searched term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}
