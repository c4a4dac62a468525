package mcp

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/search"
	"github.com/Aman-CERP/kbsearch/internal/telemetry"
	"github.com/Aman-CERP/kbsearch/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "kbsearch"

// Searcher runs a query across the configured repositories.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Response, error)
}

// Server is the MCP server for kbsearch.
// It exposes repository search and browsing to AI clients over stdio.
type Server struct {
	mcp      *mcp.Server
	searcher Searcher
	store    *config.Store
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	tools    []ToolInfo
}

// Option configures the server.
type Option func(*Server)

// WithMetrics exposes m through the search_stats tool.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search",
		Description: "Case-insensitive literal text search across the configured knowledge-base repositories. Returns matching lines with file paths and line numbers, plus files whose name contains the query. Optionally restrict to one repository by name or path.",
	},
	{
		Name:        "list_repositories",
		Description: "List the configured repositories with their paths and exclusion patterns.",
	},
	{
		Name:        "list_directory",
		Description: "List the visible entries of a directory inside a repository. Directories come first. Excluded paths are hidden.",
	},
	{
		Name:        "read_file",
		Description: "Read a text file from a repository by its path relative to the repository root. Use after search to see a match in context.",
	},
}

var statsTool = ToolInfo{
	Name:        "search_stats",
	Description: "Report statistics about searches made since the server started: totals, top terms, terms that found nothing and latency distribution.",
}

// NewServer creates a new MCP server.
func NewServer(searcher Searcher, store *config.Store, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if store == nil {
		return nil, errors.New("config store is required")
	}

	s := &Server{
		searcher: searcher,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools
	)

	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(s.tools))
	copy(out, s.tools)
	return out
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpListRepositoriesHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpListDirectoryHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpReadFileHandler)
	s.tools = append(s.tools, tools...)

	if s.metrics != nil {
		mcp.AddTool(s.mcp, &mcp.Tool{Name: statsTool.Name, Description: statsTool.Description}, s.mcpSearchStatsHandler)
		s.tools = append(s.tools, statsTool)
	}
	s.logger.Debug("MCP tools registered", slog.Int("count", len(s.tools)))
}

// mcpSearchHandler is the MCP SDK handler for the search tool.
// The text content is markdown; the structured output carries the same
// results for clients that read it.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query cannot be empty or whitespace only")
	}

	q := search.Query{Term: input.Query}
	if input.Repository != "" {
		repo, err := s.findRepository(input.Repository)
		if err != nil {
			return nil, SearchOutput{}, MapError(err)
		}
		q.RepositoryPath = repo.Path
	}

	resp, err := s.searcher.Search(ctx, q)
	if err != nil {
		s.logger.Error("mcp search failed", slog.String("term", input.Query), slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}

	limit := clampLimit(input.Limit, DefaultLimit, 1, MaxLimit)
	out := ToSearchOutput(resp, limit)
	return textResult(FormatSearchResults(out)), out, nil
}

// mcpListRepositoriesHandler is the MCP SDK handler for the list_repositories tool.
func (s *Server) mcpListRepositoriesHandler(_ context.Context, _ *mcp.CallToolRequest, _ ListRepositoriesInput) (
	*mcp.CallToolResult,
	ListRepositoriesOutput,
	error,
) {
	cfg := s.store.Config()
	out := ListRepositoriesOutput{Repositories: make([]RepositoryOutput, 0, len(cfg.Repositories))}
	for _, repo := range cfg.Repositories {
		out.Repositories = append(out.Repositories, RepositoryOutput{
			Name:            repo.Name,
			Path:            repo.Path,
			Available:       isDir(repo.Path),
			ExcludePatterns: []string(cfg.ExcludePatternsFor(repo)),
		})
	}
	return textResult(FormatRepositories(out)), out, nil
}

// findRepository resolves a name or path against the current snapshot.
func (s *Server) findRepository(nameOrPath string) (config.Repository, error) {
	snap := s.store.Snapshot()
	cleaned := filepath.Clean(nameOrPath)
	for _, repo := range snap.Repositories {
		if repo.Name == nameOrPath || filepath.Clean(repo.Path) == cleaned {
			return repo, nil
		}
	}
	return config.Repository{}, config.UnknownRepositoryError(nameOrPath, snap.Repositories,
		"call list_repositories to see configured repositories")
}

// Serve runs the server on stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
