package mcp

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// MockSearcher records queries and returns canned responses.
type MockSearcher struct {
	mu       sync.Mutex
	queries  []search.Query
	SearchFn func(ctx context.Context, q search.Query) (search.Response, error)
}

func (m *MockSearcher) Search(ctx context.Context, q search.Query) (search.Response, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.SearchFn != nil {
		return m.SearchFn(ctx, q)
	}
	return search.Response{Term: q.Term, Results: []search.MatchResult{}}, nil
}

type fixture struct {
	server   *Server
	searcher *MockSearcher
	root     string
}

// newFixture builds a server over one repository laid out as:
//
//	docs/guide.md
//	notes.md
//	secret/key.md   (excluded)
//	blob.bin        (binary)
func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("docs/guide.md", "# Guide\nhello\n")
	write("notes.md", "first\nsecond\n")
	write("secret/key.md", "hidden")
	write("blob.bin", "ab\x00cd")

	cfg := config.NewConfig()
	cfg.ExcludePatterns = []string{"secret"}
	cfg.Repositories = []config.Repository{
		{Name: "kb", Path: root},
		{Name: "gone", Path: filepath.Join(root, "does-not-exist")},
	}
	store := config.NewStore(cfg)
	t.Cleanup(store.Close)

	ms := &MockSearcher{}
	s, err := NewServer(ms, store)
	require.NoError(t, err)
	return fixture{server: s, searcher: ms, root: root}
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	store := config.NewStore(config.NewConfig())
	defer store.Close()

	_, err := NewServer(nil, store)
	assert.Error(t, err)

	_, err = NewServer(&MockSearcher{}, nil)
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	f := newFixture(t)

	var names []string
	for _, tool := range f.server.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{"search", "list_repositories", "list_directory", "read_file"}, names)
	assert.NotNil(t, f.server.MCPServer())
}

func TestSearchHandler_RejectsBlankQuery(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.server.mcpSearchHandler(context.Background(), nil, SearchInput{Query: "   "})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
	assert.Empty(t, f.searcher.queries, "blank queries never reach the searcher")
}

func TestSearchHandler_ReturnsResults(t *testing.T) {
	f := newFixture(t)
	f.searcher.SearchFn = func(_ context.Context, q search.Query) (search.Response, error) {
		return search.Response{Term: q.Term, Results: []search.MatchResult{
			{RepositoryName: "kb", RepositoryPath: f.root, FilePath: filepath.Join(f.root, "docs/guide.md"), LineNumber: 2, LineContent: "hello"},
		}}, nil
	}

	res, out, err := f.server.mcpSearchHandler(context.Background(), nil, SearchInput{Query: "hello"})

	require.NoError(t, err)
	assert.Equal(t, search.Query{Term: "hello"}, f.searcher.queries[0])
	require.Len(t, out.Results, 1)
	assert.Equal(t, "docs/guide.md", out.Results[0].RelativePath)
	assert.Equal(t, 2, out.Results[0].Line)

	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "### kb/docs/guide.md")
}

func TestSearchHandler_RestrictsToRepository(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.server.mcpSearchHandler(context.Background(), nil, SearchInput{Query: "x", Repository: "kb"})
	require.NoError(t, err)
	_, _, err = f.server.mcpSearchHandler(context.Background(), nil, SearchInput{Query: "x", Repository: f.root + "/"})
	require.NoError(t, err)

	require.Len(t, f.searcher.queries, 2)
	assert.Equal(t, f.root, f.searcher.queries[0].RepositoryPath)
	assert.Equal(t, f.root, f.searcher.queries[1].RepositoryPath)
}

func TestSearchHandler_UnknownRepository(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.server.mcpSearchHandler(context.Background(), nil, SearchInput{Query: "x", Repository: "nope"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "list_repositories")
	assert.Empty(t, f.searcher.queries)
}

func TestSearchHandler_SearchError(t *testing.T) {
	f := newFixture(t)
	f.searcher.SearchFn = func(context.Context, search.Query) (search.Response, error) {
		return search.Response{}, kberrors.New(kberrors.ErrCodeSearchFailed, "search cancelled", context.DeadlineExceeded)
	}

	_, _, err := f.server.mcpSearchHandler(context.Background(), nil, SearchInput{Query: "x"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeSearchFailed, mcpErr.Code)
}

func TestListRepositoriesHandler(t *testing.T) {
	f := newFixture(t)

	_, out, err := f.server.mcpListRepositoriesHandler(context.Background(), nil, ListRepositoriesInput{})

	require.NoError(t, err)
	require.Len(t, out.Repositories, 2)
	assert.Equal(t, "kb", out.Repositories[0].Name)
	assert.True(t, out.Repositories[0].Available)
	assert.Contains(t, out.Repositories[0].ExcludePatterns, "secret")
	assert.False(t, out.Repositories[1].Available)
}

func TestListDirectoryHandler(t *testing.T) {
	f := newFixture(t)

	_, out, err := f.server.mcpListDirectoryHandler(context.Background(), nil, ListDirectoryInput{Repository: "kb"})

	require.NoError(t, err)
	var names []string
	for _, e := range out.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"docs", "blob.bin", "notes.md"}, names, "directories first, excluded entries hidden")

	_, out, err = f.server.mcpListDirectoryHandler(context.Background(), nil, ListDirectoryInput{Repository: "kb", Path: "docs"})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "docs/guide.md", out.Entries[0].Path)
}

func TestListDirectoryHandler_RejectsEscapes(t *testing.T) {
	f := newFixture(t)

	for _, p := range []string{"../", "/etc", "secret"} {
		_, _, err := f.server.mcpListDirectoryHandler(context.Background(), nil, ListDirectoryInput{Repository: "kb", Path: p})
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr, p)
		assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code, p)
	}
}

func TestReadFileHandler(t *testing.T) {
	f := newFixture(t)

	res, out, err := f.server.mcpReadFileHandler(context.Background(), nil, ReadFileInput{Repository: "kb", Path: "docs/guide.md"})

	require.NoError(t, err)
	assert.Equal(t, "# Guide\nhello\n", out.Content)
	assert.Equal(t, "text/markdown", out.MIMEType)
	assert.Equal(t, int64(14), out.Size)
	require.NotNil(t, res)
}

func TestReadFileHandler_Refusals(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"empty", "", ErrCodeInvalidParams},
		{"traversal", "../outside.md", ErrCodeInvalidParams},
		{"absolute", "/etc/passwd", ErrCodeInvalidParams},
		{"excluded", "secret/key.md", ErrCodeInvalidParams},
		{"directory", "docs", ErrCodeInvalidParams},
		{"binary", "blob.bin", ErrCodeInvalidParams},
		{"missing", "nope.md", ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.server.mcpReadFileHandler(context.Background(), nil, ReadFileInput{Repository: "kb", Path: tt.path})
			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, tt.wantCode, mcpErr.Code)
		})
	}
}

func TestReadFileHandler_TooLarge(t *testing.T) {
	f := newFixture(t)
	big := make([]byte, MaxFileSize+1)
	for i := range big {
		big[i] = 'a'
	}
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "big.txt"), big, 0o644))

	_, _, err := f.server.mcpReadFileHandler(context.Background(), nil, ReadFileInput{Repository: "kb", Path: "big.txt"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeFileTooLarge, mcpErr.Code)
}

func TestIsValidPath(t *testing.T) {
	assert.True(t, isValidPath("a.md"))
	assert.True(t, isValidPath("docs/./a.md"))
	assert.True(t, isValidPath("..hidden/a.md"))
	assert.False(t, isValidPath(""))
	assert.False(t, isValidPath("../a.md"))
	assert.False(t, isValidPath("docs/../../a.md"))
	assert.False(t, isValidPath("/abs"))
	assert.False(t, isValidPath("C:\\x"))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "1.5 KB", humanSize(1536))
	assert.Equal(t, "1.0 MB", humanSize(MaxFileSize))
}
