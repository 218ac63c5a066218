package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	// path → JSON response body
	responses map[string]any
	requests  atomic.Int32
}

func (f *fakeRepo) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		const prefix = "/repos/adobe/site/contents/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, ok := f.responses[strings.TrimPrefix(r.URL.Path, prefix)]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
}

func fileEntry(name, content string) map[string]any {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	// wrap like the real API does
	var wrapped strings.Builder
	for i := 0; i < len(encoded); i += 60 {
		end := min(i+60, len(encoded))
		wrapped.WriteString(encoded[i:end])
		wrapped.WriteString("\n")
	}
	return map[string]any{"name": name, "type": "file", "content": wrapped.String(), "encoding": "base64"}
}

func newFakeGitHub(t *testing.T) (*fakeRepo, *GitHubClient) {
	t.Helper()
	code := strings.Repeat("// cards block\n", 10) + "export default function decorate(block) {}\n"
	repo := &fakeRepo{responses: map[string]any{
		"blocks": []map[string]any{
			{"name": "hero", "type": "dir", "html_url": "https://github.com/adobe/site/tree/main/blocks/hero"},
			{"name": "cards", "type": "dir", "html_url": "https://github.com/adobe/site/tree/main/blocks/cards"},
			{"name": "README.md", "type": "file"},
		},
		"blocks/hero":           []map[string]any{{"name": "hero.css", "type": "file"}},
		"blocks/cards":          []map[string]any{{"name": "cards.js", "type": "file"}, {"name": "cards.css", "type": "file"}},
		"blocks/cards/cards.js": fileEntry("cards.js", code),
		"blocks/big/big.js":     map[string]any{"name": "big.js", "type": "file", "content": "", "encoding": "none"},
	}}
	srv := httptest.NewServer(repo.handler(t))
	t.Cleanup(srv.Close)

	client, err := NewGitHubClient(GitHubConfig{Token: "test-token", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return repo, client
}

func TestGitHub_List(t *testing.T) {
	_, client := newFakeGitHub(t)
	src := NewGitHub(client, Repo{Org: "adobe", Repo: "site"}, "")

	blocks, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "cards", blocks[0].Name)
	assert.Equal(t, "blocks/cards", blocks[0].Path)
	assert.True(t, blocks[0].HasCode)
	assert.True(t, blocks[0].HasStyle)
	assert.Equal(t, OriginGitHub, blocks[0].Origin)
	assert.Equal(t, "https://github.com/adobe/site/tree/main/blocks/cards", blocks[0].URL)

	assert.Equal(t, "hero", blocks[1].Name)
	assert.False(t, blocks[1].HasCode)
	assert.True(t, blocks[1].HasStyle)
	assert.Equal(t, "GitHub: adobe/site", src.Describe())
}

func TestGitHub_Code(t *testing.T) {
	repo, client := newFakeGitHub(t)
	src := NewGitHub(client, Repo{Org: "adobe", Repo: "site"}, "blocks")

	_, code, err := FetchCode(context.Background(), src, "cards")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "// cards block\n"))
	assert.True(t, strings.HasSuffix(code, "export default function decorate(block) {}\n"))

	before := repo.requests.Load()
	_, _, err = FetchCode(context.Background(), src, "cards")
	require.NoError(t, err)
	assert.Equal(t, before, repo.requests.Load(), "second fetch is served from cache")
}

func TestGitHub_NotFound(t *testing.T) {
	_, client := newFakeGitHub(t)

	src := NewGitHub(client, Repo{Org: "adobe", Repo: "site"}, "missing")
	_, err := src.List(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = client.File(context.Background(), Repo{Org: "adobe", Repo: "site"}, "blocks/hero/hero.js")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGitHub_NotAFile(t *testing.T) {
	_, client := newFakeGitHub(t)
	_, err := client.File(context.Background(), Repo{Org: "adobe", Repo: "site"}, "blocks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a file")

	_, err = client.Directory(context.Background(), Repo{Org: "adobe", Repo: "site"}, "blocks/cards/cards.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestGitHub_NoToken(t *testing.T) {
	client, err := NewGitHubClient(GitHubConfig{})
	require.NoError(t, err)
	_, err = NewGitHub(client, Repo{Org: "adobe", Repo: "site"}, "").List(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestGitHub_APIError(t *testing.T) {
	repo := &fakeRepo{responses: map[string]any{}}
	srv := httptest.NewServer(repo.handler(t))
	defer srv.Close()

	client, err := NewGitHubClient(GitHubConfig{Token: "wrong", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = client.Directory(context.Background(), Repo{Org: "adobe", Repo: "site"}, "blocks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad credentials")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestGitHub_UnsupportedEncoding(t *testing.T) {
	_, client := newFakeGitHub(t)
	_, err := client.File(context.Background(), Repo{Org: "adobe", Repo: "site"}, "blocks/big/big.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode blocks/big/big.js")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestNewGitHubClient_InvalidBaseURL(t *testing.T) {
	_, err := NewGitHubClient(GitHubConfig{Token: "t", BaseURL: "http://[::1"})
	assert.ErrorContains(t, err, "invalid GitHub API URL")
}
