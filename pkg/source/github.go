package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultGitHubAPI is the public GitHub REST endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// Repository defaults.
const (
	DefaultBranch     = "main"
	DefaultBlocksPath = "blocks"
)

// ErrNoToken is returned by GitHub operations when no token is configured.
var ErrNoToken = errors.New("GITHUB_TOKEN not set. Required for GitHub operations")

// GitHubConfig configures a GitHubClient.
type GitHubConfig struct {
	Token   string
	BaseURL string // DefaultGitHubAPI when empty
	// CacheSize bounds the number of cached responses. Zero means 512.
	CacheSize  int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// contents is one cached contents API response: a file or a directory
// listing, never both.
type contents struct {
	file *github.RepositoryContent
	dir  []*github.RepositoryContent
}

// GitHubClient reads repository contents through the REST contents API.
// Successful responses are cached by repository, ref and path.
type GitHubClient struct {
	token  string
	gh     *github.Client
	cache  *lru.Cache[string, contents]
	logger *slog.Logger
}

// NewGitHubClient creates a client. A missing token is not an error here;
// every request fails with ErrNoToken instead.
func NewGitHubClient(cfg GitHubConfig) (*GitHubClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGitHubAPI
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// the client resolves request paths against BaseURL, which must end in "/"
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.BaseURL, err)
	}
	gh := github.NewClient(cfg.HTTPClient)
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}
	gh.BaseURL = baseURL

	cache, err := lru.New[string, contents](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create content cache: %w", err)
	}
	return &GitHubClient{
		token:  cfg.Token,
		gh:     gh,
		cache:  cache,
		logger: cfg.Logger,
	}, nil
}

// ContentEntry is one item of a directory listing.
type ContentEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"` // "file", "dir", "symlink" or "submodule"
	HTMLURL string `json:"html_url"`
}

// Repo addresses a branch of a repository.
type Repo struct {
	Org    string
	Repo   string
	Branch string
}

func (r Repo) branch() string {
	if r.Branch == "" {
		return DefaultBranch
	}
	return r.Branch
}

func (r Repo) String() string { return r.Org + "/" + r.Repo }

// Directory lists the entries of dir.
func (c *GitHubClient) Directory(ctx context.Context, repo Repo, dir string) ([]ContentEntry, error) {
	res, err := c.contents(ctx, repo, dir)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("directory %w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("failed to fetch directory from GitHub: %w", err)
	}
	if res.file != nil {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	entries := make([]ContentEntry, 0, len(res.dir))
	for _, rc := range res.dir {
		entries = append(entries, ContentEntry{
			Name:    rc.GetName(),
			Path:    rc.GetPath(),
			Type:    rc.GetType(),
			HTMLURL: rc.GetHTMLURL(),
		})
	}
	return entries, nil
}

// File returns the decoded contents of file.
func (c *GitHubClient) File(ctx context.Context, repo Repo, file string) (string, error) {
	res, err := c.contents(ctx, repo, file)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("file %w: %s", ErrNotFound, file)
		}
		return "", fmt.Errorf("failed to fetch file from GitHub: %w", err)
	}
	if res.file == nil || res.file.GetType() != "file" {
		return "", fmt.Errorf("%s is not a file", file)
	}
	content, err := res.file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", file, err)
	}
	return content, nil
}

func (c *GitHubClient) contents(ctx context.Context, repo Repo, p string) (contents, error) {
	if c.token == "" {
		return contents{}, ErrNoToken
	}

	p = strings.Trim(p, "/")
	key := repo.String() + "@" + repo.branch() + ":" + p
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}

	start := time.Now()
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, repo.Org, repo.Repo, p,
		&github.RepositoryContentGetOptions{Ref: repo.branch()})
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.logger.Debug("github contents",
		"repo", repo.String(),
		"path", p,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		var apiErr *github.ErrorResponse
		if errors.As(err, &apiErr) && apiErr.Response != nil && apiErr.Response.StatusCode == http.StatusNotFound {
			return contents{}, ErrNotFound
		}
		return contents{}, fmt.Errorf("github: %w", err)
	}

	res := contents{file: file, dir: dir}
	c.cache.Add(key, res)
	return res, nil
}

// GitHub lists blocks from a directory of a GitHub repository.
type GitHub struct {
	client     *GitHubClient
	repo       Repo
	blocksPath string
	// concurrency bounds the per-block directory requests of List.
	concurrency int
}

// NewGitHub creates a GitHub source. An empty blocksPath means "blocks".
func NewGitHub(client *GitHubClient, repo Repo, blocksPath string) *GitHub {
	if blocksPath == "" {
		blocksPath = DefaultBlocksPath
	}
	if repo.Branch == "" {
		repo.Branch = DefaultBranch
	}
	return &GitHub{client: client, repo: repo, blocksPath: strings.Trim(blocksPath, "/"), concurrency: 8}
}

func (g *GitHub) Describe() string { return "GitHub: " + g.repo.String() }

func (g *GitHub) List(ctx context.Context) ([]ComponentInfo, error) {
	entries, err := g.client.Directory(ctx, g.repo, g.blocksPath)
	if err != nil {
		return nil, err
	}

	var dirs []ContentEntry
	for _, e := range entries {
		if e.Type == "dir" {
			dirs = append(dirs, e)
		}
	}

	blocks := make([]ComponentInfo, len(dirs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, dir := range dirs {
		eg.Go(func() error {
			blockPath := g.blocksPath + "/" + dir.Name
			files, err := g.client.Directory(egCtx, g.repo, blockPath)
			if err != nil {
				return err
			}
			names := make(map[string]bool, len(files))
			for _, f := range files {
				names[f.Name] = true
			}
			block := ComponentInfo{
				Name:   dir.Name,
				Path:   blockPath,
				URL:    dir.HTMLURL,
				Origin: OriginGitHub,
			}
			if file, ok := pickFile(dir.Name, codeExtensions, names); ok {
				block.HasCode = true
				block.CodeFile = file
			}
			_, block.HasStyle = pickFile(dir.Name, styleExtensions, names)
			blocks[i] = block
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list blocks from GitHub: %w", err)
	}

	sortByName(blocks)
	return blocks, nil
}

func (g *GitHub) Code(ctx context.Context, block ComponentInfo) (string, error) {
	codeFile := block.CodeFile
	if codeFile == "" {
		codeFile = block.Name + ".js"
	}
	return g.client.File(ctx, g.repo, block.Path+"/"+codeFile)
}
