package source

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/gnana997/blockschema/pkg/util"
)

// GitHubLocation addresses a blocks directory in a GitHub repository.
type GitHubLocation struct {
	Org        string `json:"org"`
	Repo       string `json:"repo"`
	Branch     string `json:"branch,omitempty"`
	BlocksPath string `json:"blocksPath,omitempty"`
}

// Locator says where to look for blocks. GitHub wins unless UseLocal is
// set; otherwise LocalBlocksPath, falling back to {ProjectPath}/blocks.
// ProjectPath is also where generated schemas are written.
type Locator struct {
	ProjectPath     string          `json:"projectPath"`
	LocalBlocksPath string          `json:"localBlocksPath,omitempty"`
	UseLocal        bool            `json:"useLocal,omitempty"`
	GitHub          *GitHubLocation `json:"github,omitempty"`
}

// Resolver turns locators into sources, sharing one GitHub client and one
// file cache between them.
type Resolver struct {
	GitHub *GitHubClient
	Cache  *util.FileCache
	Logger *slog.Logger
}

// Resolve returns the source l points at.
func (r *Resolver) Resolve(l Locator) (Source, error) {
	if l.GitHub != nil && !l.UseLocal {
		if l.GitHub.Org == "" || l.GitHub.Repo == "" {
			return nil, errors.New("GitHub org and repo required for GitHub source")
		}
		if r.GitHub == nil {
			return nil, ErrNoToken
		}
		repo := Repo{Org: l.GitHub.Org, Repo: l.GitHub.Repo, Branch: l.GitHub.Branch}
		return NewGitHub(r.GitHub, repo, l.GitHub.BlocksPath), nil
	}
	return NewLocal(l.BlocksPath(), r.Cache, r.Logger), nil
}

// BlocksPath returns the local blocks directory. A relative
// LocalBlocksPath is taken relative to ProjectPath.
func (l Locator) BlocksPath() string {
	if l.LocalBlocksPath != "" {
		if filepath.IsAbs(l.LocalBlocksPath) || l.ProjectPath == "" {
			return l.LocalBlocksPath
		}
		return filepath.Join(l.ProjectPath, l.LocalBlocksPath)
	}
	return filepath.Join(l.ProjectPath, "blocks")
}
