package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/blockschema/pkg/util"
)

// blockFilesPattern matches the code and style files of every block.
const blockFilesPattern = "*/*.{js,ts,css}"

// Local reads blocks from a directory on disk, one subdirectory per block.
type Local struct {
	root   string
	cache  *util.FileCache
	logger *slog.Logger
}

// NewLocal creates a local source rooted at blocksPath. Code is read
// through cache when it is non-nil.
func NewLocal(blocksPath string, cache *util.FileCache, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{root: blocksPath, cache: cache, logger: logger}
}

// Root returns the blocks directory.
func (l *Local) Root() string { return l.root }

func (l *Local) Describe() string { return "Local: " + l.root }

func (l *Local) List(ctx context.Context) ([]ComponentInfo, error) {
	info, err := os.Stat(l.root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("blocks directory %w at %s", ErrNotFound, l.root)
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocks directory: %w", err)
	}

	fsys := os.DirFS(l.root)
	matches, err := doublestar.Glob(fsys, blockFilesPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob block files: %w", err)
	}
	files := make(map[string]bool, len(matches))
	for _, m := range matches {
		if st, err := fs.Stat(fsys, m); err == nil && !st.IsDir() {
			files[m] = true
		}
	}

	blocks := []ComponentInfo{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		block := ComponentInfo{
			Name:   name,
			Path:   filepath.Join(l.root, name),
			Origin: OriginLocal,
		}
		if file, ok := pickFile(path.Join(name, name), codeExtensions, files); ok {
			block.HasCode = true
			block.CodeFile = path.Base(file)
		}
		_, block.HasStyle = pickFile(path.Join(name, name), styleExtensions, files)
		blocks = append(blocks, block)
	}

	sortByName(blocks)
	l.logger.Debug("listed local blocks", "root", l.root, "count", len(blocks))
	return blocks, nil
}

func (l *Local) Code(ctx context.Context, block ComponentInfo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	codeFile := block.CodeFile
	if codeFile == "" {
		codeFile = block.Name + ".js"
	}
	file := filepath.Join(block.Path, codeFile)

	var (
		code string
		err  error
	)
	if l.cache != nil {
		code, err = l.cache.ReadFile(file)
	} else {
		var data []byte
		data, err = os.ReadFile(file)
		code = string(data)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("file %w: %s", ErrNotFound, file)
	}
	if err != nil {
		return "", err
	}
	return code, nil
}
