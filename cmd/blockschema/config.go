package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gnana997/blockschema/pkg/analyzer"
	"github.com/gnana997/blockschema/pkg/blocks"
	"github.com/gnana997/blockschema/pkg/mcplog"
	"github.com/gnana997/blockschema/pkg/parser"
	"github.com/gnana997/blockschema/pkg/source"
	"github.com/gnana997/blockschema/pkg/util"
)

// Config holds settings from .blockschema.yaml, the environment and flags,
// in increasing order of precedence.
type Config struct {
	LogLevel  string
	LogFormat string
	// ToolLog is the JSONL file MCP tool calls are appended to. Empty
	// disables the call log.
	ToolLog string

	GitHubToken     string
	GitHubAPIURL    string
	GitHubCacheSize int

	HTTPAddr string

	ProjectPath string
	BlocksPath  string
}

// configKeys maps viper keys to the persistent flags that override them.
var configKeys = map[string]string{
	"log.level":           "log-level",
	"log.format":          "log-format",
	"log.tool_log":        "tool-log",
	"project.path":        "project",
	"project.blocks_path": "blocks-path",
	"http.addr":           "addr",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(".blockschema")
	v.SetConfigType("yaml")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("github.api_url", source.DefaultGitHubAPI)
	v.SetDefault("github.cache_size", 512)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("project.path", ".")

	v.SetEnvPrefix("BLOCKSCHEMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", "BLOCKSCHEMA_GITHUB_TOKEN", "GITHUB_TOKEN")
	return v
}

// loadConfig reads the config file (configFile, or .blockschema.yaml in the
// current directory or $HOME) and binds flags. A missing default config
// file is not an error.
func loadConfig(v *viper.Viper, configFile string, cmd *cobra.Command) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for key, name := range configKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	return &Config{
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		ToolLog:         v.GetString("log.tool_log"),
		GitHubToken:     v.GetString("github.token"),
		GitHubAPIURL:    v.GetString("github.api_url"),
		GitHubCacheSize: v.GetInt("github.cache_size"),
		HTTPAddr:        v.GetString("http.addr"),
		ProjectPath:     v.GetString("project.path"),
		BlocksPath:      v.GetString("project.blocks_path"),
	}, nil
}

// app is the set of components a command runs against.
type app struct {
	cfg      *Config
	logger   *slog.Logger
	pm       *parser.ParserManager
	cache    *util.FileCache
	analyzer *analyzer.Analyzer
	svc      *blocks.Service
}

func newApp(cfg *Config) (*app, error) {
	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(cfg.LogLevel),
		Format: util.ParseLogFormat(cfg.LogFormat),
	})
	util.SetDefault(logger)

	cache, err := util.NewFileCache(util.FileCacheConfig{Logger: logger})
	if err != nil {
		return nil, err
	}
	gh, err := source.NewGitHubClient(source.GitHubConfig{
		Token:     cfg.GitHubToken,
		BaseURL:   cfg.GitHubAPIURL,
		CacheSize: cfg.GitHubCacheSize,
		Logger:    logger,
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	pm := parser.NewParserManager(logger)
	a := analyzer.NewAnalyzer(pm, logger)
	svc := blocks.NewService(blocks.Config{
		Analyzer: a,
		Resolver: &source.Resolver{GitHub: gh, Cache: cache, Logger: logger},
		Logger:   logger,
	})
	return &app{cfg: cfg, logger: logger, pm: pm, cache: cache, analyzer: a, svc: svc}, nil
}

func (a *app) callLog() (*mcplog.Logger, error) {
	return mcplog.NewLogger(a.cfg.ToolLog)
}

func (a *app) Close() {
	if err := a.pm.Close(); err != nil {
		a.logger.Warn("failed to close parsers", "error", err)
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close file cache", "error", err)
	}
}
