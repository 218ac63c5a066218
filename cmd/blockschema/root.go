package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gnana997/blockschema/pkg/source"
)

const version = "0.1.0-dev"

// cli carries state shared by every command of one invocation.
type cli struct {
	v          *viper.Viper
	configFile string
	format     string

	useLocal     bool
	githubOrg    string
	githubRepo   string
	githubBranch string
	githubPath   string

	root *cobra.Command
	app  *app
}

func newCLI() *cli {
	c := &cli{v: newViper()}
	c.root = c.rootCmd()
	return c
}

// execute runs the command line and releases the app afterwards, whether
// or not the command failed.
func (c *cli) execute(ctx context.Context) error {
	defer c.close()
	return c.root.ExecuteContext(ctx)
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blockschema",
		Short: "Infer Universal Editor schemas from block code",
		Long: `blockschema reads the JavaScript of page blocks, infers the content
structure each block expects, and generates the Universal Editor component
definitions, models and filters for it.

Blocks are read from {project}/blocks by default, or from a GitHub
repository with --github-org and --github-repo.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default .blockschema.yaml in . or $HOME)")
	pf.StringVarP(&c.format, "format", "o", formatJSON, "output format: json or yaml")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("tool-log", "", "append MCP tool calls to this JSONL file")
	pf.StringP("project", "p", "", "project root (default .)")
	pf.String("blocks-path", "", "blocks directory, relative to the project root (default blocks)")
	pf.BoolVar(&c.useLocal, "local", false, "read local blocks even when GitHub flags are set")
	pf.StringVar(&c.githubOrg, "github-org", "", "GitHub organization to read blocks from")
	pf.StringVar(&c.githubRepo, "github-repo", "", "GitHub repository to read blocks from")
	pf.StringVar(&c.githubBranch, "github-branch", source.DefaultBranch, "GitHub branch")
	pf.StringVar(&c.githubPath, "github-blocks-path", source.DefaultBlocksPath, "blocks directory inside the GitHub repository")

	cmd.AddCommand(
		c.serveCmd(),
		c.httpCmd(),
		c.listCmd(),
		c.analyzeCmd(),
		c.mutationsCmd(),
		c.generateCmd(),
		c.baseConfigsCmd(),
		c.validateCmd(),
		c.watchCmd(),
		c.setupAgentsCmd(),
		versionCmd(),
	)
	return cmd
}

// appFor loads configuration and builds the components for cmd.
func (c *cli) appFor(cmd *cobra.Command) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := loadConfig(c.v, c.configFile, cmd)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// locator builds the block locator from configuration and flags.
func (c *cli) locator(cfg *Config) source.Locator {
	loc := source.Locator{
		ProjectPath:     cfg.ProjectPath,
		LocalBlocksPath: cfg.BlocksPath,
		UseLocal:        c.useLocal,
	}
	if c.githubOrg != "" || c.githubRepo != "" {
		loc.GitHub = &source.GitHubLocation{
			Org:        c.githubOrg,
			Repo:       c.githubRepo,
			Branch:     c.githubBranch,
			BlocksPath: c.githubPath,
		}
	}
	return loc
}

func (c *cli) print(cmd *cobra.Command, v any) error {
	return writeOutput(cmd.OutOrStdout(), c.format, v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blockschema %s\n", version)
		},
	}
}
