package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/gnana997/blockschema/pkg/blocks"
	"github.com/gnana997/blockschema/pkg/httpapi"
	mcpserver "github.com/gnana997/blockschema/pkg/mcp"
	"github.com/gnana997/blockschema/pkg/schema"
	"github.com/gnana997/blockschema/pkg/validator"
	"github.com/gnana997/blockschema/pkg/watch"
)

// errInvalid is returned when a validated document or project has errors,
// so the process exits non-zero after the report is printed.
var errInvalid = errors.New("validation failed")

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			callLog, err := a.callLog()
			if err != nil {
				return err
			}
			if callLog != nil {
				defer callLog.Close()
			}
			return mcpserver.NewServer(a.svc, callLog, a.logger).ServeStdio()
		},
	}
}

func (c *cli) httpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the analyze, synthesize and validate API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return httpapi.NewServer(a.analyzer, a.logger).ListenAndServe(ctx, a.cfg.HTTPAddr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the blocks of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			result, err := a.svc.ListBlocks(cmd.Context(), c.locator(a.cfg))
			if err != nil {
				return err
			}
			return c.print(cmd, result)
		},
	}
}

func (c *cli) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <block>",
		Short: "Analyze a block's expected content structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			result, err := a.svc.AnalyzeBlock(cmd.Context(), c.locator(a.cfg), args[0])
			if err != nil {
				return err
			}
			return c.print(cmd, result)
		},
	}
}

func (c *cli) mutationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mutations <block>",
		Short: "List the DOM mutations a block performs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			result, err := a.svc.DetectMutations(cmd.Context(), c.locator(a.cfg), args[0])
			if err != nil {
				return err
			}
			return c.print(cmd, result)
		},
	}
}

// parseFieldOverride reads "Label", "Label:type" or ":type".
func parseFieldOverride(s string) schema.FieldOverride {
	label, typ, _ := strings.Cut(s, ":")
	return schema.FieldOverride{Label: strings.TrimSpace(label), Type: strings.TrimSpace(typ)}
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		all     bool
		preview bool
		output  string
		fields  []string
	)
	cmd := &cobra.Command{
		Use:   "generate [block]",
		Short: "Generate a block's Universal Editor JSON",
		Long: `Generate writes ue/models/blocks/{block}.json under the project root.

Use --field once per column, in order, to override the generated label and
component type, e.g. --field Image:reference --field Text.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			opts := blocks.GenerateOptions{Preview: preview, OutputPath: output}
			for _, f := range fields {
				opts.Overrides = append(opts.Overrides, parseFieldOverride(f))
			}

			if all {
				result, err := a.svc.GenerateAll(cmd.Context(), c.locator(a.cfg), opts)
				if err != nil {
					return err
				}
				if err := c.print(cmd, result); err != nil {
					return err
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d of %d blocks failed", result.Failed, len(result.Items))
				}
				return nil
			}

			result, err := a.svc.GenerateBlockJSON(cmd.Context(), c.locator(a.cfg), args[0], opts)
			if err != nil {
				return err
			}
			return c.print(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "generate every block with code")
	cmd.Flags().BoolVar(&preview, "preview", false, "print the JSON without writing it")
	cmd.Flags().StringVar(&output, "output", "", "write to this path instead of ue/models/blocks/{block}.json")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field override as Label[:type], one per column")
	return cmd
}

func (c *cli) baseConfigsCmd() *cobra.Command {
	var (
		names    []string
		discover bool
	)
	cmd := &cobra.Command{
		Use:   "base-configs",
		Short: "Write the page, text, image, section and template configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			if discover {
				list, err := a.svc.ListBlocks(cmd.Context(), c.locator(a.cfg))
				if err != nil {
					return err
				}
				for _, b := range list.Blocks {
					names = append(names, b.Name)
				}
			}
			result, err := a.svc.GenerateBaseConfigs(a.cfg.ProjectPath, names)
			if err != nil {
				return err
			}
			return c.print(cmd, result)
		},
	}
	cmd.Flags().StringSliceVar(&names, "blocks", nil, "block names admitted by the section filter")
	cmd.Flags().BoolVar(&discover, "discover", false, "add every listed block to the section filter")
	return cmd
}

// fileValidation is the report for one validated file.
type fileValidation struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (c *cli) validateCmd() *cobra.Command {
	var setup bool
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate block JSON files or the project setup",
		Long: `Validate checks each given block JSON file. Without arguments it checks
every file in ue/models/blocks. With --setup it checks the project's
Universal Editor setup instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			if setup {
				result := validator.ValidateSetup(a.cfg.ProjectPath)
				if err := c.print(cmd, result); err != nil {
					return err
				}
				if !result.Valid {
					return errInvalid
				}
				return nil
			}

			files := args
			if len(files) == 0 {
				pattern := filepath.Join(blocks.ModelsDir(a.cfg.ProjectPath), "blocks", "*.json")
				files, err = doublestar.FilepathGlob(pattern)
				if err != nil {
					return err
				}
			}

			reports := make([]fileValidation, 0, len(files))
			valid := true
			for _, f := range files {
				result, err := blocks.ValidateFile(f)
				if err != nil {
					return err
				}
				valid = valid && result.Valid
				reports = append(reports, fileValidation{
					File:     f,
					Valid:    result.Valid,
					Errors:   result.ErrorMessages(),
					Warnings: result.WarningMessages(),
				})
			}
			if err := c.print(cmd, reports); err != nil {
				return err
			}
			if !valid {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&setup, "setup", false, "validate the project setup")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate block JSON whenever block code changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			loc := c.locator(a.cfg)
			w, err := watch.NewWatcher(a.svc, watch.Options{
				ProjectPath: loc.ProjectPath,
				BlocksPath:  loc.BlocksPath(),
				Cache:       a.cache,
				OnEvent: func(e watch.Event) {
					if e.Err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", e.Block, e.Err)
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", e.Block, e.Result.FilePath)
				},
			}, a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
}
