package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const serverName = "blockschema"

type agentKind int

const (
	// kindCLI agents register servers through their own "mcp add" command.
	kindCLI agentKind = iota
	// kindFile agents read servers from a JSON config file.
	kindFile
)

// agent describes how to find one MCP client and register the server
// with it.
type agent struct {
	id     string
	name   string
	kind   agentKind
	binary string
	// markers are project directories whose presence means the agent is
	// used in the project. An agent without markers is found when the
	// parent of its config file exists.
	markers []string
	// config returns the agent's config file, relative paths being taken
	// from the project root.
	config     func() string
	serversKey string
	scoped     bool
	extra      map[string]string
}

var agents = []agent{
	{id: "claude_code", name: "Claude Code", kind: kindCLI, binary: "claude", scoped: true},
	{id: "openai_codex", name: "OpenAI Codex", kind: kindCLI, binary: "codex", scoped: true},
	{
		id: "vscode_copilot", name: "VS Code Copilot", kind: kindFile,
		markers:    []string{".vscode"},
		config:     func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers",
		extra:      map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", name: "Cursor", kind: kindFile,
		markers:    []string{".cursor"},
		config:     func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{id: "claude_desktop", name: "Claude Desktop", kind: kindFile, config: claudeDesktopConfig, serversKey: "mcpServers"},
}

func claudeDesktopConfig() string {
	const file = "claude_desktop_config.json"
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Claude", file)
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", file)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "Claude", file)
	}
}

// foundAgent is an agent present for the project.
type foundAgent struct {
	agent
	configPath string
	configured bool
}

// agentSetup registers the MCP server with the agents found for one
// project. The function fields are replaced in tests.
type agentSetup struct {
	dir  string
	auto bool
	in   *bufio.Reader
	out  io.Writer

	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
}

func newAgentSetup(dir string, auto bool, in io.Reader, out io.Writer) *agentSetup {
	s := &agentSetup{dir: dir, auto: auto, in: bufio.NewReader(in), out: out, lookPath: exec.LookPath}
	s.run = func(name string, args ...string) error {
		c := exec.Command(name, args...)
		c.Dir = s.dir
		c.Stdout = s.out
		c.Stderr = s.out
		return c.Run()
	}
	return s
}

func (s *agentSetup) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *agentSetup) detect() []foundAgent {
	var found []foundAgent
	for _, a := range agents {
		switch a.kind {
		case kindCLI:
			if _, err := s.lookPath(a.binary); err != nil {
				continue
			}
			found = append(found, foundAgent{
				agent:      a,
				configured: hasServer(s.path(".mcp.json"), "mcpServers"),
			})

		case kindFile:
			present := false
			for _, m := range a.markers {
				if exists(s.path(m)) {
					present = true
					break
				}
			}
			cfg := s.path(a.config())
			if len(a.markers) == 0 {
				present = exists(filepath.Dir(cfg))
			}
			if present {
				found = append(found, foundAgent{agent: a, configPath: cfg, configured: hasServer(cfg, a.serversKey)})
			}
		}
	}
	return found
}

// hasServer reports whether the JSON file at path already lists the
// server under serversKey.
func hasServer(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false
	}
	servers, _ := cfg[serversKey].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

// mergeServerEntry adds the server under serversKey of the JSON document
// existing, keeping everything else. It returns nil when the server is
// already present.
func mergeServerEntry(existing []byte, serversKey string, extra map[string]string) ([]byte, error) {
	cfg := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := cfg[serversKey].(map[string]any)
	if !ok {
		servers = map[string]any{}
	}
	if _, ok := servers[serverName]; ok {
		return nil, nil
	}

	entry := map[string]any{"command": serverName, "args": []any{"serve"}}
	for k, v := range extra {
		entry[k] = v
	}
	servers[serverName] = entry
	cfg[serversKey] = servers

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeServerEntry(a foundAgent) error {
	if err := os.MkdirAll(filepath.Dir(a.configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(a.configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := mergeServerEntry(existing, a.serversKey, a.extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(a.configPath, merged, 0o644)
}

func (s *agentSetup) readLine() (string, bool) {
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// confirm asks a yes/no question. Empty input and EOF mean yes.
func (s *agentSetup) confirm(question string) bool {
	fmt.Fprintf(s.out, "%s [Y/n] ", question)
	answer, ok := s.readLine()
	if !ok {
		return true
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true
	}
	return false
}

// scope asks where a CLI agent should register the server. It returns
// "project", "user", or "" to skip. Empty input and EOF mean project.
func (s *agentSetup) scope(name string) string {
	fmt.Fprintf(s.out, "\n%s: add the %s MCP server?\n", name, serverName)
	fmt.Fprintln(s.out, "  [1] Project scope (shared with team)")
	fmt.Fprintln(s.out, "  [2] User scope (personal, global)")
	fmt.Fprintln(s.out, "  [3] Skip")
	fmt.Fprint(s.out, "  > ")
	answer, ok := s.readLine()
	if !ok {
		return "project"
	}
	switch answer {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

// Run detects agents and registers the server with each one not yet
// configured, asking first unless auto is set.
func (s *agentSetup) Run() {
	found := s.detect()
	if len(found) == 0 {
		fmt.Fprintln(s.out, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(s.out, "Detected AI agents:")
	for _, a := range found {
		if a.configured {
			fmt.Fprintf(s.out, "  * %s (already configured)\n", a.name)
		} else {
			fmt.Fprintf(s.out, "  * %s\n", a.name)
		}
	}
	fmt.Fprintln(s.out)

	if !s.auto && !s.confirm("Configure agents?") {
		return
	}
	for _, a := range found {
		if a.configured {
			fmt.Fprintf(s.out, "\n%s: already configured, skipping\n", a.name)
			continue
		}
		s.configure(a)
	}
}

func (s *agentSetup) configure(a foundAgent) {
	switch a.kind {
	case kindCLI:
		scope := "project"
		if !s.auto && a.scoped {
			if scope = s.scope(a.name); scope == "" {
				fmt.Fprintln(s.out, "  skipped")
				return
			}
		}
		args := []string{"mcp", "add", "--scope", scope, serverName, "--", serverName, "serve"}
		if err := s.run(a.binary, args...); err != nil {
			fmt.Fprintf(s.out, "  ! %s: failed: %v\n", a.name, err)
			return
		}
		fmt.Fprintf(s.out, "  + %s configured (scope: %s)\n", a.name, scope)

	case kindFile:
		if !s.auto && !s.confirm(fmt.Sprintf("\n%s: add to %s?", a.name, a.configPath)) {
			fmt.Fprintln(s.out, "  skipped")
			return
		}
		if err := writeServerEntry(a); err != nil {
			fmt.Fprintf(s.out, "  ! %s: failed: %v\n", a.name, err)
			return
		}
		fmt.Fprintf(s.out, "  + %s configured (%s)\n", a.name, a.configPath)
	}
}

func (c *cli) setupAgentsCmd() *cobra.Command {
	var auto bool
	cmd := &cobra.Command{
		Use:   "setup-agents",
		Short: "Register the MCP server with the AI agents found for the project",
		Long: `setup-agents looks for Claude Code, OpenAI Codex, VS Code Copilot, Cursor
and Claude Desktop, and adds a "blockschema serve" MCP server entry to each.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.v, c.configFile, cmd)
			if err != nil {
				return err
			}
			newAgentSetup(cfg.ProjectPath, auto, cmd.InOrStdin(), cmd.OutOrStdout()).Run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "configure every agent without prompting")
	return cmd
}
