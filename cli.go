package sinceupdater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"
)

// RunCmdOptions contains options for customizing RunCmd behavior
type RunCmdOptions struct {
	// MCPTransport allows providing a custom transport for MCP server (used for testing)
	MCPTransport *mcp.InMemoryTransport
	// Stdout writer for normal output (defaults to os.Stdout)
	Stdout io.Writer
	// Stderr writer for logs and error output (defaults to os.Stderr)
	Stderr io.Writer
	// FileStore opens the store files are read from and written to (defaults to OSFileStore)
	FileStore func(root string) FileStore
}

// commandContext holds runtime context for command execution
type commandContext struct {
	stdout  io.Writer
	stderr  io.Writer
	config  *Config
	updater Updater
}

type updateOutput struct {
	*BatchResult
	Summary     string `json:"summary,omitempty"`
	SummaryPath string `json:"summary_path,omitempty"`
}

func RunCmd(args []string, options *RunCmdOptions) error {
	cmdCtx := &commandContext{
		stdout: io.Writer(os.Stdout),
		stderr: io.Writer(os.Stderr),
	}
	if options != nil {
		if options.Stdout != nil {
			cmdCtx.stdout = options.Stdout
		}
		if options.Stderr != nil {
			cmdCtx.stderr = options.Stderr
		}
	}

	if len(args) < 1 {
		return ShowHelp(cmdCtx.stdout)
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	var (
		help        = fs.BoolP("help", "h", false, "Show help")
		showVersion = fs.Bool("version", false, "Show the build version")
		mcpOption   = fs.Bool("mcp", false, "Run as MCP server")
		verbose     = fs.BoolP("verbose", "v", false, "Verbose output")
		dryRun      = fs.Bool("dry-run", false, "Show what would be changed without making changes")
		jsonOutput  = fs.Bool("json", false, "Output as JSON")
		root        = fs.String("root", "", "Root directory to scan (defaults to the working directory)")
		pattern     = fs.String("pattern", "", "Glob pattern for files to scan, relative to root")
		configFile  = fs.String("config", "", "Path to configuration file")
		summaryPath = fs.String("summary-path", "", "Where to write the release notes summary")
	)

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if *help {
		return ShowHelp(cmdCtx.stdout)
	}

	if *showVersion {
		_, _ = fmt.Fprintln(cmdCtx.stdout, BuildVersion)
		return nil
	}

	if *mcpOption {
		var transport *mcp.InMemoryTransport
		if options != nil && options.MCPTransport != nil {
			transport = options.MCPTransport
		}
		return RunMCPServer(*configFile, transport)
	}

	config, err := LoadConfig(*configFile)
	if err != nil {
		return errors.Errorf("failed to load config: %w", err)
	}
	if *pattern != "" {
		config.Pattern = *pattern
	}
	if *summaryPath != "" {
		config.SummaryPath = *summaryPath
	}
	cmdCtx.config = config

	rootPath := *root
	if rootPath == "" {
		if rootPath, err = os.Getwd(); err != nil {
			return errors.Errorf("failed to get current directory: %w", err)
		}
	}
	if rootPath, err = filepath.Abs(rootPath); err != nil {
		return errors.Errorf("failed to resolve root: %w", err)
	}

	updater, err := NewDefaultUpdater(config)
	if err != nil {
		return errors.Errorf("failed to create updater: %w", err)
	}
	if options != nil && options.FileStore != nil {
		updater.WithFileStore(options.FileStore)
	}
	cmdCtx.updater = updater

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmdCtx.stderr, NoColor: color.NoColor}).
		Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.Errorf("%w: version argument is required", ErrConfiguration)
	}

	switch remaining[0] {
	case "scan":
		return scanCommand(ctx, cmdCtx, rootPath, *jsonOutput)
	case "validate":
		return validateCommand(ctx, cmdCtx, remaining[1:], *jsonOutput)
	default:
		return updateCommand(ctx, cmdCtx, remaining[0], rootPath, *dryRun, *jsonOutput)
	}
}

func ShowHelp(w io.Writer) error {
	help := `Since Updater - Replace @since placeholder tags with a release version

Usage:
  since-updater [OPTIONS] VERSION
  since-updater [OPTIONS] scan
  since-updater validate VERSION
  since-updater --mcp               Run as MCP server

Options:
  -h, --help             Show this help message
  -v, --verbose          Enable verbose output
  --version              Show the build version
  --dry-run              Preview changes without modifying files
  --json                 Output as JSON
  --root DIR             Root directory to scan (default: working directory)
  --pattern GLOB         Files to scan, relative to root (default: **/*.php)
  --config FILE          Path to configuration file
  --summary-path FILE    Release notes summary path (default: /tmp/since-tags-summary.md)
  --mcp                  Run as MCP server

Placeholders:
  @since todo, @since tbd, @since next-version    become  @since VERSION
  @next-version                                   becomes VERSION

Examples:
  since-updater 4.3.0
  since-updater --dry-run 4.3.0-beta.1
  since-updater --root="/path/to/plugin" --pattern="src/**/*.php" 4.3.0
  since-updater scan --json
  since-updater validate 4.3.0
  since-updater --mcp --config="/path/to/config.yaml"

For more information, visit: https://github.com/thrawn01/since-updater
`
	_, _ = fmt.Fprint(w, help)
	return nil
}

func updateCommand(ctx context.Context, cmdCtx *commandContext, version string, rootPath string, dryRun bool, jsonOutput bool) error {
	if dryRun && !jsonOutput {
		_, _ = fmt.Fprintln(cmdCtx.stdout, "DRY RUN MODE - No files will be modified")
	}
	if !jsonOutput {
		_, _ = color.New(color.FgBlue).Fprintf(cmdCtx.stdout, "\nUpdating %s placeholder tags...\n", cmdCtx.config.Tag)
	}

	result, err := cmdCtx.updater.UpdateAll(ctx, version, rootPath, cmdCtx.config.Pattern, dryRun)
	if err != nil {
		return err
	}

	output := updateOutput{
		BatchResult: result,
		Summary:     GenerateSummary(result, cmdCtx.config.Tag),
	}
	if output.Summary != "" && !dryRun {
		if err := WriteSummary(cmdCtx.config.SummaryPath, output.Summary); err != nil {
			return err
		}
		output.SummaryPath = cmdCtx.config.SummaryPath
	}

	if jsonOutput {
		if err := json.NewEncoder(cmdCtx.stdout).Encode(output); err != nil {
			return err
		}
	} else {
		printUpdateResult(cmdCtx, output)
	}

	if len(result.Errors) > 0 {
		return errors.Errorf("completed with %d errors", len(result.Errors))
	}

	return nil
}

func printUpdateResult(cmdCtx *commandContext, output updateOutput) {
	gray := color.New(color.FgHiBlack)

	if len(output.Updated) > 0 {
		_, _ = color.New(color.FgGreen).Fprintln(cmdCtx.stdout, "\n✓ Updated files:")
		for _, change := range output.Updated {
			_, _ = gray.Fprintf(cmdCtx.stdout, "  - %s (%d update%s)\n", change.Path, change.Count, plural(change.Count))
		}
		_, _ = color.New(color.FgGreen).Fprintf(cmdCtx.stdout, "\nTotal placeholders updated: %d\n", output.TotalUpdated)
	} else {
		_, _ = color.New(color.FgYellow).Fprintf(cmdCtx.stdout, "\nNo %s placeholder tags found\n", cmdCtx.config.Tag)
	}

	if len(output.Errors) > 0 {
		_, _ = color.New(color.FgRed).Fprintln(cmdCtx.stdout, "\n❌ Errors:")
		for _, fileErr := range output.Errors {
			_, _ = gray.Fprintf(cmdCtx.stdout, "  - %s: %s\n", fileErr.Path, fileErr.Message)
		}
	}

	if output.SummaryPath != "" {
		_, _ = color.New(color.FgBlue).Fprintf(cmdCtx.stdout, "\nSummary saved to: %s\n", output.SummaryPath)
	}
}

func scanCommand(ctx context.Context, cmdCtx *commandContext, rootPath string, jsonOutput bool) error {
	files, err := cmdCtx.updater.ScanAll(ctx, rootPath, cmdCtx.config.Pattern)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(files)
	}

	total := 0
	for _, file := range files {
		total += file.Count
	}

	_, _ = fmt.Fprintf(cmdCtx.stdout, "\nFound %d placeholder%s in %d file%s:\n", total, plural(total), len(files), plural(len(files)))
	for _, file := range files {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "  %s (%d)\n", file.Path, file.Count)
	}

	return nil
}

func validateCommand(ctx context.Context, cmdCtx *commandContext, args []string, jsonOutput bool) error {
	if len(args) == 0 {
		return errors.Errorf("%w: version argument is required", ErrConfiguration)
	}

	result := cmdCtx.updater.CheckVersion(ctx, args[0])

	if jsonOutput {
		if err := json.NewEncoder(cmdCtx.stdout).Encode(result); err != nil {
			return err
		}
	} else if result.IsValid {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "\n✓ %s: VALID\n", result.Version)
		if result.Prerelease != "" {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  Prerelease: %s\n", result.Prerelease)
		}
		for _, suggestion := range result.Suggestions {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  → %s\n", suggestion)
		}
	} else {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "\n✗ %s: INVALID\n", result.Version)
		for _, issue := range result.Issues {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  Issue: %s\n", issue)
		}
		for _, suggestion := range result.Suggestions {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  → %s\n", suggestion)
		}
	}

	if !result.IsValid {
		return errors.Errorf("%w: invalid version %q", ErrConfiguration, result.Version)
	}

	return nil
}
