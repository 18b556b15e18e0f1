package sinceupdater

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gitlab.com/tozd/go/errors"
)

// Parameter structures for MCP tools
type UpdateSinceTagsParams struct {
	Version string `json:"version"`
	Root    string `json:"root"`
	Pattern string `json:"pattern,omitempty"`
	DryRun  bool   `json:"dry_run"`
}

type ScanPlaceholdersParams struct {
	Root       string `json:"root"`
	Pattern    string `json:"pattern,omitempty"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type ValidateVersionParams struct {
	Version string `json:"version"`
}

type UpdateSinceTagsResult struct {
	*BatchResult
	Summary string `json:"summary,omitempty"`
}

// Tool handler functions
func UpdateSinceTagsTool(ctx context.Context, req *mcp.CallToolRequest, args UpdateSinceTagsParams, updater Updater, config *Config) (*mcp.CallToolResult, any, error) {
	result, err := updater.UpdateAll(ctx, args.Version, args.Root, args.Pattern, args.DryRun)
	if err != nil {
		return nil, nil, errors.Errorf("failed to update placeholders: %w", err)
	}

	return nil, UpdateSinceTagsResult{
		BatchResult: result,
		Summary:     GenerateSummary(result, config.Tag),
	}, nil
}

func ScanPlaceholdersTool(ctx context.Context, req *mcp.CallToolRequest, args ScanPlaceholdersParams, updater Updater) (*mcp.CallToolResult, any, error) {
	result, err := updater.ScanAll(ctx, args.Root, args.Pattern)
	if err != nil {
		return nil, nil, errors.Errorf("failed to scan placeholders: %w", err)
	}

	// A negative limit means no limit.
	if args.MaxResults != nil && *args.MaxResults >= 0 && len(result) > *args.MaxResults {
		result = result[:*args.MaxResults]
	}

	return nil, result, nil
}

func ValidateVersionTool(ctx context.Context, req *mcp.CallToolRequest, args ValidateVersionParams, updater Updater) (*mcp.CallToolResult, any, error) {
	return nil, updater.CheckVersion(ctx, args.Version), nil
}

// RunMCPServer starts the MCP server implementation using the official Go SDK
// If transport is nil, it will use stdio transport
func RunMCPServer(configPath string, transport *mcp.InMemoryTransport) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return errors.Errorf("failed to load config: %w", err)
	}

	updater, err := NewDefaultUpdater(config)
	if err != nil {
		return errors.Errorf("failed to create updater: %w", err)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "since-updater",
		Version: BuildVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_since_tags",
		Description: "Replace @since placeholder tags with a release version across a source tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args UpdateSinceTagsParams) (*mcp.CallToolResult, any, error) {
		return UpdateSinceTagsTool(ctx, req, args, updater, config)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_placeholders",
		Description: "List files that still contain @since placeholder tags",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ScanPlaceholdersParams) (*mcp.CallToolResult, any, error) {
		return ScanPlaceholdersTool(ctx, req, args, updater)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_version",
		Description: "Validate a release version string and suggest fixes",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ValidateVersionParams) (*mcp.CallToolResult, any, error) {
		return ValidateVersionTool(ctx, req, args, updater)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if transport != nil {
		return server.Run(ctx, transport)
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}
