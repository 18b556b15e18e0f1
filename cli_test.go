package sinceupdater_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sinceupdater "github.com/thrawn01/since-updater"
	"gitlab.com/tozd/go/errors"
)

func runCmd(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	err := sinceupdater.RunCmd(append([]string{"since-updater"}, args...), &sinceupdater.RunCmdOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return stdout.String(), err
}

func TestCLIIntegration(t *testing.T) {
	root := t.TempDir()
	copyFixtures(t, root)
	writeFiles(t, root, map[string]string{
		"src/Feature.php": "<?php\n/**\n * @since next-version\n * @deprecated @next-version Use something else.\n */",
	})
	summaryPath := filepath.Join(t.TempDir(), "since-tags-summary.md")

	output, err := runCmd("--root="+root, "--summary-path="+summaryPath, "4.3.0")
	require.NoError(t, err)

	assert.Contains(t, output, "Updated files:")
	assert.Contains(t, output, "automation-tests.php (3 updates)")
	assert.Contains(t, output, "constants.php (2 updates)")
	assert.Contains(t, output, "src/Feature.php (2 updates)")
	assert.Contains(t, output, "Total placeholders updated: 7")
	assert.Contains(t, output, "Summary saved to: "+summaryPath)
	assert.NotContains(t, output, "Errors:")

	feature := readFile(t, filepath.Join(root, "src", "Feature.php"))
	assert.Contains(t, feature, "@since 4.3.0")
	assert.Contains(t, feature, "@deprecated 4.3.0 Use something else.")

	summary := readFile(t, summaryPath)
	assert.Contains(t, summary, "### Since Tag Updates")
	assert.Contains(t, summary, "Updated 7 `@since` placeholders in the following files:")
	assert.Contains(t, summary, "- `src/Feature.php` (2 updates)")

	t.Run("NothingToUpdate", func(t *testing.T) {
		otherSummary := filepath.Join(t.TempDir(), "summary.md")
		output, err := runCmd("--root="+root, "--summary-path="+otherSummary, "4.3.0")
		require.NoError(t, err)
		assert.Contains(t, output, "No @since placeholder tags found")

		_, err = os.Stat(otherSummary)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestCLIPartialFailure(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.php": " * @since todo",
		"b.php": " * @since tbd",
	})
	summaryPath := filepath.Join(t.TempDir(), "since-tags-summary.md")

	var stdout, stderr bytes.Buffer
	err := sinceupdater.RunCmd([]string{"since-updater", "--root=" + root, "--summary-path=" + summaryPath, "3.0.0"}, &sinceupdater.RunCmdOptions{
		Stdout: &stdout,
		Stderr: &stderr,
		FileStore: func(root string) sinceupdater.FileStore {
			return &failingStore{
				FileStore:  sinceupdater.NewOSFileStore(root),
				failWrites: map[string]bool{"b.php": true},
			}
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completed with 1 errors")

	output := stdout.String()
	assert.Contains(t, output, "✓ Updated files:")
	assert.Contains(t, output, "a.php (1 update")
	assert.Contains(t, output, "❌ Errors:")
	assert.Contains(t, output, "Error updating b.php")
	assert.Contains(t, output, "Summary saved to: "+summaryPath)

	assert.Equal(t, " * @since 3.0.0", readFile(t, filepath.Join(root, "a.php")))
	assert.Equal(t, " * @since tbd", readFile(t, filepath.Join(root, "b.php")))

	summary := readFile(t, summaryPath)
	assert.Contains(t, summary, "- `a.php` (1 update)")
	assert.Contains(t, summary, "#### Errors")
	assert.Contains(t, summary, "- Failed to update `b.php`: Error updating b.php")
}

func TestCLICommands(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"plugin.php": " * @since todo",
	})

	tests := []struct {
		name        string
		args        []string
		expectError bool
		contains    string
	}{
		{
			name:     "Help",
			args:     []string{"-h"},
			contains: "Usage:",
		},
		{
			name:     "Version",
			args:     []string{"--version"},
			contains: sinceupdater.BuildVersion,
		},
		{
			name:     "Scan",
			args:     []string{"--root=" + root, "scan"},
			contains: "plugin.php (1)",
		},
		{
			name:     "ValidateValid",
			args:     []string{"validate", "4.3.0-beta.1"},
			contains: "VALID",
		},
		{
			name:        "ValidateInvalid",
			args:        []string{"validate", "4.3"},
			expectError: true,
			contains:    "Suggested: 4.3.0",
		},
		{
			name:        "ValidateMissingVersion",
			args:        []string{"validate"},
			expectError: true,
		},
		{
			name:        "MissingVersion",
			args:        []string{"--root=" + root},
			expectError: true,
		},
		{
			name:        "MalformedVersion",
			args:        []string{"--root=" + root, "4.3"},
			expectError: true,
		},
		{
			name:        "UnknownFlag",
			args:        []string{"--bogus", "4.3.0"},
			expectError: true,
		},
		{
			name:        "MissingConfig",
			args:        []string{"--config=" + filepath.Join(root, "missing.yaml"), "4.3.0"},
			expectError: true,
		},
		{
			name:     "DryRun",
			args:     []string{"--root=" + root, "--dry-run", "4.3.0"},
			contains: "DRY RUN MODE",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			output, err := runCmd(test.args...)
			if test.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if test.contains != "" {
				assert.Contains(t, output, test.contains)
			}
		})
	}

	assert.Equal(t, " * @since todo", readFile(t, filepath.Join(root, "plugin.php")))
}

func TestCLIMalformedVersionIsConfigurationError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"plugin.php": " * @since todo"})

	_, err := runCmd("--root="+root, "not-a-version")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sinceupdater.ErrConfiguration))
	assert.Equal(t, " * @since todo", readFile(t, filepath.Join(root, "plugin.php")))
}

func TestCLIJSONOutput(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.php": " * @since todo\n * '@next-version'",
	})
	summaryPath := filepath.Join(t.TempDir(), "summary.md")

	output, err := runCmd("--root="+root, "--summary-path="+summaryPath, "--json", "1.2.3")
	require.NoError(t, err)

	var decoded struct {
		Updated      []sinceupdater.FileChange `json:"updated"`
		TotalUpdated int                       `json:"total_updated"`
		Summary      string                    `json:"summary"`
		SummaryPath  string                    `json:"summary_path"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))

	assert.Equal(t, []sinceupdater.FileChange{{Path: "src/a.php", Updated: true, Count: 2}}, decoded.Updated)
	assert.Equal(t, 2, decoded.TotalUpdated)
	assert.Contains(t, decoded.Summary, "- `src/a.php` (2 updates)")
	assert.Equal(t, summaryPath, decoded.SummaryPath)
}

func TestCLICustomPattern(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.php":   " * @since todo",
		"tools/b.php": " * @since todo",
	})

	_, err := runCmd("--root="+root, "--pattern=src/**/*.php", "--summary-path="+filepath.Join(t.TempDir(), "s.md"), "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, " * @since 1.0.0", readFile(t, filepath.Join(root, "src", "a.php")))
	assert.Equal(t, " * @since todo", readFile(t, filepath.Join(root, "tools", "b.php")))
}

func TestMCPServerCapabilities(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"plugin.php": " * @since next-version\n * @deprecated @next-version",
	})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverDone := make(chan error, 1)
	go func() {
		options := &sinceupdater.RunCmdOptions{
			MCPTransport: serverTransport,
		}
		serverDone <- sinceupdater.RunCmd([]string{"since-updater", "--mcp"}, options)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() {
		_ = session.Close()
	}()

	require.NoError(t, session.Ping(ctx, nil))

	t.Run("ToolDiscovery", func(t *testing.T) {
		tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err)

		expectedTools := map[string]string{
			"update_since_tags": "Replace @since placeholder tags with a release version across a source tree",
			"scan_placeholders": "List files that still contain @since placeholder tags",
			"validate_version":  "Validate a release version string and suggest fixes",
		}

		assert.Len(t, tools.Tools, len(expectedTools))
		for _, tool := range tools.Tools {
			expectedDesc, expected := expectedTools[tool.Name]
			if assert.True(t, expected, "unexpected tool: %s", tool.Name) {
				assert.Equal(t, expectedDesc, tool.Description)
			}
		}
	})

	t.Run("ValidateVersion", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "validate_version",
			Arguments: map[string]any{"version": "4.3.0"},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
	})

	t.Run("ScanPlaceholdersNegativeLimit", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "scan_placeholders",
			Arguments: map[string]any{
				"root":        root,
				"max_results": -1,
			},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)

		select {
		case err := <-serverDone:
			t.Fatalf("server stopped: %v", err)
		default:
		}
		require.NoError(t, session.Ping(ctx, nil))
	})

	t.Run("UpdateSinceTags", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "update_since_tags",
			Arguments: map[string]any{
				"version": "4.3.0",
				"root":    root,
				"dry_run": false,
			},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, " * @since 4.3.0\n * @deprecated 4.3.0", readFile(t, filepath.Join(root, "plugin.php")))
	})
}
