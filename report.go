package sinceupdater

import (
	"fmt"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// GenerateSummary renders a batch result as a markdown section for release
// notes. It returns an empty string when nothing was updated.
func GenerateSummary(result *BatchResult, tag string) string {
	if result == nil || result.TotalUpdated == 0 {
		return ""
	}

	var summary strings.Builder
	summary.WriteString("### Since Tag Updates\n\n")
	_, _ = fmt.Fprintf(&summary, "Updated %d `%s` placeholder%s in the following files:\n\n",
		result.TotalUpdated, tag, plural(result.TotalUpdated))

	for _, change := range result.Updated {
		_, _ = fmt.Fprintf(&summary, "- `%s` (%d update%s)\n", change.Path, change.Count, plural(change.Count))
	}

	if len(result.Errors) > 0 {
		summary.WriteString("\n#### Errors\n\n")
		for _, fileErr := range result.Errors {
			_, _ = fmt.Fprintf(&summary, "- Failed to update `%s`: %s\n", fileErr.Path, fileErr.Message)
		}
	}

	return summary.String()
}

func WriteSummary(path string, summary string) error {
	if err := os.WriteFile(path, []byte(summary), DefaultFilePermissions); err != nil {
		return errors.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func plural(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
