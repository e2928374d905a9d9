package pipeline

import (
	"fmt"
	"os"

	"github.com/aluiziolira/go-webstore-lister/models"
)

// AppendGitHubOutputs appends run counters as key=value lines to the file
// named by path (normally $GITHUB_OUTPUT). This is a CI side channel only;
// the JSON artifact is the real output.
func AppendGitHubOutputs(path, outputFile string, itemCount int, stats models.RunStats) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open github output file: %w", err)
	}
	defer f.Close()

	lines := []struct {
		key   string
		value any
	}{
		{"items_count", itemCount},
		{"output_file", outputFile},
		{"total_shards", stats.TotalShards},
		{"failed_shards", stats.FailedShards},
		{"total_urls", stats.TotalURLs},
		{"invalid_urls", stats.InvalidURLs},
		{"failed_extractions", stats.FailedExtracts},
		{"duplicate_items", stats.DuplicateItems},
	}

	for _, line := range lines {
		if _, err := fmt.Fprintf(f, "%s=%v\n", line.key, line.value); err != nil {
			return fmt.Errorf("write github output: %w", err)
		}
	}
	return nil
}
