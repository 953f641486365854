package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mosS-Green/plugins/internal/ai"
)

func (t *Tools) webSearch(ctx context.Context, args map[string]any) (string, error) {
	maxResults := 5
	if n, err := ai.Int64Arg(args, "max_results"); err == nil {
		maxResults = min(max(int(n), 3), 10)
	}

	results, err := t.search.Text(ctx, ai.StringArg(args, "query"), "", ai.StringArg(args, "time_limit"), maxResults)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "Not found", nil
	}

	list := make([]string, 0, len(results))
	for i, result := range results {
		list = append(list, fmt.Sprintf("%d. Title: %s\nDescription: %s\nLink: %s", i+1, result.Title, result.Body, result.Href))
	}
	return fmt.Sprintf(
		"Found %d results. To get detailed content from a specific result, use the %s tool with one of the links below.\n\n%s",
		len(results), ToolFetchURL, strings.Join(list, "\n\n"),
	), nil
}
