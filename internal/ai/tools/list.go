package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mosS-Green/plugins/internal/ai"
)

func (t *Tools) myList(ctx context.Context, args map[string]any) (string, error) {
	userID, err := ai.Int64Arg(args, ai.CallerIdentityParam)
	if err != nil {
		return "", err
	}
	items, err := t.store.ListItems(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "Your list is empty.", nil
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		if item.Link != "" {
			lines = append(lines, fmt.Sprintf("%d. %s (Link: %s)", i+1, item.Text, item.Link))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item.Text))
		}
	}
	return strings.Join(lines, "\n"), nil
}
