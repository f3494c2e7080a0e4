// In file: internal/tools/search_tool.go
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// --- Web Search Tool Implementation ---

// SearchToolName is the function name the model calls.
const SearchToolName = "web_search"

// maxSearchResults bounds how many hits are returned to the model.
const maxSearchResults = 5

// SearchArgs are the arguments of web_search.
type SearchArgs struct {
	Query string `json:"query" jsonschema:"description=The search query, e.g. 'latest news about the Artemis program'."`
}

// SearchTool queries Google Programmable Search (Custom Search JSON API).
type SearchTool struct {
	service  *customsearch.Service
	engineID string
}

var _ ToolExecutor = (*SearchTool)(nil)

// NewSearchTool creates the tool. Both the API key and the search engine id are
// required; extra client options (endpoint, HTTP client) are appended after the key.
func NewSearchTool(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*SearchTool, error) {
	if apiKey == "" {
		return nil, errors.New("search API key cannot be empty")
	}
	if engineID == "" {
		return nil, errors.New("search engine id cannot be empty")
	}
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search client: %w", err)
	}
	return &SearchTool{service: svc, engineID: engineID}, nil
}

func (st *SearchTool) Definition() Tool {
	return NewFunctionTool(
		SearchToolName,
		"Searches the web and returns the top results (title, link and snippet). Use it for recent events or facts you are unsure about.",
		stringParam("query", "The search query."),
	)
}

func (st *SearchTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args SearchArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", SearchToolName, err)
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "Error: Search query cannot be empty.", nil
	}

	resp, err := st.service.Cse.List().
		Cx(st.engineID).
		Q(query).
		Num(maxSearchResults).
		Context(ctx).
		Do()
	if err != nil {
		// Reported to the model as text so it can answer without the search.
		return fmt.Sprintf("Error: web search failed: %v", err), nil
	}

	if len(resp.Items) == 0 {
		return fmt.Sprintf("No web results found for %q.", query), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Top %d results for %q:\n", min(len(resp.Items), maxSearchResults), query)
	for i, item := range resp.Items {
		if i == maxSearchResults {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, item.Title, item.Link, strings.TrimSpace(item.Snippet))
	}
	return sb.String(), nil
}
