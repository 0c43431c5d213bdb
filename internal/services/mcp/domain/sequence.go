package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/loda-lang/loda-mcp/internal/lodaapi"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100

	noResultsText = "No results found."
)

// GetSequenceInput represents the MCP tool input for fetching a sequence.
type GetSequenceInput struct {
	ID string `json:"id" jsonschema:"OEIS sequence identifier, e.g. A000045"`
}

// Validate rejects identifiers outside the canonical A-number form.
func (in GetSequenceInput) Validate() error {
	return ValidateSequenceID(in.ID)
}

// GetSequenceResult represents the MCP tool output for fetching a sequence.
type GetSequenceResult struct {
	ID       string   `json:"id" jsonschema:"sequence identifier"`
	Name     string   `json:"name" jsonschema:"sequence name"`
	Terms    []string `json:"terms" jsonschema:"leading terms as decimal strings"`
	Keywords []string `json:"keywords,omitempty" jsonschema:"OEIS keywords attached to the sequence"`
	Author   string   `json:"author,omitempty" jsonschema:"sequence author"`
}

// GetSequenceTool defines the MCP tool schema for fetching a sequence.
func GetSequenceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_sequence",
		Description: "Fetches an OEIS sequence by its A-number, including its name and leading terms.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Pattern:     SequenceIDPattern,
					Description: "OEIS sequence identifier, e.g. A000045",
				},
			},
			Required: []string{"id"},
		},
	}
}

// GetSequenceHandler executes a sequence lookup against the LODA API.
func GetSequenceHandler(api SequenceAPI) mcp.ToolHandlerFor[GetSequenceInput, GetSequenceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetSequenceInput) (*mcp.CallToolResult, GetSequenceResult, error) {
		seq, err := api.GetSequence(ctx, input.ID)
		if err != nil {
			return nil, GetSequenceResult{}, err
		}

		result := GetSequenceResult{
			ID:       seq.ID,
			Name:     seq.Name,
			Terms:    seq.Terms,
			Keywords: seq.Keywords,
			Author:   seq.Author,
		}
		return textResult(renderSequence(seq)), result, nil
	}
}

// SearchSequencesInput represents the MCP tool input for searching sequences.
// Limit and Skip are pointers so that an absent value and an explicit zero
// stay distinguishable: absence picks the default, zero fails validation.
type SearchSequencesInput struct {
	Query string `json:"q" jsonschema:"search terms matched against sequence names and keywords"`
	Limit *int   `json:"limit,omitempty" jsonschema:"maximum number of results (1-100, default 10)"`
	Skip  *int   `json:"skip,omitempty" jsonschema:"number of results to skip for pagination"`
}

// Validate enforces the query presence and pagination bounds.
func (in SearchSequencesInput) Validate() error {
	if strings.TrimSpace(in.Query) == "" {
		return InvalidParamsf("Search query q must not be empty")
	}
	if in.Limit != nil && (*in.Limit < 1 || *in.Limit > maxSearchLimit) {
		return InvalidParamsf("limit must be between 1 and %d, got %d", maxSearchLimit, *in.Limit)
	}
	if in.Skip != nil && *in.Skip < 0 {
		return InvalidParamsf("skip must not be negative, got %d", *in.Skip)
	}
	return nil
}

func (in SearchSequencesInput) limitOrDefault() int {
	if in.Limit == nil {
		return defaultSearchLimit
	}
	return *in.Limit
}

func (in SearchSequencesInput) skipOrDefault() int {
	if in.Skip == nil {
		return 0
	}
	return *in.Skip
}

// SequenceSummary is one search hit.
type SequenceSummary struct {
	ID   string `json:"id" jsonschema:"sequence identifier"`
	Name string `json:"name" jsonschema:"sequence name"`
}

// SearchSequencesResult represents the MCP tool output for a search.
type SearchSequencesResult struct {
	Total   int               `json:"total" jsonschema:"total number of matches in the corpus"`
	Results []SequenceSummary `json:"results" jsonschema:"matching sequences for the requested page"`
}

// SearchSequencesTool defines the MCP tool schema for searching sequences.
func SearchSequencesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_sequences",
		Description: "Searches OEIS sequences by name or keyword with paginated results.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"q": {
					Type:        "string",
					Description: "search terms matched against sequence names and keywords",
				},
				"limit": {
					Type:        "integer",
					Minimum:     schemaNumber(1),
					Maximum:     schemaNumber(maxSearchLimit),
					Description: "maximum number of results (default 10)",
				},
				"skip": {
					Type:        "integer",
					Minimum:     schemaNumber(0),
					Description: "number of results to skip for pagination",
				},
			},
			Required: []string{"q"},
		},
	}
}

// SearchSequencesHandler executes a sequence search against the LODA API.
func SearchSequencesHandler(api SequenceAPI) mcp.ToolHandlerFor[SearchSequencesInput, SearchSequencesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchSequencesInput) (*mcp.CallToolResult, SearchSequencesResult, error) {
		found, err := api.SearchSequences(ctx, input.Query, input.limitOrDefault(), input.skipOrDefault())
		if err != nil {
			return nil, SearchSequencesResult{}, err
		}

		result := SearchSequencesResult{
			Total:   found.Total,
			Results: make([]SequenceSummary, 0, len(found.Results)),
		}
		for _, seq := range found.Results {
			result.Results = append(result.Results, SequenceSummary{ID: seq.ID, Name: seq.Name})
		}
		return textResult(renderSearchResults(found)), result, nil
	}
}

func renderSequence(seq lodaapi.Sequence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", seq.ID, seq.Name)
	fmt.Fprintf(&b, "Terms: %s", strings.Join(seq.Terms, ", "))
	if len(seq.Keywords) > 0 {
		fmt.Fprintf(&b, "\nKeywords: %s", strings.Join(seq.Keywords, ", "))
	}
	if seq.Author != "" {
		fmt.Fprintf(&b, "\nAuthor: %s", seq.Author)
	}
	return b.String()
}

func renderSearchResults(found lodaapi.SearchResult) string {
	if len(found.Results) == 0 {
		return noResultsText
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching sequences, showing %d:", found.Total, len(found.Results))
	for _, seq := range found.Results {
		fmt.Fprintf(&b, "\n%s: %s", seq.ID, seq.Name)
	}
	return b.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func schemaNumber(v float64) *float64 {
	return &v
}
