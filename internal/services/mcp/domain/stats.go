package domain

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/loda-lang/loda-mcp/internal/lodaapi"
)

// statsPrinter renders grouped digits, 373,000 instead of 373000.
var statsPrinter = message.NewPrinter(language.English)

// GetStatsInput represents the MCP tool input for project statistics.
// The tool takes no arguments.
type GetStatsInput struct{}

// Validate always succeeds; the tool has no arguments to check.
func (GetStatsInput) Validate() error {
	return nil
}

// GetStatsResult represents the MCP tool output for project statistics.
type GetStatsResult struct {
	NumSequences int64 `json:"numSequences" jsonschema:"total sequences in the corpus"`
	NumPrograms  int64 `json:"numPrograms" jsonschema:"total programs in the corpus"`
	NumFormulas  int64 `json:"numFormulas" jsonschema:"total known closed-form formulas"`
}

// GetStatsTool defines the MCP tool schema for project statistics.
func GetStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_stats",
		Description: "Reports project-wide totals: sequences, programs, and formulas.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
		},
	}
}

// GetStatsHandler fetches project statistics from the LODA API.
func GetStatsHandler(api StatsAPI) mcp.ToolHandlerFor[GetStatsInput, GetStatsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GetStatsInput) (*mcp.CallToolResult, GetStatsResult, error) {
		stats, err := api.GetStats(ctx)
		if err != nil {
			return nil, GetStatsResult{}, err
		}

		result := GetStatsResult{
			NumSequences: stats.NumSequences,
			NumPrograms:  stats.NumPrograms,
			NumFormulas:  stats.NumFormulas,
		}
		return textResult(renderStats(stats)), result, nil
	}
}

func renderStats(stats lodaapi.Stats) string {
	var b strings.Builder
	b.WriteString("LODA project statistics:")
	statsPrinter.Fprintf(&b, "\nSequences: %d", stats.NumSequences)
	statsPrinter.Fprintf(&b, "\nPrograms: %d", stats.NumPrograms)
	statsPrinter.Fprintf(&b, "\nFormulas: %d", stats.NumFormulas)
	return b.String()
}
