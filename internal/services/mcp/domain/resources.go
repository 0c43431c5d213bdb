package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const sequenceURIPrefix = "sequence://"

// StatsResource describes the readable project-statistics resource.
func StatsResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "loda_stats",
		Title:       "LODA Statistics",
		Description: "Readable project-wide totals: sequences, programs, formulas",
		MIMEType:    "application/json",
		URI:         "loda://stats",
	}
}

// StatsResourceHandler serves the project-statistics resource.
func StatsResourceHandler(api StatsAPI) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if api == nil {
			return nil, fmt.Errorf("stats client is not configured")
		}

		stats, err := api.GetStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("stats lookup failed: %w", err)
		}

		payload := GetStatsResult{
			NumSequences: stats.NumSequences,
			NumPrograms:  stats.NumPrograms,
			NumFormulas:  stats.NumFormulas,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal stats: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      req.Params.URI,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

// SequenceResourceTemplate describes the per-sequence resource family.
func SequenceResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "sequence",
		Title:       "Sequence",
		Description: "Readable OEIS sequence data. URI format: sequence://{id}",
		MIMEType:    "application/json",
		URITemplate: "sequence://{id}",
	}
}

// SequenceResourceHandler serves a sequence resource addressed by A-number.
func SequenceResourceHandler(api SequenceAPI) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if api == nil {
			return nil, fmt.Errorf("sequence client is not configured")
		}

		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("sequence ID is required; use URI format sequence://{id}")
		}
		uri := req.Params.URI

		id, err := parseSequenceIDFromURI(uri)
		if err != nil {
			return nil, fmt.Errorf("parse sequence ID from URI: %w", err)
		}

		seq, err := api.GetSequence(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("sequence lookup failed: %w", err)
		}

		payload := GetSequenceResult{
			ID:       seq.ID,
			Name:     seq.Name,
			Terms:    seq.Terms,
			Keywords: seq.Keywords,
			Author:   seq.Author,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal sequence: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

func parseSequenceIDFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, sequenceURIPrefix) {
		return "", fmt.Errorf("URI %q does not use the %s scheme", uri, sequenceURIPrefix)
	}
	id := strings.TrimPrefix(uri, sequenceURIPrefix)
	if err := ValidateSequenceID(id); err != nil {
		return "", err
	}
	return id, nil
}
