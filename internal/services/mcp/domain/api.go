package domain

import (
	"context"

	"github.com/loda-lang/loda-mcp/internal/lodaapi"
)

// SequenceAPI is the slice of the LODA API that sequence tools need.
type SequenceAPI interface {
	GetSequence(ctx context.Context, id string) (lodaapi.Sequence, error)
	SearchSequences(ctx context.Context, q string, limit, skip int) (lodaapi.SearchResult, error)
}

// ProgramAPI is the slice of the LODA API that program tools need.
type ProgramAPI interface {
	GetProgram(ctx context.Context, id string) (lodaapi.Program, error)
	EvalProgram(ctx context.Context, code string, terms int) (lodaapi.Evaluation, error)
	ExportProgram(ctx context.Context, code, format string) (string, error)
	SubmitProgram(ctx context.Context, code, submitter string) (lodaapi.Submission, error)
}

// StatsAPI reports project-wide totals.
type StatsAPI interface {
	GetStats(ctx context.Context) (lodaapi.Stats, error)
}
