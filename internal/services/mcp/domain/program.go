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
	defaultEvalTerms = 8
	maxEvalTerms     = 1000
)

// ExportFormats are the program representations the export endpoint offers.
var ExportFormats = []string{"loda", "formula", "pari"}

// GetProgramInput represents the MCP tool input for fetching a program.
type GetProgramInput struct {
	ID string `json:"id" jsonschema:"OEIS sequence identifier of the program, e.g. A000045"`
}

// Validate rejects identifiers outside the canonical A-number form.
func (in GetProgramInput) Validate() error {
	return ValidateSequenceID(in.ID)
}

// GetProgramResult represents the MCP tool output for fetching a program.
type GetProgramResult struct {
	ID        string `json:"id" jsonschema:"sequence identifier"`
	Name      string `json:"name" jsonschema:"sequence name"`
	Code      string `json:"code" jsonschema:"LODA assembly source"`
	Submitter string `json:"submitter,omitempty" jsonschema:"who contributed the program"`
}

// GetProgramTool defines the MCP tool schema for fetching a program.
func GetProgramTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_program",
		Description: "Fetches the LODA program computing a sequence, identified by its A-number.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Pattern:     SequenceIDPattern,
					Description: "OEIS sequence identifier of the program, e.g. A000045",
				},
			},
			Required: []string{"id"},
		},
	}
}

// GetProgramHandler executes a program lookup against the LODA API.
func GetProgramHandler(api ProgramAPI) mcp.ToolHandlerFor[GetProgramInput, GetProgramResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetProgramInput) (*mcp.CallToolResult, GetProgramResult, error) {
		program, err := api.GetProgram(ctx, input.ID)
		if err != nil {
			return nil, GetProgramResult{}, err
		}

		result := GetProgramResult{
			ID:        program.ID,
			Name:      program.Name,
			Code:      program.Code,
			Submitter: program.Submitter,
		}
		return textResult(renderProgram(program)), result, nil
	}
}

// EvalProgramInput represents the MCP tool input for evaluating a program.
// Terms is a pointer so an absent value picks the default while an explicit
// zero fails validation.
type EvalProgramInput struct {
	Code  string `json:"code" jsonschema:"LODA assembly source to evaluate"`
	Terms *int   `json:"terms,omitempty" jsonschema:"number of terms to compute (1-1000, default 8)"`
}

// Validate enforces source presence and the term-count bounds.
func (in EvalProgramInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return InvalidParamsf("Program code must not be empty")
	}
	if in.Terms != nil && (*in.Terms < 1 || *in.Terms > maxEvalTerms) {
		return InvalidParamsf("terms must be between 1 and %d, got %d", maxEvalTerms, *in.Terms)
	}
	return nil
}

func (in EvalProgramInput) termsOrDefault() int {
	if in.Terms == nil {
		return defaultEvalTerms
	}
	return *in.Terms
}

// EvalProgramResult represents the MCP tool output for an evaluation.
type EvalProgramResult struct {
	Terms []string `json:"terms" jsonschema:"computed terms as decimal strings"`
}

// EvalProgramTool defines the MCP tool schema for evaluating a program.
func EvalProgramTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "eval_program",
		Description: "Evaluates LODA assembly source remotely and returns the computed terms.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {
					Type:        "string",
					Description: "LODA assembly source to evaluate",
				},
				"terms": {
					Type:        "integer",
					Minimum:     schemaNumber(1),
					Maximum:     schemaNumber(maxEvalTerms),
					Description: "number of terms to compute (default 8)",
				},
			},
			Required: []string{"code"},
		},
	}
}

// EvalProgramHandler executes a remote evaluation against the LODA API.
func EvalProgramHandler(api ProgramAPI) mcp.ToolHandlerFor[EvalProgramInput, EvalProgramResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EvalProgramInput) (*mcp.CallToolResult, EvalProgramResult, error) {
		eval, err := api.EvalProgram(ctx, input.Code, input.termsOrDefault())
		if err != nil {
			return nil, EvalProgramResult{}, err
		}

		result := EvalProgramResult{Terms: eval.Terms}
		return textResult("Terms: " + strings.Join(eval.Terms, ", ")), result, nil
	}
}

// ExportProgramInput represents the MCP tool input for exporting a program.
type ExportProgramInput struct {
	Code   string `json:"code" jsonschema:"LODA assembly source to export"`
	Format string `json:"format" jsonschema:"target representation: loda, formula, or pari"`
}

// Validate enforces source presence and a known target format.
func (in ExportProgramInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return InvalidParamsf("Program code must not be empty")
	}
	for _, format := range ExportFormats {
		if in.Format == format {
			return nil
		}
	}
	return InvalidParamsf("format must be one of %s, got %q", strings.Join(ExportFormats, ", "), in.Format)
}

// ExportProgramResult represents the MCP tool output for an export.
type ExportProgramResult struct {
	Format string `json:"format" jsonschema:"representation the program was exported to"`
	Output string `json:"output" jsonschema:"exported program text"`
}

// ExportProgramTool defines the MCP tool schema for exporting a program.
func ExportProgramTool() *mcp.Tool {
	formats := make([]any, 0, len(ExportFormats))
	for _, format := range ExportFormats {
		formats = append(formats, format)
	}
	return &mcp.Tool{
		Name:        "export_program",
		Description: "Converts LODA assembly source to another representation such as a formula or PARI/GP code.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {
					Type:        "string",
					Description: "LODA assembly source to export",
				},
				"format": {
					Type:        "string",
					Enum:        formats,
					Description: "target representation",
				},
			},
			Required: []string{"code", "format"},
		},
	}
}

// ExportProgramHandler executes a remote export against the LODA API.
func ExportProgramHandler(api ProgramAPI) mcp.ToolHandlerFor[ExportProgramInput, ExportProgramResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExportProgramInput) (*mcp.CallToolResult, ExportProgramResult, error) {
		output, err := api.ExportProgram(ctx, input.Code, input.Format)
		if err != nil {
			return nil, ExportProgramResult{}, err
		}

		result := ExportProgramResult{Format: input.Format, Output: output}
		return textResult(output), result, nil
	}
}

// SubmitProgramInput represents the MCP tool input for submitting a program.
type SubmitProgramInput struct {
	Code      string `json:"code" jsonschema:"LODA assembly source to submit"`
	Submitter string `json:"submitter,omitempty" jsonschema:"optional name credited for the submission"`
}

// Validate enforces source presence.
func (in SubmitProgramInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return InvalidParamsf("Program code must not be empty")
	}
	return nil
}

// SubmitProgramResult represents the MCP tool output for a submission.
type SubmitProgramResult struct {
	Status  string `json:"status" jsonschema:"submission status reported by the API"`
	Message string `json:"message,omitempty" jsonschema:"additional detail from the API"`
}

// SubmitProgramTool defines the MCP tool schema for submitting a program.
func SubmitProgramTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "submit_program",
		Description: "Submits LODA assembly source for validation and inclusion in the corpus.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {
					Type:        "string",
					Description: "LODA assembly source to submit",
				},
				"submitter": {
					Type:        "string",
					Description: "optional name credited for the submission",
				},
			},
			Required: []string{"code"},
		},
	}
}

// SubmitProgramHandler executes a submission against the LODA API.
func SubmitProgramHandler(api ProgramAPI) mcp.ToolHandlerFor[SubmitProgramInput, SubmitProgramResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SubmitProgramInput) (*mcp.CallToolResult, SubmitProgramResult, error) {
		submission, err := api.SubmitProgram(ctx, input.Code, input.Submitter)
		if err != nil {
			return nil, SubmitProgramResult{}, err
		}

		result := SubmitProgramResult{Status: submission.Status, Message: submission.Message}
		return textResult(renderSubmission(submission)), result, nil
	}
}

func renderProgram(program lodaapi.Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", program.ID, program.Name)
	if program.Submitter != "" {
		fmt.Fprintf(&b, "Submitted by: %s\n", program.Submitter)
	}
	fmt.Fprintf(&b, "\n%s", program.Code)
	return b.String()
}

func renderSubmission(submission lodaapi.Submission) string {
	text := fmt.Sprintf("Submission status: %s", submission.Status)
	if submission.Message != "" {
		text += "\n" + submission.Message
	}
	return text
}
