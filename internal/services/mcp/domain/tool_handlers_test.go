package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/loda-lang/loda-mcp/internal/lodaapi"
)

type fakeSequenceAPI struct {
	sequence  lodaapi.Sequence
	search    lodaapi.SearchResult
	err       error
	lastID    string
	lastQuery string
	lastLimit int
	lastSkip  int
}

func (f *fakeSequenceAPI) GetSequence(_ context.Context, id string) (lodaapi.Sequence, error) {
	f.lastID = id
	return f.sequence, f.err
}

func (f *fakeSequenceAPI) SearchSequences(_ context.Context, q string, limit, skip int) (lodaapi.SearchResult, error) {
	f.lastQuery = q
	f.lastLimit = limit
	f.lastSkip = skip
	return f.search, f.err
}

type fakeProgramAPI struct {
	program    lodaapi.Program
	eval       lodaapi.Evaluation
	exported   string
	submission lodaapi.Submission
	err        error
	lastCode   string
	lastTerms  int
	lastFormat string
}

func (f *fakeProgramAPI) GetProgram(_ context.Context, id string) (lodaapi.Program, error) {
	return f.program, f.err
}

func (f *fakeProgramAPI) EvalProgram(_ context.Context, code string, terms int) (lodaapi.Evaluation, error) {
	f.lastCode = code
	f.lastTerms = terms
	return f.eval, f.err
}

func (f *fakeProgramAPI) ExportProgram(_ context.Context, code, format string) (string, error) {
	f.lastCode = code
	f.lastFormat = format
	return f.exported, f.err
}

func (f *fakeProgramAPI) SubmitProgram(_ context.Context, code, submitter string) (lodaapi.Submission, error) {
	f.lastCode = code
	return f.submission, f.err
}

type fakeStatsAPI struct {
	stats lodaapi.Stats
	err   error
}

func (f *fakeStatsAPI) GetStats(context.Context) (lodaapi.Stats, error) {
	return f.stats, f.err
}

func resultText(t *testing.T, toolResult *mcp.CallToolResult) string {
	t.Helper()
	if toolResult == nil {
		t.Fatal("expected non-nil tool result")
	}
	if len(toolResult.Content) == 0 {
		t.Fatal("expected tool result content")
	}
	text, ok := toolResult.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", toolResult.Content[0])
	}
	return text.Text
}

func fibonacciSequence() lodaapi.Sequence {
	return lodaapi.Sequence{
		ID:    "A000045",
		Name:  "Fibonacci numbers",
		Terms: []string{"0", "1", "1", "2", "3"},
	}
}

func TestGetSequenceHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := &fakeSequenceAPI{sequence: fibonacciSequence()}
		handler := GetSequenceHandler(api)
		toolResult, result, err := handler(context.Background(), nil, GetSequenceInput{ID: "A000045"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.lastID != "A000045" {
			t.Errorf("expected API call for A000045, got %q", api.lastID)
		}
		if result.ID != "A000045" || result.Name != "Fibonacci numbers" {
			t.Errorf("unexpected result: %+v", result)
		}

		text := resultText(t, toolResult)
		for _, want := range []string{"A000045", "Fibonacci numbers", "0, 1, 1, 2, 3"} {
			if !strings.Contains(text, want) {
				t.Errorf("expected rendered text to contain %q, got %q", want, text)
			}
		}
	})

	t.Run("renders keywords and author when present", func(t *testing.T) {
		seq := fibonacciSequence()
		seq.Keywords = []string{"core", "easy"}
		seq.Author = "N. J. A. Sloane"
		api := &fakeSequenceAPI{sequence: seq}
		toolResult, _, err := GetSequenceHandler(api)(context.Background(), nil, GetSequenceInput{ID: "A000045"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := resultText(t, toolResult)
		if !strings.Contains(text, "Keywords: core, easy") {
			t.Errorf("expected keywords line, got %q", text)
		}
		if !strings.Contains(text, "Author: N. J. A. Sloane") {
			t.Errorf("expected author line, got %q", text)
		}
	})

	t.Run("API error surfaces", func(t *testing.T) {
		api := &fakeSequenceAPI{err: fmt.Errorf("LODA API error: 500 Internal Server Error: boom")}
		_, _, err := GetSequenceHandler(api)(context.Background(), nil, GetSequenceInput{ID: "A000045"})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestGetSequenceInputValidate(t *testing.T) {
	if err := (GetSequenceInput{ID: "A000045"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (GetSequenceInput{ID: "nope"}).Validate(); err == nil {
		t.Error("expected error for malformed ID")
	}
}

func TestSearchSequencesHandler(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		api := &fakeSequenceAPI{search: lodaapi.SearchResult{
			Total:   2,
			Results: []lodaapi.Sequence{fibonacciSequence(), {ID: "A000001", Name: "Number of groups of order n"}},
		}}
		handler := SearchSequencesHandler(api)
		toolResult, result, err := handler(context.Background(), nil, SearchSequencesInput{Query: "core"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.lastQuery != "core" || api.lastLimit != 10 || api.lastSkip != 0 {
			t.Errorf("expected defaults q=core limit=10 skip=0, got q=%q limit=%d skip=%d",
				api.lastQuery, api.lastLimit, api.lastSkip)
		}
		if result.Total != 2 || len(result.Results) != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
		text := resultText(t, toolResult)
		if !strings.Contains(text, "A000045: Fibonacci numbers") {
			t.Errorf("expected hit line, got %q", text)
		}
	})

	t.Run("explicit pagination forwarded", func(t *testing.T) {
		api := &fakeSequenceAPI{}
		limit, skip := 25, 50
		_, _, err := SearchSequencesHandler(api)(context.Background(), nil, SearchSequencesInput{
			Query: "prime", Limit: &limit, Skip: &skip,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.lastLimit != 25 || api.lastSkip != 50 {
			t.Errorf("expected limit=25 skip=50, got limit=%d skip=%d", api.lastLimit, api.lastSkip)
		}
	})

	t.Run("zero hits renders the sentinel", func(t *testing.T) {
		api := &fakeSequenceAPI{search: lodaapi.SearchResult{Total: 0}}
		toolResult, result, err := SearchSequencesHandler(api)(context.Background(), nil, SearchSequencesInput{Query: "nosuchthing"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text := resultText(t, toolResult); text != "No results found." {
			t.Errorf("expected exact sentinel, got %q", text)
		}
		if result.Total != 0 {
			t.Errorf("expected total 0, got %d", result.Total)
		}
	})
}

func TestSearchSequencesInputValidate(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name    string
		input   SearchSequencesInput
		wantErr bool
	}{
		{"query only", SearchSequencesInput{Query: "core"}, false},
		{"empty query", SearchSequencesInput{Query: "  "}, true},
		{"limit in range", SearchSequencesInput{Query: "core", Limit: intPtr(100)}, false},
		{"limit zero", SearchSequencesInput{Query: "core", Limit: intPtr(0)}, true},
		{"limit too large", SearchSequencesInput{Query: "core", Limit: intPtr(101)}, true},
		{"negative skip", SearchSequencesInput{Query: "core", Skip: intPtr(-1)}, true},
		{"zero skip", SearchSequencesInput{Query: "core", Skip: intPtr(0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr {
				var domainErr *Error
				if !errors.As(err, &domainErr) || domainErr.Kind != InvalidParams {
					t.Errorf("expected InvalidParams, got %v", err)
				}
			}
		})
	}
}

func TestGetProgramHandler(t *testing.T) {
	api := &fakeProgramAPI{program: lodaapi.Program{
		ID:        "A000045",
		Name:      "Fibonacci numbers",
		Code:      "mov $1,1\nlpb $0\n  sub $0,1\nlpe",
		Submitter: "ada",
	}}
	toolResult, result, err := GetProgramHandler(api)(context.Background(), nil, GetProgramInput{ID: "A000045"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Code == "" || result.Submitter != "ada" {
		t.Errorf("unexpected result: %+v", result)
	}
	text := resultText(t, toolResult)
	if !strings.Contains(text, "lpb $0") {
		t.Errorf("expected program code in text, got %q", text)
	}
	if !strings.Contains(text, "Submitted by: ada") {
		t.Errorf("expected submitter line, got %q", text)
	}
}

func TestEvalProgramHandler(t *testing.T) {
	t.Run("default term count", func(t *testing.T) {
		api := &fakeProgramAPI{eval: lodaapi.Evaluation{Terms: []string{"0", "1", "1", "2", "3"}}}
		toolResult, result, err := EvalProgramHandler(api)(context.Background(), nil, EvalProgramInput{Code: "mov $0,1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.lastTerms != 8 {
			t.Errorf("expected default of 8 terms, got %d", api.lastTerms)
		}
		if len(result.Terms) != 5 {
			t.Errorf("unexpected result: %+v", result)
		}
		if text := resultText(t, toolResult); !strings.Contains(text, "0, 1, 1, 2, 3") {
			t.Errorf("expected joined terms, got %q", text)
		}
	})

	t.Run("explicit term count forwarded", func(t *testing.T) {
		api := &fakeProgramAPI{}
		terms := 20
		if _, _, err := EvalProgramHandler(api)(context.Background(), nil, EvalProgramInput{Code: "mov $0,1", Terms: &terms}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.lastTerms != 20 {
			t.Errorf("expected 20 terms, got %d", api.lastTerms)
		}
	})
}

func TestEvalProgramInputValidate(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	if err := (EvalProgramInput{Code: "mov $0,1"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (EvalProgramInput{Code: ""}).Validate(); err == nil {
		t.Error("expected error for empty code")
	}
	if err := (EvalProgramInput{Code: "mov $0,1", Terms: intPtr(0)}).Validate(); err == nil {
		t.Error("expected error for zero terms")
	}
	if err := (EvalProgramInput{Code: "mov $0,1", Terms: intPtr(1001)}).Validate(); err == nil {
		t.Error("expected error for terms above the cap")
	}
	if err := (EvalProgramInput{Code: "mov $0,1", Terms: intPtr(1000)}).Validate(); err != nil {
		t.Errorf("unexpected error at the cap: %v", err)
	}
}

func TestExportProgramHandler(t *testing.T) {
	api := &fakeProgramAPI{exported: "a(n) = fibonacci(n)"}
	toolResult, result, err := ExportProgramHandler(api)(context.Background(), nil, ExportProgramInput{
		Code: "mov $0,1", Format: "pari",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastFormat != "pari" {
		t.Errorf("expected format pari, got %q", api.lastFormat)
	}
	if result.Output != "a(n) = fibonacci(n)" {
		t.Errorf("unexpected result: %+v", result)
	}
	if text := resultText(t, toolResult); text != "a(n) = fibonacci(n)" {
		t.Errorf("expected raw exported text, got %q", text)
	}
}

func TestExportProgramInputValidate(t *testing.T) {
	for _, format := range []string{"loda", "formula", "pari"} {
		if err := (ExportProgramInput{Code: "mov $0,1", Format: format}).Validate(); err != nil {
			t.Errorf("unexpected error for format %q: %v", format, err)
		}
	}
	if err := (ExportProgramInput{Code: "mov $0,1", Format: "cobol"}).Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := (ExportProgramInput{Code: "", Format: "loda"}).Validate(); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestSubmitProgramHandler(t *testing.T) {
	api := &fakeProgramAPI{submission: lodaapi.Submission{Status: "queued", Message: "scheduled for validation"}}
	toolResult, result, err := SubmitProgramHandler(api)(context.Background(), nil, SubmitProgramInput{
		Code: "mov $0,1", Submitter: "ada",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "queued" {
		t.Errorf("unexpected result: %+v", result)
	}
	text := resultText(t, toolResult)
	if !strings.Contains(text, "queued") || !strings.Contains(text, "scheduled for validation") {
		t.Errorf("expected status and message, got %q", text)
	}
}

func TestGetStatsHandler(t *testing.T) {
	api := &fakeStatsAPI{stats: lodaapi.Stats{
		NumSequences: 373000,
		NumPrograms:  130000,
		NumFormulas:  60000,
	}}
	toolResult, result, err := GetStatsHandler(api)(context.Background(), nil, GetStatsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NumSequences != 373000 {
		t.Errorf("unexpected result: %+v", result)
	}
	text := resultText(t, toolResult)
	for _, want := range []string{"373,000", "130,000", "60,000"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected grouped digits %q, got %q", want, text)
		}
	}
}

func TestStatsResourceHandler(t *testing.T) {
	api := &fakeStatsAPI{stats: lodaapi.Stats{NumSequences: 7, NumPrograms: 5, NumFormulas: 3}}
	handler := StatsResourceHandler(api)
	res, err := handler(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "loda://stats"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("expected one content entry, got %d", len(res.Contents))
	}
	if res.Contents[0].MIMEType != "application/json" {
		t.Errorf("expected JSON MIME type, got %q", res.Contents[0].MIMEType)
	}
	if !strings.Contains(res.Contents[0].Text, "\"numSequences\": 7") {
		t.Errorf("expected stats payload, got %q", res.Contents[0].Text)
	}
}

func TestSequenceResourceHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := &fakeSequenceAPI{sequence: fibonacciSequence()}
		handler := SequenceResourceHandler(api)
		res, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "sequence://A000045"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.lastID != "A000045" {
			t.Errorf("expected lookup of A000045, got %q", api.lastID)
		}
		if !strings.Contains(res.Contents[0].Text, "Fibonacci numbers") {
			t.Errorf("expected sequence payload, got %q", res.Contents[0].Text)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		handler := SequenceResourceHandler(&fakeSequenceAPI{})
		if _, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "oeis://A000045"},
		}); err == nil {
			t.Fatal("expected error for wrong scheme")
		}
	})

	t.Run("malformed ID", func(t *testing.T) {
		handler := SequenceResourceHandler(&fakeSequenceAPI{})
		if _, err := handler(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "sequence://nope"},
		}); err == nil {
			t.Fatal("expected error for malformed ID")
		}
	})

	t.Run("missing URI", func(t *testing.T) {
		handler := SequenceResourceHandler(&fakeSequenceAPI{})
		if _, err := handler(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{}}); err == nil {
			t.Fatal("expected error for missing URI")
		}
	})
}
