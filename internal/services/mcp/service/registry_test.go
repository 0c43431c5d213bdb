package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/loda-lang/loda-mcp/internal/lodaapi"
	"github.com/loda-lang/loda-mcp/internal/services/mcp/domain"
)

func dispatchText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected tool result with content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestRegistryToolOrder(t *testing.T) {
	server := newTestServer(t)

	want := []string{
		"get_sequence",
		"search_sequences",
		"get_program",
		"eval_program",
		"export_program",
		"submit_program",
		"get_stats",
	}

	tools := server.Registry().Tools()
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for i, tool := range tools {
		if tool.Name != want[i] {
			t.Errorf("tool %d: expected %q, got %q", i, want[i], tool.Name)
		}
		if tool.Description == "" {
			t.Errorf("tool %q has no description", tool.Name)
		}
		if tool.InputSchema == nil {
			t.Errorf("tool %q has no input schema", tool.Name)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	server := newTestServer(t)

	_, err := server.Registry().Dispatch(context.Background(), "bogus_tool", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %T: %v", err, err)
	}
	if domainErr.Kind != domain.MethodNotFound {
		t.Errorf("expected MethodNotFound, got %v", domainErr.Kind)
	}
	if !strings.Contains(domainErr.Message, "bogus_tool") {
		t.Errorf("expected message to name the tool, got %q", domainErr.Message)
	}
}

func TestDispatchGetSequence(t *testing.T) {
	server := newTestServer(t)

	result, err := server.Registry().Dispatch(context.Background(), "get_sequence", map[string]any{
		"id": "A000045",
	})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	text := dispatchText(t, result)
	if !strings.Contains(text, "A000045") {
		t.Errorf("expected sequence ID in output, got %q", text)
	}
	if !strings.Contains(text, "Fibonacci numbers") {
		t.Errorf("expected sequence name in output, got %q", text)
	}
	if !strings.Contains(text, "0, 1, 1, 2, 3") {
		t.Errorf("expected terms in output, got %q", text)
	}

	structured, ok := result.StructuredContent.(domain.GetSequenceResult)
	if !ok {
		t.Fatalf("expected structured GetSequenceResult, got %T", result.StructuredContent)
	}
	if structured.ID != "A000045" {
		t.Errorf("expected structured ID A000045, got %q", structured.ID)
	}
}

func TestDispatchValidationError(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"malformed sequence ID", "get_sequence", map[string]any{"id": "12345"}},
		{"empty query", "search_sequences", map[string]any{"q": "  "}},
		{"limit below range", "search_sequences", map[string]any{"q": "primes", "limit": 0}},
		{"limit above range", "search_sequences", map[string]any{"q": "primes", "limit": 101}},
		{"negative skip", "search_sequences", map[string]any{"q": "primes", "skip": -1}},
		{"empty program code", "eval_program", map[string]any{"code": ""}},
		{"terms above range", "eval_program", map[string]any{"code": "mov $1,1", "terms": 1001}},
		{"missing export format", "export_program", map[string]any{"code": "mov $1,1"}},
		{"unknown export format", "export_program", map[string]any{"code": "mov $1,1", "format": "latex"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := server.Registry().Dispatch(context.Background(), tt.tool, tt.args)
			var domainErr *domain.Error
			if !errors.As(err, &domainErr) {
				t.Fatalf("expected domain error, got %T: %v", err, err)
			}
			if domainErr.Kind != domain.InvalidParams {
				t.Errorf("expected InvalidParams, got %v", domainErr.Kind)
			}
		})
	}
}

func TestDispatchMalformedArguments(t *testing.T) {
	server := newTestServer(t)

	_, err := server.Registry().Dispatch(context.Background(), "search_sequences", map[string]any{
		"q":     "primes",
		"limit": "ten",
	})
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %T: %v", err, err)
	}
	if domainErr.Kind != domain.InvalidParams {
		t.Errorf("expected InvalidParams, got %v", domainErr.Kind)
	}
	if !strings.Contains(domainErr.Message, "search_sequences") {
		t.Errorf("expected message to name the tool, got %q", domainErr.Message)
	}
}

func TestDispatchSearchNoResults(t *testing.T) {
	server := newTestServer(t)

	result, err := server.Registry().Dispatch(context.Background(), "search_sequences", map[string]any{
		"q": "nosuchthing",
	})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if got := dispatchText(t, result); got != "No results found." {
		t.Errorf("expected no-results sentinel, got %q", got)
	}
}

func TestDispatchUpstreamFailure(t *testing.T) {
	stub := newStubAPIServer(t)
	server, err := newServer(lodaapi.NewClientWithHTTP(stub.URL, stub.Client()))
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	stub.Close()

	_, dispatchErr := server.Registry().Dispatch(context.Background(), "get_stats", nil)
	var domainErr *domain.Error
	if !errors.As(dispatchErr, &domainErr) {
		t.Fatalf("expected domain error, got %T: %v", dispatchErr, dispatchErr)
	}
	if domainErr.Kind != domain.Internal {
		t.Errorf("expected Internal, got %v", domainErr.Kind)
	}
	if !strings.Contains(domainErr.Message, "get_stats") {
		t.Errorf("expected message to name the tool, got %q", domainErr.Message)
	}
}

func TestDispatchGetStatsNilArgs(t *testing.T) {
	server := newTestServer(t)

	result, err := server.Registry().Dispatch(context.Background(), "get_stats", nil)
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	text := dispatchText(t, result)
	if !strings.Contains(text, "373,000") {
		t.Errorf("expected grouped sequence count, got %q", text)
	}
	if !strings.Contains(text, "130,000") {
		t.Errorf("expected grouped program count, got %q", text)
	}
}
