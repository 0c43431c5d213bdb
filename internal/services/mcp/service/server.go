package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/loda-lang/loda-mcp/internal/lodaapi"
	"github.com/loda-lang/loda-mcp/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "LODA MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over HTTP/SSE for browser or remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	// APIBaseURL is the LODA API base URL. Empty selects the production API.
	APIBaseURL string
	Transport  TransportKind
	HTTPAddr   string // HTTP server address (e.g., "localhost:8081"). Defaults to localhost:8081 for HTTP transport.
}

// Server hosts the MCP server and the tool registry behind it.
type Server struct {
	mcpServer *mcp.Server
	registry  *Registry
	api       *lodaapi.Client
}

type mcpRegistrationModule struct {
	name     string
	register func(*Server) error
}

const (
	mcpSequenceToolsModuleName    = "sequence-tools"
	mcpProgramToolsModuleName     = "program-tools"
	mcpStatsToolsModuleName       = "stats-tools"
	mcpSequenceResourceModuleName = "sequence-resources"
	mcpStatsResourceModuleName    = "stats-resources"
)

func newMCPRegistrationModules() []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{name: mcpSequenceToolsModuleName, register: registerSequenceTools},
		{name: mcpProgramToolsModuleName, register: registerProgramTools},
		{name: mcpStatsToolsModuleName, register: registerStatsTools},
		{name: mcpSequenceResourceModuleName, register: registerSequenceResources},
		{name: mcpStatsResourceModuleName, register: registerStatsResources},
	}
}

// New creates a configured MCP server backed by the LODA API at apiBaseURL.
func New(apiBaseURL string) (*Server, error) {
	return newServer(lodaapi.NewClient(apiBaseURL))
}

// newServer creates MCP tool/resource bindings once over the given API client.
func newServer(api *lodaapi.Client) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	server := &Server{
		mcpServer: mcpServer,
		registry:  NewRegistry(),
		api:       api,
	}
	for _, module := range newMCPRegistrationModules() {
		if err := module.register(server); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return server, nil
}

// Registry exposes the tool table, primarily for listing tools in order.
func (s *Server) Registry() *Registry {
	return s.registry
}

// completionHandler handles completion/complete requests with empty results.
// Sequence names and program formats have no completion model yet, so clients
// get a predictable empty list instead of guesses.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// registerTool places a tool in the registry and binds it into the MCP
// server so protocol calls flow through Registry.Dispatch.
func registerTool[I validatable, O any](s *Server, tool *mcp.Tool, handler mcp.ToolHandlerFor[I, O]) error {
	if err := s.registry.add(newToolRegistration(tool, handler)); err != nil {
		return err
	}
	bindTool(s, tool)
	return nil
}

// bindTool registers the dispatch path for one tool with the MCP runtime.
// The SDK hands over decoded arguments as a map; dispatch turns them into
// the typed input the domain handler expects. Dispatch failures become
// structured JSON-RPC errors so clients see the error kind's code instead
// of an opaque tool-result error.
func bindTool(s *Server, tool *mcp.Tool) {
	name := tool.Name
	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		result, err := s.registry.Dispatch(ctx, name, args)
		if err != nil {
			return nil, nil, wireError(err)
		}
		return result, result.StructuredContent, nil
	})
}

// wireError maps a dispatch failure onto the JSON-RPC error object the
// protocol layer reports verbatim.
func wireError(err error) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return &jsonrpc.Error{
			Code:    int64(domainErr.Kind.Code()),
			Message: domainErr.Message,
		}
	}
	return err
}
