package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/loda-lang/loda-mcp/internal/services/mcp/domain"
)

// validatable is the contract every tool input carries: semantic checks
// beyond what the JSON schema expresses.
type validatable interface {
	Validate() error
}

// toolRegistration binds a tool descriptor to a type-erased invoker.
// invoke decodes untyped arguments into the handler's input type, so
// handlers themselves never see raw maps.
type toolRegistration struct {
	tool   *mcp.Tool
	invoke func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)
}

// Registry holds the tool table in registration order.
type Registry struct {
	order []string
	tools map[string]toolRegistration
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]toolRegistration)}
}

func (r *Registry) add(reg toolRegistration) error {
	if reg.tool == nil || reg.tool.Name == "" {
		return fmt.Errorf("tool registration requires a named tool")
	}
	name := reg.tool.Name
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.order = append(r.order, name)
	r.tools[name] = reg
	return nil
}

// Tools returns the registered tool descriptors in registration order.
func (r *Registry) Tools() []*mcp.Tool {
	tools := make([]*mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].tool)
	}
	return tools
}

// Dispatch routes a tool call by name. Every failure leaving this method
// is a *domain.Error: unknown names map to MethodNotFound, argument
// problems to InvalidParams, and anything else to an internal error
// naming the tool.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	reg, ok := r.tools[name]
	if !ok {
		return nil, domain.MethodNotFoundf("Unknown tool: %s", name)
	}
	result, err := reg.invoke(ctx, args)
	if err != nil {
		return nil, domain.Normalize(name, err)
	}
	return result, nil
}

// newToolRegistration adapts a typed domain handler into the registry's
// type-erased invoker. The structured output is attached to the result so
// both transports report the same machine-readable payload.
func newToolRegistration[I validatable, O any](tool *mcp.Tool, handler mcp.ToolHandlerFor[I, O]) toolRegistration {
	return toolRegistration{
		tool: tool,
		invoke: func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			var input I
			data, err := json.Marshal(args)
			if err != nil {
				return nil, domain.InvalidParamsf("Invalid arguments for %s: %v", tool.Name, err)
			}
			if err := json.Unmarshal(data, &input); err != nil {
				return nil, domain.InvalidParamsf("Invalid arguments for %s: %v", tool.Name, err)
			}
			if err := input.Validate(); err != nil {
				return nil, err
			}

			result, output, err := handler(ctx, nil, input)
			if err != nil {
				return nil, err
			}
			if result == nil {
				result = &mcp.CallToolResult{}
			}
			result.StructuredContent = output
			return result, nil
		},
	}
}
