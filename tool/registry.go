package tool

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/event"
)

// registeredTool combines a tool definition with its handler.
type registeredTool struct {
	tool    synphora.Tool
	handler Handler
}

// Registry maps tool names to handlers. It is built once at startup and
// is safe for concurrent use by many runs.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]registeredTool),
	}
}

// Register adds a tool with its handler to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(tool synphora.Tool, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: tool.Name}
	}
	r.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tool synphora.Tool, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Get retrieves a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.handler, true
}

// GetTool retrieves a tool definition by name.
func (r *Registry) GetTool(name string) (synphora.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return rt.tool, ok
}

// Tools returns every tool signature sorted by name, the order in which
// they are advertised to the model.
func (r *Registry) Tools() []synphora.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]synphora.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	slices.SortFunc(tools, func(a, b synphora.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tools
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch runs the handler registered for call.Name.
//
// It returns *ErrToolNotFound without running anything when the name is
// unknown, and wraps every handler failure in *ErrToolExecution.
func (r *Registry) Dispatch(ctx context.Context, call synphora.ToolCall, emit event.Emitter) (string, error) {
	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return "", &ErrToolNotFound{Name: call.Name}
	}
	if emit == nil {
		emit = event.Discard
	}

	result, err := rt.handler(ctx, call, emit)
	if err != nil {
		return "", &ErrToolExecution{Name: call.Name, Err: err}
	}
	return result, nil
}

// Registration holds a tool and its handler for fluent registration.
type Registration struct {
	Tool    synphora.Tool
	Handler Handler
}

// Func creates a Registration whose schema is generated from T and whose
// arguments are decoded into T before fn runs.
// Panics if schema generation fails.
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	return Registration{
		Tool: synphora.Tool{
			Name:        name,
			Description: description,
			Parameters:  MustSchemaFor[T](),
		},
		Handler: typed(fn),
	}
}

// RegisterFunc registers a typed handler, see Func.
func RegisterFunc[T any](r *Registry, name, description string, fn TypedHandler[T]) error {
	schema, err := SchemaFor[T]()
	if err != nil {
		return err
	}
	return r.Register(synphora.Tool{Name: name, Description: description, Parameters: schema}, typed(fn))
}

// WithHandler creates a Registration from a Handler and schema.
func WithHandler(name, description string, schema json.RawMessage, h Handler) Registration {
	return Registration{
		Tool:    synphora.Tool{Name: name, Description: description, Parameters: schema},
		Handler: h,
	}
}

// Add registers one or more tools to the registry.
// Panics if any tool is already registered.
// Returns the registry for fluent chaining.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}

func typed[T any](fn TypedHandler[T]) Handler {
	return func(ctx context.Context, call synphora.ToolCall, emit event.Emitter) (string, error) {
		var args T
		if err := DecodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		return fn(ctx, args, emit)
	}
}
