package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// ArgSpec describes one tool argument for schema validation and for the
// registry rendering shown to the model.
type ArgSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string, number, integer, boolean, object, array
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Handler is the function signature for tool execution. Handlers report
// domain failures through the Result; a returned error is an execution
// failure the dispatcher converts to ok:false.
type Handler func(ctx context.Context, args map[string]any) Result

// Contract is the static per-tool metadata registered once at process start.
type Contract struct {
	Name        string
	Description string
	Args        []ArgSpec
	Run         Handler
}

// Registry maps tool names to contracts and provides the single dispatch
// point that normalizes every failure into Result data.
type Registry struct {
	contracts map[string]*Contract
	schemas   map[string]*gojsonschema.Schema
	mu        sync.RWMutex
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		contracts: make(map[string]*Contract),
		schemas:   make(map[string]*gojsonschema.Schema),
	}
}

// Register validates and stores a contract. Names are unique; registering a
// duplicate is an error.
func (r *Registry) Register(c Contract) error {
	if err := validateContract(c); err != nil {
		return fmt.Errorf("invalid tool contract: %w", err)
	}

	schema, err := generateSchema(c)
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", c.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contracts[c.Name]; exists {
		return fmt.Errorf("tool already registered: %s", c.Name)
	}
	r.contracts[c.Name] = &c
	r.schemas[c.Name] = schema

	log.Debug().Str("tool", c.Name).Msg("Tool registered")
	return nil
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a contract by name, or nil when unknown.
func (r *Registry) Get(name string) *Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contracts[name]
}

// Dispatch looks up the named tool, validates args against its schema, and
// runs it. Every failure mode, including a panicking handler, comes back as
// ok:false data; Dispatch never propagates an error or panic to the caller.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("tool", name).Any("panic", rec).Msg("Tool handler panicked")
			result = Fail("%v", rec)
		}
	}()

	r.mu.RLock()
	contract := r.contracts[name]
	schema := r.schemas[name]
	r.mu.RUnlock()

	if contract == nil {
		return Fail("unknown tool: %s", name)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(schema, args); err != nil {
		log.Debug().Str("tool", name).Err(err).Msg("Tool argument validation failed")
		return Fail("invalid arguments for %s: %v", name, err)
	}

	log.Debug().Str("tool", name).Msg("Dispatching tool")
	return contract.Run(ctx, args)
}

// RenderForPrompt renders the registry as the tool listing embedded in the
// system prompt.
func (r *Registry) RenderForPrompt() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("TOOL REGISTRY:")
	for _, name := range names {
		c := r.contracts[name]
		fmt.Fprintf(&b, "\n- %s: %s", c.Name, c.Description)
		b.WriteString("\n  args:")
		for _, arg := range c.Args {
			optional := ""
			if !arg.Required {
				optional = "optional; "
			}
			fmt.Fprintf(&b, "\n    - %s: %s (%s%s)", arg.Name, arg.Description, optional, arg.Type)
		}
	}
	return b.String()
}

func validateContract(c Contract) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("tool description cannot be empty for %s", c.Name)
	}
	if c.Run == nil {
		return fmt.Errorf("tool handler cannot be nil for %s", c.Name)
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	for _, arg := range c.Args {
		if arg.Name == "" {
			return fmt.Errorf("argument name cannot be empty in %s", c.Name)
		}
		if !validTypes[arg.Type] {
			return fmt.Errorf("invalid argument type %q for %s.%s", arg.Type, c.Name, arg.Name)
		}
	}
	return nil
}

func generateSchema(c Contract) (*gojsonschema.Schema, error) {
	properties := make(map[string]any, len(c.Args))
	required := []string{}

	for _, arg := range c.Args {
		properties[arg.Name] = map[string]any{
			"type":        arg.Type,
			"description": arg.Description,
		}
		if arg.Required {
			required = append(required, arg.Name)
		}
	}

	schemaMap := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

func validateArgs(schema *gojsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
