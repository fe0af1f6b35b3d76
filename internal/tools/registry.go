// Package tools defines the callable tool surface over the Canvas API.
// Each tool takes named JSON arguments and returns a formatted text block
// (or a JSON string for the external-tool operations). Failures never
// escape as faults: the registry renders them as "Error: ..." results.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/canvas-mcp/internal/anonymize"
	"github.com/mind-engage/canvas-mcp/internal/canvas"
	"github.com/mind-engage/canvas-mcp/internal/storage"
)

// Deps holds the shared collaborators tool handlers compose.
type Deps struct {
	Client   *canvas.Client
	Resolver *canvas.Resolver
	Anon     *anonymize.Anonymizer
	Store    storage.Store
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// resolveCourse pulls course_identifier from the args and resolves it to
// the numeric Canvas id, returning both for later display fallback.
func (d Deps) resolveCourse(ctx context.Context, args Args) (int64, string, error) {
	identifier, err := args.RequireString("course_identifier")
	if err != nil {
		return 0, "", err
	}
	id, err := d.Resolver.CourseID(ctx, identifier)
	if err != nil {
		return 0, "", err
	}
	return id, identifier, nil
}

// courseDisplay prefers the cached course code over the raw identifier the
// caller supplied. Best-effort; never makes a remote call.
func (d Deps) courseDisplay(courseID int64, identifier string) string {
	if code, ok := d.Resolver.CourseCode(courseID); ok {
		return code
	}
	return identifier
}

type Handler func(ctx context.Context, args Args) (string, error)

type Tool struct {
	Name        string
	Description string
	Handler     Handler
	// AdminOnly marks tools the HTTP layer gates behind the admin role
	// when local auth is enabled.
	AdminOnly bool
}

// Registry is the named lookup table for tools, preserving registration
// order for listings.
type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Tool{}}
}

func (r *Registry) Register(t Tool) {
	if _, dup := r.byName[t.Name]; dup {
		panic(fmt.Sprintf("tools: duplicate registration of %q", t.Name))
	}
	r.byName[t.Name] = t
	r.order = append(r.order, t.Name)
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Call invokes a tool by name. Every failure, including an unknown tool
// name, comes back as an "Error: ..." result string so callers see a
// normal tool result rather than a protocol fault.
func (r *Registry) Call(ctx context.Context, name string, args Args) string {
	t, ok := r.byName[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
	out, err := t.Handler(ctx, args)
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}

// All builds the full registry over the given dependencies.
func All(d Deps) *Registry {
	r := NewRegistry()
	registerCourseTools(r, d)
	registerPageTools(r, d)
	registerModuleTools(r, d)
	registerModuleItemTools(r, d)
	registerQuizTools(r, d)
	registerAssignmentTools(r, d)
	registerUserTools(r, d)
	registerExternalToolTools(r, d)
	return r
}
