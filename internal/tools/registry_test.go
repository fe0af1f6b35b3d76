package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCallUnknownTool(t *testing.T) {
	r := NewRegistry()
	out := r.Call(context.Background(), "no_such_tool", Args{})
	if !strings.HasPrefix(out, "Error: unknown tool") {
		t.Fatalf("unexpected result: %q", out)
	}
}

func TestCallShapesHandlerError(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{
		Name: "boom",
		Handler: func(ctx context.Context, args Args) (string, error) {
			return "", errors.New("fetching pages: resource not found (HTTP 404)")
		},
	})
	out := r.Call(context.Background(), "boom", Args{})
	want := "Error: fetching pages: resource not found (HTTP 404)"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestCallPassesThroughResult(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{
		Name: "echo",
		Handler: func(ctx context.Context, args Args) (string, error) {
			s, _ := args.String("msg")
			return s, nil
		},
	})
	if out := r.Call(context.Background(), "echo", Args{"msg": "hello"}); out != "hello" {
		t.Fatalf("got %q", out)
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	noop := func(ctx context.Context, args Args) (string, error) { return "", nil }
	for _, name := range []string{"c", "a", "b"} {
		r.Register(Tool{Name: name, Handler: noop})
	}
	got := r.List()
	for i, want := range []string{"c", "a", "b"} {
		if got[i].Name != want {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r := NewRegistry()
	noop := func(ctx context.Context, args Args) (string, error) { return "", nil }
	r.Register(Tool{Name: "dup", Handler: noop})
	r.Register(Tool{Name: "dup", Handler: noop})
}

func TestAllRegistersFullSurface(t *testing.T) {
	r := All(Deps{})
	for _, name := range []string{
		"canvas_list_courses",
		"canvas_get_page_content",
		"canvas_bulk_delete_modules",
		"canvas_get_mod_tree",
		"canvas_import_quiz_markdown",
		"canvas_get_assignment_analytics",
		"canvas_create_anon_map",
		"canvas_update_external_tool",
	} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
	if tool, _ := r.Get("canvas_create_anon_map"); !tool.AdminOnly {
		t.Error("canvas_create_anon_map should be admin only")
	}
}
