package canvas

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestCourseIDNumericSkipsLookup(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	r := NewResolver(c)

	id, err := r.CourseID(context.Background(), "246794")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 246794 {
		t.Errorf("id = %d, want 246794", id)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("numeric identifier must not hit the catalog; %d calls made", calls)
	}
}

func TestCourseIDMemoizesCodeLookup(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": float64(111), "course_code": "acct_201"},
			{"id": float64(246794), "course_code": "badm_554_120251_246794"},
		})
	}))
	r := NewResolver(c)

	for i := 0; i < 2; i++ {
		id, err := r.CourseID(context.Background(), "badm_554_120251_246794")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if id != 246794 {
			t.Fatalf("call %d: id = %d, want 246794", i, id)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected exactly one catalog lookup, got %d", n)
	}

	code, ok := r.CourseCode(246794)
	if !ok || code != "badm_554_120251_246794" {
		t.Errorf("reverse lookup = %q, %v", code, ok)
	}
	if _, ok := r.CourseCode(999); ok {
		t.Error("reverse lookup of an uncached id should miss")
	}
}

func TestCourseIDFallsBackToEmbeddedID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	r := NewResolver(c)

	id, err := r.CourseID(context.Background(), "mkt_310_120252_357901")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 357901 {
		t.Errorf("id = %d, want trailing segment 357901", id)
	}
}

func TestCourseIDUnknownCode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	r := NewResolver(c)

	if _, err := r.CourseID(context.Background(), "no-such-course"); err == nil {
		t.Fatal("expected error for unknown course code")
	}
}
