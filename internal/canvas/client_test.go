package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Token: "test-token", PerPage: 2}), srv
}

func TestListPaginatedFollowsNextLinks(t *testing.T) {
	var calls int32
	var srvURL string
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		if page != "3" {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=%d>; rel="next", <%s%s?page=1>; rel="first"`,
				srvURL, r.URL.Path, atoiOr(page)+1, srvURL, r.URL.Path))
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"page": page}})
	}))
	srvURL = srv.URL

	items, err := c.ListPaginated(context.Background(), "/courses/1/pages", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items across pages, got %d", len(items))
	}
	for i, want := range []string{"1", "2", "3"} {
		if items[i]["page"] != want {
			t.Errorf("item %d from page %v, want %s", i, items[i]["page"], want)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected exactly 3 page fetches, got %d", n)
	}
}

func TestListPaginatedHaltsOnFirstError(t *testing.T) {
	var calls int32
	var srvURL string
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=%d>; rel="next"`, srvURL, r.URL.Path, n+1))
		_ = json.NewEncoder(w).Encode([]map[string]any{{"n": n}})
	}))
	srvURL = srv.URL

	_, err := c.ListPaginated(context.Background(), "/courses/1/modules", nil)
	if err == nil {
		t.Fatal("expected error from failing page")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected fetching to halt after the failing page, got %d fetches", n)
	}
}

func TestRequestNormalizesCanvasErrors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The specified resource does not exist."}]}`))
	}))

	_, err := c.Request(context.Background(), "get", "/courses/1/quizzes/99", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "The specified resource does not exist." {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestRequestSendsJSONBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if _, ok := body["wiki_page"]; !ok {
			t.Errorf("expected wiki_page envelope, got %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"url": "intro"})
	}))

	obj, err := c.GetObject(context.Background(), "post", "/courses/1/pages", nil,
		map[string]any{"wiki_page": map[string]any{"title": "Intro"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["url"] != "intro" {
		t.Errorf("obj = %v", obj)
	}
}

func TestParseLinks(t *testing.T) {
	links := parseLinks(`<https://c.example/api/v1/courses?page=2&per_page=10>; rel="next", <https://c.example/api/v1/courses?page=1&per_page=10>; rel="current"`)
	if links["next"] != "https://c.example/api/v1/courses?page=2&per_page=10" {
		t.Errorf("next = %q", links["next"])
	}
	if got := parseLinks(""); len(got) != 0 {
		t.Errorf("empty header produced %v", got)
	}
}

func atoiOr(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
