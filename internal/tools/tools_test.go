package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/canvas-mcp/internal/anonymize"
	"github.com/mind-engage/canvas-mcp/internal/canvas"
	"github.com/mind-engage/canvas-mcp/internal/storage"
)

// fakeCanvas is an in-process Canvas API double. Tests register handlers by
// "METHOD /path"; unmatched requests fail the test.
type fakeCanvas struct {
	t  *testing.T
	mu sync.Mutex

	handlers map[string]http.HandlerFunc
}

func newFakeCanvas(t *testing.T) (*fakeCanvas, Deps) {
	t.Helper()
	f := &fakeCanvas{t: t, handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client := canvas.New(canvas.Config{BaseURL: srv.URL, Token: "test-token"})
	store, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	deps := Deps{
		Client:   client,
		Resolver: canvas.NewResolver(client),
		Anon:     anonymize.New(true, false),
		Store:    store,
		Now:      func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) },
	}
	return f, deps
}

func (f *fakeCanvas) handle(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func (f *fakeCanvas) handleFunc(key string, fn http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key] = fn
}

func (f *fakeCanvas) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	h := f.handlers[key]
	f.mu.Unlock()
	if h == nil {
		f.t.Errorf("unexpected request %s", key)
		http.Error(w, `{"errors":[{"message":"not stubbed"}]}`, http.StatusNotFound)
		return
	}
	h(w, r)
}

func TestBulkDeleteModulesReportsPartialFailure(t *testing.T) {
	f, deps := newFakeCanvas(t)
	f.handle("GET /courses/1/modules/10", 200, `{"id":10,"name":"Week 1"}`)
	f.handle("GET /courses/1/modules/20", 200, `{"id":20,"name":"Week 2"}`)
	f.handle("GET /courses/1/modules/30", 200, `{"id":30,"name":"Week 3"}`)
	f.handle("DELETE /courses/1/modules/10", 200, `{}`)
	f.handle("DELETE /courses/1/modules/20", 500, `{"errors":[{"message":"boom"}]}`)
	f.handle("DELETE /courses/1/modules/30", 200, `{}`)

	out := All(deps).Call(context.Background(), "canvas_bulk_delete_modules", Args{
		"course_identifier": "1",
		"module_ids":        []any{float64(10), float64(20), float64(30)},
	})

	if !strings.Contains(out, "Successfully deleted 2 modules") {
		t.Errorf("missing success count:\n%s", out)
	}
	if !strings.Contains(out, "Failed to delete 1 modules") {
		t.Errorf("missing failure count:\n%s", out)
	}
	if !strings.Contains(out, "Week 1") || !strings.Contains(out, "Week 3") {
		t.Errorf("missing deleted module names:\n%s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("missing failure message:\n%s", out)
	}
}

func TestImportQuizMarkdownCreatesUnpublishedQuiz(t *testing.T) {
	const markdown = `---
title: Midterm Review
quiz_type: assignment
---

## Question 1
` + "```yaml" + `
type: multiple_choice_question
points: 2
answers:
  - "*Paris"
  - "London"
` + "```" + `

**Question:** What is the capital of France?

## Question 2
` + "```yaml" + `
type: true_false_question
answers:
  - "*True"
  - "False"
` + "```" + `

**Question:** The sky is blue.
`

	f, deps := newFakeCanvas(t)
	var createdQuiz map[string]any
	f.handleFunc("POST /courses/1/quizzes", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding quiz body: %v", err)
			return
		}
		createdQuiz, _ = body["quiz"].(map[string]any)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":500,"title":"Midterm Review"}`)
	})
	questions := 0
	f.handleFunc("POST /courses/1/quizzes/500/questions", func(w http.ResponseWriter, r *http.Request) {
		questions++
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":1}`)
	})

	out := All(deps).Call(context.Background(), "canvas_import_quiz_markdown", Args{
		"course_identifier": "1",
		"markdown_content":  markdown,
	})

	if createdQuiz == nil {
		t.Fatal("quiz was never created")
	}
	if published, _ := createdQuiz["published"].(bool); published {
		t.Error("imported quiz should be created unpublished")
	}
	if createdQuiz["title"] != "Midterm Review" {
		t.Errorf("quiz title = %v", createdQuiz["title"])
	}
	if questions != 2 {
		t.Errorf("posted %d questions, want 2", questions)
	}
	if !strings.Contains(out, "Questions added: 2") {
		t.Errorf("missing added count:\n%s", out)
	}
	if !strings.Contains(out, "unpublished") {
		t.Errorf("missing unpublished note:\n%s", out)
	}
}

func TestAssignmentAnalyticsComputesGradeStats(t *testing.T) {
	f, deps := newFakeCanvas(t)
	f.handle("GET /courses/1/assignments/7", 200,
		`{"id":7,"name":"Essay","points_possible":10,"published":true,"due_at":"2026-01-10T23:59:00Z"}`)
	f.handle("GET /courses/1/users", 200,
		`[{"id":1,"name":"Alice A"},{"id":2,"name":"Bob B"},{"id":3,"name":"Cara C"}]`)
	f.handle("GET /courses/1/assignments/7/submissions", 200,
		`[{"id":100,"user_id":1,"score":9.5,"submitted_at":"2026-01-09T10:00:00Z"},
		  {"id":101,"user_id":2,"score":6,"submitted_at":"2026-01-11T10:00:00Z","late":true}]`)

	out := All(deps).Call(context.Background(), "canvas_get_assignment_analytics", Args{
		"course_identifier": "1",
		"assignment_id":     float64(7),
	})

	for _, want := range []string{
		"Submitted: 2/3 (66.7%)",
		"Graded: 2/3 (66.7%)",
		"Average Score: 7.75/10 (77.5%)",
		"Median Score: 7.75/10 (77.5%)",
		"Standard Deviation: 2.47",
		"Students Scoring Below 70%:",
		"Students Scoring Above 90%:",
		"Students Missing Submission:",
		"Student_3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Alice") || strings.Contains(out, "Bob") || strings.Contains(out, "Cara") {
		t.Errorf("real student names leaked:\n%s", out)
	}
}

func TestListUsersAnonymizesRoster(t *testing.T) {
	f, deps := newFakeCanvas(t)
	f.handle("GET /courses/1/users", 200,
		`[{"id":42,"name":"Dana Real","email":"dana@example.edu",
		   "enrollments":[{"role":"StudentEnrollment"}]}]`)

	out := All(deps).Call(context.Background(), "canvas_list_users", Args{"course_identifier": "1"})

	if strings.Contains(out, "Dana") || strings.Contains(out, "dana@example.edu") {
		t.Errorf("real identity leaked:\n%s", out)
	}
	if !strings.Contains(out, "Student_1") {
		t.Errorf("missing pseudonym:\n%s", out)
	}
	if !strings.Contains(out, "Roles: StudentEnrollment") {
		t.Errorf("missing roles:\n%s", out)
	}
}

func TestCreateAnonymizationMapWritesCSV(t *testing.T) {
	f, deps := newFakeCanvas(t)
	f.handle("GET /courses/1/users", 200,
		`[{"id":1,"name":"Alice A","email":"alice@example.edu"},
		  {"id":2,"name":"Bob B","email":"bob@example.edu"}]`)

	out := All(deps).Call(context.Background(), "canvas_create_anon_map", Args{"course_identifier": "1"})

	if !strings.Contains(out, "Students mapped: 2") {
		t.Fatalf("unexpected result:\n%s", out)
	}
	key := storage.MapKey("1", deps.Now())
	if !strings.Contains(out, key) {
		t.Errorf("result does not name export %q:\n%s", key, out)
	}

	rc, err := deps.Store.Get(key)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	csv := string(data)
	if !strings.HasPrefix(csv, "real_name,real_id,real_email,anonymous_id\n") {
		t.Errorf("bad header:\n%s", csv)
	}
	if !strings.Contains(csv, "Alice A,1,alice@example.edu,Student_1") {
		t.Errorf("missing first row:\n%s", csv)
	}
	if !strings.Contains(csv, "Bob B,2,bob@example.edu,Student_2") {
		t.Errorf("missing second row:\n%s", csv)
	}
}

func TestUpdateAssignmentRejectsBadGradingType(t *testing.T) {
	f, deps := newFakeCanvas(t)
	f.handle("GET /courses/1/assignments/7", 200, `{"id":7,"name":"Essay","grading_type":"points"}`)

	out := All(deps).Call(context.Background(), "canvas_update_assignment", Args{
		"course_identifier": "1",
		"assignment_id":     float64(7),
		"grading_type":      "curved",
	})
	if !strings.HasPrefix(out, "Error: invalid grading_type") {
		t.Fatalf("unexpected result: %q", out)
	}
}

func TestUpdateExternalToolValidatesPrivacyLevel(t *testing.T) {
	_, deps := newFakeCanvas(t)

	out := All(deps).Call(context.Background(), "canvas_update_external_tool", Args{
		"course_identifier": "1",
		"tool_id":           float64(9),
		"privacy_level":     "secret",
	})

	var res map[string]any
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, out)
	}
	msg, _ := res["error"].(string)
	if !strings.Contains(msg, "Invalid privacy_level") {
		t.Fatalf("unexpected error: %q", msg)
	}
}
