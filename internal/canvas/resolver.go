package canvas

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Resolver memoizes course-code -> course-id lookups for the life of the
// process. Entries are append-only; a mutex guards first insertion because
// tool handlers run on concurrent goroutines.
type Resolver struct {
	client *Client

	mu     sync.Mutex
	byCode map[string]int64
	byID   map[int64]string
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		byCode: map[string]int64{},
		byID:   map[int64]string{},
	}
}

// CourseID resolves a course identifier (numeric id or course code) to the
// numeric Canvas id. Numeric input is returned unchanged without any remote
// call; a course code costs at most one catalog lookup ever.
func (r *Resolver) CourseID(ctx context.Context, identifier string) (int64, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, fmt.Errorf("course identifier is empty")
	}
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return id, nil
	}

	r.mu.Lock()
	id, ok := r.byCode[identifier]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err := r.lookup(ctx, identifier)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	r.byCode[identifier] = id
	r.byID[id] = identifier
	r.mu.Unlock()
	return id, nil
}

// CourseCode is the best-effort reverse lookup. It only consults entries a
// prior CourseID call cached; callers fall back to the identifier the user
// typed when it returns false.
func (r *Resolver) CourseCode(courseID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.byID[courseID]
	return code, ok
}

func (r *Resolver) lookup(ctx context.Context, code string) (int64, error) {
	params := url.Values{}
	params.Set("state[]", "available")
	courses, err := r.client.ListPaginated(ctx, "/courses", params)
	if err != nil {
		return 0, fmt.Errorf("resolving course %q: %w", code, err)
	}
	for _, course := range courses {
		cc, _ := course["course_code"].(string)
		sis, _ := course["sis_course_id"].(string)
		if strings.EqualFold(cc, code) || strings.EqualFold(sis, code) {
			if id, ok := course["id"].(float64); ok {
				return int64(id), nil
			}
		}
	}
	// Course codes of the badm_554_120251_246794 form carry the numeric id
	// as their trailing segment; accept it when the catalog has no match.
	if i := strings.LastIndex(code, "_"); i >= 0 {
		if id, err := strconv.ParseInt(code[i+1:], 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no course found matching %q", code)
}
