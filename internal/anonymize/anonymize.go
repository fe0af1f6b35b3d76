// Package anonymize replaces student-identifying data in Canvas API
// responses with stable per-session pseudonyms before anything is shown to
// an assistant client.
package anonymize

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Category tags partition the pseudonym namespace, so a user id 5 and a
// submission id 5 never share a label.
const (
	CategoryUsers       = "users"
	CategorySubmissions = "submissions"
)

var categoryLabels = map[string]string{
	CategoryUsers:       "Student",
	CategorySubmissions: "Submission",
}

// Anonymizer owns the per-category pseudonym tables for one process run.
// Tables are insertion-ordered and append-only; nothing is persisted unless
// explicitly exported through ExportEntries.
type Anonymizer struct {
	enabled bool
	debug   bool
	session string

	mu     sync.Mutex
	tables map[string]*table
}

type table struct {
	label string
	byID  map[string]string
	order []Entry
}

// Entry is one row of a category's reversible mapping.
type Entry struct {
	RealID    string
	Pseudonym string
}

func New(enabled, debug bool) *Anonymizer {
	return &Anonymizer{
		enabled: enabled,
		debug:   debug,
		session: uuid.NewString(),
		tables:  map[string]*table{},
	}
}

func (a *Anonymizer) Enabled() bool      { return a.enabled }
func (a *Anonymizer) SessionID() string  { return a.session }
func (a *Anonymizer) DebugLogging() bool { return a.debug }

// Pseudonym returns the stable label for (category, realID), assigning the
// next sequential one on first sight. Same input always yields the same
// label within a process run; distinct inputs never collide in a category.
func (a *Anonymizer) Pseudonym(category string, realID any) (string, error) {
	id, err := canonicalID(realID)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.tables[category]
	if t == nil {
		t = &table{label: labelFor(category), byID: map[string]string{}}
		a.tables[category] = t
	}
	if p, ok := t.byID[id]; ok {
		return p, nil
	}
	p := fmt.Sprintf("%s_%d", t.label, len(t.order)+1)
	t.byID[id] = p
	t.order = append(t.order, Entry{RealID: id, Pseudonym: p})
	if a.debug {
		log.Printf("anonymize: %s %s -> %s", category, id, p)
	}
	return p, nil
}

// Records anonymizes a whole API response atomically: every record is
// validated before any table mutation or rewriting happens, and a failure
// returns no data at all. A mixed anonymized/real result never leaves this
// function.
func (a *Anonymizer) Records(records []map[string]any, dataType string) ([]map[string]any, error) {
	if !a.enabled {
		return records, nil
	}
	var idField string
	switch dataType {
	case CategoryUsers:
		idField = "id"
	case CategorySubmissions:
		idField = "user_id"
	default:
		return nil, fmt.Errorf("unknown data type %q", dataType)
	}
	for i, rec := range records {
		if _, err := canonicalID(rec[idField]); err != nil {
			return nil, fmt.Errorf("record %d: %s: %w", i+1, idField, err)
		}
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		cp := make(map[string]any, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		switch dataType {
		case CategoryUsers:
			if err := a.rewriteUser(cp, "id"); err != nil {
				return nil, err
			}
		case CategorySubmissions:
			if err := a.rewriteSubmission(cp); err != nil {
				return nil, err
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// rewriteUser replaces the identity fields of a user record. The user
// category keys the table, so the same student gets the same label whether
// they appear in a roster, a group, or a submission.
func (a *Anonymizer) rewriteUser(rec map[string]any, idField string) error {
	p, err := a.Pseudonym(CategoryUsers, rec[idField])
	if err != nil {
		return err
	}
	rec[idField] = p
	for _, f := range []string{"name", "sortable_name", "short_name", "display_name"} {
		if _, ok := rec[f]; ok {
			rec[f] = p
		}
	}
	for _, f := range []string{"email", "login_id"} {
		if _, ok := rec[f]; ok {
			rec[f] = strings.ToLower(p) + "@anonymized.invalid"
		}
	}
	delete(rec, "avatar_url")
	return nil
}

// rewriteSubmission pseudonymizes who submitted, keeping the submission's
// own id intact: follow-up API calls (peer reviews, comments) need it.
func (a *Anonymizer) rewriteSubmission(rec map[string]any) error {
	p, err := a.Pseudonym(CategoryUsers, rec["user_id"])
	if err != nil {
		return err
	}
	rec["user_id"] = p
	if gid, ok := rec["grader_id"]; ok && gid != nil {
		if gp, err := a.Pseudonym(CategoryUsers, gid); err == nil {
			rec["grader_id"] = gp
		}
	}
	if u, ok := rec["user"].(map[string]any); ok {
		cp := make(map[string]any, len(u))
		for k, v := range u {
			cp[k] = v
		}
		if err := a.rewriteUser(cp, "id"); err != nil {
			return err
		}
		rec["user"] = cp
	}
	return nil
}

// Stats reports table sizes without exposing any mapping.
func (a *Anonymizer) Stats() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.tables))
	for cat, t := range a.tables {
		out[cat] = len(t.order)
	}
	return out
}

// ExportEntries returns a category's mapping in insertion order. This is
// the only reverse-mapping egress; callers are expected to gate it.
func (a *Anonymizer) ExportEntries(category string) []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := a.tables[category]
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.order))
	copy(out, t.order)
	return out
}

func labelFor(category string) string {
	if l, ok := categoryLabels[category]; ok {
		return l
	}
	c := strings.TrimSuffix(category, "s")
	if c == "" {
		return "Item"
	}
	return strings.ToUpper(c[:1]) + c[1:]
}

// canonicalID folds the identifier types Canvas emits (JSON numbers and
// strings) into one map key. Missing or malformed identifiers fail the
// whole batch they arrived in.
func canonicalID(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", fmt.Errorf("identifier is missing")
	case string:
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("identifier is empty")
		}
		return id, nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	case int:
		return fmt.Sprint(id), nil
	case int64:
		return fmt.Sprint(id), nil
	default:
		return "", fmt.Errorf("identifier has unsupported type %T", v)
	}
}
