package anonymize

import (
	"bytes"
	"strings"
	"testing"
)

func TestPseudonymStableAndCollisionFree(t *testing.T) {
	a := New(true, false)

	first, err := a.Pseudonym(CategoryUsers, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "Student_1" {
		t.Errorf("first pseudonym = %q, want Student_1", first)
	}

	again, _ := a.Pseudonym(CategoryUsers, 42)
	if again != first {
		t.Errorf("repeated call returned %q, want %q", again, first)
	}
	// JSON numbers arrive as float64; same student, same label.
	asFloat, _ := a.Pseudonym(CategoryUsers, float64(42))
	if asFloat != first {
		t.Errorf("float64 id returned %q, want %q", asFloat, first)
	}

	seen := map[string]bool{first: true}
	for id := 100; id < 150; id++ {
		p, err := a.Pseudonym(CategoryUsers, id)
		if err != nil {
			t.Fatalf("id %d: %v", id, err)
		}
		if seen[p] {
			t.Fatalf("pseudonym %q assigned twice", p)
		}
		seen[p] = true
	}
}

func TestPseudonymCategoriesPartition(t *testing.T) {
	a := New(true, false)

	u, _ := a.Pseudonym(CategoryUsers, 5)
	s, _ := a.Pseudonym(CategorySubmissions, 5)
	if u == s {
		t.Errorf("user 5 and submission 5 share the label %q", u)
	}
	if u != "Student_1" || s != "Submission_1" {
		t.Errorf("labels = %q, %q", u, s)
	}
}

func TestPseudonymRejectsMalformedIDs(t *testing.T) {
	a := New(true, false)
	for _, bad := range []any{nil, "", "   ", []any{1}} {
		if _, err := a.Pseudonym(CategoryUsers, bad); err == nil {
			t.Errorf("expected error for %#v", bad)
		}
	}
}

func TestRecordsUsersRewritten(t *testing.T) {
	a := New(true, false)
	users := []map[string]any{
		{"id": float64(7), "name": "Ada Lovelace", "email": "ada@example.edu", "enrollments": []any{}},
		{"id": float64(8), "name": "Alan Turing", "email": "alan@example.edu"},
	}

	out, err := a.Records(users, CategoryUsers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0]["name"] != "Student_1" || out[1]["name"] != "Student_2" {
		t.Errorf("names = %v, %v", out[0]["name"], out[1]["name"])
	}
	if out[0]["email"] != "student_1@anonymized.invalid" {
		t.Errorf("email = %v", out[0]["email"])
	}
	// Input must stay untouched; only the copies are rewritten.
	if users[0]["name"] != "Ada Lovelace" {
		t.Errorf("input mutated: %v", users[0]["name"])
	}
}

func TestRecordsSubmissionsKeepSubmissionID(t *testing.T) {
	a := New(true, false)
	subs := []map[string]any{
		{"id": float64(9001), "user_id": float64(7), "score": 80.0},
		{"id": float64(9002), "user_id": float64(8), "score": 91.0,
			"user": map[string]any{"id": float64(8), "name": "Alan Turing"}},
	}

	out, err := a.Records(subs, CategorySubmissions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0]["id"] != float64(9001) {
		t.Errorf("submission id rewritten to %v", out[0]["id"])
	}
	if out[0]["user_id"] != "Student_1" || out[1]["user_id"] != "Student_2" {
		t.Errorf("user ids = %v, %v", out[0]["user_id"], out[1]["user_id"])
	}
	embedded := out[1]["user"].(map[string]any)
	if embedded["name"] != "Student_2" {
		t.Errorf("embedded user name = %v", embedded["name"])
	}
}

func TestRecordsBatchIsAtomic(t *testing.T) {
	a := New(true, false)
	subs := []map[string]any{
		{"id": float64(1), "user_id": float64(7)},
		{"id": float64(2)}, // missing user_id poisons the whole batch
		{"id": float64(3), "user_id": float64(8)},
	}

	out, err := a.Records(subs, CategorySubmissions)
	if err == nil {
		t.Fatal("expected error for missing identifier")
	}
	if out != nil {
		t.Fatalf("partial anonymization returned: %v", out)
	}
	if n := a.Stats()[CategoryUsers]; n != 0 {
		t.Errorf("failed batch left %d table entries behind", n)
	}
}

func TestRecordsDisabledPassThrough(t *testing.T) {
	a := New(false, false)
	users := []map[string]any{{"id": float64(1), "name": "Ada Lovelace"}}
	out, err := a.Records(users, CategoryUsers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0]["name"] != "Ada Lovelace" {
		t.Errorf("disabled anonymizer rewrote data: %v", out[0])
	}
}

func TestExportEntriesInsertionOrder(t *testing.T) {
	a := New(true, false)
	for _, id := range []int{30, 10, 20} {
		if _, err := a.Pseudonym(CategoryUsers, id); err != nil {
			t.Fatal(err)
		}
	}
	entries := a.ExportEntries(CategoryUsers)
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].RealID != "30" || entries[0].Pseudonym != "Student_1" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[2].RealID != "20" || entries[2].Pseudonym != "Student_3" {
		t.Errorf("entries[2] = %+v", entries[2])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []MapRow{
		{RealName: "Ada Lovelace", RealID: "7", RealEmail: "ada@example.edu", AnonymousID: "Student_1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "real_name,real_id,real_email,anonymous_id" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Ada Lovelace,7,ada@example.edu,Student_1" {
		t.Errorf("row = %q", lines[1])
	}
}
