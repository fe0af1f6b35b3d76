package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Formatting helpers shared by the tool handlers. Canvas returns JSON, so
// field accessors work over map[string]any with the usual float64 numbers.

func fieldStr(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func fieldBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func fieldFloat(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

// fieldID formats a numeric or string id without a float decimal point.
func fieldID(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case float64:
		return fmt.Sprintf("%.0f", v)
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func fieldInt(m map[string]any, key string, def int) int {
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return def
}

func fieldMap(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}

func fieldList(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

// formatDate renders Canvas ISO 8601 timestamps as "2006-01-02 15:04".
// Unparseable values pass through unchanged; absent ones become "N/A".
func formatDate(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02 15:04")
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// decodeList decodes a raw JSON array response into generic records.
func decodeList(raw json.RawMessage) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}

func publishedLabel(published bool) string {
	if published {
		return "Published"
	}
	return "Unpublished"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// bulkReport renders the per-item success/failure lists every bulk
// operation returns. Bulk operations never abort early, so both lists are
// complete over all targets. past is the past-tense verb ("deleted"),
// inf the infinitive ("delete").
func bulkReport(header, past, inf, noun string, successes, failures []string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	if len(successes) > 0 {
		fmt.Fprintf(&b, "Successfully %s %d %s:\n", past, len(successes), noun)
		for _, s := range successes {
			b.WriteString(s)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(failures) > 0 {
		fmt.Fprintf(&b, "Failed to %s %d %s:\n", inf, len(failures), noun)
		for _, f := range failures {
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	if len(successes) == 0 && len(failures) == 0 {
		b.WriteString("No " + noun + " were processed.\n")
	}
	return b.String()
}
