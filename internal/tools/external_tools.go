package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
)

// External tool results are JSON documents rather than readable text: LTI
// configurations are structured enough that clients want to inspect fields
// programmatically.

var validPrivacyLevels = []string{"anonymous", "name_only", "email_only", "public"}

var placementTypes = []string{
	"course_navigation", "assignment_selection", "link_selection",
	"editor_button", "homework_submission", "migration_selection",
	"user_navigation", "account_navigation", "similarity_detection",
}

func jsonResult(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(out), nil
}

func registerExternalToolTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_external_tools",
		Description: "List external (LTI) tools for a course as JSON. Supports search_term, placement, and include_parents filters.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			params := url.Values{}
			if term := args.StringOr("search_term", ""); term != "" {
				params.Set("search_term", term)
			}
			if placement := args.StringOr("placement", ""); placement != "" {
				params.Set("placement", placement)
			}
			if args.BoolOr("include_parents", false) {
				params.Set("include_parents", "true")
			}

			lti, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/external_tools", courseID), params)
			if err != nil {
				return jsonResult(map[string]any{
					"error":     fmt.Sprintf("Failed to fetch external tools: %s", err),
					"course_id": courseID,
				})
			}
			display := d.courseDisplay(courseID, identifier)
			if len(lti) == 0 {
				return jsonResult(map[string]any{
					"message":   fmt.Sprintf("No external tools found for course %s", display),
					"course_id": courseID,
					"tools":     []any{},
				})
			}

			info := make([]map[string]any, 0, len(lti))
			for _, t := range lti {
				info = append(info, map[string]any{
					"id":             t["id"],
					"name":           t["name"],
					"description":    fieldStr(t, "description", ""),
					"url":            fieldStr(t, "url", ""),
					"domain":         fieldStr(t, "domain", ""),
					"consumer_key":   fieldStr(t, "consumer_key", ""),
					"privacy_level":  fieldStr(t, "privacy_level", ""),
					"workflow_state": fieldStr(t, "workflow_state", ""),
					"custom_fields":  customFields(t),
					"created_at":     formatDate(t["created_at"]),
					"updated_at":     formatDate(t["updated_at"]),
				})
			}
			return jsonResult(map[string]any{
				"course":      display,
				"course_id":   courseID,
				"total_tools": len(info),
				"tools":       info,
			})
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_ext_tool_details",
		Description: "Get the full configuration of one external tool as JSON, including placement settings.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			toolID, ok := args.Int("tool_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "tool_id")
			}

			t, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/external_tools/%d", courseID, toolID), nil, nil)
			if err != nil {
				return jsonResult(map[string]any{
					"error":     fmt.Sprintf("Failed to fetch tool details: %s", err),
					"course_id": courseID,
					"tool_id":   toolID,
				})
			}

			placements := map[string]any{}
			for _, p := range placementTypes {
				if cfg, ok := t[p]; ok {
					placements[p] = cfg
				}
			}
			details := map[string]any{
				"id":               t["id"],
				"name":             t["name"],
				"description":      fieldStr(t, "description", ""),
				"url":              fieldStr(t, "url", ""),
				"domain":           fieldStr(t, "domain", ""),
				"consumer_key":     fieldStr(t, "consumer_key", ""),
				"privacy_level":    fieldStr(t, "privacy_level", ""),
				"workflow_state":   fieldStr(t, "workflow_state", ""),
				"custom_fields":    customFields(t),
				"text":             fieldStr(t, "text", ""),
				"icon_url":         fieldStr(t, "icon_url", ""),
				"vendor_help_link": fieldStr(t, "vendor_help_link", ""),
				"is_rce_favorite":  fieldBool(t, "is_rce_favorite"),
				"created_at":       formatDate(t["created_at"]),
				"updated_at":       formatDate(t["updated_at"]),
				"placements":       placements,
			}
			return jsonResult(map[string]any{
				"course":    d.courseDisplay(courseID, identifier),
				"course_id": courseID,
				"tool":      details,
			})
		},
	})

	r.Register(Tool{
		Name:        "canvas_update_external_tool",
		Description: "Update an external tool's configuration: name, description, url, domain, privacy_level, custom_fields (JSON string), consumer_key, shared_secret.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			toolID, ok := args.Int("tool_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "tool_id")
			}

			payload := map[string]any{}
			for _, key := range []string{"name", "description", "url", "domain", "consumer_key", "shared_secret"} {
				if v, ok := args.String(key); ok {
					payload[key] = v
				}
			}
			if level, ok := args.String("privacy_level"); ok {
				if !contains(validPrivacyLevels, level) {
					return jsonResult(map[string]any{
						"error":     fmt.Sprintf("Invalid privacy_level: %s. Must be one of: anonymous, name_only, email_only, public", level),
						"course_id": courseID,
						"tool_id":   toolID,
					})
				}
				payload["privacy_level"] = level
			}
			if raw, ok := args.String("custom_fields"); ok {
				var fields map[string]any
				if err := json.Unmarshal([]byte(raw), &fields); err != nil {
					return jsonResult(map[string]any{
						"error":     fmt.Sprintf("Invalid JSON for custom_fields: %s", err),
						"course_id": courseID,
						"tool_id":   toolID,
					})
				}
				// Canvas expects custom_fields[name] form keys.
				for name, value := range fields {
					payload["custom_fields["+name+"]"] = value
				}
			}
			if len(payload) == 0 {
				return jsonResult(map[string]any{
					"error":     "No update parameters provided",
					"course_id": courseID,
					"tool_id":   toolID,
				})
			}

			updatedFields := make([]string, 0, len(payload))
			for k := range payload {
				updatedFields = append(updatedFields, k)
			}
			sort.Strings(updatedFields)

			t, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/external_tools/%d", courseID, toolID), nil, payload)
			if err != nil {
				return jsonResult(map[string]any{
					"error":             fmt.Sprintf("Failed to update external tool: %s", err),
					"course_id":         courseID,
					"tool_id":           toolID,
					"attempted_updates": updatedFields,
				})
			}

			return jsonResult(map[string]any{
				"success":        true,
				"message":        fmt.Sprintf("Successfully updated external tool '%s'", fieldStr(t, "name", "")),
				"course":         d.courseDisplay(courseID, identifier),
				"course_id":      courseID,
				"tool_id":        t["id"],
				"updated_fields": updatedFields,
				"tool": map[string]any{
					"id":            t["id"],
					"name":          t["name"],
					"url":           fieldStr(t, "url", ""),
					"domain":        fieldStr(t, "domain", ""),
					"privacy_level": fieldStr(t, "privacy_level", ""),
					"custom_fields": customFields(t),
					"updated_at":    formatDate(t["updated_at"]),
				},
			})
		},
	})
}

func customFields(t map[string]any) map[string]any {
	if m := fieldMap(t, "custom_fields"); m != nil {
		return m
	}
	return map[string]any{}
}
