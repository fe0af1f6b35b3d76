package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func registerModuleTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_modules",
		Description: "List modules in a course. Optional: include_items to show each module's items.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			includeItems := args.BoolOr("include_items", false)
			params := url.Values{}
			if includeItems {
				params.Add("include[]", "items")
			}
			modules, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/modules", courseID), params)
			if err != nil {
				return "", fmt.Errorf("fetching modules: %w", err)
			}
			if len(modules) == 0 {
				return fmt.Sprintf("No modules found for course %s.", identifier), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Modules for Course %s:\n\n", d.courseDisplay(courseID, identifier))
			for _, module := range modules {
				fmt.Fprintf(&b, "Module: %s\n", fieldStr(module, "name", "Untitled module"))
				fmt.Fprintf(&b, "ID: %s\n", fieldID(module, "id"))
				fmt.Fprintf(&b, "Position: %d\n", fieldInt(module, "position", 0))
				fmt.Fprintf(&b, "Status: %s\n", publishedLabel(fieldBool(module, "published")))
				fmt.Fprintf(&b, "Items Count: %d\n", fieldInt(module, "items_count", 0))
				if includeItems {
					items := fieldList(module, "items")
					if len(items) == 0 {
						b.WriteString("Items: None\n")
					} else {
						b.WriteString("Items:\n")
						for _, raw := range items {
							item, ok := raw.(map[string]any)
							if !ok {
								continue
							}
							fmt.Fprintf(&b, "  - %s (%s) - %s\n",
								fieldStr(item, "title", "Untitled"),
								fieldStr(item, "type", "Unknown"),
								publishedLabel(fieldBool(item, "published")))
						}
					}
				}
				b.WriteString("\n")
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_create_module",
		Description: "Create a module. Required: name. Optional: position, published, prerequisite_module_ids, require_sequential_progress, unlock_at.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			name, err := args.RequireString("name")
			if err != nil {
				return "", err
			}
			prereqs, err := args.Ints("prerequisite_module_ids")
			if err != nil {
				return "", err
			}

			module := map[string]any{
				"name":                        name,
				"published":                   args.BoolOr("published", true),
				"require_sequential_progress": args.BoolOr("require_sequential_progress", false),
				"publish_final_grade":         args.BoolOr("publish_final_grade", false),
			}
			if pos, ok := args.Int("position"); ok {
				module["position"] = pos
			}
			if len(prereqs) > 0 {
				module["prerequisite_module_ids"] = prereqs
			}
			if unlockAt := args.StringOr("unlock_at", ""); unlockAt != "" {
				module["unlock_at"] = unlockAt
			}

			created, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/modules", courseID), nil, map[string]any{"module": module})
			if err != nil {
				return "", fmt.Errorf("creating module: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully created module in Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Module Name: %s\n", fieldStr(created, "name", name))
			fmt.Fprintf(&b, "Module ID: %s\n", fieldID(created, "id"))
			fmt.Fprintf(&b, "Position: %d\n", fieldInt(created, "position", 0))
			fmt.Fprintf(&b, "Status: %s\n", publishedLabel(fieldBool(created, "published")))
			if len(prereqs) > 0 {
				parts := make([]string, len(prereqs))
				for i, p := range prereqs {
					parts[i] = fmt.Sprint(p)
				}
				fmt.Fprintf(&b, "Prerequisites: %s\n", strings.Join(parts, ", "))
			}
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_publish_module",
		Description: "Publish a module by id.",
		Handler:     setModulePublished(d, true),
	})
	r.Register(Tool{
		Name:        "canvas_unpublish_module",
		Description: "Unpublish a module by id.",
		Handler:     setModulePublished(d, false),
	})
	r.Register(Tool{
		Name:        "canvas_bulk_pub_modules",
		Description: "Publish several modules. Either module_ids or publish_all=true.",
		Handler:     bulkSetModulesPublished(d, true),
	})
	r.Register(Tool{
		Name:        "canvas_bulk_unpub_modules",
		Description: "Unpublish several modules. Either module_ids or unpublish_all=true.",
		Handler:     bulkSetModulesPublished(d, false),
	})

	r.Register(Tool{
		Name:        "canvas_delete_module",
		Description: "Delete a module by id.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleID, ok := args.Int("module_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "module_id")
			}

			name, position := moduleContext(ctx, d, courseID, moduleID)
			if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/modules/%d", courseID, moduleID), nil, nil); err != nil {
				return "", fmt.Errorf("deleting module: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully deleted module from Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Module Name: %s\n", name)
			fmt.Fprintf(&b, "Module ID: %d\n", moduleID)
			fmt.Fprintf(&b, "Position: %d\n", position)
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_bulk_delete_modules",
		Description: "Delete several modules. Either module_ids or delete_all_modules=true.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleIDs, err := args.Ints("module_ids")
			if err != nil {
				return "", err
			}

			if args.BoolOr("delete_all_modules", false) {
				modules, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/modules", courseID), nil)
				if err != nil {
					return "", fmt.Errorf("fetching modules: %w", err)
				}
				moduleIDs = moduleIDs[:0]
				for _, m := range modules {
					moduleIDs = append(moduleIDs, int64(fieldFloat(m, "id")))
				}
				if len(moduleIDs) == 0 {
					return fmt.Sprintf("No modules found to delete in course %s.", identifier), nil
				}
			}
			if len(moduleIDs) == 0 {
				return "No module IDs provided. Use module_ids parameter or set delete_all_modules=true.", nil
			}

			var successes, failures []string
			for _, id := range moduleIDs {
				name, _ := moduleContext(ctx, d, courseID, id)
				if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/modules/%d", courseID, id), nil, nil); err != nil {
					failures = append(failures, fmt.Sprintf("Module %d (%s): %s", id, name, err))
					continue
				}
				successes = append(successes, fmt.Sprintf("%s (ID: %d)", name, id))
			}
			header := fmt.Sprintf("Bulk Delete Results for Course %s:", d.courseDisplay(courseID, identifier))
			return bulkReport(header, "deleted", "delete", "modules", successes, failures), nil
		},
	})
}

func setModulePublished(d Deps, published bool) Handler {
	verb, gerund := "published", "publishing"
	if !published {
		verb, gerund = "unpublished", "unpublishing"
	}
	return func(ctx context.Context, args Args) (string, error) {
		courseID, identifier, err := d.resolveCourse(ctx, args)
		if err != nil {
			return "", err
		}
		moduleID, ok := args.Int("module_id")
		if !ok {
			return "", fmt.Errorf("missing required parameter %q", "module_id")
		}

		payload := map[string]any{"module": map[string]any{"published": published}}
		module, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/modules/%d", courseID, moduleID), nil, payload)
		if err != nil {
			return "", fmt.Errorf("%s module: %w", gerund, err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Successfully %s module in Course %s:\n\n", verb, d.courseDisplay(courseID, identifier))
		fmt.Fprintf(&b, "Module Name: %s\n", fieldStr(module, "name", "Unknown module"))
		fmt.Fprintf(&b, "Module ID: %d\n", moduleID)
		fmt.Fprintf(&b, "Position: %d\n", fieldInt(module, "position", 0))
		fmt.Fprintf(&b, "Status: %s\n", publishedLabel(published))
		fmt.Fprintf(&b, "Last updated: %s\n", formatDate(module["updated_at"]))
		return b.String(), nil
	}
}

func bulkSetModulesPublished(d Deps, published bool) Handler {
	verbPast, verbInf, headerWord := "published", "publish", "Publish"
	allFlag := "publish_all"
	if !published {
		verbPast, verbInf, headerWord = "unpublished", "unpublish", "Unpublish"
		allFlag = "unpublish_all"
	}
	return func(ctx context.Context, args Args) (string, error) {
		courseID, identifier, err := d.resolveCourse(ctx, args)
		if err != nil {
			return "", err
		}
		moduleIDs, err := args.Ints("module_ids")
		if err != nil {
			return "", err
		}

		if args.BoolOr(allFlag, false) {
			modules, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/modules", courseID), nil)
			if err != nil {
				return "", fmt.Errorf("fetching modules: %w", err)
			}
			moduleIDs = moduleIDs[:0]
			for _, m := range modules {
				// Only touch modules not already in the target state.
				if fieldBool(m, "published") != published {
					moduleIDs = append(moduleIDs, int64(fieldFloat(m, "id")))
				}
			}
			if len(moduleIDs) == 0 {
				return fmt.Sprintf("No modules found to %s in course %s.", verbInf, identifier), nil
			}
		}
		if len(moduleIDs) == 0 {
			return fmt.Sprintf("No module IDs provided. Use module_ids parameter or set %s=true.", allFlag), nil
		}

		payload := map[string]any{"module": map[string]any{"published": published}}
		var successes, failures []string
		for _, id := range moduleIDs {
			module, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/modules/%d", courseID, id), nil, payload)
			if err != nil {
				failures = append(failures, fmt.Sprintf("Module %d: %s", id, err))
				continue
			}
			successes = append(successes, fmt.Sprintf("%s (ID: %d)", fieldStr(module, "name", fmt.Sprintf("Module %d", id)), id))
		}
		header := fmt.Sprintf("Bulk %s Results for Course %s:", headerWord, d.courseDisplay(courseID, identifier))
		return bulkReport(header, verbPast, verbInf, "modules", successes, failures), nil
	}
}

// moduleContext fetches a module's name and position for report text.
// Failures fall back to placeholders rather than blocking the operation.
func moduleContext(ctx context.Context, d Deps, courseID, moduleID int64) (string, int) {
	module, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/modules/%d", courseID, moduleID), nil, nil)
	if err != nil {
		return fmt.Sprintf("Module %d", moduleID), 0
	}
	return fieldStr(module, "name", fmt.Sprintf("Module %d", moduleID)), fieldInt(module, "position", 0)
}
