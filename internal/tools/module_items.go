package tools

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var moduleItemTypes = []string{
	"Assignment", "Quiz", "File", "Page", "Discussion", "ExternalUrl", "ExternalTool", "SubHeader",
}

// moduleItemSpec is the normalized description of one module item to
// create, shared by the single-item tool, the typed convenience tools, and
// the bulk add tool.
type moduleItemSpec struct {
	Type        string
	ContentID   string
	Title       string
	PageURL     string
	ExternalURL string
	Position    *int64
	Indent      *int64
	NewTab      *bool
}

// payload checks the per-type requirements and builds the Canvas
// module_item body.
func (s moduleItemSpec) payload() (map[string]any, error) {
	valid := false
	for _, t := range moduleItemTypes {
		if s.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("item_type must be one of: %s", strings.Join(moduleItemTypes, ", "))
	}

	item := map[string]any{"type": s.Type}
	switch s.Type {
	case "Assignment", "Quiz", "File", "Discussion":
		if s.ContentID == "" {
			return nil, fmt.Errorf("content_id is required for %s items", s.Type)
		}
		item["content_id"] = s.ContentID
	case "Page":
		if s.PageURL == "" {
			return nil, fmt.Errorf("url (page URL/slug) is required for Page items")
		}
		item["page_url"] = s.PageURL
	}

	if s.Title != "" {
		item["title"] = s.Title
	} else if s.Type == "SubHeader" || s.Type == "ExternalUrl" || s.Type == "ExternalTool" {
		return nil, fmt.Errorf("title is required for %s items", s.Type)
	}

	if s.Type == "ExternalUrl" {
		if s.ExternalURL == "" {
			return nil, fmt.Errorf("external_url is required for ExternalUrl items")
		}
		item["external_url"] = s.ExternalURL
	}

	if s.Position != nil {
		item["position"] = *s.Position
	}
	if s.Indent != nil {
		if *s.Indent < 0 || *s.Indent > 3 {
			return nil, fmt.Errorf("indent must be between 0 and 3")
		}
		item["indent"] = *s.Indent
	}
	if s.NewTab != nil {
		item["new_tab"] = *s.NewTab
	}
	return map[string]any{"module_item": item}, nil
}

func specFromArgs(args Args, itemType string) moduleItemSpec {
	spec := moduleItemSpec{
		Type:        itemType,
		ContentID:   args.StringOr("content_id", ""),
		Title:       args.StringOr("title", ""),
		PageURL:     args.StringOr("url", ""),
		ExternalURL: args.StringOr("external_url", ""),
	}
	if pos, ok := args.Int("position"); ok {
		spec.Position = &pos
	}
	if indent, ok := args.Int("indent"); ok {
		spec.Indent = &indent
	}
	if newTab, ok := args.Bool("new_tab"); ok {
		spec.NewTab = &newTab
	}
	return spec
}

func registerModuleItemTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_module_items",
		Description: "List the items in a module with position and indentation.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleID, ok := args.Int("module_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "module_id")
			}

			params := url.Values{}
			if args.BoolOr("include_content_details", true) {
				params.Add("include[]", "content_details")
			}
			items, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/modules/%d/items", courseID, moduleID), params)
			if err != nil {
				return "", fmt.Errorf("fetching module items: %w", err)
			}
			if len(items) == 0 {
				return fmt.Sprintf("No items found in module %d.", moduleID), nil
			}

			moduleName, _ := moduleContext(ctx, d, courseID, moduleID)
			var b strings.Builder
			fmt.Fprintf(&b, "Module Items for '%s' in Course %s:\n\n", moduleName, d.courseDisplay(courseID, identifier))
			for _, item := range items {
				indent := fieldInt(item, "indent", 0)
				pad := strings.Repeat("  ", indent)
				fmt.Fprintf(&b, "%s- %s\n", pad, fieldStr(item, "title", "Untitled"))
				fmt.Fprintf(&b, "%s  Type: %s\n", pad, fieldStr(item, "type", "Unknown"))
				fmt.Fprintf(&b, "%s  ID: %s\n", pad, fieldID(item, "id"))
				fmt.Fprintf(&b, "%s  Position: %d\n", pad, fieldInt(item, "position", 0))
				fmt.Fprintf(&b, "%s  Indent: %d\n", pad, indent)
				if cid := fieldID(item, "content_id"); cid != "" {
					fmt.Fprintf(&b, "%s  Content ID: %s\n", pad, cid)
				}
				if u := fieldStr(item, "external_url", ""); u != "" {
					fmt.Fprintf(&b, "%s  External URL: %s\n", pad, u)
				}
				fmt.Fprintf(&b, "%s  Published: %s\n\n", pad, yesNo(fieldBool(item, "published")))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_add_item_to_module",
		Description: "Add an item of any type to a module. Required: item_type plus the fields that type needs.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			itemType, err := args.RequireString("item_type")
			if err != nil {
				return "", err
			}
			return addModuleItem(ctx, d, args, specFromArgs(args, itemType))
		},
	})

	r.Register(Tool{
		Name:        "canvas_add_page_to_module",
		Description: "Add a page to a module by page URL/slug.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			pageURL, err := args.RequireString("page_url")
			if err != nil {
				return "", err
			}
			spec := specFromArgs(args, "Page")
			spec.PageURL = pageURL
			return addModuleItem(ctx, d, args, spec)
		},
	})

	r.Register(Tool{
		Name:        "canvas_add_assign_to_module",
		Description: "Add an assignment to a module by assignment id.",
		Handler:     addContentItemHandler(d, "Assignment", "assignment_id"),
	})
	r.Register(Tool{
		Name:        "canvas_add_quiz_to_module",
		Description: "Add a quiz to a module by quiz id.",
		Handler:     addContentItemHandler(d, "Quiz", "quiz_id"),
	})

	r.Register(Tool{
		Name:        "canvas_add_ext_link_module",
		Description: "Add an external link to a module. Required: url, title.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			extURL, err := args.RequireString("url")
			if err != nil {
				return "", err
			}
			title, err := args.RequireString("title")
			if err != nil {
				return "", err
			}
			spec := specFromArgs(args, "ExternalUrl")
			spec.ExternalURL = extURL
			spec.Title = title
			if spec.NewTab == nil {
				newTab := true
				spec.NewTab = &newTab
			}
			return addModuleItem(ctx, d, args, spec)
		},
	})

	r.Register(Tool{
		Name:        "canvas_add_subheader_module",
		Description: "Add a text subheader to a module. Required: title.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			title, err := args.RequireString("title")
			if err != nil {
				return "", err
			}
			spec := specFromArgs(args, "SubHeader")
			spec.Title = title
			return addModuleItem(ctx, d, args, spec)
		},
	})

	r.Register(Tool{
		Name:        "canvas_bulk_add_mod_items",
		Description: "Add several items to a module in one call. items is a list of objects each carrying type plus that type's fields.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleID, ok := args.Int("module_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "module_id")
			}
			items, err := args.Maps("items")
			if err != nil {
				return "", err
			}
			if len(items) == 0 {
				return "No items provided to add to module.", nil
			}

			moduleName, _ := moduleContext(ctx, d, courseID, moduleID)
			var successes, failures []string
			for i, item := range items {
				entry := Args(item)
				itemType := entry.StringOr("type", "")
				if itemType == "" {
					failures = append(failures, fmt.Sprintf("Item %d: missing 'type' field", i+1))
					continue
				}
				spec := specFromArgs(entry, itemType)
				if spec.PageURL == "" {
					spec.PageURL = entry.StringOr("page_url", "")
				}
				payload, err := spec.payload()
				if err != nil {
					failures = append(failures, fmt.Sprintf("Item %d (%s): %s", i+1, itemType, err))
					continue
				}
				if _, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/modules/%d/items", courseID, moduleID), nil, payload); err != nil {
					failures = append(failures, fmt.Sprintf("Item %d (%s): %s", i+1, itemType, err))
					continue
				}
				title := entry.StringOr("title", itemType+" item")
				successes = append(successes, fmt.Sprintf("%s (%s)", title, itemType))
			}

			header := fmt.Sprintf("Bulk Add Results for Module '%s' in Course %s:", moduleName, d.courseDisplay(courseID, identifier))
			return bulkReport(header, "added", "add", "items", successes, failures), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_delete_module_item",
		Description: "Delete one item from a module.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleID, ok := args.Int("module_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "module_id")
			}
			itemID, ok := args.Int("item_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "item_id")
			}

			title, itemType := "Unknown item", "Unknown type"
			if item, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/modules/%d/items/%d", courseID, moduleID, itemID), nil, nil); err == nil {
				title = fieldStr(item, "title", title)
				itemType = fieldStr(item, "type", itemType)
			}
			if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/modules/%d/items/%d", courseID, moduleID, itemID), nil, nil); err != nil {
				return "", fmt.Errorf("deleting module item: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully deleted module item from Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Item: %s\n", title)
			fmt.Fprintf(&b, "Type: %s\n", itemType)
			fmt.Fprintf(&b, "Item ID: %d\n", itemID)
			fmt.Fprintf(&b, "Module ID: %d\n", moduleID)
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_bulk_del_mod_items",
		Description: "Delete several module items by ids, by item_type_filter, or all with delete_all_items=true.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			return bulkDeleteModuleItems(ctx, d, args, args.StringOr("item_type_filter", ""))
		},
	})

	r.Register(Tool{
		Name:        "canvas_del_ext_links_module",
		Description: "Delete every ExternalTool item from a module.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			return bulkDeleteModuleItems(ctx, d, args, "ExternalTool")
		},
	})

	r.Register(Tool{
		Name:        "canvas_update_mod_indent",
		Description: "Set the indentation level (0-3) of a module item.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleID, ok := args.Int("module_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "module_id")
			}
			itemID, ok := args.Int("item_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "item_id")
			}
			indent, ok := args.Int("indent_level")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "indent_level")
			}
			if indent < 0 || indent > 3 {
				return "", fmt.Errorf("indent_level must be between 0 and 3")
			}

			item, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/modules/%d/items/%d", courseID, moduleID, itemID), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching item: %w", err)
			}
			title := fieldStr(item, "title", "Unknown item")
			previous := fieldInt(item, "indent", 0)

			payload := map[string]any{"module_item": map[string]any{"indent": indent}}
			if _, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/modules/%d/items/%d", courseID, moduleID, itemID), nil, payload); err != nil {
				return "", fmt.Errorf("updating item indentation: %w", err)
			}

			moduleName, _ := moduleContext(ctx, d, courseID, moduleID)
			var b strings.Builder
			fmt.Fprintf(&b, "Successfully updated indentation for item in Module '%s' in Course %s:\n\n", moduleName, d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Item: %s\n", title)
			fmt.Fprintf(&b, "Item ID: %d\n", itemID)
			fmt.Fprintf(&b, "Previous Indent: %d\n", previous)
			fmt.Fprintf(&b, "New Indent: %d\n", indent)
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_bulk_update_indent",
		Description: "Update indentation for several items. indent_updates is a list of {item_id, indent_level}.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleID, ok := args.Int("module_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "module_id")
			}
			updates, err := args.Maps("indent_updates")
			if err != nil {
				return "", err
			}
			if len(updates) == 0 {
				return "No indent updates provided.", nil
			}

			moduleName, _ := moduleContext(ctx, d, courseID, moduleID)
			var successes, failures []string
			for i, update := range updates {
				entry := Args(update)
				itemID, ok := entry.Int("item_id")
				if !ok {
					failures = append(failures, fmt.Sprintf("Update %d: missing 'item_id'", i+1))
					continue
				}
				indent, ok := entry.Int("indent_level")
				if !ok {
					failures = append(failures, fmt.Sprintf("Update %d: missing 'indent_level'", i+1))
					continue
				}
				if indent < 0 || indent > 3 {
					failures = append(failures, fmt.Sprintf("Update %d: indent_level must be between 0 and 3", i+1))
					continue
				}

				payload := map[string]any{"module_item": map[string]any{"indent": indent}}
				item, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/modules/%d/items/%d", courseID, moduleID, itemID), nil, payload)
				if err != nil {
					failures = append(failures, fmt.Sprintf("Item %d: %s", itemID, err))
					continue
				}
				successes = append(successes, fmt.Sprintf("%s (ID: %d) -> Indent: %d", fieldStr(item, "title", "Unknown item"), itemID, indent))
			}

			header := fmt.Sprintf("Bulk Indent Update Results for Module '%s' in Course %s:", moduleName, d.courseDisplay(courseID, identifier))
			return bulkReport(header, "updated", "update", "items", successes, failures), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_mod_tree",
		Description: "Render a module's items as an indented tree ordered by position.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			moduleID, ok := args.Int("module_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "module_id")
			}

			items, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/modules/%d/items", courseID, moduleID), nil)
			if err != nil {
				return "", fmt.Errorf("fetching module items: %w", err)
			}
			if len(items) == 0 {
				return fmt.Sprintf("No items found in module %d.", moduleID), nil
			}
			sort.SliceStable(items, func(i, j int) bool {
				return fieldInt(items[i], "position", 0) < fieldInt(items[j], "position", 0)
			})

			moduleName, _ := moduleContext(ctx, d, courseID, moduleID)
			var b strings.Builder
			fmt.Fprintf(&b, "Module Structure Tree for '%s' in Course %s:\n\n", moduleName, d.courseDisplay(courseID, identifier))
			for _, item := range items {
				indent := fieldInt(item, "indent", 0)
				prefix := strings.Repeat("|   ", indent) + "|-- "
				state := "[unpublished]"
				if fieldBool(item, "published") {
					state = "[published]"
				}
				fmt.Fprintf(&b, "%s%s (%s) %s\n", prefix, fieldStr(item, "title", "Untitled"), fieldStr(item, "type", "Unknown"), state)
				fmt.Fprintf(&b, "%s    position %d, id %s\n", strings.Repeat("|   ", indent), fieldInt(item, "position", 0), fieldID(item, "id"))
			}
			return b.String(), nil
		},
	})
}

// addModuleItem creates one module item and formats the confirmation.
func addModuleItem(ctx context.Context, d Deps, args Args, spec moduleItemSpec) (string, error) {
	courseID, identifier, err := d.resolveCourse(ctx, args)
	if err != nil {
		return "", err
	}
	moduleID, ok := args.Int("module_id")
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", "module_id")
	}
	payload, err := spec.payload()
	if err != nil {
		return "", err
	}

	created, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/modules/%d/items", courseID, moduleID), nil, payload)
	if err != nil {
		return "", fmt.Errorf("adding item to module: %w", err)
	}

	moduleName, _ := moduleContext(ctx, d, courseID, moduleID)
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully added item to Module '%s' in Course %s:\n\n", moduleName, d.courseDisplay(courseID, identifier))
	fmt.Fprintf(&b, "Item: %s\n", fieldStr(created, "title", spec.Title))
	fmt.Fprintf(&b, "Type: %s\n", spec.Type)
	fmt.Fprintf(&b, "Item ID: %s\n", fieldID(created, "id"))
	fmt.Fprintf(&b, "Position: %d\n", fieldInt(created, "position", 0))
	if spec.ContentID != "" {
		fmt.Fprintf(&b, "Content ID: %s\n", spec.ContentID)
	}
	if spec.PageURL != "" {
		fmt.Fprintf(&b, "Page URL: %s\n", spec.PageURL)
	}
	if spec.ExternalURL != "" {
		fmt.Fprintf(&b, "External URL: %s\n", spec.ExternalURL)
	}
	if spec.Indent != nil {
		fmt.Fprintf(&b, "Indent Level: %d\n", *spec.Indent)
	}
	return b.String(), nil
}

// addContentItemHandler builds the typed convenience tools that wrap
// content-id based item creation (assignments, quizzes).
func addContentItemHandler(d Deps, itemType, idParam string) Handler {
	return func(ctx context.Context, args Args) (string, error) {
		contentID, err := args.RequireString(idParam)
		if err != nil {
			return "", err
		}
		spec := specFromArgs(args, itemType)
		spec.ContentID = contentID
		return addModuleItem(ctx, d, args, spec)
	}
}

// bulkDeleteModuleItems deletes items selected by explicit ids, a type
// filter, or delete_all_items. A forced type filter (external links tool)
// overrides the args.
func bulkDeleteModuleItems(ctx context.Context, d Deps, args Args, typeFilter string) (string, error) {
	courseID, identifier, err := d.resolveCourse(ctx, args)
	if err != nil {
		return "", err
	}
	moduleID, ok := args.Int("module_id")
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", "module_id")
	}
	itemIDs, err := args.Ints("item_ids")
	if err != nil {
		return "", err
	}

	items, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/modules/%d/items", courseID, moduleID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching module items: %w", err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("No items found in module %d.", moduleID), nil
	}

	var targets []map[string]any
	switch {
	case args.BoolOr("delete_all_items", false):
		targets = items
	case typeFilter != "":
		for _, item := range items {
			if fieldStr(item, "type", "") == typeFilter {
				targets = append(targets, item)
			}
		}
		if len(targets) == 0 {
			return fmt.Sprintf("No items found of type '%s' to delete in module %d.", typeFilter, moduleID), nil
		}
	case len(itemIDs) > 0:
		wanted := map[int64]bool{}
		for _, id := range itemIDs {
			wanted[id] = true
		}
		for _, item := range items {
			if wanted[int64(fieldFloat(item, "id"))] {
				targets = append(targets, item)
			}
		}
		if len(targets) == 0 {
			return fmt.Sprintf("No items found with specified IDs to delete in module %d.", moduleID), nil
		}
	default:
		return "No deletion criteria specified. Use item_ids, item_type_filter, or delete_all_items=true.", nil
	}

	moduleName, _ := moduleContext(ctx, d, courseID, moduleID)
	var successes, failures []string
	for _, item := range targets {
		id := int64(fieldFloat(item, "id"))
		title := fieldStr(item, "title", "Unknown item")
		itemType := fieldStr(item, "type", "Unknown type")
		if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/modules/%d/items/%d", courseID, moduleID, id), nil, nil); err != nil {
			failures = append(failures, fmt.Sprintf("Item '%s' (ID: %d): %s", title, id, err))
			continue
		}
		successes = append(successes, fmt.Sprintf("%s (%s, ID: %d)", title, itemType, id))
	}

	header := fmt.Sprintf("Bulk Delete Results for Module '%s' in Course %s:", moduleName, d.courseDisplay(courseID, identifier))
	return bulkReport(header, "deleted", "delete", "items", successes, failures), nil
}
