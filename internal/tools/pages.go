package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func registerPageTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_pages",
		Description: "List pages for a course. Optional: sort (title/created_at/updated_at), order (asc/desc), search_term, published.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			params := url.Values{}
			params.Set("sort", args.StringOr("sort", "title"))
			params.Set("order", args.StringOr("order", "asc"))
			if term := args.StringOr("search_term", ""); term != "" {
				params.Set("search_term", term)
			}
			if published, ok := args.Bool("published"); ok {
				params.Set("published", fmt.Sprint(published))
			}

			pages, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/pages", courseID), params)
			if err != nil {
				return "", fmt.Errorf("fetching pages: %w", err)
			}
			if len(pages) == 0 {
				return fmt.Sprintf("No pages found for course %s.", identifier), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Pages for Course %s:\n\n", d.courseDisplay(courseID, identifier))
			for _, page := range pages {
				frontPage := ""
				if fieldBool(page, "front_page") {
					frontPage = " (Front Page)"
				}
				fmt.Fprintf(&b, "URL: %s\n", fieldStr(page, "url", "No URL"))
				fmt.Fprintf(&b, "Title: %s%s\n", fieldStr(page, "title", "Untitled page"), frontPage)
				fmt.Fprintf(&b, "Status: %s\n", publishedLabel(fieldBool(page, "published")))
				fmt.Fprintf(&b, "Updated: %s\n\n", formatDate(page["updated_at"]))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_page_content",
		Description: "Get the full body of a page by URL slug or id.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			pageRef, err := args.RequireString("page_url_or_id")
			if err != nil {
				return "", err
			}

			page, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/pages/%s", courseID, url.PathEscape(pageRef)), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching page content: %w", err)
			}

			title := fieldStr(page, "title", "Untitled")
			body := fieldStr(page, "body", "")
			if body == "" {
				return fmt.Sprintf("Page '%s' has no content.", title), nil
			}
			return fmt.Sprintf("Page Content for '%s' in Course %s (%s):\n\n%s",
				title, d.courseDisplay(courseID, identifier), publishedLabel(fieldBool(page, "published")), body), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_page_details",
		Description: "Get metadata and a content preview for a page.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			pageRef, err := args.RequireString("page_url_or_id")
			if err != nil {
				return "", err
			}

			page, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/pages/%s", courseID, url.PathEscape(pageRef)), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching page details: %w", err)
			}

			status := []string{publishedLabel(fieldBool(page, "published"))}
			if fieldBool(page, "front_page") {
				status = append(status, "Front Page")
			}
			if fieldBool(page, "locked_for_user") {
				status = append(status, "Locked")
			}

			editor := "Unknown"
			if by := fieldMap(page, "last_edited_by"); by != nil {
				editor = fieldStr(by, "display_name", "Unknown")
			}

			preview := "No content"
			if body := fieldStr(page, "body", ""); body != "" {
				preview = truncateText(stripHTML(body), 500)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Page Details for Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Title: %s\n", fieldStr(page, "title", "Untitled"))
			fmt.Fprintf(&b, "URL: %s\n", fieldStr(page, "url", "N/A"))
			fmt.Fprintf(&b, "Status: %s\n", strings.Join(status, ", "))
			fmt.Fprintf(&b, "Created: %s\n", formatDate(page["created_at"]))
			fmt.Fprintf(&b, "Updated: %s\n", formatDate(page["updated_at"]))
			fmt.Fprintf(&b, "Last Edited By: %s\n", editor)
			fmt.Fprintf(&b, "Editing Roles: %s\n", fieldStr(page, "editing_roles", "Not specified"))
			fmt.Fprintf(&b, "\nContent Preview:\n%s", preview)
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_front_page",
		Description: "Get the front page content for a course.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			page, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/front_page", courseID), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching front page: %w", err)
			}

			title := fieldStr(page, "title", "Untitled")
			body := fieldStr(page, "body", "")
			if body == "" {
				return fmt.Sprintf("Course front page '%s' has no content.", title), nil
			}
			return fmt.Sprintf("Front Page '%s' for Course %s (Updated: %s):\n\n%s",
				title, d.courseDisplay(courseID, identifier), formatDate(page["updated_at"]), body), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_create_page",
		Description: "Create a page. Required: title, body. Optional: published, front_page, editing_roles.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			title, err := args.RequireString("title")
			if err != nil {
				return "", err
			}
			body, err := args.RequireString("body")
			if err != nil {
				return "", err
			}
			frontPage := args.BoolOr("front_page", false)

			payload := map[string]any{"wiki_page": map[string]any{
				"title":         title,
				"body":          body,
				"published":     args.BoolOr("published", true),
				"front_page":    frontPage,
				"editing_roles": args.StringOr("editing_roles", "teachers"),
			}}
			page, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/pages", courseID), nil, payload)
			if err != nil {
				return "", fmt.Errorf("creating page: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully created page in Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Title: %s\n", fieldStr(page, "title", title))
			fmt.Fprintf(&b, "URL: %s\n", fieldStr(page, "url", ""))
			fmt.Fprintf(&b, "Status: %s\n", publishedLabel(fieldBool(page, "published")))
			fmt.Fprintf(&b, "Created: %s\n", formatDate(page["created_at"]))
			if frontPage {
				b.WriteString("Set as front page: Yes\n")
			}
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_edit_page_content",
		Description: "Replace the body of a page; optionally retitle it.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			pageRef, err := args.RequireString("page_url_or_id")
			if err != nil {
				return "", err
			}
			content, err := args.RequireString("new_content")
			if err != nil {
				return "", err
			}

			wikiPage := map[string]any{"body": content}
			if title := args.StringOr("title", ""); title != "" {
				wikiPage["title"] = title
			}
			page, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/pages/%s", courseID, url.PathEscape(pageRef)), nil, map[string]any{"wiki_page": wikiPage})
			if err != nil {
				return "", fmt.Errorf("updating page: %w", err)
			}
			return fmt.Sprintf("Successfully updated page '%s' in course %s. Last updated: %s",
				fieldStr(page, "title", "Unknown page"), d.courseDisplay(courseID, identifier), formatDate(page["updated_at"])), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_publish_page",
		Description: "Publish a page.",
		Handler:     setPagePublished(d, true),
	})
	r.Register(Tool{
		Name:        "canvas_unpublish_page",
		Description: "Unpublish a page.",
		Handler:     setPagePublished(d, false),
	})
}

func setPagePublished(d Deps, published bool) Handler {
	return func(ctx context.Context, args Args) (string, error) {
		courseID, identifier, err := d.resolveCourse(ctx, args)
		if err != nil {
			return "", err
		}
		pageRef, err := args.RequireString("page_url_or_id")
		if err != nil {
			return "", err
		}

		payload := map[string]any{"wiki_page": map[string]any{"published": published}}
		page, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/pages/%s", courseID, url.PathEscape(pageRef)), nil, payload)
		if err != nil {
			if published {
				return "", fmt.Errorf("publishing page: %w", err)
			}
			return "", fmt.Errorf("unpublishing page: %w", err)
		}

		verb := "published"
		if !published {
			verb = "unpublished"
		}
		return fmt.Sprintf("Successfully %s page '%s' in course %s. Last updated: %s",
			verb, fieldStr(page, "title", "Unknown page"), d.courseDisplay(courseID, identifier), formatDate(page["updated_at"])), nil
	}
}
