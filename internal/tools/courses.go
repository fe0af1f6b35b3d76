package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func registerCourseTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_courses",
		Description: "List courses visible to the configured account. include_concluded adds finished courses.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			params := url.Values{}
			params.Add("include[]", "term")
			params.Add("state[]", "available")
			if args.BoolOr("include_concluded", false) {
				params.Add("state[]", "completed")
			}

			courses, err := d.Client.ListPaginated(ctx, "/courses", params)
			if err != nil {
				return "", fmt.Errorf("fetching courses: %w", err)
			}
			if len(courses) == 0 {
				return "No courses found.", nil
			}

			var b strings.Builder
			b.WriteString("Courses:\n\n")
			for _, course := range courses {
				name := fieldStr(course, "name", "Unnamed course")
				code := fieldStr(course, "course_code", "No code")
				fmt.Fprintf(&b, "Course: %s\n", name)
				fmt.Fprintf(&b, "Code: %s\n", code)
				fmt.Fprintf(&b, "ID: %s\n", fieldID(course, "id"))
				if term := fieldMap(course, "term"); term != nil {
					fmt.Fprintf(&b, "Term: %s\n", fieldStr(term, "name", "N/A"))
				}
				fmt.Fprintf(&b, "State: %s\n\n", fieldStr(course, "workflow_state", "unknown"))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_course_details",
		Description: "Get details for one course, identified by course code or numeric id.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			identifier, err := args.RequireString("course_identifier")
			if err != nil {
				return "", err
			}
			courseID, err := d.Resolver.CourseID(ctx, identifier)
			if err != nil {
				return "", err
			}

			params := url.Values{}
			params.Add("include[]", "syllabus_body")
			params.Add("include[]", "term")
			params.Add("include[]", "total_students")
			course, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d", courseID), params, nil)
			if err != nil {
				return "", fmt.Errorf("fetching course details: %w", err)
			}

			display := d.courseDisplay(courseID, identifier)
			var b strings.Builder
			fmt.Fprintf(&b, "Course Details for %s:\n\n", display)
			fmt.Fprintf(&b, "Name: %s\n", fieldStr(course, "name", "N/A"))
			fmt.Fprintf(&b, "Code: %s\n", fieldStr(course, "course_code", "N/A"))
			fmt.Fprintf(&b, "ID: %s\n", fieldID(course, "id"))
			if term := fieldMap(course, "term"); term != nil {
				fmt.Fprintf(&b, "Term: %s\n", fieldStr(term, "name", "N/A"))
			}
			fmt.Fprintf(&b, "State: %s\n", fieldStr(course, "workflow_state", "unknown"))
			fmt.Fprintf(&b, "Start: %s\n", formatDate(course["start_at"]))
			fmt.Fprintf(&b, "End: %s\n", formatDate(course["end_at"]))
			if _, ok := course["total_students"]; ok {
				fmt.Fprintf(&b, "Total Students: %d\n", fieldInt(course, "total_students", 0))
			}
			if syllabus := fieldStr(course, "syllabus_body", ""); syllabus != "" {
				fmt.Fprintf(&b, "\nSyllabus Preview:\n%s\n", truncateText(stripHTML(syllabus), 500))
			}
			return b.String(), nil
		},
	})
}
