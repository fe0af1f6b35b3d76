package tools

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mind-engage/canvas-mcp/internal/anonymize"
	"github.com/mind-engage/canvas-mcp/internal/storage"
)

func registerUserTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_users",
		Description: "List users enrolled in a course with email and roles. Student identities are anonymized.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			params := url.Values{}
			params.Add("include[]", "enrollments")
			params.Add("include[]", "email")
			users, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/users", courseID), params)
			if err != nil {
				return "", fmt.Errorf("fetching users: %w", err)
			}
			if len(users) == 0 {
				return fmt.Sprintf("No users found for course %s.", identifier), nil
			}
			users, err = d.Anon.Records(users, anonymize.CategoryUsers)
			if err != nil {
				return "", fmt.Errorf("anonymizing user data: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Users in Course %s:\n\n", d.courseDisplay(courseID, identifier))
			for _, u := range users {
				roles := map[string]bool{}
				for _, e := range fieldList(u, "enrollments") {
					if em, ok := e.(map[string]any); ok {
						roles[fieldStr(em, "role", "Student")] = true
					}
				}
				roleList := make([]string, 0, len(roles))
				for role := range roles {
					roleList = append(roleList, role)
				}
				sort.Strings(roleList)
				if len(roleList) == 0 {
					roleList = []string{"Student"}
				}

				fmt.Fprintf(&b, "ID: %s\n", fieldID(u, "id"))
				fmt.Fprintf(&b, "Name: %s\n", fieldStr(u, "name", "Unknown"))
				fmt.Fprintf(&b, "Email: %s\n", fieldStr(u, "email", "No email"))
				fmt.Fprintf(&b, "Roles: %s\n\n", strings.Join(roleList, ", "))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_list_groups",
		Description: "List groups and their members for a course. Member identities are anonymized.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			groups, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/groups", courseID), nil)
			if err != nil {
				return "", fmt.Errorf("fetching groups: %w", err)
			}
			if len(groups) == 0 {
				return fmt.Sprintf("No groups found for course %s.", identifier), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Groups for Course %s:\n\n", d.courseDisplay(courseID, identifier))
			for _, g := range groups {
				groupID := fieldID(g, "id")
				fmt.Fprintf(&b, "Group: %s\n", fieldStr(g, "name", "Unnamed group"))
				fmt.Fprintf(&b, "ID: %s\n", groupID)
				fmt.Fprintf(&b, "Category ID: %s\n", fieldID(g, "group_category_id"))
				fmt.Fprintf(&b, "Member Count: %d\n", fieldInt(g, "members_count", 0))

				members, err := d.Client.ListPaginated(ctx, "/groups/"+groupID+"/users", nil)
				switch {
				case err != nil:
					fmt.Fprintf(&b, "Error fetching members: %s\n", err)
				case len(members) == 0:
					b.WriteString("No members in this group.\n")
				default:
					members, err = d.Anon.Records(members, anonymize.CategoryUsers)
					if err != nil {
						return "", fmt.Errorf("anonymizing group member data: %w", err)
					}
					b.WriteString("Members:\n")
					for _, m := range members {
						fmt.Fprintf(&b, "  - %s (ID: %s, Email: %s)\n",
							fieldStr(m, "name", "Unnamed user"), fieldID(m, "id"), fieldStr(m, "email", "No email"))
					}
				}
				b.WriteString("\n")
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_student_analytics",
		Description: "Summarize course-level student and assignment statistics. Student identities are anonymized.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			course, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d", courseID), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching course: %w", err)
			}

			params := url.Values{}
			params.Add("enrollment_type[]", "student")
			students, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/users", courseID), params)
			if err != nil {
				return "", fmt.Errorf("fetching students: %w", err)
			}
			students, err = d.Anon.Records(students, anonymize.CategoryUsers)
			if err != nil {
				return "", fmt.Errorf("anonymizing student data: %w", err)
			}

			// Assignment stats are optional context; a fetch failure just
			// leaves them out of the report.
			assignments, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/assignments", courseID), nil)
			if err != nil {
				assignments = nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Student Analytics for Course %s (%s)\n\n",
				d.courseDisplay(courseID, identifier), fieldStr(course, "name", "Unknown Course"))
			fmt.Fprintf(&b, "Total Students: %d\n", len(students))
			fmt.Fprintf(&b, "Total Assignments: %d\n\n", len(assignments))

			if args.BoolOr("include_assignment_stats", true) && len(assignments) > 0 {
				published := 0
				totalPoints := 0.0
				for _, a := range assignments {
					if fieldBool(a, "published") {
						published++
						totalPoints += fieldFloat(a, "points_possible")
					}
				}
				fmt.Fprintf(&b, "Published Assignments: %d\n", published)
				fmt.Fprintf(&b, "Total Points Available: %g\n\n", totalPoints)
			}

			b.WriteString("This analytics feature provides basic course statistics.\n")
			b.WriteString("For detailed individual student analytics, use specific assignment analytics tools.")
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_anon_status",
		Description: "Report whether student data anonymization is active and the session's pseudonym counts.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			var b strings.Builder
			b.WriteString("Data Anonymization Status:\n\n")
			if !d.Anon.Enabled() {
				b.WriteString("ANONYMIZATION DISABLED. Student data is NOT protected.\n\n")
				b.WriteString("Real student names and data are passed through to the assistant.\n")
				b.WriteString("This may violate FERPA requirements.\n\n")
				b.WriteString("To enable anonymization, set ENABLE_DATA_ANONYMIZATION=true in the environment.")
				return b.String(), nil
			}

			stats := d.Anon.Stats()
			b.WriteString("ANONYMIZATION ENABLED. Student data is protected.\n\n")
			b.WriteString("Session Statistics:\n")
			fmt.Fprintf(&b, "  Session ID: %s\n", d.Anon.SessionID())
			fmt.Fprintf(&b, "  Unique students anonymized: %d\n", stats[anonymize.CategoryUsers])
			fmt.Fprintf(&b, "  Submissions anonymized: %d\n", stats[anonymize.CategorySubmissions])
			debug := "OFF"
			if d.Anon.DebugLogging() {
				debug = "ON"
			}
			fmt.Fprintf(&b, "  Debug logging: %s\n\n", debug)
			b.WriteString("Data is anonymized before any assistant processing; all mapping state stays local.")
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_create_anon_map",
		Description: "Write a local CSV mapping real student identities to their anonymous IDs for a course. Administrator only.",
		AdminOnly:   true,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return createAnonymizationMap(ctx, d, args)
		},
	})
}

func createAnonymizationMap(ctx context.Context, d Deps, args Args) (string, error) {
	courseID, identifier, err := d.resolveCourse(ctx, args)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("enrollment_type[]", "student")
	params.Add("include[]", "email")
	students, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/users", courseID), params)
	if err != nil {
		return "", fmt.Errorf("fetching students: %w", err)
	}
	if len(students) == 0 {
		return fmt.Sprintf("No students found for course %s.", identifier), nil
	}

	rows := make([]anonymize.MapRow, 0, len(students))
	for _, s := range students {
		pseudonym, err := d.Anon.Pseudonym(anonymize.CategoryUsers, s["id"])
		if err != nil {
			return "", fmt.Errorf("assigning pseudonym: %w", err)
		}
		rows = append(rows, anonymize.MapRow{
			RealName:    fieldStr(s, "name", "Unknown"),
			RealID:      fieldID(s, "id"),
			RealEmail:   fieldStr(s, "email", "No email"),
			AnonymousID: pseudonym,
		})
	}

	var buf bytes.Buffer
	if err := anonymize.WriteCSV(&buf, rows); err != nil {
		return "", fmt.Errorf("writing anonymization map: %w", err)
	}

	display := d.courseDisplay(courseID, identifier)
	key := storage.MapKey(display, d.now())
	location, err := d.Store.Put(key, &buf)
	if err != nil {
		return "", fmt.Errorf("saving anonymization map: %w", err)
	}

	var b strings.Builder
	b.WriteString("Student anonymization map created.\n\n")
	fmt.Fprintf(&b, "File location: %s\n", location)
	fmt.Fprintf(&b, "Students mapped: %d\n", len(rows))
	fmt.Fprintf(&b, "Course: %s\n\n", display)
	b.WriteString("SECURITY WARNING: this file contains sensitive student information. ")
	b.WriteString("Keep it secure, do not share it, delete it when no longer needed, and never commit it to version control.\n\n")
	b.WriteString("File format: CSV with columns real_name, real_id, real_email, anonymous_id.\n")
	b.WriteString("Use it to identify students from the anonymous IDs in tool outputs.")
	return b.String(), nil
}
