package tools

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/mind-engage/canvas-mcp/internal/anonymize"
)

var validGradingTypes = []string{"points", "percent", "letter_grade", "gpa_scale", "pass_fail", "not_graded"}

var validSubmissionTypes = []string{
	"online_text_entry", "online_url", "online_upload", "media_recording",
	"student_annotation", "online_quiz", "external_tool", "none", "on_paper",
}

func registerAssignmentTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_assignments",
		Description: "List assignments for a course with due dates and points.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			params := url.Values{}
			params.Add("include[]", "all_dates")
			assignments, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/assignments", courseID), params)
			if err != nil {
				return "", fmt.Errorf("fetching assignments: %w", err)
			}
			if len(assignments) == 0 {
				return fmt.Sprintf("No assignments found for course %s.", identifier), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Assignments for Course %s:\n\n", d.courseDisplay(courseID, identifier))
			for _, a := range assignments {
				fmt.Fprintf(&b, "ID: %s\n", fieldID(a, "id"))
				fmt.Fprintf(&b, "Name: %s\n", fieldStr(a, "name", "Unnamed assignment"))
				fmt.Fprintf(&b, "Due: %s\n", formatDate(a["due_at"]))
				fmt.Fprintf(&b, "Points: %g\n\n", fieldFloat(a, "points_possible"))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_assignment_details",
		Description: "Get details for one assignment.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			assignmentID, ok := args.Int("assignment_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "assignment_id")
			}

			a, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching assignment details: %w", err)
			}

			subTypes := "N/A"
			if types := fieldList(a, "submission_types"); len(types) > 0 {
				parts := make([]string, 0, len(types))
				for _, t := range types {
					parts = append(parts, fmt.Sprint(t))
				}
				subTypes = strings.Join(parts, ", ")
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Assignment Details for ID %d in course %s:\n\n", assignmentID, d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Name: %s\n", fieldStr(a, "name", "N/A"))
			fmt.Fprintf(&b, "Description: %s\n", truncateText(stripHTML(fieldStr(a, "description", "N/A")), 300))
			fmt.Fprintf(&b, "Due Date: %s\n", formatDate(a["due_at"]))
			fmt.Fprintf(&b, "Points Possible: %g\n", fieldFloat(a, "points_possible"))
			fmt.Fprintf(&b, "Submission Types: %s\n", subTypes)
			fmt.Fprintf(&b, "Published: %v\n", fieldBool(a, "published"))
			fmt.Fprintf(&b, "Locked: %v\n", fieldBool(a, "locked_for_user"))
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_update_assignment",
		Description: "Update assignment fields: name, description, dates, points_possible, grading_type, submission_types, allowed_extensions, published, omit_from_final_grade, allowed_attempts.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			assignmentID, ok := args.Int("assignment_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "assignment_id")
			}

			assignment := map[string]any{}
			var changes []string

			current, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching current assignment: %w", err)
			}

			if name := args.StringOr("name", ""); name != "" {
				assignment["name"] = name
				changes = append(changes, fmt.Sprintf("Name: '%s' -> '%s'", fieldStr(current, "name", ""), name))
			}
			if desc := args.StringOr("description", ""); desc != "" {
				assignment["description"] = desc
				changes = append(changes, fmt.Sprintf("Description: updated (preview: %s)", truncateText(stripHTML(desc), 50)))
			}
			for key, label := range map[string]string{"due_at": "Due Date", "unlock_at": "Unlock Date", "lock_at": "Lock Date"} {
				if v := args.StringOr(key, ""); v != "" {
					assignment[key] = v
					changes = append(changes, fmt.Sprintf("%s: %s -> %s", label, formatDate(current[key]), formatDate(v)))
				}
			}
			if points, ok := args.Float("points_possible"); ok {
				assignment["points_possible"] = points
				changes = append(changes, fmt.Sprintf("Points Possible: %g -> %g", fieldFloat(current, "points_possible"), points))
			}
			if gt := args.StringOr("grading_type", ""); gt != "" {
				if !contains(validGradingTypes, gt) {
					return "", fmt.Errorf("invalid grading_type %q; must be one of: %s", gt, strings.Join(validGradingTypes, ", "))
				}
				assignment["grading_type"] = gt
				changes = append(changes, fmt.Sprintf("Grading Type: %s -> %s", fieldStr(current, "grading_type", ""), gt))
			}
			if raw, ok := args.List("submission_types"); ok {
				types := make([]string, 0, len(raw))
				for _, t := range raw {
					s, ok := t.(string)
					if !ok || !contains(validSubmissionTypes, s) {
						return "", fmt.Errorf("invalid submission type %v; valid types: %s", t, strings.Join(validSubmissionTypes, ", "))
					}
					types = append(types, s)
				}
				assignment["submission_types"] = types
				changes = append(changes, fmt.Sprintf("Submission Types: %s", strings.Join(types, ", ")))
			}
			if raw, ok := args.List("allowed_extensions"); ok {
				assignment["allowed_extensions"] = raw
				changes = append(changes, "Allowed Extensions updated")
			}
			if published, ok := args.Bool("published"); ok {
				assignment["published"] = published
				changes = append(changes, fmt.Sprintf("Published: %v -> %v", fieldBool(current, "published"), published))
			}
			if omit, ok := args.Bool("omit_from_final_grade"); ok {
				assignment["omit_from_final_grade"] = omit
				changes = append(changes, fmt.Sprintf("Omit from Final Grade: %v", omit))
			}
			if attempts, ok := args.Int("allowed_attempts"); ok {
				assignment["allowed_attempts"] = attempts
				display := fmt.Sprint(attempts)
				if attempts == -1 {
					display = "Unlimited"
				}
				changes = append(changes, fmt.Sprintf("Allowed Attempts: %s", display))
			}
			if len(assignment) == 0 {
				return "", fmt.Errorf("no update parameters provided; at least one field must be specified")
			}

			updated, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil, map[string]any{"assignment": assignment})
			if err != nil {
				return "", fmt.Errorf("updating assignment: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully updated assignment in Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Assignment: %s\n", fieldStr(updated, "name", "N/A"))
			fmt.Fprintf(&b, "Assignment ID: %d\n\n", assignmentID)
			b.WriteString("Updated fields:\n")
			for _, change := range changes {
				fmt.Fprintf(&b, "  %s\n", change)
			}
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_delete_assignment",
		Description: "Delete an assignment by id.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			assignmentID, ok := args.Int("assignment_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "assignment_id")
			}

			name, points := "Unknown assignment", 0.0
			if a, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil, nil); err == nil {
				name = fieldStr(a, "name", name)
				points = fieldFloat(a, "points_possible")
			}
			if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil, nil); err != nil {
				return "", fmt.Errorf("deleting assignment: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully deleted assignment from Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Assignment: %s\n", name)
			fmt.Fprintf(&b, "Assignment ID: %d\n", assignmentID)
			fmt.Fprintf(&b, "Points: %g\n", points)
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_bulk_delete_assignments",
		Description: "Delete several assignments: by assignment_ids, delete_unpublished=true, or delete_all=true (requires a second criterion as confirmation).",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			assignmentIDs, err := args.Ints("assignment_ids")
			if err != nil {
				return "", err
			}
			deleteUnpublished := args.BoolOr("delete_unpublished", false)
			deleteAll := args.BoolOr("delete_all", false)

			if deleteAll && !deleteUnpublished && len(assignmentIDs) == 0 {
				return "DANGEROUS OPERATION: To delete ALL assignments, set delete_all=true AND either provide assignment_ids or set delete_unpublished=true. This is a safety measure against accidental deletion of all course content.", nil
			}

			var targets []map[string]any
			switch {
			case deleteAll || deleteUnpublished:
				all, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/assignments", courseID), nil)
				if err != nil {
					return "", fmt.Errorf("fetching assignments: %w", err)
				}
				if deleteAll {
					targets = all
				} else {
					for _, a := range all {
						if !fieldBool(a, "published") {
							targets = append(targets, a)
						}
					}
					if len(targets) == 0 {
						return fmt.Sprintf("No unpublished assignments found to delete in course %s.", identifier), nil
					}
				}
			case len(assignmentIDs) > 0:
				for _, id := range assignmentIDs {
					a, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/assignments/%d", courseID, id), nil, nil)
					if err != nil {
						a = map[string]any{"id": float64(id)}
					}
					targets = append(targets, a)
				}
			default:
				return "No deletion criteria specified. Use assignment_ids, delete_unpublished=true, or delete_all=true.", nil
			}

			var successes, failures []string
			for _, a := range targets {
				id := int64(fieldFloat(a, "id"))
				name := fieldStr(a, "name", "Unknown assignment")
				if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/assignments/%d", courseID, id), nil, nil); err != nil {
					failures = append(failures, fmt.Sprintf("Assignment '%s' (ID: %d): %s", name, id, err))
					continue
				}
				successes = append(successes, fmt.Sprintf("%s (%g pts, %s, ID: %d)",
					name, fieldFloat(a, "points_possible"), publishedLabel(fieldBool(a, "published")), id))
			}

			header := fmt.Sprintf("Bulk Delete Results for Course %s:", d.courseDisplay(courseID, identifier))
			return bulkReport(header, "deleted", "delete", "assignments", successes, failures), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_list_submissions",
		Description: "List submissions for an assignment. Student identities are anonymized.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			assignmentID, ok := args.Int("assignment_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "assignment_id")
			}

			submissions, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/assignments/%d/submissions", courseID, assignmentID), nil)
			if err != nil {
				return "", fmt.Errorf("fetching submissions: %w", err)
			}
			if len(submissions) == 0 {
				return fmt.Sprintf("No submissions found for assignment %d.", assignmentID), nil
			}
			submissions, err = d.Anon.Records(submissions, anonymize.CategorySubmissions)
			if err != nil {
				return "", fmt.Errorf("anonymizing submission data: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Submissions for Assignment %d in course %s:\n\n", assignmentID, d.courseDisplay(courseID, identifier))
			for _, s := range submissions {
				fmt.Fprintf(&b, "User ID: %s\n", fieldID(s, "user_id"))
				fmt.Fprintf(&b, "Submitted: %s\n", formatDate(s["submitted_at"]))
				score := "Not graded"
				if v, ok := s["score"].(float64); ok {
					score = fmt.Sprintf("%g", v)
				}
				fmt.Fprintf(&b, "Score: %s\n", score)
				fmt.Fprintf(&b, "Grade: %s\n\n", fieldStr(s, "grade", "Not graded"))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_get_assignment_analytics",
		Description: "Summarize submission and grade statistics for an assignment. Student identities are anonymized.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			return assignmentAnalytics(ctx, d, args)
		},
	})

	r.Register(Tool{
		Name:        "canvas_assign_peer_review",
		Description: "Assign a peer review: reviewer_id reviews reviewee_id's submission. Creates a placeholder submission if none exists.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			assignmentID, ok := args.Int("assignment_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "assignment_id")
			}
			reviewerID, err := args.RequireString("reviewer_id")
			if err != nil {
				return "", err
			}
			revieweeID, err := args.RequireString("reviewee_id")
			if err != nil {
				return "", err
			}

			submissions, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/assignments/%d/submissions", courseID, assignmentID), nil)
			if err != nil {
				return "", fmt.Errorf("fetching submissions: %w", err)
			}

			var submissionID string
			for _, s := range submissions {
				if fieldID(s, "user_id") == revieweeID {
					submissionID = fieldID(s, "id")
					break
				}
			}
			if submissionID == "" {
				placeholder := map[string]any{"submission": map[string]any{
					"user_id":         revieweeID,
					"submission_type": "online_text_entry",
					"body":            "Placeholder submission for peer review",
				}}
				created, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/assignments/%d/submissions", courseID, assignmentID), nil, placeholder)
				if err != nil {
					return "", fmt.Errorf("creating placeholder submission: %w", err)
				}
				submissionID = fieldID(created, "id")
			}

			payload := map[string]any{"user_id": reviewerID}
			if _, err := d.Client.Request(ctx, "post", fmt.Sprintf("/courses/%d/assignments/%d/submissions/%s/peer_reviews", courseID, assignmentID, submissionID), nil, payload); err != nil {
				return "", fmt.Errorf("assigning peer review: %w", err)
			}

			return fmt.Sprintf("Successfully assigned peer review in course %s:\nAssignment ID: %d\nReviewer ID: %s\nReviewee ID: %s\nSubmission ID: %s",
				d.courseDisplay(courseID, identifier), assignmentID, reviewerID, revieweeID, submissionID), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_list_peer_reviews",
		Description: "List peer review assignments grouped by reviewee. Student identities are anonymized.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			return listPeerReviews(ctx, d, args)
		},
	})
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func assignmentAnalytics(ctx context.Context, d Deps, args Args) (string, error) {
	courseID, identifier, err := d.resolveCourse(ctx, args)
	if err != nil {
		return "", err
	}
	assignmentID, ok := args.Int("assignment_id")
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", "assignment_id")
	}

	assignment, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil, nil)
	if err != nil {
		return "", fmt.Errorf("fetching assignment: %w", err)
	}

	studentParams := url.Values{}
	studentParams.Add("enrollment_type[]", "student")
	students, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/users", courseID), studentParams)
	if err != nil {
		return "", fmt.Errorf("fetching students: %w", err)
	}
	if len(students) == 0 {
		return fmt.Sprintf("No students found for course %s.", identifier), nil
	}
	students, err = d.Anon.Records(students, anonymize.CategoryUsers)
	if err != nil {
		return "", fmt.Errorf("anonymizing student data: %w", err)
	}

	subParams := url.Values{}
	subParams.Add("include[]", "user")
	submissions, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/assignments/%d/submissions", courseID, assignmentID), subParams)
	if err != nil {
		return "", fmt.Errorf("fetching submissions: %w", err)
	}
	submissions, err = d.Anon.Records(submissions, anonymize.CategorySubmissions)
	if err != nil {
		return "", fmt.Errorf("anonymizing submission data: %w", err)
	}

	nameByID := map[string]string{}
	for _, s := range students {
		nameByID[fieldID(s, "id")] = fieldStr(s, "name", "Unknown")
	}

	points := fieldFloat(assignment, "points_possible")
	var scores []float64
	var submitted, graded, late, excused, missing int
	var missingStudents []string
	type scored struct {
		name    string
		score   float64
		percent float64
	}
	var low, high []scored

	seen := map[string]bool{}
	for _, s := range submissions {
		studentID := fieldID(s, "user_id")
		seen[studentID] = true
		name := nameByID[studentID]
		if name == "" {
			name = "User " + studentID
		}

		if _, ok := s["submitted_at"].(string); ok {
			submitted++
		}
		if fieldBool(s, "late") {
			late++
		}
		if fieldBool(s, "excused") {
			excused++
		}
		if fieldBool(s, "missing") {
			missing++
			missingStudents = append(missingStudents, name)
		}
		if score, ok := s["score"].(float64); ok {
			graded++
			scores = append(scores, score)
			if points > 0 {
				pct := score / points * 100
				if pct < 70 {
					low = append(low, scored{name, score, pct})
				}
				if pct > 90 {
					high = append(high, scored{name, score, pct})
				}
			}
		}
	}
	for _, s := range students {
		if !seen[fieldID(s, "id")] {
			missingStudents = append(missingStudents, fieldStr(s, "name", "Unknown"))
		}
	}

	total := len(students)
	missingTotal := missing + (total - len(submissions))

	var b strings.Builder
	fmt.Fprintf(&b, "Assignment Analytics for '%s' in Course %s\n\n", fieldStr(assignment, "name", "Unknown Assignment"), d.courseDisplay(courseID, identifier))
	b.WriteString("Assignment Details:\n")
	fmt.Fprintf(&b, "  Due: %s\n", formatDate(assignment["due_at"]))
	fmt.Fprintf(&b, "  Points Possible: %g\n", points)
	fmt.Fprintf(&b, "  Published: %s\n\n", yesNo(fieldBool(assignment, "published")))

	b.WriteString("Submission Statistics:\n")
	fmt.Fprintf(&b, "  Submitted: %d/%d (%s)\n", submitted, total, percent(submitted, total))
	fmt.Fprintf(&b, "  Graded: %d/%d (%s)\n", graded, total, percent(graded, total))
	fmt.Fprintf(&b, "  Missing: %d/%d (%s)\n", missingTotal, total, percent(missingTotal, total))
	if submitted > 0 {
		fmt.Fprintf(&b, "  Late: %d/%d (%s of submissions)\n", late, submitted, percent(late, submitted))
	}
	fmt.Fprintf(&b, "  Excused: %d\n", excused)

	if len(scores) > 0 {
		avg := meanOf(scores)
		med := medianOf(scores)
		b.WriteString("\nGrade Statistics:\n")
		if points > 0 {
			fmt.Fprintf(&b, "  Average Score: %.2f/%g (%.1f%%)\n", avg, points, avg/points*100)
			fmt.Fprintf(&b, "  Median Score: %.2f/%g (%.1f%%)\n", med, points, med/points*100)
		} else {
			fmt.Fprintf(&b, "  Average Score: %.2f\n", avg)
			fmt.Fprintf(&b, "  Median Score: %.2f\n", med)
		}
		fmt.Fprintf(&b, "  Standard Deviation: %.2f\n", stdevOf(scores))

		if len(low) > 0 {
			sort.Slice(low, func(i, j int) bool { return low[i].percent < low[j].percent })
			b.WriteString("\nStudents Scoring Below 70%:\n")
			for _, s := range low {
				fmt.Fprintf(&b, "  %s: %.1f/%g (%.1f%%)\n", s.name, s.score, points, s.percent)
			}
		}
		if len(high) > 0 {
			sort.Slice(high, func(i, j int) bool { return high[i].percent > high[j].percent })
			b.WriteString("\nStudents Scoring Above 90%:\n")
			for _, s := range high {
				fmt.Fprintf(&b, "  %s: %.1f/%g (%.1f%%)\n", s.name, s.score, points, s.percent)
			}
		}
	}

	if len(missingStudents) > 0 {
		sort.Strings(missingStudents)
		b.WriteString("\nStudents Missing Submission:\n")
		for i, name := range missingStudents {
			if i == 10 {
				fmt.Fprintf(&b, "  ...and %d more\n", len(missingStudents)-10)
				break
			}
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	return b.String(), nil
}

func listPeerReviews(ctx context.Context, d Deps, args Args) (string, error) {
	courseID, identifier, err := d.resolveCourse(ctx, args)
	if err != nil {
		return "", err
	}
	assignmentID, ok := args.Int("assignment_id")
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", "assignment_id")
	}

	params := url.Values{}
	params.Add("include[]", "submission_comments")
	submissions, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/assignments/%d/submissions", courseID, assignmentID), params)
	if err != nil {
		return "", fmt.Errorf("fetching submissions: %w", err)
	}
	if len(submissions) == 0 {
		return fmt.Sprintf("No submissions found for assignment %d.", assignmentID), nil
	}
	submissions, err = d.Anon.Records(submissions, anonymize.CategorySubmissions)
	if err != nil {
		return "", fmt.Errorf("anonymizing submission data: %w", err)
	}

	users, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/users", courseID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching users: %w", err)
	}
	users, err = d.Anon.Records(users, anonymize.CategoryUsers)
	if err != nil {
		return "", fmt.Errorf("anonymizing user data: %w", err)
	}
	nameByID := map[string]string{}
	for _, u := range users {
		nameByID[fieldID(u, "id")] = fieldStr(u, "name", "Unknown")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Peer Reviews for Assignment %d in course %s:\n\n", assignmentID, d.courseDisplay(courseID, identifier))

	found := false
	for _, submission := range submissions {
		submissionID := fieldID(submission, "id")
		revieweeID := fieldID(submission, "user_id")
		revieweeName := nameByID[revieweeID]
		if revieweeName == "" {
			revieweeName = "User " + revieweeID
		}

		raw, err := d.Client.Request(ctx, "get", fmt.Sprintf("/courses/%d/assignments/%d/submissions/%s/peer_reviews", courseID, assignmentID, submissionID), nil, nil)
		if err != nil {
			continue
		}
		reviews, err := decodeList(raw)
		if err != nil || len(reviews) == 0 {
			continue
		}

		found = true
		fmt.Fprintf(&b, "Reviews for %s (ID: %s):\n", revieweeName, revieweeID)
		for _, review := range reviews {
			reviewerID := fieldID(review, "user_id")
			reviewerName := nameByID[reviewerID]
			if reviewerName == "" {
				reviewerName = "User " + reviewerID
			}
			fmt.Fprintf(&b, "  Reviewer: %s (ID: %s)\n", reviewerName, reviewerID)
			fmt.Fprintf(&b, "  Status: %s\n", fieldStr(review, "workflow_state", "Unknown"))
			if assessment := fieldMap(review, "assessment"); assessment != nil {
				if score, ok := assessment["score"].(float64); ok {
					fmt.Fprintf(&b, "  Score: %g\n", score)
				}
			}
			b.WriteString("\n")
		}
	}
	if !found {
		b.WriteString("No peer reviews found for this assignment.")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func medianOf(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// stdevOf is the sample standard deviation; zero for fewer than two values.
func stdevOf(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := meanOf(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func percent(part, whole int) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}
