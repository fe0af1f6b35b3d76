package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mind-engage/canvas-mcp/internal/quizmd"
)

func registerQuizTools(r *Registry, d Deps) {
	r.Register(Tool{
		Name:        "canvas_list_quizzes",
		Description: "List quizzes in a course.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}

			quizzes, err := d.Client.ListPaginated(ctx, fmt.Sprintf("/courses/%d/quizzes", courseID), nil)
			if err != nil {
				return "", fmt.Errorf("fetching quizzes: %w", err)
			}
			if len(quizzes) == 0 {
				return fmt.Sprintf("No quizzes found for course %s.", identifier), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Quizzes for Course %s:\n\n", d.courseDisplay(courseID, identifier))
			for _, quiz := range quizzes {
				fmt.Fprintf(&b, "ID: %s\n", fieldID(quiz, "id"))
				fmt.Fprintf(&b, "Title: %s\n", fieldStr(quiz, "title", "Untitled quiz"))
				fmt.Fprintf(&b, "Status: %s\n", publishedLabel(fieldBool(quiz, "published")))
				fmt.Fprintf(&b, "Questions: %d\n", fieldInt(quiz, "question_count", 0))
				fmt.Fprintf(&b, "Points: %g\n", fieldFloat(quiz, "points_possible"))
				fmt.Fprintf(&b, "Due: %s\n\n", formatDate(quiz["due_at"]))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_create_quiz",
		Description: "Create a quiz. Required: title. Optional: description, quiz_type, points_possible, due/unlock/lock dates, time_limit, attempts and display settings.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			title, err := args.RequireString("title")
			if err != nil {
				return "", err
			}

			published := args.BoolOr("published", false)
			quiz := map[string]any{
				"title":                  title,
				"quiz_type":              args.StringOr("quiz_type", "assignment"),
				"allowed_attempts":       args.IntOr("allowed_attempts", 1),
				"scoring_policy":         args.StringOr("scoring_policy", "keep_highest"),
				"shuffle_answers":        args.BoolOr("shuffle_answers", true),
				"show_correct_answers":   args.BoolOr("show_correct_answers", true),
				"one_question_at_a_time": args.BoolOr("one_question_at_a_time", false),
				"cant_go_back":           args.BoolOr("cant_go_back", false),
				"published":              published,
			}
			if desc := args.StringOr("description", ""); desc != "" {
				quiz["description"] = desc
			}
			if points, ok := args.Float("points_possible"); ok {
				quiz["points_possible"] = points
			}
			for _, key := range []string{"due_at", "unlock_at", "lock_at", "show_correct_answers_at", "hide_correct_answers_at", "access_code", "ip_filter"} {
				if v := args.StringOr(key, ""); v != "" {
					quiz[key] = v
				}
			}
			if limit, ok := args.Int("time_limit"); ok {
				quiz["time_limit"] = limit
			}

			created, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/quizzes", courseID), nil, map[string]any{"quiz": quiz})
			if err != nil {
				return "", fmt.Errorf("creating quiz: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully created quiz in Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Quiz: %s\n", fieldStr(created, "title", title))
			fmt.Fprintf(&b, "Quiz ID: %s\n", fieldID(created, "id"))
			fmt.Fprintf(&b, "Type: %s\n", quiz["quiz_type"])
			fmt.Fprintf(&b, "Status: %s\n", publishedLabel(published))
			fmt.Fprintf(&b, "Created: %s\n", formatDate(created["created_at"]))
			if u := fieldStr(created, "html_url", ""); u != "" {
				fmt.Fprintf(&b, "URL: %s\n", u)
			}
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_update_quiz",
		Description: "Update quiz fields: title, description, due/unlock/lock dates, time_limit, allowed_attempts, points_possible, published.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			quizID, ok := args.Int("quiz_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "quiz_id")
			}

			current, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, quizID), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching quiz: %w", err)
			}

			quiz := map[string]any{}
			var changes []string
			if title := args.StringOr("title", ""); title != "" {
				quiz["title"] = title
				changes = append(changes, fmt.Sprintf("Title: '%s' -> '%s'", fieldStr(current, "title", "Unknown"), title))
			}
			if desc := args.StringOr("description", ""); desc != "" {
				quiz["description"] = desc
				changes = append(changes, "Description updated")
			}
			for key, label := range map[string]string{"due_at": "Due date", "unlock_at": "Unlock date", "lock_at": "Lock date"} {
				if v := args.StringOr(key, ""); v != "" {
					quiz[key] = v
					changes = append(changes, fmt.Sprintf("%s: %s -> %s", label, formatDate(current[key]), formatDate(v)))
				}
			}
			if limit, ok := args.Int("time_limit"); ok {
				quiz["time_limit"] = limit
				changes = append(changes, fmt.Sprintf("Time limit: %d -> %d minutes", fieldInt(current, "time_limit", 0), limit))
			}
			if attempts, ok := args.Int("allowed_attempts"); ok {
				quiz["allowed_attempts"] = attempts
				changes = append(changes, fmt.Sprintf("Allowed attempts: %d -> %d", fieldInt(current, "allowed_attempts", 1), attempts))
			}
			if points, ok := args.Float("points_possible"); ok {
				quiz["points_possible"] = points
				changes = append(changes, fmt.Sprintf("Points possible: %g -> %g", fieldFloat(current, "points_possible"), points))
			}
			if published, ok := args.Bool("published"); ok {
				quiz["published"] = published
				changes = append(changes, fmt.Sprintf("Status: %s -> %s", publishedLabel(fieldBool(current, "published")), publishedLabel(published)))
			}
			if len(quiz) == 0 {
				return "No updates provided. Please specify at least one field to update.", nil
			}

			updated, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, quizID), nil, map[string]any{"quiz": quiz})
			if err != nil {
				return "", fmt.Errorf("updating quiz: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully updated quiz in Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Quiz: %s\n", fieldStr(updated, "title", "Unknown quiz"))
			fmt.Fprintf(&b, "Quiz ID: %d\n", quizID)
			fmt.Fprintf(&b, "Updated: %s\n", formatDate(updated["updated_at"]))
			b.WriteString("\nChanges made:\n")
			for _, change := range changes {
				fmt.Fprintf(&b, "- %s\n", change)
			}
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_rename_quiz",
		Description: "Rename a quiz. Required: quiz_id, new_title.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			quizID, ok := args.Int("quiz_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "quiz_id")
			}
			newTitle, err := args.RequireString("new_title")
			if err != nil {
				return "", err
			}

			current, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, quizID), nil, nil)
			if err != nil {
				return "", fmt.Errorf("fetching quiz: %w", err)
			}
			oldTitle := fieldStr(current, "title", "Unknown quiz")

			payload := map[string]any{"quiz": map[string]any{"title": newTitle}}
			updated, err := d.Client.GetObject(ctx, "put", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, quizID), nil, payload)
			if err != nil {
				return "", fmt.Errorf("renaming quiz: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully renamed quiz in Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Old title: %s\n", oldTitle)
			fmt.Fprintf(&b, "New title: %s\n", fieldStr(updated, "title", newTitle))
			fmt.Fprintf(&b, "Quiz ID: %d\n", quizID)
			fmt.Fprintf(&b, "Updated: %s\n", formatDate(updated["updated_at"]))
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_delete_quiz",
		Description: "Delete a quiz by id.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			quizID, ok := args.Int("quiz_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "quiz_id")
			}

			title, questions, points := "Unknown quiz", 0, 0.0
			if quiz, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, quizID), nil, nil); err == nil {
				title = fieldStr(quiz, "title", title)
				questions = fieldInt(quiz, "question_count", 0)
				points = fieldFloat(quiz, "points_possible")
			}
			if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, quizID), nil, nil); err != nil {
				return "", fmt.Errorf("deleting quiz: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully deleted quiz from Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Quiz: %s\n", title)
			fmt.Fprintf(&b, "Quiz ID: %d\n", quizID)
			fmt.Fprintf(&b, "Questions: %d\n", questions)
			fmt.Fprintf(&b, "Points: %g\n", points)
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_bulk_delete_quizzes",
		Description: "Delete several quizzes by id. Every target is attempted; the report lists successes and failures.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			quizIDs, err := args.Ints("quiz_ids")
			if err != nil {
				return "", err
			}
			if len(quizIDs) == 0 {
				return "No quiz IDs provided for deletion.", nil
			}

			var successes, failures []string
			for _, id := range quizIDs {
				title := "Unknown quiz"
				if quiz, err := d.Client.GetObject(ctx, "get", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, id), nil, nil); err == nil {
					title = fieldStr(quiz, "title", title)
				}
				if _, err := d.Client.Request(ctx, "delete", fmt.Sprintf("/courses/%d/quizzes/%d", courseID, id), nil, nil); err != nil {
					failures = append(failures, fmt.Sprintf("'%s' (ID: %d): %s", title, id, err))
					continue
				}
				successes = append(successes, fmt.Sprintf("'%s' (ID: %d)", title, id))
			}

			header := fmt.Sprintf("Bulk quiz deletion results for Course %s:\n\nTotal quizzes processed: %d", d.courseDisplay(courseID, identifier), len(quizIDs))
			return bulkReport(header, "deleted", "delete", "quizzes", successes, failures), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_add_quiz_question",
		Description: "Add one question to a quiz. Required: quiz_id, question_name, question_text, question_type. Optional: points_possible, answers, feedback comments.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			quizID, ok := args.Int("quiz_id")
			if !ok {
				return "", fmt.Errorf("missing required parameter %q", "quiz_id")
			}
			name, err := args.RequireString("question_name")
			if err != nil {
				return "", err
			}
			text, err := args.RequireString("question_text")
			if err != nil {
				return "", err
			}
			questionType, err := args.RequireString("question_type")
			if err != nil {
				return "", err
			}
			answers, err := args.Maps("answers")
			if err != nil {
				return "", err
			}

			question := map[string]any{
				"question_name": name,
				"question_text": text,
				"question_type": questionType,
			}
			if points, ok := args.Float("points_possible"); ok {
				question["points_possible"] = points
			} else {
				question["points_possible"] = 1.0
			}
			if len(answers) > 0 {
				question["answers"] = answers
			}
			for _, key := range []string{"correct_comments", "incorrect_comments", "neutral_comments"} {
				if v := args.StringOr(key, ""); v != "" {
					question[key] = v
				}
			}

			created, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/quizzes/%d/questions", courseID, quizID), nil, map[string]any{"question": question})
			if err != nil {
				return "", fmt.Errorf("adding question to quiz: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Successfully added question to Quiz %d in Course %s:\n\n", quizID, d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Question: %s\n", fieldStr(created, "question_name", name))
			fmt.Fprintf(&b, "Question ID: %s\n", fieldID(created, "id"))
			fmt.Fprintf(&b, "Type: %s\n", fieldStr(created, "question_type", questionType))
			fmt.Fprintf(&b, "Points: %g\n", fieldFloat(created, "points_possible"))
			return b.String(), nil
		},
	})

	r.Register(Tool{
		Name:        "canvas_import_quiz_markdown",
		Description: "Create a quiz from a markdown document (YAML frontmatter plus '## Question N' sections). The quiz is left unpublished for review.",
		Handler: func(ctx context.Context, args Args) (string, error) {
			courseID, identifier, err := d.resolveCourse(ctx, args)
			if err != nil {
				return "", err
			}
			markdown, err := args.RequireString("markdown_content")
			if err != nil {
				return "", err
			}

			parsed, err := quizmd.Parse(markdown)
			if err != nil {
				return "", fmt.Errorf("parsing markdown quiz: %w", err)
			}

			title := args.StringOr("quiz_title", parsed.Title)
			if title == "" {
				title = "Imported Quiz"
			}

			quiz := map[string]any{
				"title":                  title,
				"quiz_type":              parsed.QuizType,
				"allowed_attempts":       parsed.AllowedAttempts,
				"shuffle_answers":        parsed.ShuffleAnswers,
				"show_correct_answers":   parsed.ShowCorrectAnswers,
				"one_question_at_a_time": parsed.OneQuestionAtATime,
				// Keep unpublished until every question is in place.
				"published": false,
			}
			if parsed.Description != "" {
				quiz["description"] = parsed.Description
			}
			if parsed.PointsPossible != nil {
				quiz["points_possible"] = *parsed.PointsPossible
			}
			if parsed.TimeLimit != nil {
				quiz["time_limit"] = *parsed.TimeLimit
			}

			created, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/quizzes", courseID), nil, map[string]any{"quiz": quiz})
			if err != nil {
				return "", fmt.Errorf("creating quiz: %w", err)
			}
			quizID := fieldID(created, "id")

			added, failed := 0, 0
			var failureMessages []string
			for _, question := range parsed.Questions {
				payload := map[string]any{"question": questionPayload(question)}
				if _, err := d.Client.GetObject(ctx, "post", fmt.Sprintf("/courses/%d/quizzes/%s/questions", courseID, quizID), nil, payload); err != nil {
					failed++
					failureMessages = append(failureMessages, fmt.Sprintf("Question '%s': %s", question.Name, err))
					continue
				}
				added++
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Quiz import results for Course %s:\n\n", d.courseDisplay(courseID, identifier))
			fmt.Fprintf(&b, "Quiz: %s\n", title)
			fmt.Fprintf(&b, "Quiz ID: %s\n", quizID)
			fmt.Fprintf(&b, "Questions added: %d\n", added)
			fmt.Fprintf(&b, "Questions failed: %d\n", failed)
			if len(parsed.Skipped) > 0 {
				fmt.Fprintf(&b, "Questions skipped during parsing: %d\n", len(parsed.Skipped))
				for _, skip := range parsed.Skipped {
					fmt.Fprintf(&b, "- %s: %s\n", skip.Heading, skip.Reason)
				}
			}
			if len(failureMessages) > 0 {
				b.WriteString("\nErrors encountered:\n")
				for i, msg := range failureMessages {
					if i == 5 {
						fmt.Fprintf(&b, "... and %d more errors\n", len(failureMessages)-5)
						break
					}
					fmt.Fprintf(&b, "- %s\n", msg)
				}
			}
			b.WriteString("\nNote: Quiz created as unpublished. Use Canvas interface to review and publish.")
			return b.String(), nil
		},
	})
}

// questionPayload converts a parsed markdown question into the Canvas
// question body.
func questionPayload(q quizmd.Question) map[string]any {
	question := map[string]any{
		"question_name":   q.Name,
		"question_text":   q.Text,
		"question_type":   q.Type,
		"points_possible": q.Points,
	}
	if len(q.Answers) > 0 {
		answers := make([]map[string]any, 0, len(q.Answers))
		for _, a := range q.Answers {
			answer := map[string]any{
				"answer_text":   a.Text,
				"answer_weight": a.Weight,
			}
			if a.Comments != "" {
				answer["answer_comments"] = a.Comments
			}
			answers = append(answers, answer)
		}
		question["answers"] = answers
	}
	if q.CorrectComments != "" {
		question["correct_comments"] = q.CorrectComments
	}
	if q.IncorrectComments != "" {
		question["incorrect_comments"] = q.IncorrectComments
	}
	return question
}
