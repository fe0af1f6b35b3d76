// Package quizmd parses the markdown quiz dialect into the structured
// representation the Canvas quiz endpoints accept.
//
// A document is YAML frontmatter (quiz settings) followed by question
// sections:
//
//	---
//	title: Week 3 Quiz
//	quiz_type: assignment
//	---
//	## Question 1: Capitals
//	```yaml
//	type: multiple_choice_question
//	points: 2
//	answers:
//	  - "*Paris"
//	  - "London"
//	```
//	**Question:** What is the capital of France?
package quizmd

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Quiz struct {
	Title              string
	Description        string
	QuizType           string
	PointsPossible     *float64
	TimeLimit          *int
	AllowedAttempts    int
	ShuffleAnswers     bool
	ShowCorrectAnswers bool
	OneQuestionAtATime bool
	Questions          []Question
	// Skipped records questions dropped for malformed metadata, so callers
	// can report them instead of losing them silently.
	Skipped []Skipped
}

type Question struct {
	Name              string
	Text              string
	Type              string
	Points            float64
	Answers           []Answer
	CorrectComments   string
	IncorrectComments string
}

// Answer is the uniform record both answer syntaxes normalize to: plain
// strings (leading * marks the correct choice) and structured entries with
// explicit weights.
type Answer struct {
	Text     string
	Weight   int
	Comments string
}

type Skipped struct {
	Heading string
	Reason  string
}

var headingPattern = regexp.MustCompile(`^##\s+Question\s+(\d+)\s*(?::\s*(.+))?$`)

// Parse converts a markdown quiz document. A section heading that does not
// match the question-number pattern aborts the whole parse; a question with
// malformed metadata is skipped and reported via Quiz.Skipped.
func Parse(src string) (*Quiz, error) {
	parts := strings.SplitN(src, "---", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid quiz document: missing YAML frontmatter")
	}

	var meta struct {
		Title              string   `yaml:"title"`
		Description        string   `yaml:"description"`
		QuizType           string   `yaml:"quiz_type"`
		PointsPossible     *float64 `yaml:"points_possible"`
		TimeLimit          *int     `yaml:"time_limit"`
		AllowedAttempts    *int     `yaml:"allowed_attempts"`
		ShuffleAnswers     *bool    `yaml:"shuffle_answers"`
		ShowCorrectAnswers *bool    `yaml:"show_correct_answers"`
		OneQuestionAtATime *bool    `yaml:"one_question_at_a_time"`
	}
	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		return nil, fmt.Errorf("invalid YAML frontmatter: %w", err)
	}

	q := &Quiz{
		Title:              meta.Title,
		Description:        meta.Description,
		QuizType:           orDefault(meta.QuizType, "assignment"),
		PointsPossible:     meta.PointsPossible,
		TimeLimit:          meta.TimeLimit,
		AllowedAttempts:    1,
		ShuffleAnswers:     true,
		ShowCorrectAnswers: true,
	}
	if meta.AllowedAttempts != nil {
		q.AllowedAttempts = *meta.AllowedAttempts
	}
	if meta.ShuffleAnswers != nil {
		q.ShuffleAnswers = *meta.ShuffleAnswers
	}
	if meta.ShowCorrectAnswers != nil {
		q.ShowCorrectAnswers = *meta.ShowCorrectAnswers
	}
	if meta.OneQuestionAtATime != nil {
		q.OneQuestionAtATime = *meta.OneQuestionAtATime
	}

	chunks, err := splitQuestions(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		question, skip := parseQuestion(chunk)
		if skip != nil {
			q.Skipped = append(q.Skipped, *skip)
			continue
		}
		q.Questions = append(q.Questions, *question)
	}
	return q, nil
}

// splitQuestions cuts the body into per-question chunks at each section
// heading. Every "## " line must carry a question number; anything else is
// a hard error rather than a silently dropped section.
func splitQuestions(body string) ([][]string, error) {
	var chunks [][]string
	var current []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") {
			if !headingPattern.MatchString(strings.TrimRight(line, " \t")) {
				return nil, fmt.Errorf("malformed question heading %q: expected \"## Question <n>[: title]\"", line)
			}
			if current != nil {
				chunks = append(chunks, current)
			}
			current = []string{strings.TrimRight(line, " \t")}
			continue
		}
		if current != nil {
			current = append(current, line)
		}
		// Text before the first heading (if any) is ignored.
	}
	if current != nil {
		chunks = append(chunks, current)
	}
	return chunks, nil
}

func parseQuestion(lines []string) (*Question, *Skipped) {
	heading := lines[0]
	m := headingPattern.FindStringSubmatch(heading)
	name := strings.TrimSpace(m[2])
	if name == "" {
		name = "Question " + m[1]
	}

	metaLines, rest, ok := fencedYAML(lines[1:])
	if !ok {
		return nil, &Skipped{Heading: heading, Reason: "missing yaml metadata block"}
	}
	var meta struct {
		Type              string   `yaml:"type"`
		Points            *float64 `yaml:"points"`
		Answers           []any    `yaml:"answers"`
		CorrectFeedback   string   `yaml:"correct_feedback"`
		IncorrectFeedback string   `yaml:"incorrect_feedback"`
	}
	if err := yaml.Unmarshal([]byte(strings.Join(metaLines, "\n")), &meta); err != nil {
		return nil, &Skipped{Heading: heading, Reason: fmt.Sprintf("invalid metadata: %v", err)}
	}

	question := &Question{
		Name:              name,
		Text:              questionText(rest),
		Type:              orDefault(meta.Type, "multiple_choice_question"),
		Points:            1,
		CorrectComments:   meta.CorrectFeedback,
		IncorrectComments: meta.IncorrectFeedback,
	}
	if meta.Points != nil {
		question.Points = *meta.Points
	}
	for _, raw := range meta.Answers {
		question.Answers = append(question.Answers, normalizeAnswer(raw))
	}
	return question, nil
}

// fencedYAML extracts the first ```yaml ... ``` block and returns the lines
// following its closing fence.
func fencedYAML(lines []string) (block, rest []string, ok bool) {
	start := -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case "```yaml":
			if start == -1 {
				start = i + 1
			}
		case "```":
			if start != -1 {
				return lines[start:i], lines[i+1:], true
			}
		}
	}
	return nil, nil, false
}

// questionText collects the body between the **Question:** marker and the
// next bold or subsection marker.
func questionText(lines []string) string {
	var out []string
	in := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "**Question:**"):
			in = true
			out = append(out, strings.TrimSpace(strings.TrimPrefix(line, "**Question:**")))
		case in && (strings.HasPrefix(line, "**") || strings.HasPrefix(line, "###")):
			return strings.TrimSpace(strings.Join(out, "\n"))
		case in:
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func normalizeAnswer(raw any) Answer {
	switch v := raw.(type) {
	case string:
		if rest, ok := strings.CutPrefix(v, "*"); ok {
			return Answer{Text: strings.TrimSpace(strings.TrimLeft(rest, "*")), Weight: 100}
		}
		return Answer{Text: strings.TrimSpace(v)}
	case map[string]any:
		a := Answer{}
		if s, ok := firstString(v, "answer_text", "text"); ok {
			a.Text = s
		}
		if w, ok := firstNumber(v, "answer_weight", "weight"); ok {
			a.Weight = int(w)
		}
		if s, ok := firstString(v, "answer_comments", "comments"); ok {
			a.Comments = s
		}
		return a
	default:
		return Answer{Text: fmt.Sprint(raw)}
	}
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case int:
			return float64(n), true
		case float64:
			return n, true
		}
	}
	return 0, false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
