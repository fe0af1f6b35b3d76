package quizmd

import (
	"strings"
	"testing"
)

const sampleQuiz = "---\n" +
	"title: Week 3 Quiz\n" +
	"description: Covers chapters 5-6\n" +
	"quiz_type: graded_survey\n" +
	"time_limit: 30\n" +
	"allowed_attempts: 2\n" +
	"shuffle_answers: false\n" +
	"---\n" +
	"\n" +
	"## Question 1: Capitals\n" +
	"```yaml\n" +
	"type: multiple_choice_question\n" +
	"points: 2\n" +
	"answers:\n" +
	"  - \"*Paris\"\n" +
	"  - \"London\"\n" +
	"```\n" +
	"**Question:** What is the capital of France?\n" +
	"\n" +
	"## Question 2\n" +
	"```yaml\n" +
	"type: true_false_question\n" +
	"answers:\n" +
	"  - answer_text: \"True\"\n" +
	"    answer_weight: 100\n" +
	"  - answer_text: \"False\"\n" +
	"    answer_weight: 0\n" +
	"    answer_comments: \"Review the definition.\"\n" +
	"```\n" +
	"**Question:** The Seine flows through Paris.\n" +
	"Second line of the prompt.\n" +
	"**Hint:** not part of the prompt\n"

func TestParseQuizMetadata(t *testing.T) {
	q, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if q.Title != "Week 3 Quiz" || q.QuizType != "graded_survey" {
		t.Fatalf("metadata mismatch: %+v", q)
	}
	if q.TimeLimit == nil || *q.TimeLimit != 30 {
		t.Fatalf("time_limit not parsed: %+v", q.TimeLimit)
	}
	if q.AllowedAttempts != 2 || q.ShuffleAnswers || !q.ShowCorrectAnswers {
		t.Fatalf("settings mismatch: %+v", q)
	}
}

func TestParseQuestionsInOrder(t *testing.T) {
	q, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(q.Questions))
	}
	q1, q2 := q.Questions[0], q.Questions[1]
	if q1.Name != "Capitals" || q1.Type != "multiple_choice_question" || q1.Points != 2 {
		t.Fatalf("question 1 mismatch: %+v", q1)
	}
	if q1.Text != "What is the capital of France?" {
		t.Fatalf("question 1 text: %q", q1.Text)
	}
	if q2.Name != "Question 2" || q2.Type != "true_false_question" || q2.Points != 1 {
		t.Fatalf("question 2 mismatch: %+v", q2)
	}
	if q2.Text != "The Seine flows through Paris.\nSecond line of the prompt." {
		t.Fatalf("question 2 text: %q", q2.Text)
	}
}

func TestStarMarksCorrectAnswer(t *testing.T) {
	q, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := q.Questions[0].Answers
	want := []Answer{{Text: "Paris", Weight: 100}, {Text: "London", Weight: 0}}
	if len(got) != len(want) {
		t.Fatalf("expected %d answers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("answer %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestStructuredAnswersKeepWeightsAndComments(t *testing.T) {
	q, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := q.Questions[1].Answers
	if got[0].Weight != 100 || got[1].Weight != 0 {
		t.Fatalf("weights: %+v", got)
	}
	if got[1].Comments != "Review the definition." {
		t.Fatalf("comments: %+v", got[1])
	}
}

func TestMalformedHeadingAbortsParse(t *testing.T) {
	doc := strings.Replace(sampleQuiz, "## Question 2", "## Quetion 2", 1)
	if _, err := Parse(doc); err == nil {
		t.Fatal("expected error for malformed heading")
	}
}

func TestMalformedMetadataSkipsOnlyThatQuestion(t *testing.T) {
	doc := strings.Replace(sampleQuiz, "type: true_false_question", "type: [unclosed", 1)
	q, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(q.Questions) != 1 || q.Questions[0].Name != "Capitals" {
		t.Fatalf("expected the valid question to survive: %+v", q.Questions)
	}
	if len(q.Skipped) != 1 || q.Skipped[0].Heading != "## Question 2" {
		t.Fatalf("expected question 2 reported as skipped: %+v", q.Skipped)
	}
}

func TestMissingMetadataBlockSkips(t *testing.T) {
	doc := "---\ntitle: T\n---\n## Question 1\n**Question:** no metadata here\n"
	q, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(q.Questions) != 0 || len(q.Skipped) != 1 {
		t.Fatalf("expected skip: questions=%d skipped=%d", len(q.Questions), len(q.Skipped))
	}
}

func TestMissingFrontmatterFails(t *testing.T) {
	if _, err := Parse("## Question 1\n"); err == nil {
		t.Fatal("expected error for document without frontmatter")
	}
}
