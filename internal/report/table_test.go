package report

import (
	"strings"
	"testing"

	"github.com/gradekit/autograde/internal/model"
)

func TestLetter(t *testing.T) {
	got := Letter(model.GradingResult{
		Codefile:    "hw1.R",
		TotalPoints: 100,
		HasScore:    true,
		Score:       93,
		PreText:     "Missing code: lm(\n",
		PostText:    "(no output problems)\n",
	})
	if !strings.HasPrefix(got, "Analysis of homework file: hw1.R\n\n") {
		t.Fatalf("unexpected heading: %q", got)
	}
	if !strings.Contains(got, "You scored 93 out of 100.\n") {
		t.Fatalf("score line missing: %q", got)
	}
	if !strings.Contains(got, "\nCode analysis:\nMissing code: lm(\n") {
		t.Fatalf("code section missing: %q", got)
	}
	if !strings.Contains(got, "\nAnalysis of results:\n(no output problems)\n") {
		t.Fatalf("results section missing: %q", got)
	}
}

func TestLetterWithoutScore(t *testing.T) {
	got := Letter(model.GradingResult{Codefile: "hw1.R"})
	if strings.Contains(got, "You scored") {
		t.Fatalf("score line must be omitted when unscored: %q", got)
	}
}

func TestScore(t *testing.T) {
	if got := Score(100, -2, -5); got != 93 {
		t.Fatalf("expected 93, got %v", got)
	}
	if got := Score(10, -20, 0); got != -10 {
		t.Fatalf("heavy deductions report the raw sum, got %v", got)
	}
	if got := Score(100, 0, 3); got != 103 {
		t.Fatalf("extra credit may exceed the total, got %v", got)
	}
}

func TestRenderBatch(t *testing.T) {
	out := RenderBatch([]model.GradingResult{
		{Label: "alice (2)", Codefile: "hw1.R", HasScore: true, TotalPoints: 100, Score: 93, PrePoints: -2, PostPoints: -5},
		{Label: "bob", Codefile: "hw1.R"},
	}, 0, false)

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "STUDENT") {
		t.Fatalf("missing header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "93 / 100") {
		t.Fatalf("missing score cell: %q", lines[1])
	}
	if !strings.Contains(lines[2], "-") {
		t.Fatalf("unscored rows show a dash: %q", lines[2])
	}
	for _, line := range lines {
		if strings.Contains(line, "\x1b[") {
			t.Fatalf("color disabled output must be plain: %q", line)
		}
	}
}

func TestClipLines(t *testing.T) {
	lines := ClipLines([]string{"short", "a much longer line"}, 10)
	if lines[0] != "short" {
		t.Fatalf("short lines stay whole: %q", lines[0])
	}
	if lines[1] == "a much longer line" || !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("long lines are truncated: %q", lines[1])
	}
}
