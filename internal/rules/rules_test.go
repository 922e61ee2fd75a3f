package rules

import (
	"strings"
	"testing"
)

type fakeConfig map[string]string

func (f fakeConfig) Text(id string) string { return f[id] }

func TestProhibitedWithPenalty(t *testing.T) {
	cfg := fakeConfig{"prohib_code": "{-5}bad_pattern"}

	r := Evaluate(cfg, "x <- bad_pattern(1)", CategoryCode)
	if r.Points != -5 {
		t.Fatalf("expected -5 points, got %v", r.Points)
	}
	if r.Text == "" {
		t.Fatalf("expected a message for the prohibited match")
	}
	if !strings.Contains(r.Text, "prohibited code") {
		t.Fatalf("unexpected wording: %q", r.Text)
	}

	r = Evaluate(cfg, "clean code", CategoryCode)
	if r.Points != 0 || r.Text != "" {
		t.Fatalf("expected no effect without a match, got %v %q", r.Points, r.Text)
	}
}

func TestProhibitedExtraCredit(t *testing.T) {
	cfg := fakeConfig{"prohib_output": "{+3}bonus"}
	r := Evaluate(cfg, "bonus round", CategoryOutput)
	if r.Points != 3 {
		t.Fatalf("expected +3 points, got %v", r.Points)
	}
	if !strings.Contains(r.Text, "extra credit") {
		t.Fatalf("expected extra credit wording, got %q", r.Text)
	}
}

func TestRequiredMissing(t *testing.T) {
	cfg := fakeConfig{"req_output": "summary\\(fit\\)\n{-10}plot"}

	r := Evaluate(cfg, "no relevant text", CategoryOutput)
	if r.Points != -10 {
		t.Fatalf("expected -10 points, got %v", r.Points)
	}
	if !strings.Contains(r.Text, "Missing output: summary\\(fit\\)") {
		t.Fatalf("expected plain missing message, got %q", r.Text)
	}
	if !strings.Contains(r.Text, "missing output: plot") {
		t.Fatalf("expected pointed missing message, got %q", r.Text)
	}

	r = Evaluate(cfg, "summary(fit)\nplot(fit)", CategoryOutput)
	if r.Points != 0 || r.Text != "" {
		t.Fatalf("expected satisfied rules, got %v %q", r.Points, r.Text)
	}
}

func TestQuotedLiteral(t *testing.T) {
	cfg := fakeConfig{"req_code": `"lm(y ~ x)"`}
	// The parentheses must match literally, not as a regexp.
	r := Evaluate(cfg, "fit <- lm(y ~ x)", CategoryCode)
	if r.Points != 0 || r.Text != "" {
		t.Fatalf("expected quoted literal match, got %v %q", r.Points, r.Text)
	}
	r = Evaluate(cfg, "fit <- lm(y~x)", CategoryCode)
	if !strings.Contains(r.Text, "Missing code") {
		t.Fatalf("expected missing message, got %q", r.Text)
	}
}

func TestShortQuotedLiteralSkipped(t *testing.T) {
	// Both literals are shorter than three characters with their quotes
	// and are skipped, even the required one.
	cfg := fakeConfig{"req_code": `""`, "prohib_code": `''`}
	r := Evaluate(cfg, "anything", CategoryCode)
	if r.Points != 0 || r.Text != "" {
		t.Fatalf("short literals must be skipped, got %v %q", r.Points, r.Text)
	}
}

func TestBadRegexpSentinel(t *testing.T) {
	cfg := fakeConfig{"req_output": "([unclosed"}
	r := Evaluate(cfg, "text", CategoryOutput)
	if r.Points != BadPatternPoints {
		t.Fatalf("expected sentinel %d, got %v", BadPatternPoints, r.Points)
	}
	if r.Text != "Bad Regular expression" {
		t.Fatalf("unexpected failure text %q", r.Text)
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	cfg := fakeConfig{"req_code": "\n\n  \n"}
	r := Evaluate(cfg, "text", CategoryCode)
	if r.Points != 0 || r.Text != "" {
		t.Fatalf("blank rules must be ignored, got %v %q", r.Points, r.Text)
	}
}

func TestCRLFNormalization(t *testing.T) {
	cfg := fakeConfig{"req_output": `start\ndone`}
	r := Evaluate(cfg, "start\r\ndone\r\n", CategoryOutput)
	if r.Points != 0 || r.Text != "" {
		t.Fatalf("expected match after CRLF normalization, got %q", r.Text)
	}
}
