package classify

import (
	"regexp"
	"strings"

	"github.com/gradekit/autograde/internal/rules"
)

// rFamily classifies R and Rmd console transcripts.
type rFamily struct{}

var (
	reRError   = regexp.MustCompile(`^(Error in|Error:)`)
	reRWarning = regexp.MustCompile(`^Warning message:`)

	// Benign notice emitted when a package was compiled against a newer
	// interpreter; never counted against the student.
	reRBuiltUnder = regexp.MustCompile(`package .* was built under R version`)
)

// A fresh console prompt ends a message's continuation lines.
func isRPrompt(line string) bool {
	return strings.HasPrefix(line, ">")
}

func (rFamily) Classify(in Input, limits Limits, eval rules.Evaluator) Result {
	lines := strings.Split(in.Output, "\n")

	errors := suppress(collect(lines, reRError, isRPrompt), reRBuiltUnder, limits.Dropped)
	warnings := suppress(collect(lines, reRWarning, isRPrompt), reRBuiltUnder, limits.Dropped)

	summary := countSummary(limits, errors, warnings)
	rr := eval(in.Output)
	summary += rr.Text

	messages := messageBlock(errors, warnings)
	if messages == "" {
		messages = noMessages
	}
	return Result{
		Errors:   errors,
		Warnings: warnings,
		Messages: messages,
		Summary:  summary,
		Points:   rr.Points,
	}
}
