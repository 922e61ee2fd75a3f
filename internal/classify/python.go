package classify

import (
	"github.com/gradekit/autograde/internal/rules"
)

// python surfaces the captured standard-error stream verbatim instead of
// scanning for headers; the interpreter already isolates diagnostics
// there.
type python struct{}

func (python) Classify(in Input, limits Limits, eval rules.Evaluator) Result {
	rr := eval(in.Output)

	messages := in.Stderr
	if messages == "" {
		messages = noMessages
	}
	summary := rr.Text
	if summary == "" {
		summary = noProblems
	}
	return Result{
		Messages: messages,
		Summary:  summary,
		Points:   rr.Points,
	}
}
