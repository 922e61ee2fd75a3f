package classify

import (
	"regexp"
	"strings"

	"github.com/gradekit/autograde/internal/rules"
)

// sas classifies SAS runs. Errors and warnings live in the separate
// execution log, not the print transcript; the rules still run against
// the transcript.
type sas struct{}

var (
	reSASError   = regexp.MustCompile(`^ERROR:`)
	reSASWarning = regexp.MustCompile(`^WARNING:`)

	reSASErrorPage = regexp.MustCompile(`Errors printed on page`)
	reSASRegistry  = regexp.MustCompile(`registry customizations`)
)

const sasLogSeparator = "\n********************************************\n"

// A numbered log line starts a new statement, ending continuation text.
func isSASLogLine(line string) bool {
	return line != "" && line[0] >= '0' && line[0] <= '9'
}

func (sas) Classify(in Input, limits Limits, eval rules.Evaluator) Result {
	logLines := strings.Split(in.Log, "\n")

	errors := suppress(collect(logLines, reSASError, isSASLogLine), reSASErrorPage, limits.Dropped)
	warnings := suppress(collect(logLines, reSASWarning, isSASLogLine), reSASRegistry, limits.Dropped)

	summary := countSummary(limits, errors, warnings)
	rr := eval(in.Output)
	summary += rr.Text

	messages := messageBlock(errors, warnings)
	if messages == "" {
		messages = noMessages
	} else {
		// The full log follows the classified entries for context.
		messages += sasLogSeparator + in.Log
	}
	return Result{
		Errors:   errors,
		Warnings: warnings,
		Messages: messages,
		Summary:  summary,
		Points:   rr.Points,
	}
}
