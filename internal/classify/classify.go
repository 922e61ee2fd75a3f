// Package classify extracts error and warning entries from heterogeneous
// toolchain transcripts. Each supported toolchain has its own Classifier;
// adding a toolchain means adding a variant to the registry, not editing
// conditional chains.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gradekit/autograde/internal/rules"
)

// Toolchain is the closed set of supported toolchains.
type Toolchain string

const (
	ToolchainR      Toolchain = "R"
	ToolchainSAS    Toolchain = "SAS"
	ToolchainPython Toolchain = "Python"
)

// ToolchainForExt maps a codefile extension (".R", ".Rmd", ".sas", ".py",
// case-insensitive) to its toolchain.
func ToolchainForExt(ext string) (Toolchain, bool) {
	switch strings.ToUpper(ext) {
	case ".R", ".RMD", ".RRMD":
		return ToolchainR, true
	case ".SAS":
		return ToolchainSAS, true
	case ".PY":
		return ToolchainPython, true
	}
	return "", false
}

// Input carries the captured artifacts of one run.
type Input struct {
	Output string // transcript (the "out" artifact)
	Log    string // separate execution log (SAS)
	Stderr string // captured standard error (Python)
}

// Limits are the configured maxima and the user suppression patterns.
type Limits struct {
	MaxErrors   int
	MaxWarnings int
	Dropped     []string // additional suppression regexps
}

// Entry is one classified error or warning: the transcript line number of
// its header plus the header and continuation text.
type Entry struct {
	Line int
	Text string
}

// Result of classifying one transcript.
type Result struct {
	Errors   []Entry
	Warnings []Entry
	Messages string  // combined message block
	Summary  string  // counts compared to maxima plus rule results
	Points   float64 // point delta from output rules
}

// Classifier analyzes one toolchain's transcript. The evaluator runs the
// output-category rules; its delta and text are merged into the result.
type Classifier interface {
	Classify(in Input, limits Limits, eval rules.Evaluator) Result
}

// Registry dispatches classification per toolchain.
var Registry = map[Toolchain]Classifier{
	ToolchainR:      rFamily{},
	ToolchainSAS:    sas{},
	ToolchainPython: python{},
}

const maxContinuationLines = 3

// collect gathers header lines matching the header pattern, each
// absorbing up to three following lines as continuation text. Scanning
// stops at an empty line or a line the terminator predicate accepts.
func collect(lines []string, header *regexp.Regexp, terminator func(string) bool) []Entry {
	var entries []Entry
	for i, line := range lines {
		if !header.MatchString(line) {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "@ %d %s", i, line)
		for j := i + 1; j <= i+maxContinuationLines && j < len(lines); j++ {
			if lines[j] == "" || terminator(lines[j]) {
				break
			}
			b.WriteString("\n")
			b.WriteString(lines[j])
		}
		entries = append(entries, Entry{Line: i, Text: b.String()})
	}
	return entries
}

// suppress removes entries whose text matches any of the given patterns.
// Unparseable user patterns are ignored.
func suppress(entries []Entry, builtin *regexp.Regexp, dropped []string) []Entry {
	patterns := []*regexp.Regexp{}
	if builtin != nil {
		patterns = append(patterns, builtin)
	}
	for _, d := range dropped {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if re, err := regexp.Compile(d); err == nil {
			patterns = append(patterns, re)
		}
	}
	kept := entries[:0]
	for _, e := range entries {
		matched := false
		for _, re := range patterns {
			if re.MatchString(e.Text) {
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// messageBlock renders the classified entries as the combined message
// text.
func messageBlock(errors, warnings []Entry) string {
	var b strings.Builder
	if len(errors) > 0 {
		b.WriteString("**** ERRORS ****\n")
		for _, e := range errors {
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
	}
	if len(warnings) > 0 {
		if len(errors) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("**** WARNINGS ****\n")
		for _, e := range warnings {
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func countSummary(limits Limits, errors, warnings []Entry) string {
	return fmt.Sprintf("Allowed / actual errors = %d / %d\n", limits.MaxErrors, len(errors)) +
		fmt.Sprintf("Allowed / actual warnings = %d / %d\n", limits.MaxWarnings, len(warnings))
}

const (
	noMessages = "(no warnings or errors)"
	noProblems = "(no output problems)"
)

// CleanSASTranscript normalizes SAS print-file artifacts: the florin
// character used for rules becomes a hyphen and form feeds become
// newlines.
func CleanSASTranscript(s string) string {
	s = strings.ReplaceAll(s, "ƒ", "-")
	return strings.ReplaceAll(s, "\f", "\n")
}
