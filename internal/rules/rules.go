// Package rules evaluates required and prohibited text rules against
// submitted code or captured program output.
//
// A rule set is newline-separated lines, each optionally prefixed with a
// {±N} point value. A line quoted with matching single or double quotes
// is an exact substring match; anything else compiles as a regular
// expression with first-match search semantics. Quoted literals shorter
// than three characters (quotes included) are skipped.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Category selects which configured field pair a rule set comes from.
type Category string

const (
	CategoryCode   Category = "code"   // req_code / prohib_code
	CategoryOutput Category = "output" // req_output / prohib_output
)

// Mode selects required or prohibited evaluation.
type Mode int

const (
	Required Mode = iota
	Prohibited
)

// BadPatternPoints is the sentinel delta reported when a rule line fails
// to compile, making the failure visible in aggregate scoring.
const BadPatternPoints = -9999

// Result is the combined outcome of one evaluation call.
type Result struct {
	Points float64
	Text   string
}

// Evaluator runs the output-category rules against a transcript; the
// classifiers merge its result into their summaries.
type Evaluator func(text string) Result

// Config supplies rule text by field id, satisfied by *config.Set.
type Config interface {
	Text(id string) string
}

var (
	rePoints = regexp.MustCompile(`^[{]([-+]?[0-9.]+?)[}][ ]*([^ ]+.*$)`)
	reCRLF   = regexp.MustCompile("\r\n")
)

// The four point cases, as one explicit wording table. Messages without a
// point value use the plain forms below instead.
var pointWording = map[Mode]map[bool]string{
	Required: {
		true:  "%v points for missing %s: %s\n", // negative: deduction on failure
		false: "%v points for avoided %s: %s\n", // positive on a required rule (unused by convention)
	},
	Prohibited: {
		true:  "%v points for prohibited %s: %s\n",   // negative: penalty for presence
		false: "%v extra credit points for %s: %s\n", // positive: credit for presence
	},
}

var plainWording = map[Mode]string{
	Required:   "Missing %s: %s\n",
	Prohibited: "Prohibited %s: %s\n",
}

// Evaluate runs the required and prohibited rule sets of one category
// against text and returns the summed point delta and explanation text.
func Evaluate(cfg Config, text string, category Category) Result {
	// '^'/'$' anchoring needs plain newlines.
	text = reCRLF.ReplaceAllString(text, "\n")

	req := evaluateSet(cfg.Text("req_"+string(category)), text, Required, category)
	if req.Points == BadPatternPoints {
		return req
	}
	prohib := evaluateSet(cfg.Text("prohib_"+string(category)), text, Prohibited, category)
	if prohib.Points == BadPatternPoints {
		return prohib
	}
	return Result{Points: req.Points + prohib.Points, Text: req.Text + prohib.Text}
}

func evaluateSet(ruleText, text string, mode Mode, category Category) Result {
	var out strings.Builder
	var points float64
	for _, line := range strings.Split(ruleText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		linePoints, hasPoints, pattern := pullOffPoints(line)

		matched, skip, ok := match(pattern, text)
		if !ok {
			return Result{Points: BadPatternPoints, Text: "Bad Regular expression"}
		}
		if skip {
			continue
		}
		hit := matched
		if mode == Required {
			hit = !matched
		}
		if !hit {
			continue
		}
		if !hasPoints {
			out.WriteString(fmt.Sprintf(plainWording[mode], category, pattern))
			continue
		}
		out.WriteString(fmt.Sprintf(pointWording[mode][linePoints < 0],
			formatPoints(linePoints), category, pattern))
		points += linePoints
	}
	return Result{Points: points, Text: out.String()}
}

// match reports whether pattern occurs in text. A quoted literal shorter
// than three characters is skipped rather than evaluated.
func match(pattern, text string) (matched, skip, ok bool) {
	if len(pattern) >= 2 && pattern[0] == pattern[len(pattern)-1] &&
		(pattern[0] == '"' || pattern[0] == '\'') {
		if len(pattern) < 3 {
			return false, true, true
		}
		return strings.Contains(text, pattern[1:len(pattern)-1]), false, true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, false, false
	}
	return re.MatchString(text), false, true
}

func pullOffPoints(line string) (points float64, hasPoints bool, rest string) {
	m := rePoints.FindStringSubmatch(line)
	if m == nil {
		return 0, false, line
	}
	p, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false, m[2]
	}
	return p, true, m[2]
}

func formatPoints(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}
