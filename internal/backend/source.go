package backend

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Students leave interactive help calls in submitted code; batch runs
	// must not hang or error on them.
	reQueryLine = regexp.MustCompile(`(?m)^([ \t]*)\?`)
	reHelpCall  = regexp.MustCompile(`(?m)^([ \t]*)help\(`)

	reFirstRChunk = regexp.MustCompile("\n\\s*```\\s*[{]\\s*(r|R)")
	rePDFDoc      = regexp.MustCompile(`pdf_document`)
	reWordDoc     = regexp.MustCompile(`(w|W)ord_document`)

	reSASWorkDir = regexp.MustCompile(`(?i)((^|\n)\s*)%LET\s+WD\s*=.*;`)
)

func neutralizeInteractive(code string) string {
	code = reQueryLine.ReplaceAllString(code, "$1### ?")
	code = reHelpCall.ReplaceAllString(code, "$1### help(")
	return code
}

// AssembleR prepares plain R source: interactive calls are commented out
// and the configured boilerplate is spliced around the code.
func AssembleR(code, prepend, append_ string) string {
	code = neutralizeInteractive(code)
	if p := strings.TrimSpace(prepend); p != "" {
		code = p + "\n" + code
	}
	if a := strings.TrimSpace(append_); a != "" {
		code = code + "\n" + a + "\n"
	}
	return code
}

// AssembleRmd prepares R Markdown source. Document output formats are
// forced to HTML, and boilerplate is inserted as its own code chunks:
// prepend goes before the first R chunk, append at the end.
func AssembleRmd(code, prepend, append_ string) (string, error) {
	code = neutralizeInteractive(code)
	code = rePDFDoc.ReplaceAllString(code, "html_document")
	code = reWordDoc.ReplaceAllString(code, "html_document")

	if p := strings.TrimSpace(prepend); p != "" {
		loc := reFirstRChunk.FindStringIndex(code)
		if loc == nil || loc[0] == 0 {
			return "", fmt.Errorf("no R chunk found to anchor the prepended code")
		}
		at := loc[0] + 1 // just after the newline opening the chunk
		code = code[:at] + "```{r autograde-prepend}\n" + p + "\n```\n\n" + code[at:]
	}
	if a := strings.TrimSpace(append_); a != "" {
		code = code + "\n```{r autograde-append}\n" + a + "\n```\n"
	}
	return code, nil
}

// AssembleSAS prepares SAS source: working-directory %LET statements are
// redirected into the sandbox, and optional ODS PDF output wraps the
// program.
func AssembleSAS(code, prepend, append_, pdfName string, pdf bool) string {
	code = reSASWorkDir.ReplaceAllString(code, "${1}%LET WD=.;")
	if pdf {
		code = "ODS PDF FILE='" + pdfName + "';\nODS GRAPHICS ON;\n" + code
	}
	if p := strings.TrimSpace(prepend); p != "" {
		code = p + "\n" + code
	}
	if a := strings.TrimSpace(append_); a != "" {
		code = code + "\n" + a + "\n"
	}
	if pdf {
		code = code + "ODS PDF CLOSE;"
	}
	return code
}

// AssemblePython prepares Python source. Boilerplate comes from config
// fields that cannot hold leading whitespace reliably, so **** and
// ******** expand to four- and eight-space indents.
func AssemblePython(code, prepend, append_ string) string {
	code = neutralizeInteractive(code)
	if p := expandIndent(strings.TrimSpace(prepend)); p != "" {
		code = p + "\n" + code
	}
	if a := expandIndent(strings.TrimSpace(append_)); a != "" {
		code = code + "\n" + a + "\n"
	}
	return code
}

func expandIndent(s string) string {
	s = strings.ReplaceAll(s, "********", "        ")
	return strings.ReplaceAll(s, "****", "    ")
}
