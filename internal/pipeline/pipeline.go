package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gradekit/autograde/internal/backend"
	"github.com/gradekit/autograde/internal/classify"
	"github.com/gradekit/autograde/internal/config"
	"github.com/gradekit/autograde/internal/format"
	"github.com/gradekit/autograde/internal/history"
	"github.com/gradekit/autograde/internal/model"
	"github.com/gradekit/autograde/internal/report"
	"github.com/gradekit/autograde/internal/rules"
)

// Artifact suffixes written next to each student's code in the sandbox.
const (
	suffixPre    = ".pre" // code analysis
	suffixMsg    = ".msg" // classified errors and warnings
	suffixPst    = ".pst" // output analysis
	suffixLetter = ".ltr" // feedback letter
)

const noLetter = "(no letter)"

// Pipeline grades the resolved submissions of one codefile.
type Pipeline struct {
	Session  *Session
	Codefile string
	Backend  backend.Backend
	History  *history.Store // optional
	Warnf    func(format string, args ...any)
}

func (p *Pipeline) warnf(f string, args ...any) {
	if p.Warnf != nil {
		p.Warnf(f, args...)
	}
}

func (p *Pipeline) cfg() *config.Set { return p.Session.Store.Specific[p.Codefile] }

// Stale reports whether a student needs regrading: no prior artifact, a
// submission newer than the last run, or a config change since it.
func Stale(lastRun, inputMod, configMod time.Time, hasArtifact bool) bool {
	if !hasArtifact {
		return true
	}
	return lastRun.Before(inputMod) || lastRun.Before(configMod)
}

// RunPending grades every student of the codefile whose result is stale.
// A failure grading one student is reported and does not stop the batch.
func (p *Pipeline) RunPending(ctx context.Context) ([]model.GradingResult, error) {
	var results []model.GradingResult
	for _, sf := range p.Session.Students[p.Codefile] {
		stale, err := p.isStale(sf)
		if err != nil {
			return results, err
		}
		if !stale {
			continue
		}
		res, err := p.RunOne(ctx, sf)
		if err != nil {
			p.warnf("grading %s for %s failed: %v", p.Codefile, sf.Label, err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *Pipeline) isStale(sf model.StudentFile) (bool, error) {
	letterPath := filepath.Join(p.sandbox(sf), sf.VersionedFilename+suffixLetter)
	letterInfo, err := os.Stat(letterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	data, err := os.ReadFile(letterPath)
	if err != nil {
		return false, err
	}
	// A placeholder letter means the previous run never completed; the
	// student must be retried regardless of timestamps.
	if string(data) == noLetter {
		return true, nil
	}
	inputInfo, err := os.Stat(filepath.Join(p.Session.Dir, sf.FullName))
	if err != nil {
		return false, fmt.Errorf("stat submission: %w", err)
	}
	return Stale(letterInfo.ModTime(), inputInfo.ModTime(), p.cfg().ModTime, true), nil
}

// RunOne grades a single student: code analysis, sandboxed execution,
// transcript classification, then the letter and history row.
func (p *Pipeline) RunOne(ctx context.Context, sf model.StudentFile) (model.GradingResult, error) {
	cfg := p.cfg()
	source, err := os.ReadFile(filepath.Join(p.Session.Dir, sf.FullName))
	if err != nil {
		return model.GradingResult{}, fmt.Errorf("read submission: %w", err)
	}
	sandbox := p.sandbox(sf)
	if err := os.MkdirAll(sandbox, 0o755); err != nil {
		return model.GradingResult{}, fmt.Errorf("create sandbox: %w", err)
	}
	base := filepath.Join(sandbox, sf.VersionedFilename)
	// A letter exists from here on; its mtime is the run marker.
	if err := os.WriteFile(base+suffixLetter, []byte(noLetter), 0o644); err != nil {
		return model.GradingResult{}, fmt.Errorf("write letter placeholder: %w", err)
	}

	result := model.GradingResult{
		Codefile:    p.Codefile,
		Label:       sf.Label,
		TotalPoints: cfg.Int("total_points"),
	}
	result.HasScore = result.TotalPoints > 0

	pre := p.preAnalyze(cfg, string(source))
	result.PrePoints = pre.Points
	result.PreText = pre.Text
	if err := os.WriteFile(base+suffixPre, []byte(pre.Text), 0o644); err != nil {
		return result, fmt.Errorf("write code analysis: %w", err)
	}

	p.copyAux(cfg, sandbox)

	ext := format.Ext(p.Codefile)
	toolchain, ok := classify.ToolchainForExt(ext)
	if !ok {
		return result, fmt.Errorf("no toolchain for %s", p.Codefile)
	}
	code, err := p.assemble(cfg, toolchain, ext, sf, string(source))
	if err != nil {
		return result, err
	}

	resp, err := p.Backend.Run(ctx, backend.Request{
		Sandbox:   sandbox,
		Name:      sf.VersionedFilename,
		Code:      code,
		Toolchain: toolchain,
		Ext:       ext,
		Prepend:   cfg.Text("code_prepend"),
		Append:    cfg.Text("code_append"),
		PDFOutput: pdfWanted(cfg),
	})
	if err != nil {
		return result, fmt.Errorf("run submission: %w", err)
	}

	transcript := readIfAny(resp.OutPath)
	if toolchain == classify.ToolchainSAS {
		transcript = classify.CleanSASTranscript(transcript)
	}
	// The backend stamps the exit code even when nothing was printed;
	// only actual program output counts.
	if strings.TrimSpace(reExitStamp.ReplaceAllString(transcript, "")) == "" {
		return p.finishWithoutOutput(base, result)
	}

	cr := classify.Registry[toolchain].Classify(
		classify.Input{
			Output: transcript,
			Log:    readIfAny(resp.LogPath),
			Stderr: readIfAny(resp.ErrPath),
		},
		classify.Limits{
			MaxErrors:   cfg.Int("max_errors"),
			MaxWarnings: cfg.Int("max_warnings"),
			Dropped:     boxLines(cfg.Text("dropped_messages")),
		},
		func(text string) rules.Result {
			return rules.Evaluate(cfg, text, rules.CategoryOutput)
		},
	)
	result.PostPoints = cr.Points
	result.PostText = cr.Summary
	if err := os.WriteFile(base+suffixMsg, []byte(cr.Messages), 0o644); err != nil {
		return result, fmt.Errorf("write messages: %w", err)
	}
	if err := os.WriteFile(base+suffixPst, []byte(cr.Summary), 0o644); err != nil {
		return result, fmt.Errorf("write output analysis: %w", err)
	}

	result.Score = report.Score(result.TotalPoints, result.PrePoints, result.PostPoints)
	letter := report.Letter(result)
	result.Letter = letter
	if err := os.WriteFile(base+suffixLetter, []byte(letter), 0o644); err != nil {
		return result, fmt.Errorf("write letter: %w", err)
	}
	p.record(ctx, sf, result)
	return result, nil
}

// finishWithoutOutput closes out a run whose transcript is empty; the
// student earns nothing and the letter says why.
func (p *Pipeline) finishWithoutOutput(base string, result model.GradingResult) (model.GradingResult, error) {
	msg := fmt.Sprintf("Analysis of %s awards zero points because no output was produced.\n", p.Codefile)
	result.HasScore = false
	result.PostText = msg
	result.Letter = msg
	for _, suffix := range []string{suffixMsg, suffixPst, suffixLetter} {
		if err := os.WriteFile(base+suffix, []byte(msg), 0o644); err != nil {
			return result, fmt.Errorf("write artifact: %w", err)
		}
	}
	return result, nil
}

type preResult struct {
	Points float64
	Text   string
}

var (
	reHashComment = regexp.MustCompile(`(?m)^\s*#`)
	reSASComment  = regexp.MustCompile(`(?m)^\s*/\*`)
	reBlankLine   = regexp.MustCompile(`(?m)^[ \t]*$`)
	reExitStamp   = regexp.MustCompile(`^\[Error code is -?[0-9]+\]\n{0,2}`)
)

// preAnalyze checks code style counts and the code rules before the
// submission runs.
func (p *Pipeline) preAnalyze(cfg *config.Set, source string) preResult {
	commentRe := reHashComment
	if ext := strings.ToUpper(format.Ext(p.Codefile)); ext == ".SAS" {
		commentRe = reSASComment
	}
	comments := len(commentRe.FindAllString(source, -1))
	blanks := len(reBlankLine.FindAllString(source, -1))

	var b strings.Builder
	fmt.Fprintf(&b, "Desired / actual comments = %d / %d\n", cfg.Int("min_comments"), comments)
	fmt.Fprintf(&b, "Desired / actual blanks = %d / %d\n\n", cfg.Int("min_blanks"), blanks)

	rr := rules.Evaluate(cfg, source, rules.CategoryCode)
	b.WriteString(rr.Text)
	return preResult{Points: rr.Points, Text: b.String()}
}

// copyAux copies the configured auxiliary files (data sets, helper
// scripts) into the sandbox. Existing copies are kept so a rerun sees
// the same inputs; a missing aux file is the grader's problem, not the
// student's.
func (p *Pipeline) copyAux(cfg *config.Set, sandbox string) {
	for _, name := range boxLines(cfg.Text("aux_files")) {
		if strings.Count(filepath.ToSlash(name), "/") > 1 {
			p.warnf("aux file %s: nested deeper than one subdirectory, skipped", name)
			continue
		}
		dst := filepath.Join(sandbox, filepath.Base(name))
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := copyFile(filepath.Join(p.Session.Dir, name), dst); err != nil {
			p.warnf("aux file %s: %v", name, err)
		}
	}
}

func (p *Pipeline) assemble(cfg *config.Set, toolchain classify.Toolchain, ext string, sf model.StudentFile, source string) (string, error) {
	prepend := cfg.Text("code_prepend")
	append_ := cfg.Text("code_append")
	switch toolchain {
	case classify.ToolchainR:
		if strings.EqualFold(ext, ".Rmd") {
			code, err := backend.AssembleRmd(source, prepend, append_)
			if err != nil {
				return "", fmt.Errorf("assemble %s: %w", sf.VersionedFilename, err)
			}
			return code, nil
		}
		return backend.AssembleR(source, prepend, append_), nil
	case classify.ToolchainSAS:
		return backend.AssembleSAS(source, prepend, append_,
			sf.VersionedFilename+".pdf", pdfWanted(cfg)), nil
	case classify.ToolchainPython:
		return backend.AssemblePython(source, prepend, append_), nil
	}
	return "", fmt.Errorf("no assembler for toolchain %q", toolchain)
}

func (p *Pipeline) record(ctx context.Context, sf model.StudentFile, res model.GradingResult) {
	if p.History == nil {
		return
	}
	_, err := p.History.InsertRun(ctx, model.RunRecord{
		GradedAt:    time.Now(),
		Dir:         p.Session.Dir,
		Codefile:    res.Codefile,
		Student:     sf.StudentName,
		Email:       sf.Email,
		Version:     sf.Version,
		PrePoints:   res.PrePoints,
		PostPoints:  res.PostPoints,
		TotalPoints: res.TotalPoints,
		Score:       res.Score,
		HasScore:    res.HasScore,
	})
	if err != nil {
		p.warnf("history insert failed: %v", err)
	}
}

func (p *Pipeline) sandbox(sf model.StudentFile) string {
	return filepath.Join(p.Session.Dir, SandboxName(sf))
}

// SandboxName derives a filesystem-safe directory name for a student:
// the email half of the identity when present, else the name stripped of
// punctuation and spaces.
func SandboxName(sf model.StudentFile) string {
	if sf.Email != "" {
		return sf.Email
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(" -~`!@#$%^&*()_+{}[]:;<>?,./'\"", r) {
			return -1
		}
		return r
	}, sf.StudentName)
}

func pdfWanted(cfg *config.Set) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Text("pdf_output"))), "y")
}

// boxLines splits a multi-line config box into trimmed, nonempty lines.
func boxLines(box string) []string {
	var out []string
	for _, line := range strings.Split(box, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func readIfAny(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		if cerr := out.Close(); cerr != nil {
			_ = cerr
		}
		return err
	}
	return out.Close()
}
