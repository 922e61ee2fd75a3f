// Package pipeline drives grading: it assembles the per-directory
// session (config tiers, file format, roster, resolved submissions) and
// runs each student's code through a backend and the classifiers.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/gradekit/autograde/internal/config"
	"github.com/gradekit/autograde/internal/format"
	"github.com/gradekit/autograde/internal/model"
	"github.com/gradekit/autograde/internal/roster"
	"github.com/gradekit/autograde/internal/submission"
)

// Options tune session construction.
type Options struct {
	GlobalDir  string // global config directory
	RosterPath string // explicit roster file, overrides discovery
}

// Session is everything known about one grading directory before any
// code runs.
type Session struct {
	Dir       string
	Store     *config.Store
	Spec      *format.Spec
	Roster    *roster.Roster
	Codefiles []string
	Students  map[string][]model.StudentFile // per codefile
	Warnings  []string

	globalDir string // roster CSVs live here, next to the global config
}

// NewSession loads the configuration tiers for dir, repairs a broken
// file format, expands codefile wildcards, finds the roster and resolves
// the submissions for every codefile. Recoverable problems land in
// Warnings.
func NewSession(dir string, opts Options) (*Session, error) {
	globalGeneral, globalSpecific, warnings := config.LoadGlobal(opts.GlobalDir)

	store, w, err := config.NewStore(dir, globalGeneral, globalSpecific)
	warnings = append(warnings, w...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Dir:       dir,
		Store:     store,
		Students:  map[string][]model.StudentFile{},
		Warnings:  warnings,
		globalDir: opts.GlobalDir,
	}

	if err := s.resolveFormat(); err != nil {
		return nil, err
	}
	if err := s.resolveCodefiles(); err != nil {
		return nil, err
	}
	w, err = store.LoadSpecific(s.Codefiles)
	s.Warnings = append(s.Warnings, w...)
	if err != nil {
		return nil, err
	}
	if err := s.loadRoster(opts.RosterPath); err != nil {
		return nil, err
	}

	for _, cf := range s.Codefiles {
		names, err := submission.Scan(dir, cf, s.Spec)
		if err != nil {
			return nil, err
		}
		files, dropped := submission.Resolve(names, s.Spec, s.Roster)
		if dropped > 0 {
			s.warnf("%d submission(s) for %s did not match the file format and were skipped", dropped, cf)
		}
		s.Students[cf] = files
	}
	return s, nil
}

// resolveFormat parses the configured file format, falling back first to
// the global tier's format and then to the built-in default. A repaired
// format is written back so the next run starts clean.
func (s *Session) resolveFormat() error {
	configured := s.Store.General.Text("file_format")
	spec, err := format.Parse(configured)
	if err == nil {
		s.Spec = spec
		return nil
	}
	s.warnf("%v", err)

	for _, fallback := range []string{s.Store.GlobalFormat(), defaultFormat()} {
		spec, err = format.Parse(fallback)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("no usable file format: %w", err)
	}
	s.Spec = spec
	s.warnf("file format reset to %q", spec.Format)
	s.Store.General.SetText("file_format", spec.Format)
	return s.Store.WriteGeneral()
}

// resolveCodefiles validates the codefiles entry and expands a wildcard
// against the directory contents, persisting the expansion.
func (s *Session) resolveCodefiles() error {
	entries, err := submission.ParseCodefiles(s.Store.General.Text("codefiles"))
	if err != nil {
		return err
	}
	if len(entries) > submission.MaxCodefiles {
		s.warnf("only the first %d codefiles are graded; %d dropped",
			submission.MaxCodefiles, len(entries)-submission.MaxCodefiles)
		entries = entries[:submission.MaxCodefiles]
	}
	if !submission.IsWildcard(entries[0]) {
		s.Codefiles = entries
		return nil
	}

	names, dropped, err := submission.ExpandWildcard(s.Dir, entries[0], s.Spec)
	if err != nil {
		return err
	}
	if dropped > 0 {
		s.warnf("%d file(s) skipped while expanding %s", dropped, entries[0])
	}
	if len(names) == 0 {
		s.warnf("no submissions match %s yet", entries[0])
		return nil
	}
	s.Codefiles = names
	s.Store.General.SetText("codefiles", strings.Join(names, ", "))
	return s.Store.WriteGeneral()
}

// loadRoster locates and loads the class roster. No roster is fine;
// several candidates without an explicit choice is a warning, not an
// error.
func (s *Session) loadRoster(explicit string) error {
	path := explicit
	if path == "" {
		candidates, err := roster.Find(s.globalDir, s.Store.General.Text("course_id"))
		if err != nil {
			return err
		}
		switch len(candidates) {
		case 0:
			return nil
		case 1:
			path = candidates[0]
		default:
			s.warnf("%d roster candidates found; pass one explicitly with --roster", len(candidates))
			return nil
		}
	}

	r, err := roster.Load(path, roster.Options{
		FirstNameCol: s.Store.General.Text("roster_firstname_col"),
		LastNameCol:  s.Store.General.Text("roster_lastname_col"),
		EmailCol:     s.Store.General.Text("roster_email_col"),
		NameFormat:   s.Store.General.Text("filename_name_fmt"),
	})
	if err != nil {
		return err
	}
	s.Roster = r
	return nil
}

func (s *Session) warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func defaultFormat() string {
	f, _ := config.GeneralSchema().Lookup("file_format")
	return f.DefaultText
}
