// Package submission discovers raw submission files in a grading
// directory and resolves them to one latest file per student.
package submission

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/gradekit/autograde/internal/format"
	"github.com/gradekit/autograde/internal/model"
	"github.com/gradekit/autograde/internal/roster"
)

// Scan lists the raw filenames in dir that carry the given codefile,
// with or without a resubmission version suffix. Matching is
// case-insensitive because students rename extensions freely.
func Scan(dir, codefile string, spec *format.Spec) ([]string, error) {
	ext := format.Ext(codefile)
	base := strings.TrimSuffix(codefile, ext)
	re, err := regexp.Compile(`(?i)` +
		regexp.QuoteMeta(spec.Separator+base) +
		`(-[0-9]{1,2})?` +
		regexp.QuoteMeta(ext) + `$`)
	if err != nil {
		return nil, fmt.Errorf("codefile pattern: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if re.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve decodes raw names and keeps the highest-version submission per
// student identity. Identity is the lowercased student name when the
// format carries one, else the lowercased email; the roster backfills
// whichever half is missing. The second return value counts names that
// did not conform to the format.
func Resolve(names []string, spec *format.Spec, r *roster.Roster) ([]model.StudentFile, int) {
	latest := map[string]model.StudentFile{}
	dropped := 0
	for _, name := range names {
		rec := format.Decode(name, spec)
		if rec.Filename == "" {
			dropped++
			continue
		}
		student, email := rec.StudentName, rec.Email
		if email == "" {
			email = r.EmailForName(student)
		}
		if student == "" {
			student = r.NameForEmail(email)
		}
		key := strings.ToLower(student)
		if key == "" {
			key = strings.ToLower(email)
		}
		if key == "" {
			dropped++
			continue
		}
		sf := model.StudentFile{
			FullName:          name,
			Filename:          rec.Filename,
			Version:           rec.Version,
			VersionedFilename: format.VersionedName(rec.Filename, rec.Version),
			Timestamp:         rec.Timestamp,
			StudentName:       student,
			Email:             email,
			Late:              rec.Late,
		}
		if prev, ok := latest[key]; ok && prev.Version >= sf.Version {
			continue
		}
		latest[key] = sf
	}

	out := make([]model.StudentFile, 0, len(latest))
	for _, sf := range latest {
		label := sf.StudentName
		if !spec.StudentInFormat && sf.Email != "" {
			label = sf.Email
		}
		if sf.Version > 0 {
			label += fmt.Sprintf(" (%d)", sf.Version)
		}
		sf.Label = label
		out = append(out, sf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, dropped
}
