// Package roster loads class roster spreadsheets used to backfill
// submission identity. A missing roster is an expected condition, not an
// error: lookups on a nil Roster return nothing.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Options name the CSV columns and the format student names take inside
// filenames.
type Options struct {
	FirstNameCol string
	LastNameCol  string
	EmailCol     string
	NameFormat   string // e.g. "Last, First"
}

// Roster is the loaded lookup table. Names are lowercased full names in
// the configured format; emails are lowercased with the @domain stripped.
type Roster struct {
	FullNames []string
	Emails    []string
}

var reEmailDomain = regexp.MustCompile("@.*")

// Find returns the roster CSV candidates for a course in dir, sorted by
// name. An empty course id yields no candidates.
func Find(dir, courseID string) ([]string, error) {
	if courseID == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(courseID) + ".*[.]csv$")
	if err != nil {
		return nil, fmt.Errorf("failed to build roster pattern: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read roster directory: %w", err)
	}
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if re.MatchString(entry.Name()) {
			candidates = append(candidates, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(candidates)
	return candidates, nil
}

// Load reads one roster CSV, resolving columns by the configured header
// names. Missing name columns leave FullNames empty; a missing email
// column leaves Emails empty.
func Load(path string, opts Options) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if len(rows) == 0 {
		return &Roster{}, nil
	}

	header := rows[0]
	col := func(name string) int {
		if name == "" {
			return -1
		}
		for i, h := range header {
			if h == name {
				return i
			}
		}
		return -1
	}
	firstCol := col(opts.FirstNameCol)
	lastCol := col(opts.LastNameCol)
	emailCol := col(opts.EmailCol)

	r := &Roster{}
	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}
		if firstCol >= 0 && lastCol >= 0 {
			full := joinName(cell(firstCol), cell(lastCol), opts.NameFormat)
			r.FullNames = append(r.FullNames, strings.ToLower(full))
		}
		if emailCol >= 0 {
			email := strings.ToLower(cell(emailCol))
			r.Emails = append(r.Emails, reEmailDomain.ReplaceAllString(email, ""))
		}
	}
	return r, nil
}

func joinName(first, last, nameFormat string) string {
	switch nameFormat {
	case "Last, First":
		return last + ", " + first
	case "Last.First":
		return last + "." + first
	case "First.Last":
		return first + "." + last
	case "FirstLast":
		return first + last
	case "LastFirst":
		return last + first
	default:
		return first + " " + last
	}
}

// EmailForName returns the email for an exact case-insensitive full-name
// match, or "".
func (r *Roster) EmailForName(name string) string {
	if r == nil || len(r.FullNames) == 0 || len(r.Emails) == 0 {
		return ""
	}
	name = strings.ToLower(name)
	for i, full := range r.FullNames {
		if full == name && i < len(r.Emails) {
			return r.Emails[i]
		}
	}
	return ""
}

// NameForEmail returns the full name for an exact case-insensitive email
// match, or "".
func (r *Roster) NameForEmail(email string) string {
	if r == nil || len(r.FullNames) == 0 || len(r.Emails) == 0 {
		return ""
	}
	email = strings.ToLower(email)
	for i, e := range r.Emails {
		if e == email && i < len(r.FullNames) {
			return r.FullNames[i]
		}
	}
	return ""
}
