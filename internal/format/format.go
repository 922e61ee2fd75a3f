// Package format parses filename-encoding templates and decodes raw
// submission filenames into identity records.
//
// A template such as "%s_%t_%f" describes how the course-management
// system renames submitted files: one separator character between field
// tags. Valid tags are %s (student), %t (timestamp), %e (email),
// %f (filename), %j (junk) and %l (an optional literal "late" marker).
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gradekit/autograde/internal/model"
)

// Field tags usable in a file format template.
const (
	FieldStudent   = "%s"
	FieldTimestamp = "%t"
	FieldEmail     = "%e"
	FieldFilename  = "%f"
	FieldJunk      = "%j"
	FieldLate      = "%l"
)

const validFieldChars = "stefjl"

// BadFormatError reports an invalid file format template. Callers are
// expected to fall back to the last known-good format and persist the
// correction.
type BadFormatError struct {
	Format string
	Reason string
}

func (e *BadFormatError) Error() string {
	return fmt.Sprintf("bad file format %q: %s", e.Format, e.Reason)
}

// Spec is a parsed file format template: the separator plus the ordered
// field tags. The optional %l tag is recorded by position and removed
// from Fields.
type Spec struct {
	Format          string
	Separator       string
	Fields          []string
	LateIndex       int // position of %l in the original template, -1 if absent
	StudentInFormat bool
}

var (
	reDotExt  = regexp.MustCompile(`(.+)([.][a-zA-Z]+$)`)
	reVersion = regexp.MustCompile(`(.+)(-[0-9]{1,2}$)`)
)

// Parse validates a file format template and returns its Spec. The
// template must use exactly one distinct separator character, contain at
// least two fields, not start with %l, and include %s or %e.
func Parse(formatString string) (*Spec, error) {
	seen := map[rune]bool{}
	var seps []rune
	for _, r := range formatString {
		if seen[r] {
			continue
		}
		seen[r] = true
		if r != '%' && !strings.ContainsRune(validFieldChars, r) {
			seps = append(seps, r)
		}
	}
	if len(seps) != 1 {
		return nil, &BadFormatError{formatString, "exactly one separator character is required"}
	}
	sep := string(seps[0])
	fields := strings.Split(formatString, sep)
	if len(fields) < 2 {
		return nil, &BadFormatError{formatString, "at least two fields are required"}
	}
	for _, f := range fields {
		if len(f) != 2 || f[0] != '%' || !strings.ContainsRune(validFieldChars, rune(f[1])) {
			return nil, &BadFormatError{formatString, fmt.Sprintf("invalid field %q", f)}
		}
	}
	if fields[0] == FieldLate {
		return nil, &BadFormatError{formatString, "the late field cannot come first"}
	}
	identity := false
	for _, f := range fields {
		if f == FieldStudent || f == FieldEmail {
			identity = true
		}
	}
	if !identity {
		return nil, &BadFormatError{formatString, "a student name or email field is required"}
	}

	spec := &Spec{Format: formatString, Separator: sep, LateIndex: -1}
	for i, f := range fields {
		switch f {
		case FieldLate:
			spec.LateIndex = i
			continue
		case FieldStudent:
			spec.StudentInFormat = true
		}
		spec.Fields = append(spec.Fields, f)
	}
	return spec, nil
}

// Decode splits a raw filename against the spec and maps the parts to
// record fields. A record with an empty Filename signals a name that does
// not conform; callers count and skip those. Two-part names shorter than
// the spec are accepted as the legacy short form (student, filename).
func Decode(rawName string, spec *Spec) model.SubmissionRecord {
	rec := model.SubmissionRecord{RawName: rawName}
	parts := strings.Split(rawName, spec.Separator)

	lateDropped := false
	if spec.LateIndex >= 0 && spec.LateIndex < len(parts) {
		if strings.EqualFold(parts[spec.LateIndex], "late") {
			parts = append(parts[:spec.LateIndex], parts[spec.LateIndex+1:]...)
			rec.Late = true
			lateDropped = true
		}
	}

	n := len(parts)
	fmtN := len(spec.Fields)
	if n > fmtN || (n < fmtN && n != 2) {
		return rec
	}

	short := n < fmtN && !lateDropped
	shortFields := [2]string{FieldStudent, FieldFilename}
	for i, value := range parts {
		field := spec.Fields[i]
		if short {
			field = shortFields[i]
		}
		switch field {
		case FieldJunk:
		case FieldTimestamp:
			rec.Timestamp = value
		case FieldStudent:
			rec.StudentName = value
		case FieldEmail:
			rec.Email = value
		case FieldFilename:
			stem, ext, ok := splitExt(value)
			if !ok {
				// No extension: the name cannot be a codefile.
				return model.SubmissionRecord{RawName: rawName, Late: rec.Late}
			}
			if m := reVersion.FindStringSubmatch(stem); m != nil {
				rec.Filename = m[1] + ext
				rec.Version, _ = strconv.Atoi(m[2][1:])
			} else {
				rec.Filename = value
			}
		}
	}
	return rec
}

// VersionedName splices a -N version suffix before the extension.
// Version 0 returns the name unchanged.
func VersionedName(filename string, version int) string {
	if version == 0 {
		return filename
	}
	ext := Ext(filename)
	return filename[:len(filename)-len(ext)] + "-" + strconv.Itoa(version) + ext
}

// Ext returns the extension including the dot, or "" when there is none.
func Ext(filename string) string {
	period := strings.LastIndex(filename, ".")
	if period == -1 {
		return ""
	}
	return filename[period:]
}

func splitExt(name string) (stem, ext string, ok bool) {
	m := reDotExt.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
