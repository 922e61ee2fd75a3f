package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Value holds one typed configuration value. Kind decides which member is
// meaningful.
type Value struct {
	Kind Kind
	Int  int
	Text string
}

// Set is one configuration tier instance: schema-typed values plus the
// modification timestamp used for staleness comparisons.
type Set struct {
	Schema  *Schema
	ModTime time.Time
	values  map[string]Value
}

// NewSet builds a Set holding the schema defaults, stamped with the
// current time.
func NewSet(schema *Schema) *Set {
	s := &Set{Schema: schema, ModTime: time.Now(), values: make(map[string]Value, len(schema.Fields))}
	for _, f := range schema.Fields {
		s.values[f.ID] = Value{Kind: f.Kind, Int: f.DefaultInt, Text: f.DefaultText}
	}
	return s
}

// Clone returns an independent copy sharing the immutable schema.
func (s *Set) Clone() *Set {
	c := &Set{Schema: s.Schema, ModTime: s.ModTime, values: make(map[string]Value, len(s.values))}
	for id, v := range s.values {
		c.values[id] = v
	}
	return c
}

// Int returns the value of an integer field. Unknown ids return 0.
func (s *Set) Int(id string) int { return s.values[id].Int }

// Text returns the value of a line or box field. Unknown ids return "".
func (s *Set) Text(id string) string { return s.values[id].Text }

// SetInt stores an integer field value and refreshes the timestamp.
func (s *Set) SetInt(id string, v int) {
	val := s.values[id]
	val.Int = v
	s.values[id] = val
	s.ModTime = time.Now()
}

// SetText stores a text field value and refreshes the timestamp.
func (s *Set) SetText(id, v string) {
	val := s.values[id]
	val.Text = v
	s.values[id] = val
	s.ModTime = time.Now()
}

// Encode renders the set as blank-line-separated "id: value" records in
// schema order.
func (s *Set) Encode() string {
	var b strings.Builder
	for _, f := range s.Schema.Fields {
		v := s.values[f.ID]
		b.WriteString(f.ID)
		b.WriteString(": ")
		if f.Kind == KindInt {
			b.WriteString(strconv.Itoa(v.Int))
		} else {
			b.WriteString(v.Text)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteFile persists the set and stamps the current time.
func (s *Set) WriteFile(fname string) error {
	if err := os.WriteFile(fname, []byte(s.Encode()), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", fname, err)
	}
	s.ModTime = time.Now()
	return nil
}

var reRecord = regexp.MustCompile(`(?s)^\s*([a-zA-Z_0-9]+):[ \t]*(.*)$`)

// ApplyFile overlays the fields defined in fname onto the set, leaving all
// other fields at their prior values. Unknown ids and malformed integers
// are reported as warnings and ignored. A missing or unreadable file
// self-heals when selfHeal is set: the current in-memory values are
// written out as the new file.
func (s *Set) ApplyFile(fname string, selfHeal bool) ([]string, error) {
	var warnings []string
	data, err := os.ReadFile(fname)
	if err != nil || len(data) == 0 {
		if err != nil && !os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("cannot open %s", fname))
		}
		if selfHeal {
			if werr := s.WriteFile(fname); werr != nil {
				return warnings, werr
			}
		}
		return warnings, nil
	}

	info, err := os.Stat(fname)
	if err != nil {
		return warnings, fmt.Errorf("failed to stat config %s: %w", fname, err)
	}
	s.ModTime = info.ModTime()

	for _, record := range strings.Split(string(data), "\n\n") {
		if strings.TrimSpace(record) == "" {
			continue
		}
		m := reRecord.FindStringSubmatch(record)
		if m == nil {
			warnings = append(warnings, fmt.Sprintf("missing colon in %s", fname))
			continue
		}
		id, value := m[1], m[2]
		if value == "" {
			value = " "
		}
		value = strings.TrimSuffix(value, "\n")
		if id == "config_mod_time" {
			// Legacy field written by older config files.
			continue
		}
		field, ok := s.Schema.Lookup(id)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("invalid id %q in %s", id, fname))
			continue
		}
		switch field.Kind {
		case KindInt:
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("in %s, %s must be an integer", fname, id))
				continue
			}
			s.SetInt(id, n)
		default:
			s.SetText(id, value)
		}
	}
	// SetInt/SetText refresh ModTime; the file time is authoritative.
	s.ModTime = info.ModTime()
	return warnings, nil
}
