package roster

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRoster(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	writeRoster(t, dir, "36-601 Fall.csv", "a,b\n")
	writeRoster(t, dir, "36-601.CSV", "a,b\n")
	writeRoster(t, dir, "other.csv", "a,b\n")

	candidates, err := Find(dir, "36-601")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}

	candidates, err = Find(dir, "")
	if err != nil || candidates != nil {
		t.Fatalf("expected no candidates without a course id, got %v, %v", candidates, err)
	}
}

func TestLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	path := writeRoster(t, dir, "36-601.csv",
		"FirstName,LastName,Email\nAlice,Smith,ASmith@andrew.cmu.edu\nBob,Jones,bjones@andrew.cmu.edu\n")

	r, err := Load(path, Options{
		FirstNameCol: "FirstName",
		LastNameCol:  "LastName",
		EmailCol:     "Email",
		NameFormat:   "Last, First",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := r.EmailForName("Smith, Alice"); got != "asmith" {
		t.Fatalf("expected asmith, got %q", got)
	}
	if got := r.NameForEmail("BJONES"); got != "jones, bob" {
		t.Fatalf("expected jones, bob, got %q", got)
	}
	if got := r.EmailForName("nobody"); got != "" {
		t.Fatalf("expected empty lookup, got %q", got)
	}
}

func TestLoadNameFormats(t *testing.T) {
	dir := t.TempDir()
	path := writeRoster(t, dir, "c.csv", "FirstName,LastName,Email\nAlice,Smith,a@x\n")
	cases := map[string]string{
		"Last.First": "smith.alice",
		"First.Last": "alice.smith",
		"FirstLast":  "alicesmith",
		"LastFirst":  "smithalice",
		"other":      "alice smith",
	}
	for nameFormat, want := range cases {
		r, err := Load(path, Options{
			FirstNameCol: "FirstName", LastNameCol: "LastName",
			EmailCol: "Email", NameFormat: nameFormat,
		})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if r.FullNames[0] != want {
			t.Fatalf("%s: expected %q, got %q", nameFormat, want, r.FullNames[0])
		}
	}
}

func TestNilRosterLookups(t *testing.T) {
	var r *Roster
	if r.EmailForName("x") != "" || r.NameForEmail("x") != "" {
		t.Fatalf("nil roster lookups must return empty strings")
	}
}
