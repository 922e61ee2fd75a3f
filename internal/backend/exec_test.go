package backend

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStampExitCode(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "hw1.R.out")
	if err := os.WriteFile(path, []byte("[1] 1\n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	if err := stampExitCode(path, 0); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(data) != "[Error code is 0]\n\n[1] 1\n" {
		t.Fatalf("clean exits are stamped too: %q", data)
	}

	// A crashed interpreter may leave no transcript at all; the stamp
	// still records the exit status.
	missing := filepath.Join(dir, "hw2.sas.out")
	if err := stampExitCode(missing, 2); err != nil {
		t.Fatalf("stamp missing transcript: %v", err)
	}
	data, err = os.ReadFile(missing)
	if err != nil {
		t.Fatalf("read stamped transcript: %v", err)
	}
	if string(data) != "[Error code is 2]\n\n" {
		t.Fatalf("unexpected transcript: %q", data)
	}
}
