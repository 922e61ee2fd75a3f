package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gradekit/autograde/internal/model"
)

func TestInsertAndListRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, student := range []string{"alice", "bob"} {
		_, err := store.InsertRun(ctx, model.RunRecord{
			GradedAt:    base.Add(time.Duration(i) * time.Minute),
			Dir:         "/grading/hw1",
			Codefile:    "hw1.R",
			Student:     student,
			Email:       student + "@example.edu",
			Version:     i,
			PrePoints:   -2,
			PostPoints:  -5,
			TotalPoints: 100,
			Score:       93,
			HasScore:    true,
		})
		if err != nil {
			t.Fatalf("insert %s: %v", student, err)
		}
	}
	if _, err := store.InsertRun(ctx, model.RunRecord{
		GradedAt: base.Add(2 * time.Minute),
		Dir:      "/grading/hw2",
		Codefile: "hw2.sas",
		Student:  "carol",
	}); err != nil {
		t.Fatalf("insert carol: %v", err)
	}

	runs, err := store.ListRuns(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].Student != "carol" {
		t.Fatalf("expected newest first, got %+v", runs[0])
	}
	if runs[0].HasScore {
		t.Fatalf("has_score must round-trip false: %+v", runs[0])
	}

	runs, err = store.ListRuns(ctx, "hw1.R", 10)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 filtered runs, got %d", len(runs))
	}
	if runs[0].Student != "bob" || !runs[0].HasScore || runs[0].Score != 93 {
		t.Fatalf("unexpected run: %+v", runs[0])
	}

	if runs, err := store.ListRuns(ctx, "", 0); err != nil || runs != nil {
		t.Fatalf("limit 0 must return nothing, got %v (%v)", runs, err)
	}
}
