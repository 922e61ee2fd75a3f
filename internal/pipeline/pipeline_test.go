package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gradekit/autograde/internal/backend"
	"github.com/gradekit/autograde/internal/config"
	"github.com/gradekit/autograde/internal/model"
)

// fakeBackend skips the interpreter and writes a canned transcript.
type fakeBackend struct {
	out  string
	fail bool
	runs int
}

func (f *fakeBackend) Run(_ context.Context, req backend.Request) (backend.Response, error) {
	f.runs++
	if f.fail {
		return backend.Response{}, errors.New("interpreter not installed")
	}
	outPath := filepath.Join(req.Sandbox, req.Name+".out")
	if err := os.WriteFile(outPath, []byte(f.out), 0o644); err != nil {
		return backend.Response{}, err
	}
	return backend.Response{OutPath: outPath}, nil
}

func TestStale(t *testing.T) {
	at := func(sec int64) time.Time { return time.Unix(sec, 0) }
	cases := []struct {
		name                       string
		lastRun, inputMod, confMod int64
		hasArtifact                bool
		want                       bool
	}{
		{"up to date", 100, 100, 50, true, false},
		{"newer submission", 99, 100, 50, true, true},
		{"newer config", 100, 50, 101, true, true},
		{"never graded", 0, 100, 50, false, true},
	}
	for _, c := range cases {
		got := Stale(at(c.lastRun), at(c.inputMod), at(c.confMod), c.hasArtifact)
		if got != c.want {
			t.Fatalf("%s: expected stale=%v, got %v", c.name, c.want, got)
		}
	}
}

func TestSandboxName(t *testing.T) {
	sf := model.StudentFile{StudentName: "Ng, Alice", Email: "ang"}
	if got := SandboxName(sf); got != "ang" {
		t.Fatalf("email wins: got %q", got)
	}
	sf.Email = ""
	if got := SandboxName(sf); got != "NgAlice" {
		t.Fatalf("punctuation must be stripped: got %q", got)
	}
}

func TestRunPendingEndToEnd(t *testing.T) {
	dir := t.TempDir()
	source := strings.Join([]string{
		"# one", "# two", "# three", "# four", "# five", "# six",
		"",
		"x <- 1",
		"",
		"print(x)",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "bob_2021-01-01_hw1.R"), []byte(source), 0o644); err != nil {
		t.Fatalf("write submission: %v", err)
	}

	sess, err := NewSession(dir, Options{GlobalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if len(sess.Codefiles) != 1 || sess.Codefiles[0] != "hw1.R" {
		t.Fatalf("wildcard expansion failed: %v", sess.Codefiles)
	}

	fake := &fakeBackend{out: "> x <- 1\n> print(x)\n[1] 1\n"}
	p := &Pipeline{Session: sess, Codefile: "hw1.R", Backend: fake}

	results, err := p.RunPending(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %+v", results)
	}
	res := results[0]
	if res.Label != "bob" || !res.HasScore || res.Score != 100 {
		t.Fatalf("unexpected result: %+v", res)
	}

	sandbox := filepath.Join(dir, "bob")
	pre, err := os.ReadFile(filepath.Join(sandbox, "hw1.R.pre"))
	if err != nil {
		t.Fatalf("read code analysis: %v", err)
	}
	if !strings.Contains(string(pre), "Desired / actual comments = 5 / 6") {
		t.Fatalf("unexpected code analysis: %q", pre)
	}
	letter, err := os.ReadFile(filepath.Join(sandbox, "hw1.R.ltr"))
	if err != nil {
		t.Fatalf("read letter: %v", err)
	}
	if !strings.Contains(string(letter), "You scored 100 out of 100.") {
		t.Fatalf("unexpected letter: %q", letter)
	}

	// Nothing changed, so a second pass grades nobody.
	results, err = p.RunPending(context.Background())
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if len(results) != 0 || fake.runs != 1 {
		t.Fatalf("expected no regrade, got %d results after %d runs", len(results), fake.runs)
	}

	// A resubmission (newer mtime) is stale again.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "bob_2021-01-01_hw1.R"), future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	results, err = p.RunPending(context.Background())
	if err != nil {
		t.Fatalf("regrade: %v", err)
	}
	if len(results) != 1 || fake.runs != 2 {
		t.Fatalf("expected one regrade, got %d results after %d runs", len(results), fake.runs)
	}
}

func TestRunOneWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bob_2021-01-01_hw1.R"), []byte("x <- 1\n"), 0o644); err != nil {
		t.Fatalf("write submission: %v", err)
	}
	sess, err := NewSession(dir, Options{GlobalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	// The transcript holds only the exit stamp; that does not count as
	// program output.
	p := &Pipeline{Session: sess, Codefile: "hw1.R", Backend: &fakeBackend{out: "[Error code is 0]\n\n"}}

	res, err := p.RunOne(context.Background(), sess.Students["hw1.R"][0])
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.HasScore {
		t.Fatalf("no output must leave the student unscored: %+v", res)
	}
	if !strings.Contains(res.Letter, "awards zero points because no output was produced") {
		t.Fatalf("unexpected letter: %q", res.Letter)
	}
}

func TestRunPendingRetriesFailedRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bob_2021-01-01_hw1.R"), []byte("x <- 1\n"), 0o644); err != nil {
		t.Fatalf("write submission: %v", err)
	}
	sess, err := NewSession(dir, Options{GlobalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	fake := &fakeBackend{fail: true}
	var warned []string
	p := &Pipeline{Session: sess, Codefile: "hw1.R", Backend: fake,
		Warnf: func(f string, args ...any) { warned = append(warned, f) }}

	results, err := p.RunPending(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 0 || len(warned) != 1 {
		t.Fatalf("failed run must warn and produce no result: %+v %v", results, warned)
	}

	// The placeholder letter left behind must not shadow the failure: the
	// student is stale until a run completes.
	fake.fail = false
	fake.out = "> x <- 1\n"
	results, err = p.RunPending(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(results) != 1 || fake.runs != 2 {
		t.Fatalf("interrupted run must be retried, got %d results after %d runs", len(results), fake.runs)
	}
}

func TestSessionFindsGlobalRoster(t *testing.T) {
	dir := t.TempDir()
	global := t.TempDir()
	general := config.NewSet(config.GeneralSchema())
	general.SetText("course_id", "36-601")
	if err := general.WriteFile(filepath.Join(global, config.GeneralConfigName)); err != nil {
		t.Fatalf("write global config: %v", err)
	}
	csv := "FirstName,LastName,Email\nAlice,Ng,ang@andrew.cmu.edu\n"
	if err := os.WriteFile(filepath.Join(global, "36-601 roster.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ang_2021-01-01_hw1.R"), []byte("x <- 1\n"), 0o644); err != nil {
		t.Fatalf("write submission: %v", err)
	}

	sess, err := NewSession(dir, Options{GlobalDir: global})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.Roster == nil {
		t.Fatalf("roster next to the global config was not found")
	}
	if got := sess.Roster.NameForEmail("ang"); got != "ng, alice" {
		t.Fatalf("roster lookup failed: %q", got)
	}
}

func TestPreAnalyzeSASComments(t *testing.T) {
	p := &Pipeline{Codefile: "hw1.sas"}
	cfg := config.NewSet(config.SpecificSchema())
	source := strings.Join([]string{
		"/* read the data */",
		"DATA one;",
		"* drop incomplete cases;",
		"  /* fit */",
		"* print the fit;",
		"RUN;",
		"",
	}, "\n")

	pre := p.preAnalyze(cfg, source)
	// Statement-style * comments are indistinguishable from multiplication
	// without a parser, so only block comments count.
	if !strings.Contains(pre.Text, "Desired / actual comments = 5 / 2") {
		t.Fatalf("unexpected comment count: %q", pre.Text)
	}
}
