// Package main provides the CLI entrypoint for autograde.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gradekit/autograde/internal/backend"
	"github.com/gradekit/autograde/internal/config"
	"github.com/gradekit/autograde/internal/history"
	"github.com/gradekit/autograde/internal/model"
	"github.com/gradekit/autograde/internal/pipeline"
	"github.com/gradekit/autograde/internal/report"
)

const defaultHistoryLast = 20

var (
	rootDir    string
	rootRoster string

	runCodefile string
	runForce    bool

	historyCodefile string
	historyLast     int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "autograde",
		Short:         "Automated grader for student code submissions",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runGradeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", ".", "grading directory")
	rootCmd.PersistentFlags().StringVar(&rootRoster, "roster", "", "roster CSV (overrides discovery)")
	addGradeFlags(rootCmd)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func addGradeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runCodefile, "codefile", "", "grade only this codefile")
	cmd.Flags().BoolVar(&runForce, "force", false, "regrade everyone, even up-to-date results")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [label...]",
		Short: "Grade pending submissions, or the named students",
		RunE:  runGradeCmd,
	}
	addGradeFlags(cmd)
	return cmd
}

func runGradeCmd(cmd *cobra.Command, args []string) error {
	prefs, err := config.LoadPrefs(config.DefaultPrefsPath())
	if err != nil {
		return err
	}
	applyStringPref(cmd, "dir", &rootDir, prefs.Tool.Dir)

	sess, err := pipeline.NewSession(rootDir, pipeline.Options{
		GlobalDir:  config.GlobalConfigDir(),
		RosterPath: rootRoster,
	})
	if err != nil {
		return err
	}
	printWarnings(sess.Warnings)
	if len(sess.Codefiles) == 0 {
		return fmt.Errorf("nothing to grade in %s", rootDir)
	}

	hist, err := history.Open(dbPath(prefs))
	if err != nil {
		logErrf("history disabled: %v\n", err)
		hist = nil
	} else {
		defer func() {
			if cerr := hist.Close(); cerr != nil {
				logErrf("failed to close history db: %v\n", cerr)
			}
		}()
	}

	be := newBackend(prefs)
	ctx := context.Background()
	var results []model.GradingResult
	for _, cf := range sess.Codefiles {
		if runCodefile != "" && cf != runCodefile {
			continue
		}
		p := &pipeline.Pipeline{
			Session:  sess,
			Codefile: cf,
			Backend:  be,
			History:  hist,
			Warnf:    warnf,
		}
		var batch []model.GradingResult
		if runForce || len(args) > 0 {
			// Named students are regraded regardless of staleness.
			for _, sf := range sess.Students[cf] {
				if len(args) > 0 && !labelMatch(args, sf) {
					continue
				}
				res, err := p.RunOne(ctx, sf)
				if err != nil {
					warnf("grading %s for %s failed: %v", cf, sf.Label, err)
					continue
				}
				batch = append(batch, res)
			}
		} else {
			batch, err = p.RunPending(ctx)
			if err != nil {
				return err
			}
		}
		results = append(results, batch...)
	}

	if len(results) == 0 {
		logErrln("all results are up to date")
		return nil
	}
	return printOut(cmd, report.RenderBatch(results, terminalWidth(), stdoutIsTerminal()))
}

func labelMatch(labels []string, sf model.StudentFile) bool {
	for _, l := range labels {
		if strings.EqualFold(l, sf.Label) ||
			strings.EqualFold(l, sf.StudentName) ||
			strings.EqualFold(l, sf.Email) {
			return true
		}
	}
	return false
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List resolved submissions without grading",
		Args:  cobra.NoArgs,
		RunE:  runScanCmd,
	}
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	prefs, err := config.LoadPrefs(config.DefaultPrefsPath())
	if err != nil {
		return err
	}
	applyStringPref(cmd, "dir", &rootDir, prefs.Tool.Dir)

	sess, err := pipeline.NewSession(rootDir, pipeline.Options{
		GlobalDir:  config.GlobalConfigDir(),
		RosterPath: rootRoster,
	})
	if err != nil {
		return err
	}
	printWarnings(sess.Warnings)

	var rows [][]string
	for _, cf := range sess.Codefiles {
		for _, sf := range sess.Students[cf] {
			rows = append(rows, []string{sf.Label, cf, strconv.Itoa(sf.Version), sf.FullName})
		}
	}
	if len(rows) == 0 {
		logErrln("no submissions found")
		return nil
	}
	lines := report.ClipLines(
		report.FormatTable([]string{"STUDENT", "CODEFILE", "VERSION", "FILE"}, rows, map[int]bool{2: true}),
		terminalWidth())
	return printOut(cmd, strings.Join(lines, "\n"))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [codefile]",
		Short: "Create/open assignment config files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, args []string) error {
	prefs, err := config.LoadPrefs(config.DefaultPrefsPath())
	if err != nil {
		return err
	}
	applyStringPref(cmd, "dir", &rootDir, prefs.Tool.Dir)

	name := config.GeneralConfigName
	schema := config.GeneralSchema()
	if len(args) == 1 {
		name = args[0] + ".config"
		schema = config.SpecificSchema()
	}
	path := filepath.Join(rootDir, name)
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := config.NewSet(schema).WriteFile(path); err != nil {
			return err
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	ed := exec.Command(parts[0], append(parts[1:], path)...)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past grading runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyCodefile, "codefile", "", "filter by codefile")
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryLast, "limit to last N runs")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	prefs, err := config.LoadPrefs(config.DefaultPrefsPath())
	if err != nil {
		return err
	}
	if historyLast <= 0 {
		return fmt.Errorf("--last must be greater than 0")
	}

	hist, err := history.Open(dbPath(prefs))
	if err != nil {
		return fmt.Errorf("failed to open history db: %w", err)
	}
	defer func() {
		if cerr := hist.Close(); cerr != nil {
			logErrf("failed to close history db: %v\n", cerr)
		}
	}()

	runs, err := hist.ListRuns(context.Background(), historyCodefile, historyLast)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		logErrln("no grading runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		score := "-"
		if run.HasScore {
			score = strconv.FormatFloat(run.Score, 'g', -1, 64) +
				" / " + strconv.Itoa(run.TotalPoints)
		}
		student := run.Student
		if student == "" {
			student = run.Email
		}
		rows = append(rows, []string{
			run.GradedAt.Local().Format("2006-01-02 15:04"),
			student,
			run.Codefile,
			score,
		})
	}
	lines := report.ClipLines(
		report.FormatTable([]string{"GRADED", "STUDENT", "CODEFILE", "SCORE"}, rows, map[int]bool{3: true}),
		terminalWidth())
	return printOut(cmd, strings.Join(lines, "\n"))
}

func newBackend(prefs config.Prefs) *backend.Exec {
	be := &backend.Exec{}
	if prefs.Tool.RBinary != nil {
		be.RBinary = *prefs.Tool.RBinary
	}
	if prefs.Tool.PythonBinary != nil {
		be.PythonBinary = *prefs.Tool.PythonBinary
	}
	if prefs.Tool.SASLocation != nil {
		be.SASProgram = *prefs.Tool.SASLocation
	} else if v := os.Getenv("SAS_LOCATION"); v != "" {
		be.SASProgram = v
	}
	return be
}

func dbPath(prefs config.Prefs) string {
	if prefs.Tool.DBPath != nil && *prefs.Tool.DBPath != "" {
		return *prefs.Tool.DBPath
	}
	return config.DefaultDBPath()
}

func applyStringPref(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		logErrf("warning: %s\n", w)
	}
}

func printOut(cmd *cobra.Command, s string) error {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or 0 when stdout is not a
// terminal (tables stay unclipped in pipes).
func terminalWidth() int {
	if !stdoutIsTerminal() {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

func warnf(format string, args ...any) {
	logErrf(format+"\n", args...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
