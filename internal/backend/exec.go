package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gradekit/autograde/internal/classify"
)

// Exec runs submissions with locally installed interpreters. Binary
// paths come from preferences; empty fields fall back to the bare
// command name and rely on PATH.
type Exec struct {
	RBinary      string
	PythonBinary string
	SASProgram   string
}

func (e *Exec) rBinary() string {
	if e.RBinary != "" {
		return e.RBinary
	}
	return "R"
}

func (e *Exec) pythonBinary() string {
	if e.PythonBinary != "" {
		return e.PythonBinary
	}
	return "python3"
}

func (e *Exec) sasProgram() string {
	if e.SASProgram != "" {
		return e.SASProgram
	}
	return "sas"
}

func (e *Exec) Run(ctx context.Context, req Request) (Response, error) {
	if err := os.WriteFile(filepath.Join(req.Sandbox, req.Name), []byte(req.Code), 0o644); err != nil {
		return Response{}, fmt.Errorf("write assembled code: %w", err)
	}
	switch req.Toolchain {
	case classify.ToolchainR:
		return e.runR(ctx, req)
	case classify.ToolchainSAS:
		return e.runSAS(ctx, req)
	case classify.ToolchainPython:
		return e.runPython(ctx, req)
	}
	return Response{}, fmt.Errorf("no runner for toolchain %q", req.Toolchain)
}

func (e *Exec) runR(ctx context.Context, req Request) (Response, error) {
	script := req.Name
	if strings.EqualFold(req.Ext, ".Rmd") {
		// Markdown submissions run through a small driver script so the
		// transcript still lands in a batch .out file.
		script = "render-" + strings.TrimSuffix(req.Name, req.Ext) + ".R"
		driver := fmt.Sprintf("library(rmarkdown)\nrender(%q, output_format = \"html_document\")\n", req.Name)
		if err := os.WriteFile(filepath.Join(req.Sandbox, script), []byte(driver), 0o644); err != nil {
			return Response{}, fmt.Errorf("write render driver: %w", err)
		}
	}
	outName := req.Name + ".out"
	cmd := exec.CommandContext(ctx, e.rBinary(),
		"CMD", "BATCH", "--no-save", "--no-restore", "--quiet", script, outName)
	cmd.Dir = req.Sandbox

	code, err := runExit(cmd)
	if err != nil {
		return Response{}, err
	}
	outPath := filepath.Join(req.Sandbox, outName)
	if err := stampExitCode(outPath, code); err != nil {
		return Response{}, err
	}
	return Response{ExitCode: code, OutPath: outPath}, nil
}

func (e *Exec) runSAS(ctx context.Context, req Request) (Response, error) {
	outName := req.Name + ".out"
	logName := req.Name + ".log"
	cmd := exec.CommandContext(ctx, e.sasProgram(),
		"-SYSIN", req.Name, "-LOG", logName, "-PRINT", outName, "-NOSPLASH")
	cmd.Dir = req.Sandbox

	code, err := runExit(cmd)
	if err != nil {
		return Response{}, err
	}
	outPath := filepath.Join(req.Sandbox, outName)
	if err := stampExitCode(outPath, code); err != nil {
		return Response{}, err
	}
	return Response{
		ExitCode: code,
		OutPath:  outPath,
		LogPath:  filepath.Join(req.Sandbox, logName),
	}, nil
}

func (e *Exec) runPython(ctx context.Context, req Request) (Response, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.pythonBinary(), req.Name)
	cmd.Dir = req.Sandbox
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code, err := runExit(cmd)
	if err != nil {
		return Response{}, err
	}
	outPath := filepath.Join(req.Sandbox, req.Name+".out")
	errPath := filepath.Join(req.Sandbox, req.Name+".err")
	if err := os.WriteFile(outPath, stdout.Bytes(), 0o644); err != nil {
		return Response{}, fmt.Errorf("write captured output: %w", err)
	}
	if err := os.WriteFile(errPath, stderr.Bytes(), 0o644); err != nil {
		return Response{}, fmt.Errorf("write captured stderr: %w", err)
	}
	if err := stampExitCode(outPath, code); err != nil {
		return Response{}, err
	}
	return Response{ExitCode: code, OutPath: outPath, ErrPath: errPath}, nil
}

// runExit runs the command, treating a nonzero exit as a result rather
// than an error. Student code is expected to fail sometimes.
func runExit(cmd *exec.Cmd) (int, error) {
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("run %s: %w", cmd.Path, err)
}

// stampExitCode records the exit status at the top of the transcript,
// where the grader and rule patterns expect to see it.
func stampExitCode(outPath string, code int) error {
	body, err := os.ReadFile(outPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read transcript: %w", err)
	}
	stamped := append([]byte(fmt.Sprintf("[Error code is %d]\n\n", code)), body...)
	if err := os.WriteFile(outPath, stamped, 0o644); err != nil {
		return fmt.Errorf("stamp transcript: %w", err)
	}
	return nil
}
