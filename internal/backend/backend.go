// Package backend runs assembled student code inside a sandbox
// directory and reports where the captured output landed.
package backend

import (
	"context"

	"github.com/gradekit/autograde/internal/classify"
)

// Request describes one execution: the sandbox to run in, the assembled
// source to write, and the toolchain that interprets it.
type Request struct {
	Sandbox   string
	Name      string // versioned code filename, e.g. hw1-2.R
	Code      string
	Toolchain classify.Toolchain
	Ext       string
	Prepend   string
	Append    string
	PDFOutput bool
}

// Response reports where the run's captured streams were written. Paths
// are empty when the toolchain produces no such stream.
type Response struct {
	ExitCode int
	OutPath  string
	LogPath  string
	ErrPath  string
}

// Backend executes a prepared submission. Implementations must be safe
// for sequential reuse across students.
type Backend interface {
	Run(ctx context.Context, req Request) (Response, error)
}
