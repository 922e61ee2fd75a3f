// Package model defines shared data types for grading.
package model

import "time"

// SubmissionRecord is the decoded form of one raw submission filename.
// An empty Filename signals that the name did not conform to the
// configured file format.
type SubmissionRecord struct {
	RawName     string
	Filename    string // canonical name with extension, version suffix removed
	Version     int
	Timestamp   string
	StudentName string
	Email       string
	Late        bool
}

// StudentFile is the latest submission kept for one student identity and
// one codefile.
type StudentFile struct {
	FullName          string // filename on disk, as submitted
	Filename          string // canonical codefile name
	Version           int
	VersionedFilename string // version spliced before the extension
	Timestamp         string
	StudentName       string
	Email             string
	Late              bool
	Label             string // display label, "name (N)" for resubmissions
}

// GradingResult is the outcome of grading one (student, codefile) pair.
type GradingResult struct {
	Codefile    string
	Label       string
	TotalPoints int
	HasScore    bool // false when total_points is not configured positive
	PrePoints   float64
	PreText     string
	PostPoints  float64
	PostText    string
	Score       float64
	Letter      string
}

// RunRecord is one grading run stored in the history database.
type RunRecord struct {
	ID          int64
	GradedAt    time.Time
	Dir         string
	Codefile    string
	Student     string
	Email       string
	Version     int
	PrePoints   float64
	PostPoints  float64
	TotalPoints int
	Score       float64
	HasScore    bool
}
