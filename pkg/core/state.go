package core

import (
	"context"
	"time"
)

// Store defines the interface for conversion history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(ctx context.Context, sourceDialect, targetDialect string) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Script record operations
	RecordScript(ctx context.Context, rec *ScriptRecord) error
	GetScriptRecords(ctx context.Context, runID string) ([]*ScriptRecord, error)
	GetReferences(ctx context.Context, recordID string) ([]Reference, error)
}

// RunStatus represents the status of a conversion run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents one invocation of a batch conversion.
type Run struct {
	ID            string
	SourceDialect string
	TargetDialect string
	Status        RunStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	Error         string
}

// RecordStatus represents the outcome for a single script.
type RecordStatus string

// Script record status constants.
const (
	RecordStatusConverted RecordStatus = "converted"
	RecordStatusFailed    RecordStatus = "failed"
	RecordStatusSkipped   RecordStatus = "skipped"
)

// ScriptRecord is the outcome of converting one source file within a run.
type ScriptRecord struct {
	ID           string
	RunID        string
	Path         string
	Name         string
	Kind         ScriptKind
	Status       RecordStatus
	ContentHash  string
	WarningCount int
	Error        string
	References   []Reference
	CreatedAt    time.Time
}
