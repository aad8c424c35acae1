package ports

import "context"

// ToolRunner is the only channel to card hardware: it executes one script
// of the external card tool and returns the trimmed combined output.
// Failures are classified with the domain sentinels (ErrToolNotFound,
// ErrScriptNotFound, ErrTimeout, ErrToolExecutionFailed); output carries
// whatever text the tool produced, or guidance when no process ran.
type ToolRunner interface {
	Run(ctx context.Context, script string, args ...string) (output string, err error)
}
