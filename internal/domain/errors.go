package domain

import "errors"

var (
	ErrToolNotFound         = errors.New("card tool not found")
	ErrScriptNotFound       = errors.New("card tool script not found")
	ErrTimeout              = errors.New("card tool command timed out")
	ErrToolExecutionFailed  = errors.New("card tool command failed")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrCardLocked           = errors.New("card locked")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrRecordNotFound       = errors.New("record not found")
)
