// # Error Codes Reference
//
// Every entry in the load error log carries a code so an operator can find the
// cause without reading the raw message. Codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this key already exists
//	DB002 - Unique constraint: A value must be unique but already exists
//	DB003 - Foreign key: Referenced record does not exist
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//	DB007 - Deadlock: Database was busy with conflicting operations
//	DB008 - Store unavailable: The silver store could not be reached
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date: A date value could not be read
//	VAL002 - Invalid number: A numeric value could not be read
//	VAL004 - Missing column: A required bronze column is missing
//	VAL005 - Column mismatch: A cleaned row has the wrong number of columns
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Not found: The bronze file does not exist
//	FILE002 - Invalid CSV: The bronze file is not a valid CSV
//	FILE003 - Encoding error: The bronze file contains invalid characters
//	FILE004 - Invalid workbook: The bronze workbook could not be opened
//	FILE005 - Empty file: The bronze file has no header row
//
// # Source, Transform and Run Errors
//
//	SRC001 - Source unreadable: The raw batch could not be produced
//	TRN001 - Transform panic: The cleaning rules crashed on this batch
//	ENT001 - Unknown entity: The entity is not registered
//	RUN001 - Cancelled: The run was cancelled
//	RUN002 - Deadline: The run exceeded its time budget
//	RUN003 - No runs: No pipeline run has been recorded yet
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check the error message in the log entry
//
// # Matching
//
// Sentinel errors are matched first with errors.Is. Remaining errors are
// matched case-insensitively against message patterns; the first matching
// pattern wins, so more specific patterns come before general ones.
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides operator-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code stored with the log entry
}

// sentinelMessages maps wrapped sentinel errors to messages. Checked before patterns.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{
		target: ErrTransformPanic,
		msg: UserMessage{
			Message: "The cleaning rules crashed on this batch",
			Action:  "Inspect the bronze rows for unexpected shapes",
			Code:    "TRN001",
		},
	},
	{
		target: ErrStoreUnavailable,
		msg: UserMessage{
			Message: "The silver store could not be reached",
			Action:  "Check DATABASE_URL and database health, then rerun",
			Code:    "DB008",
		},
	},
	{
		target: ErrUnknownEntity,
		msg: UserMessage{
			Message: "Entity is not registered",
			Action:  "Use one of the entity names listed by the run report",
			Code:    "ENT001",
		},
	},
	{
		target: ErrNoRuns,
		msg: UserMessage{
			Message: "No pipeline runs recorded yet",
			Action:  "Trigger a run with POST /api/runs or the run command",
			Code:    "RUN003",
		},
	},
	{
		target: fs.ErrNotExist,
		msg: UserMessage{
			Message: "The bronze file does not exist",
			Action:  "Check PIPELINE_SOURCE_DIR and the file name",
			Code:    "FILE001",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Rerun the pipeline; every load is a full refresh",
			Code:    "RUN001",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "The run exceeded its time budget",
			Action:  "Raise PIPELINE_TIMEOUT or PIPELINE_ENTITY_TIMEOUT",
			Code:    "RUN002",
		},
	},
}

// errorPattern defines a pattern to match and its corresponding message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to messages.
// Order matters: specific patterns before general ones.
var errorPatterns = []errorPattern{
	// Database constraint errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check the cleaning rules for duplicate keys",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A value must be unique but already exists",
			Action:  "Check the bronze data for duplicate entries",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Check the bronze data for duplicate entries",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Load the parent entity first",
			Code:    "DB003",
		},
	},

	// Database connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later or raise the entity timeout",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Validation errors
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "A date value could not be read",
			Action:  "Use YYYY-MM-DD or an 8-digit YYYYMMDD integer",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "A numeric value could not be read",
			Action:  "Remove stray characters from numeric columns",
			Code:    "VAL002",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A required bronze column is missing",
			Action:  "Check the bronze table or file header",
			Code:    "VAL004",
		},
	},
	{
		pattern: "column count",
		msg: UserMessage{
			Message: "A cleaned row has the wrong number of columns",
			Action:  "Check the entity column list against the silver table",
			Code:    "VAL005",
		},
	},

	// File errors
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The bronze file does not exist",
			Action:  "Check PIPELINE_SOURCE_DIR and the file name",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The bronze file is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "The bronze file contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "The bronze workbook could not be opened",
			Action:  "Save the workbook as .xlsx",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The bronze file has no header row",
			Action:  "Export the file again with its header",
			Code:    "FILE005",
		},
	},

	// Source errors
	{
		pattern: "read bronze",
		msg: UserMessage{
			Message: "The raw batch could not be produced",
			Action:  "Check that the bronze layer is loaded",
			Code:    "SRC001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the error message in the log entry",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-friendly message.
// Sentinels are matched with errors.Is, then message patterns in order.
// If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	err := errors.New("duplicate key violation")
//	msg := MapError(err)
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// ErrorCode returns just the code for err.
func ErrorCode(err error) string {
	return MapError(err).Code
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// UserError wraps a technical error with a mapped message.
// The original error is preserved for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
