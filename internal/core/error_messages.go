package core

// # Error Codes Reference
//
// This file maps technical errors to operator-facing messages with codes for
// support reference. Codes are grouped by category:
//
// # Relation Errors (REL001-REL099)
//
//	REL001 - Relation source unusable: The relation file is missing or malformed
//	         Action: Check the file has ForeignKeyName, ParentTable, ParentColumn, ReferencedTable, ReferencedColumn
//	         Patterns: "relation source"
//
//	REL002 - Ambiguous relation: Several relations link the same child table to the root
//	         Action: Designate the canonical relation in RELATION_CANONICAL
//	         Patterns: "ambiguous relation"
//
//	REL003 - Canonical relation missing: A designated relation is not in the catalog
//	         Action: Fix the foreign key name in RELATION_CANONICAL
//	         Patterns: "canonical relation"
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Root table missing: The root table could not be loaded
//	         Action: Check DATA_DIR contains the root table file
//	         Patterns: "root table missing"
//
//	TBL002 - Table not found: No file serves the requested table
//	         Action: Verify the table name is correct
//	         Patterns: "table not found"
//
//	TBL003 - Table unreadable: A table file could not be read
//	         Action: Check the file is a readable CSV
//	         Patterns: "load table"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing key column: The batch lacks the root key column
//	         Action: Add the key column as a bare header or Root.Key
//	         Patterns: "missing key column"
//
//	VAL002 - Invalid settings: The settings document failed validation
//	         Action: Fix the fields listed in the error
//	         Patterns: "invalid settings"
//
//	VAL003 - Unknown operation: The operation is not insert, update or delete
//	         Action: Use insert, update or delete
//	         Patterns: "unknown operation"
//
// # Write Errors (WRT001-WRT099)
//
//	WRT001 - Write failed: A table could not be replaced on disk
//	         Action: Check disk space and permissions; the result lists which tables were written
//	         Patterns: "write failed"
//
// # Audit Errors (AUD001-AUD099)
//
//	AUD001 - Audit history unavailable: No audit database is configured
//	         Action: Set AUDIT_DATABASE_URL to keep a queryable audit trail
//	         Patterns: "audit history unavailable"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Upload exceeds the size limit
//	FILE002 - Invalid CSV: File is not a valid CSV
//	FILE003 - Unsupported format: Only .csv and .xlsx batches are accepted
//	FILE004 - No file: No file was selected
//	FILE005 - Empty file: The file has no header row
//	FILE006 - Duplicate header: Two columns share a header
//	FILE007 - Unreadable workbook: The spreadsheet could not be opened
//
// # Batch Errors (BAT001-BAT099)
//
//	BAT001 - Busy: Another batch is running
//	BAT002 - Cancelled: Request was cancelled
//	BAT003 - Timeout: Request timed out
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application log for the original error.
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Relation Errors (REL001-REL003)
	// =========================================================================
	{
		pattern: "relation source",
		msg: UserMessage{
			Message: "The relation file is missing or malformed",
			Action:  "Check the file has ForeignKeyName, ParentTable, ParentColumn, ReferencedTable and ReferencedColumn columns",
			Code:    "REL001",
		},
	},
	{
		pattern: "ambiguous relation",
		msg: UserMessage{
			Message: "Several relations link the same child table to the root table",
			Action:  "Designate the canonical relation in RELATION_CANONICAL",
			Code:    "REL002",
		},
	},
	{
		pattern: "canonical relation",
		msg: UserMessage{
			Message: "A designated canonical relation is not in the relation file",
			Action:  "Fix the foreign key name in RELATION_CANONICAL",
			Code:    "REL003",
		},
	},

	// =========================================================================
	// Table Errors (TBL001-TBL003)
	// =========================================================================
	{
		pattern: "root table missing",
		msg: UserMessage{
			Message: "The root table could not be loaded",
			Action:  "Check that the data directory contains the root table file",
			Code:    "TBL001",
		},
	},
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "Table not found",
			Action:  "Verify the table name is correct",
			Code:    "TBL002",
		},
	},
	{
		pattern: "load table",
		msg: UserMessage{
			Message: "A table file could not be read",
			Action:  "Check that the file is a readable CSV",
			Code:    "TBL003",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "missing key column",
		msg: UserMessage{
			Message: "The batch has no key column for the root table",
			Action:  "Add the key column as a bare header or as Root.Key",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid settings",
		msg: UserMessage{
			Message: "The settings document is not valid",
			Action:  "Fix the fields listed in the error and save again",
			Code:    "VAL002",
		},
	},
	{
		pattern: "unknown operation",
		msg: UserMessage{
			Message: "Unknown operation",
			Action:  "Use insert, update or delete",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Write Errors (WRT001)
	// =========================================================================
	{
		pattern: "write failed",
		msg: UserMessage{
			Message: "A table could not be saved",
			Action:  "Check disk space and permissions; the result lists which tables were written",
			Code:    "WRT001",
		},
	},

	// =========================================================================
	// Audit Errors (AUD001)
	// =========================================================================
	{
		pattern: "audit history unavailable",
		msg: UserMessage{
			Message: "No audit history is available",
			Action:  "Set AUDIT_DATABASE_URL to keep a queryable audit trail",
			Code:    "AUD001",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE007)
	// =========================================================================
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the batch into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the batch into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported batch format",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a batch file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no header row",
			Action:  "Upload a file whose first row names the columns",
			Code:    "FILE005",
		},
	},
	{
		pattern: "duplicate column header",
		msg: UserMessage{
			Message: "Two columns share the same header",
			Action:  "Rename or remove the duplicate column",
			Code:    "FILE006",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The spreadsheet could not be opened",
			Action:  "Save the workbook as .xlsx and try again",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Batch Errors (BAT001-BAT003)
	// =========================================================================
	{
		pattern: "another batch in progress",
		msg: UserMessage{
			Message: "Another batch is being applied",
			Action:  "Please wait a moment and try again",
			Code:    "BAT001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "BAT002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    "BAT003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
// It returns the first pattern match, or ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its operator-facing message.
type UserError struct {
	Technical error       // Original error, for logging
	User      UserMessage // What the operator sees
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
