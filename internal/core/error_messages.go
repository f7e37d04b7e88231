package core

// # Error Codes Reference
//
// This file defines user-facing error messages with codes for support
// reference. A user who hits an error can quote the code to support staff.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to the store database
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset", "bad connection"
//
//	DB003 - Timeout: The database did not answer in time
//	        Patterns: "i/o timeout"
//
//	DB004 - Deadlock: Database was busy with conflicting operations
//	        Patterns: "deadlock"
//
//	DB005 - Unknown column: The grid query references a missing column
//	        Patterns: "unknown column", "sqlstate 42703"
//
//	DB006 - Missing table: A store table is missing or the prefix is wrong
//	        Patterns: "doesn't exist", "does not exist"
//
//	DB007 - Access denied: The database rejected the credentials
//	        Patterns: "access denied", "password authentication failed"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Export not found: The export file does not exist
//	          Patterns: "export not found"
//
//	FILE002 - Invalid name: The export file name is not allowed
//	          Patterns: "invalid export name", "outside"
//
//	FILE003 - Empty file: The export file is empty
//	          Patterns: "empty file"
//
//	FILE004 - No header: The export file has no header row
//	          Patterns: "empty csv header"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Unknown format: The export format is not supported
//	         Patterns: "unknown export format"
//
//	EXP002 - System busy: Too many exports in progress
//	         Patterns: "too many concurrent exports"
//
//	EXP003 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	EXP004 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Grid Errors (GRID001-GRID099)
//
//	GRID001 - Invalid page: The page number is not a positive integer
//	          Patterns: "invalid page"
//
//	GRID002 - Invalid store: The store id is not a non-negative integer
//	          Patterns: "invalid store"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (lowercase) to user messages.
// Order matters: the first pattern contained in the error wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Errors (DB001-DB007)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the store database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "bad connection",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "i/o timeout",
		msg: UserMessage{
			Message: "The database did not answer in time",
			Action:  "Try a smaller grid page or try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "The order grid references a column the database does not have",
			Action:  "Check that the store schema is up to date",
			Code:    "DB005",
		},
	},
	{
		pattern: "sqlstate 42703",
		msg: UserMessage{
			Message: "The order grid references a column the database does not have",
			Action:  "Check that the store schema is up to date",
			Code:    "DB005",
		},
	},
	{
		pattern: "doesn't exist",
		msg: UserMessage{
			Message: "A store table is missing",
			Action:  "Check DB_TABLE_PREFIX and the store schema",
			Code:    "DB006",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "A store table is missing",
			Action:  "Check DB_TABLE_PREFIX and the store schema",
			Code:    "DB006",
		},
	},
	{
		pattern: "access denied",
		msg: UserMessage{
			Message: "The database rejected the credentials",
			Action:  "Check DATABASE_URL",
			Code:    "DB007",
		},
	},
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "The database rejected the credentials",
			Action:  "Check DATABASE_URL",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "export not found",
		msg: UserMessage{
			Message: "The export file does not exist",
			Action:  "Generate a new export",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid export name",
		msg: UserMessage{
			Message: "The export file name is not allowed",
			Action:  "Use the file name returned by the export request",
			Code:    "FILE002",
		},
	},
	{
		pattern: "outside",
		msg: UserMessage{
			Message: "The export file name is not allowed",
			Action:  "Use a path inside the export directory",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The export file is empty",
			Action:  "Generate a new export",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty csv header",
		msg: UserMessage{
			Message: "The export file has no header row",
			Action:  "Generate a new export",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Export Errors (EXP001-EXP004)
	// =========================================================================
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "The export format is not supported",
			Action:  "Use csv or xml",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "System is busy generating other exports",
			Action:  "Please wait a moment and try again",
			Code:    "EXP002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "EXP003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller grid page or try again later",
			Code:    "EXP004",
		},
	},

	// =========================================================================
	// Grid Errors (GRID001-GRID002)
	// =========================================================================
	{
		pattern: "invalid page",
		msg: UserMessage{
			Message: "The page number is not valid",
			Action:  "Use a page number of 1 or more",
			Code:    "GRID001",
		},
	},
	{
		pattern: "invalid store",
		msg: UserMessage{
			Message: "The store id is not valid",
			Action:  "Use a numeric store id",
			Code:    "GRID002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first pattern found in the lowercased error text wins; ERR000 otherwise.
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

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
