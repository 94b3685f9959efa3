package service

// error_messages.go maps technical errors to messages an uploader can act on.
//
// Codes are grouped by category:
//
//	FILE001 - Empty file          Patterns: "no header row"
//	FILE002 - File too large      Patterns: "file too large", "request body too large"
//	FILE003 - Malformed CSV       Patterns: "parse error"
//	FILE004 - No file             Patterns: "no file provided"
//	PARSE001 - Row limit          Patterns: "row limit exceeded"
//	PARSE002 - Value conflict     Patterns: "not a list", "not a map"
//	PARSE003 - Rule failure       Patterns: ": rule "
//	RULE001 - Unknown parser      Patterns: "unknown parser"
//	RULE002 - Ruleset invalid     Patterns: "decode ruleset", "extends unknown parser" (checked first)
//	REQ001 - System busy          Patterns: "too many concurrent parses"
//	REQ002 - Request cancelled    Patterns: "context canceled"
//	REQ003 - Request timeout      Patterns: "context deadline exceeded"
//	REQ004 - Bad request          Patterns: "bad request"
//	ERR000 - Unknown error        Fallback
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Reference for support
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "no header row",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a CSV file with a header row",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not valid CSV",
			Action:  "Check that fields containing the delimiter or quotes are quoted",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select a CSV file to upload",
			Code:    "FILE004",
		},
	},

	// Parse errors
	{
		pattern: "row limit exceeded",
		msg: UserMessage{
			Message: "File has more rows than allowed",
			Action:  "Split the file or use the preview",
			Code:    "PARSE001",
		},
	},
	{
		pattern: "not a list",
		msg: UserMessage{
			Message: "A column tried to add to a field that is not a list",
			Action:  "Check the parser defaults for this field",
			Code:    "PARSE002",
		},
	},
	{
		pattern: "not a map",
		msg: UserMessage{
			Message: "A column tried to nest under a field that is not an object",
			Action:  "Check the parser defaults for this field",
			Code:    "PARSE002",
		},
	},
	{
		pattern: ": rule ",
		msg: UserMessage{
			Message: "A rule could not process a value",
			Action:  "Check the reported line and column",
			Code:    "PARSE003",
		},
	},

	// Rule errors
	{
		pattern: "decode ruleset",
		msg: UserMessage{
			Message: "Ruleset file could not be read",
			Action:  "Fix the YAML syntax and field names",
			Code:    "RULE002",
		},
	},
	{
		pattern: "extends unknown parser",
		msg: UserMessage{
			Message: "Ruleset extends a parser that does not exist",
			Action:  "Define the parent first or use a built-in parser name",
			Code:    "RULE002",
		},
	},
	{
		pattern: "unknown parser",
		msg: UserMessage{
			Message: "Parser not found",
			Action:  "List the available parsers and check the name",
			Code:    "RULE001",
		},
	},

	// Request errors
	{
		pattern: "too many concurrent parses",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Wait a moment and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Parsing took too long",
			Action:  "Try a smaller file",
			Code:    "REQ003",
		},
	},
	{
		pattern: "bad request",
		msg: UserMessage{
			Message: "The request was malformed",
			Action:  "Send the CSV as a \"file\" form field or as the request body",
			Code:    "REQ004",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Errors
// matching no pattern map to ERR000; a nil error maps to the zero value.
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

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
