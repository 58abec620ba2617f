package core

// error_messages.go maps transport and infrastructure failures to messages
// with a support code. Validation findings never pass through here; they are
// reported as violations inside the Report.
//
// Codes:
//
//	FILE001 - Upload exceeds the size limit
//	          Patterns: "request body too large", "file too large"
//	FILE002 - Request is not a readable multipart form
//	          Patterns: "multipart", "invalid form"
//	UPL002  - All validation slots are busy
//	          Patterns: "too many concurrent uploads"
//	UPL004  - Client went away before validation finished
//	          Patterns: "context canceled"
//	UPL005  - Request ran past its deadline
//	          Patterns: "context deadline exceeded"
//	RATE001 - Per-client request rate exceeded
//	          Patterns: "rate limit"
//	DB004   - Run history store unreachable
//	          Patterns: "connection refused"
//	ERR000  - Anything else; check the logs for the original error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files and validate each one",
		Code:    "FILE001",
	}
	msgInvalidForm = UserMessage{
		Message: "Request is not a valid multipart upload",
		Action:  "Send the CSV as multipart/form-data in a field named \"file\"",
		Code:    "FILE002",
	}
)

var errorPatterns = []errorPattern{
	// File errors
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "multipart", msg: msgInvalidForm},
	{pattern: "invalid form", msg: msgInvalidForm},

	// Upload errors
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy validating other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},

	// Storage
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Run history is temporarily unavailable",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
}

// defaultMessage is the ERR000 fallback.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000; nil maps to the zero UserMessage.
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

// FormatUserError renders "Message (Code: XXX). Action".
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
