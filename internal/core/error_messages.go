package core

// # Error Codes Reference
//
// Callers of the data layer only ever see one of the four domain error kinds
// (plus context cancellation from their own deadlines). This file maps those
// to user-facing messages with a code that can be quoted to support. The
// technical detail for any code lives in the application log, keyed by op_id.
//
//	DB404  - NotFound: nothing matched the lookup
//	DB101  - InsertFailed: the record could not be saved
//	DB102  - UpdateFailed: the record could not be changed
//	DB500  - QueryError: the data could not be read
//	REQ001 - context canceled: the request was cancelled
//	REQ002 - context deadline exceeded: the request timed out
//	ERR000 - anything else

import (
	"context"
	"errors"
	"fmt"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorMapping pairs a target error with its message. Checked in order with errors.Is.
type errorMapping struct {
	target error
	msg    UserMessage
}

var errorMappings = []errorMapping{
	{
		target: ErrNotFound,
		msg: UserMessage{
			Message: "Nothing matched your search",
			Action:  "Check the spelling or try a broader search",
			Code:    "DB404",
		},
	},
	{
		target: ErrInsertFailed,
		msg: UserMessage{
			Message: "The record could not be saved",
			Action:  "Check the values and try again",
			Code:    "DB101",
		},
	},
	{
		target: ErrUpdateFailed,
		msg: UserMessage{
			Message: "The record could not be changed",
			Action:  "Check the values and try again",
			Code:    "DB102",
		},
	},
	{
		target: ErrQueryError,
		msg: UserMessage{
			Message: "The data could not be read",
			Action:  "Please try again in a few moments",
			Code:    "DB500",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when no mapping matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}

	return defaultMessage
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

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a domain error kind with its user-facing message.
type UserError struct {
	Err error
	Msg UserMessage
}

func (e *UserError) Error() string { return e.Msg.Message }

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError wraps err with its mapped message. Returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Err: err, Msg: MapError(err)}
}
