// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

var (
	// ErrNotConnected is returned by calls that need a transport session.
	ErrNotConnected = errors.New("not connected")

	// ErrNotAuthenticated is returned by calls that need a logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// RequestError is a call the remote side rejected.
type RequestError struct {
	Op     string // Facade operation (e.g., "login", "post")
	Code   int    // Remote status code, 0 when unknown
	Reason string // Human-readable reason
	Err    error  // Underlying error (if any)
}

func (e *RequestError) Error() string {
	msg := e.Op + " failed"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (%d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a request error for op.
func NewRequestError(op string, code int, reason string, err error) error {
	return &RequestError{Op: op, Code: code, Reason: reason, Err: err}
}

// IsRequestError reports whether err is, or wraps, a *RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
