// Package errors provides structured error handling for the application.
// It defines AppError type with error codes for consistent API responses.
package errors

import (
	"errors"
	"fmt"
)

// Error codes organized by category
const (
	// General errors (1000-1099)
	CodeSuccess       = 0
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002
	CodeCancelled     = 1003

	// Source video errors (1100-1199) — input defects, never retried
	CodeUnreadableVideo = 1100
	CodeEmptyVideo      = 1101
	CodeVideoNotFound   = 1102

	// Content analysis errors (1200-1299)
	CodeAnalysisUnavailable = 1200
	CodeFrameSampleFailed   = 1201

	// Script generation errors (1300-1399)
	CodeScriptGenerationFailed = 1300
	CodeScriptInvalid          = 1301

	// Speech synthesis errors (1400-1499)
	CodeSynthesisUnavailable = 1400
	CodeVoiceNotFound        = 1401

	// Composition errors (1500-1599)
	CodeCompositionFailed = 1500

	// Provider errors (1600-1699) — retried with backoff inside the owning stage
	CodeProviderRateLimited       = 1600
	CodeProviderTransient         = 1601
	CodeProviderResponseMalformed = 1602
	CodeProviderUnavailable       = 1603

	// Storage errors (1700-1799)
	CodeDBError        = 1700
	CodeFileNotFound   = 1701
	CodeFileWriteError = 1702
)

// AppError represents a structured application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail wraps an error with additional detail
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is checks if the target error is an AppError with the specified code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts error code from error, returns CodeUnknown if not AppError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage extracts message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// IsRetryable reports whether the error is a provider-level failure that the
// owning stage may retry with backoff. Malformed responses are excluded: they
// are re-prompted with a corrective instruction, never blindly resent.
func IsRetryable(err error) bool {
	code := GetCode(err)
	return code == CodeProviderRateLimited || code == CodeProviderTransient
}

// Predefined common errors
var (
	ErrInvalidParams = New(CodeInvalidParams, "Invalid parameters")
	ErrNotFound      = New(CodeNotFound, "Resource not found")
	ErrCancelled     = New(CodeCancelled, "Run cancelled")

	// Source video
	ErrUnreadableVideo = New(CodeUnreadableVideo, "Source video cannot be decoded")
	ErrEmptyVideo      = New(CodeEmptyVideo, "Source video has no duration")
	ErrVideoNotFound   = New(CodeVideoNotFound, "Source video not found")

	// Analysis
	ErrAnalysisUnavailable = New(CodeAnalysisUnavailable, "Content analysis failed for every frame")

	// Scripting
	ErrScriptGenerationFailed = New(CodeScriptGenerationFailed, "Script generation failed")

	// Synthesis
	ErrSynthesisUnavailable = New(CodeSynthesisUnavailable, "Speech synthesis unavailable")

	// Composition
	ErrCompositionFailed = New(CodeCompositionFailed, "Video composition failed")

	// Provider
	ErrProviderRateLimited = New(CodeProviderRateLimited, "Provider rate limited")
	ErrProviderTransient   = New(CodeProviderTransient, "Provider transient failure")
	ErrProviderMalformed   = New(CodeProviderResponseMalformed, "Provider response malformed")

	// Storage
	ErrDBError      = New(CodeDBError, "Database error")
	ErrFileNotFound = New(CodeFileNotFound, "File not found")
)
