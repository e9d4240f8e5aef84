// pkg/ship_err/classification.go
//
// Error classification with exit codes for the deployment pipeline.
// Every fatal pipeline error carries one of these categories so the
// run's pass/fail status maps onto a stable exit code.

package ship_err

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for appropriate handling
type ErrorCategory int

const (
	// CategorySystem - OS/filesystem issues (exit 1)
	CategorySystem ErrorCategory = iota
	// CategorySetup - runtime or CLI tool installation failed (exit 1)
	CategorySetup
	// CategoryCredential - supplied credential is not valid JSON (exit 2)
	CategoryCredential
	// CategorySync - push of source to the remote project failed (exit 1)
	CategorySync
	// CategoryDeploy - creation/update of the deployment record failed (exit 1)
	CategoryDeploy
	// CategoryValidation - input validation failures (exit 2)
	CategoryValidation
	// CategoryUser - user cancelled/interrupted (exit 130)
	CategoryUser
	// CategoryInternal - bugs in scriptship itself (exit 3)
	CategoryInternal
)

// ClassifiedError wraps an error with category, remediation and optional
// diagnostic payload.
type ClassifiedError struct {
	Category    ErrorCategory
	Message     string
	Cause       error
	Remediation []string
	// Diagnostic holds raw content emitted verbatim to help debugging,
	// e.g. the offending credential body on a parse failure.
	Diagnostic string
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Message)

	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf("\n\nCause: %v", e.Cause))
	}

	if e.Diagnostic != "" {
		sb.WriteString(fmt.Sprintf("\n\nOffending content:\n%s", e.Diagnostic))
	}

	if len(e.Remediation) > 0 {
		sb.WriteString("\n\nHow to fix:")
		for i, step := range e.Remediation {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error category
func (e *ClassifiedError) ExitCode() int {
	switch e.Category {
	case CategoryUser:
		return 130
	case CategoryValidation, CategoryCredential:
		return 2
	case CategoryInternal:
		return 3
	default:
		return 1
	}
}

// GetExitCode extracts exit code from any error.
// Returns 0 for nil, the category code for classified errors, 1 for others.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.ExitCode()
	}

	if IsExpectedUserError(err) {
		return 0
	}

	return 1
}

// Category extracts the category from a classified error, CategorySystem
// otherwise.
func Category(err error) ErrorCategory {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}
	return CategorySystem
}

// NewSetupError creates an error for runtime/CLI provisioning failures.
// These are fatal and never retried.
func NewSetupError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategorySetup,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewCredentialError creates an error for a malformed credential. The raw
// content is carried as a diagnostic and printed with the error; that is a
// deliberate diagnosability-over-confidentiality trade-off.
func NewCredentialError(message string, cause error, content string) error {
	return &ClassifiedError{
		Category:   CategoryCredential,
		Message:    message,
		Cause:      cause,
		Diagnostic: content,
		Remediation: []string{
			"Check that the secret holds the full JSON credential document",
			"Re-export the credential from the platform and update the secret",
		},
	}
}

// NewSyncError creates an error for a failed source push.
func NewSyncError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategorySync,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewDeployError creates an error for a failed deployment create/update.
func NewDeployError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryDeploy,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(message string, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryValidation,
		Message:     message,
		Remediation: remediation,
	}
}
