// Package failure defines the two error classes surfaced by the alignment
// engine and the payload handed to callers at the process boundary.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds of user input errors.
const (
	KindInvalidRegion        = "InvalidRegion"
	KindVariantFormat        = "VariantFormatError"
	KindNoVariantsProvided   = "NoVariantsProvided"
	KindMissingVariantIDs    = "MissingVariantIDs"
	KindEmptyRegion          = "EmptyRegion"
	KindZeroPValue           = "ZeroPValue"
	KindDuplicatePositions   = "DuplicatePositions"
	KindLeadSNPNotFound      = "LeadSNPNotFound"
	KindNoAlternativeLeadSNP = "NoAlternativeLeadSNP"
	KindInvalidInput         = "InvalidInput"
)

// Kinds reported for non-user failures.
const (
	KindExternalTool = "ExternalToolError"
	KindInternal     = "InternalError"
)

// HTTP-style status codes carried in the boundary payload.
const (
	StatusUserInput = 410
	StatusInternal  = 500
)

// UserInputError is a validation failure the caller can fix by correcting input.
type UserInputError struct {
	Kind    string
	Message string
}

func (e *UserInputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Userf builds a UserInputError of the given kind.
func Userf(kind, format string, args ...any) *UserInputError {
	return &UserInputError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err wraps a UserInputError of the given kind.
func IsKind(err error, kind string) bool {
	var ue *UserInputError
	return errors.As(err, &ue) && ue.Kind == kind
}

// ExternalToolError reports a non-zero exit from a subprocess. Output holds
// the tool's captured stdout and stderr verbatim.
type ExternalToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Output   string
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// ErrorPayload is the error shape returned to any caller of the engine.
type ErrorPayload struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// Payload maps an error to its boundary payload.
func Payload(err error) ErrorPayload {
	var ue *UserInputError
	if errors.As(err, &ue) {
		return ErrorPayload{Kind: ue.Kind, Message: ue.Message, StatusCode: StatusUserInput}
	}
	var te *ExternalToolError
	if errors.As(err, &te) {
		return ErrorPayload{Kind: KindExternalTool, Message: te.Error(), StatusCode: StatusInternal}
	}
	return ErrorPayload{Kind: KindInternal, Message: err.Error(), StatusCode: StatusInternal}
}
