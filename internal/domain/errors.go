package domain

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrUnauthorized         = errors.New("wallet address required")
	ErrForbidden            = errors.New("forbidden")
	ErrCapacityFull         = errors.New("event is at full capacity")
	ErrAlreadyRegistered    = errors.New("wallet already registered for this event")
	ErrNFTMintingDisabled   = errors.New("nft minting is not enabled for this event")
	ErrSerializationFailure = errors.New("serialization failure")
)

// FieldProblem is a single rejected input field.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every problem found in one input. It matches ErrValidation.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, msg string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) error {
	return &ValidationError{Problems: []FieldProblem{{Field: field, Message: msg}}}
}
