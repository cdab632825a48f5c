package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField signals a reference to a field absent from the index schema.
	ErrUnknownField = errors.New("unknown field")
	// ErrTypeMismatch signals a document value whose runtime type disagrees with the declared field type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidShape signals a structurally incomplete value (e.g. a tensor field missing chunks or embeddings).
	ErrInvalidShape = errors.New("invalid shape")
	// ErrMalformedVespaDocument signals a backend response that violates the wire contract.
	ErrMalformedVespaDocument = errors.New("malformed vespa document")
	// ErrNotSupported signals a recognized but unimplemented operation.
	ErrNotSupported = errors.New("not supported")
	// ErrInternal signals an invariant violation that valid inputs cannot trigger.
	ErrInternal = errors.New("internal inconsistency")

	// ErrInvalidRequest signals a request that fails validation before it
	// reaches the backend.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSchema signals an invalid index schema definition.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// UnknownFieldError wraps ErrUnknownField with the set of valid names for the
// field role that failed to resolve.
type UnknownFieldError struct {
	Index string
	Field string
	Role  string // "tensor", "filterable", "lexically searchable", "score modifier"; empty for plain fields
	Valid []string
}

func (e *UnknownFieldError) Error() string {
	role := "field"
	if e.Role != "" {
		role = e.Role + " field"
	}
	return fmt.Sprintf("index %s has no %s %q, available %ss are: %s",
		e.Index, role, e.Field, role, strings.Join(e.Valid, ", "))
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// NewUnknownField creates an unknown field error listing the valid names.
func NewUnknownField(index, field, role string, valid []string) error {
	return &UnknownFieldError{Index: index, Field: field, Role: role, Valid: valid}
}
