package validation

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Error represents an error at a specific location in a document. The node
// the error relates to provides the line and column reported in the message.
type Error struct {
	UnderlyingError error
	Node            *yaml.Node
}

var _ error = (*Error)(nil)

func (e Error) Error() string {
	return fmt.Sprintf("[%d:%d] %s", e.GetLineNumber(), e.GetColumnNumber(), e.UnderlyingError.Error())
}

func (e Error) Unwrap() error {
	return e.UnderlyingError
}

// GetLineNumber returns the line number of the node the error relates to or -1 if unknown.
func (e Error) GetLineNumber() int {
	if e.Node == nil {
		return -1
	}
	return e.Node.Line
}

// GetColumnNumber returns the column number of the node the error relates to or -1 if unknown.
func (e Error) GetColumnNumber() int {
	if e.Node == nil {
		return -1
	}
	return e.Node.Column
}

// NewValidationError creates an error associated with the provided node.
func NewValidationError(err error, node *yaml.Node) error {
	return &Error{
		UnderlyingError: err,
		Node:            node,
	}
}

// SortValidationErrors sorts the provided errors by line and column number
// lowest to highest. Errors without location information sort to the end in
// their original order.
func SortValidationErrors(allErrors []error) {
	if len(allErrors) == 0 {
		return
	}

	var validErrs []*Error
	var otherErrs []error
	for _, err := range allErrors {
		var vErr *Error
		if errors.As(err, &vErr) {
			validErrs = append(validErrs, vErr)
		} else {
			otherErrs = append(otherErrs, err)
		}
	}

	slices.SortStableFunc(validErrs, compareValidationErrors)

	idx := 0
	for _, vErr := range validErrs {
		allErrors[idx] = vErr
		idx++
	}
	for _, err := range otherErrs {
		allErrors[idx] = err
		idx++
	}
}

func compareValidationErrors(a, b *Error) int {
	if a.GetLineNumber() != b.GetLineNumber() {
		return a.GetLineNumber() - b.GetLineNumber()
	}
	if a.GetColumnNumber() != b.GetColumnNumber() {
		return a.GetColumnNumber() - b.GetColumnNumber()
	}
	aMsg := a.UnderlyingError.Error()
	bMsg := b.UnderlyingError.Error()
	switch {
	case aMsg < bMsg:
		return -1
	case aMsg > bMsg:
		return 1
	default:
		return 0
	}
}
