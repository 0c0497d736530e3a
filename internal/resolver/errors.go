package resolver

import (
	"errors"
	"fmt"
)

// ErrUnrepresentable matches every UnrepresentableTypeError via errors.Is.
var ErrUnrepresentable = errors.New("type could not be transformed to object representation")

// UnrepresentableTypeError aborts a resolution request. No partial tree is
// produced.
type UnrepresentableTypeError struct {
	// TypeName is the provider's display name of the offending type.
	TypeName string
	// Path is the member path from the root, for diagnostics only.
	Path   string
	Reason string
}

func (e *UnrepresentableTypeError) Error() string {
	msg := fmt.Sprintf("unrepresentable type %s", e.TypeName)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnrepresentableTypeError) Is(target error) bool {
	return target == ErrUnrepresentable
}

func newUnrepresentableError(typeName, path, reason string) *UnrepresentableTypeError {
	return &UnrepresentableTypeError{TypeName: typeName, Path: path, Reason: reason}
}
