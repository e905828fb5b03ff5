package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound indicates the requested definition does not exist.
var ErrNotFound = errors.New("definition not found")

// ValidationError collects field-scoped messages for a rejected definition.
// The zero value is valid and empty.
type ValidationError struct {
	messages map[string][]string
}

// Add appends one message scoped to the named attribute.
func (e *ValidationError) Add(attribute, message string) {
	if e.messages == nil {
		e.messages = make(map[string][]string)
	}
	e.messages[attribute] = append(e.messages[attribute], message)
}

// HasErrors reports whether any message was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.messages) > 0
}

// Messages returns the recorded messages keyed by attribute name.
func (e *ValidationError) Messages() map[string][]string {
	return e.messages
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	attributes := make([]string, 0, len(e.messages))
	for attribute := range e.messages {
		attributes = append(attributes, attribute)
	}
	sort.Strings(attributes)

	parts := make([]string, 0, len(attributes))
	for _, attribute := range attributes {
		parts = append(parts, fmt.Sprintf("%s: %s", attribute, strings.Join(e.messages[attribute], "; ")))
	}
	return "metadata: validation failed: " + strings.Join(parts, " | ")
}

// errOrNil returns the error when it carries messages, nil otherwise.
func (e *ValidationError) errOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}
