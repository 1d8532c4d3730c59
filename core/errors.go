package core

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is returned when the resources, bidders or bid matrix violate the
// allocation preconditions. The whole run fails; no partial result is produced.
var ErrMalformedInput = errors.New("malformed auction input")

// ErrNotAllocated is returned by price queries for resources that have no winner.
var ErrNotAllocated = errors.New("resource not allocated")

// MalformedInputError describes which part of the input is malformed.
type MalformedInputError struct {
	Bidder   Bidder
	Resource Resource
	Reason   string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Bidder != "" && e.Resource != "":
		return fmt.Sprintf("%v: bidder %q, resource %q: %s", ErrMalformedInput, e.Bidder, e.Resource, e.Reason)
	case e.Bidder != "":
		return fmt.Sprintf("%v: bidder %q: %s", ErrMalformedInput, e.Bidder, e.Reason)
	case e.Resource != "":
		return fmt.Sprintf("%v: resource %q: %s", ErrMalformedInput, e.Resource, e.Reason)
	default:
		return fmt.Sprintf("%v: %s", ErrMalformedInput, e.Reason)
	}
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}
