package services

import (
	"github.com/google/uuid"
)

// Decision is the outcome of an ownership check
type Decision int

const (
	// Deny means the requester may not modify the resource
	Deny Decision = iota
	// Allow means the requester owns the resource
	Allow
)

// String returns the decision name for logs
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize compares the requester against the resource owner. A nil or
// zero requester is anonymous and is always denied.
func Authorize(requester *uuid.UUID, owner uuid.UUID) Decision {
	if requester == nil || *requester == uuid.Nil {
		return Deny
	}
	if *requester != owner {
		return Deny
	}
	return Allow
}

// RequireOwner returns ErrForbidden unless Authorize allows the requester.
// Callers must have loaded the resource first so that a missing resource is
// reported as not found rather than forbidden.
func RequireOwner(requester *uuid.UUID, owner uuid.UUID) error {
	if Authorize(requester, owner) == Deny {
		return ErrForbidden
	}
	return nil
}
