package access

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates that no principal id accompanied the request.
	ErrUnauthenticated = errors.New("access: unauthenticated")
	// ErrPrincipalNotFound indicates the principal id does not resolve.
	ErrPrincipalNotFound = errors.New("access: principal not found")
	// ErrResourceNotFound indicates the referenced resource does not exist.
	ErrResourceNotFound = errors.New("access: resource not found")
)

// DeniedError carries a deny decision across error-returning call chains.
// Store lookup failures are ordinary errors and are never wrapped in a
// DeniedError, so outages cannot masquerade as authorization denials.
type DeniedError struct {
	Decision Decision
}

// Error implements error.
func (e *DeniedError) Error() string {
	if e.Decision.Reason == ReasonAccountLocked {
		return fmt.Sprintf("access denied: %s (retry after %d min)", e.Decision.Reason, e.Decision.RetryAfterMinutes)
	}
	return fmt.Sprintf("access denied: %s", e.Decision.Reason)
}

// AsDenied unwraps err into a *DeniedError if it is one.
func AsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}
