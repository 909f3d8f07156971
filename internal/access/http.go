package access

import (
	"errors"
	"net/http"

	"github.com/atheneum-portal/atheneum-portal/internal/platform/httpx"
)

// denyObserver, when set, is told about every denial rendered to a client.
// Wired to the metrics counter at startup; set once, before serving.
var denyObserver func(Reason)

// ObserveDenials registers the denial observer.
func ObserveDenials(fn func(Reason)) { denyObserver = fn }

// denyProblem is the RFC7807 body for authorization denials, extended with
// the machine-readable reason tag and optional retry hint.
type denyProblem struct {
	Title             string `json:"title"`
	Status            int    `json:"status"`
	Reason            Reason `json:"reason"`
	RetryAfterMinutes int    `json:"retry_after_minutes,omitempty"`
}

// WriteDecision renders a deny decision as a 403 problem response.
func WriteDecision(w http.ResponseWriter, d Decision) {
	if denyObserver != nil {
		denyObserver(d.Reason)
	}
	httpx.JSON(w, http.StatusForbidden, denyProblem{
		Title:             "Forbidden",
		Status:            http.StatusForbidden,
		Reason:            d.Reason,
		RetryAfterMinutes: d.RetryAfterMinutes,
	})
}

// WriteError maps core errors onto HTTP status categories: unauthenticated
// to 401, denials to 403, missing principals and resources to 404.
// Anything else is an infrastructure failure and surfaces as 500 so outages
// are never mistaken for authorization denials.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, ErrPrincipalNotFound), errors.Is(err, ErrResourceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		if denied, ok := AsDenied(err); ok {
			WriteDecision(w, denied.Decision)
			return
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
