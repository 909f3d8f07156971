package access

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

// Middleware wires the access core into the HTTP request pipeline.
type Middleware struct {
	Resolver *Resolver
	Engine   *Engine
	Config   Config
	Logger   *slog.Logger
}

// RequirePrincipal resolves the session user into a Principal, runs the
// lifecycle check and the guest gate, and stores the principal in the
// request context. Every protected route group mounts this first.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.sessionUserID(r)

		// Anonymous visitors become guests when guest viewing is on;
		// otherwise they are refused before the engine ever runs.
		if userID == 0 {
			if !m.Config.GuestViewEnabled {
				WriteError(w, ErrUnauthenticated)
				return
			}
			ctx := ContextWithPrincipal(r.Context(), GuestPrincipal())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		principal, err := m.Resolver.Resolve(r.Context(), userID)
		if err != nil {
			m.logError("resolve principal", err)
			WriteError(w, err)
			return
		}

		if d := CheckLifecycle(principal, time.Now()); !d.Allow {
			WriteDecision(w, d)
			return
		}

		// The user store never assigns the guest role, but a resolved
		// guest principal is still bound by the same view switch as an
		// anonymous one.
		if principal.Role == RoleGuest && !m.Config.GuestViewEnabled {
			WriteDecision(w, Denied(ReasonGuestRestricted))
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCapability gates a route group on the principal holding at least
// one of the given capabilities. Coarse check only; resource scoping still
// happens in the services.
func (m Middleware) RequireCapability(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, ErrUnauthenticated)
				return
			}
			for _, cap := range caps {
				if m.Engine.Policy().HasCapability(principal.Role, cap) {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteDecision(w, Denied(ReasonInsufficientRole))
		})
	}
}

// RequireCollection gates a route on a collection-level decision, e.g.
// "may this principal create courses at all".
func (m Middleware) RequireCollection(action Action, kind Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, ErrUnauthenticated)
				return
			}
			if d := m.Engine.Authorize(principal, action, Collection{Of: kind}); !d.Allow {
				WriteDecision(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) sessionUserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.logError("parse session user id", err)
		return 0
	}
	return id
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}
