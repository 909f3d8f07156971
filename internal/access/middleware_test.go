package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

type staticStore map[int64]Principal

func (s staticStore) FindPrincipal(_ context.Context, id int64) (Principal, error) {
	p, ok := s[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

func gateFor(cfg Config, store staticStore) Middleware {
	return Middleware{
		Resolver: NewResolver(store),
		Engine:   NewEngine(cfg),
		Config:   cfg,
	}
}

func gatedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	sess := &shared.Session{}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func runGate(t *testing.T, m Middleware, req *http.Request) (*httptest.ResponseRecorder, *Principal) {
	t.Helper()
	var seen *Principal
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFromContext(r.Context()); ok {
			seen = &p
		}
	})
	rr := httptest.NewRecorder()
	m.RequirePrincipal(next).ServeHTTP(rr, req)
	return rr, seen
}

func TestAnonymousRequestNeedsGuestView(t *testing.T) {
	m := gateFor(Config{}, staticStore{})

	rr, seen := runGate(t, m, gatedRequest(""))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Nil(t, seen)
}

func TestAnonymousRequestBecomesGuestWhenViewEnabled(t *testing.T) {
	m := gateFor(Config{GuestViewEnabled: true}, staticStore{})

	rr, seen := runGate(t, m, gatedRequest(""))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, RoleGuest, seen.Role)
	require.Zero(t, seen.ID)
}

func TestResolvedGuestObeysViewSwitch(t *testing.T) {
	// A stored account carrying the guest role must hit the same switch as
	// an anonymous visitor, not slip past it on the authenticated path.
	store := staticStore{7: {ID: 7, Role: RoleGuest, IsActive: true}}

	rr, seen := runGate(t, gateFor(Config{}, store), gatedRequest("7"))
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), string(ReasonGuestRestricted))
	require.Nil(t, seen)

	rr, seen = runGate(t, gateFor(Config{GuestViewEnabled: true}, store), gatedRequest("7"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, RoleGuest, seen.Role)
}

func TestResolvedUserPassesLifecycleGate(t *testing.T) {
	store := staticStore{
		3: {ID: 3, Role: RoleStudent, Department: "civil", IsActive: true},
		4: {ID: 4, Role: RoleStudent, Department: "civil", IsActive: false},
	}
	m := gateFor(Config{}, store)

	rr, seen := runGate(t, m, gatedRequest("3"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, int64(3), seen.ID)

	rr, seen = runGate(t, m, gatedRequest("4"))
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), string(ReasonAccountInactive))
	require.Nil(t, seen)
}

func TestUnknownPrincipalIsNotFound(t *testing.T) {
	m := gateFor(Config{}, staticStore{})

	rr, seen := runGate(t, m, gatedRequest("42"))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Nil(t, seen)
}
