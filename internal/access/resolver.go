package access

import (
	"context"
	"errors"
	"fmt"
)

// PrincipalStore is the authoritative user store the resolver reads from.
// Implementations must distinguish "no such principal" (ErrPrincipalNotFound)
// from infrastructure failures, which propagate verbatim.
type PrincipalStore interface {
	FindPrincipal(ctx context.Context, id int64) (Principal, error)
}

// Resolver fetches the current role, active flag and lock state for a
// request's authenticated principal. It always re-reads from the store so a
// role or lock change takes effect on the very next request.
type Resolver struct {
	store PrincipalStore
}

// NewResolver constructs a Resolver backed by the given store.
func NewResolver(store PrincipalStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the principal for id. A zero id means the request carried
// no authenticated principal at all.
func (r *Resolver) Resolve(ctx context.Context, id int64) (Principal, error) {
	if id == 0 {
		return Principal{}, ErrUnauthenticated
	}
	p, err := r.store.FindPrincipal(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return Principal{}, ErrPrincipalNotFound
		}
		return Principal{}, fmt.Errorf("access: resolve principal %d: %w", id, err)
	}
	return p, nil
}
