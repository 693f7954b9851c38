package client

import (
	"context"
	"errors"
	"sync"
)

type GuardState int

const (
	GuardChecking GuardState = iota
	GuardAuthorized
	GuardUnauthorized
)

func (s GuardState) String() string {
	switch s {
	case GuardChecking:
		return "checking"
	case GuardAuthorized:
		return "authorized"
	case GuardUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

var ErrNotAuthorized = errors.New("admin access required")

// Guard gates admin-only screens. It verifies once per instance; there is no retry,
// and a network failure counts as unauthorized. Denial always sends the user to the
// login page.
type Guard struct {
	api AuthAPI
	nav Navigator

	once  sync.Once
	mu    sync.Mutex
	state GuardState
}

func NewGuard(api AuthAPI, nav Navigator) *Guard {
	return &Guard{api: api, nav: nav}
}

func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Check resolves the guard and returns ErrNotAuthorized unless the user is an admin.
// Later calls return the first outcome without contacting the server.
func (g *Guard) Check(ctx context.Context) error {
	g.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()

		next := GuardUnauthorized
		if res, err := g.api.Verify(ctx); err == nil && res.IsAdmin {
			next = GuardAuthorized
		}
		g.mu.Lock()
		g.state = next
		g.mu.Unlock()

		if next == GuardUnauthorized {
			g.nav.Navigate(LoginPath)
		}
	})

	if g.State() != GuardAuthorized {
		return ErrNotAuthorized
	}
	return nil
}
