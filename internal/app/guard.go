package app

import "kibaro-cli/internal/domain"

// DecisionKind is what a guard tells the caller to do.
type DecisionKind int

const (
	// Wait means the session is still loading; render nothing and do not redirect.
	Wait DecisionKind = iota
	Allow
	Redirect
)

// Decision is the result of a guard. Target is set for Redirect.
type Decision struct {
	Kind   DecisionKind
	Target string
}

// AuthView is the read side of the session store.
type AuthView interface {
	State() AuthState
	User() (domain.User, bool)
}

// RequireAuth gates on "is authenticated".
func RequireAuth(v AuthView) Decision {
	switch v.State() {
	case StateLoading:
		return Decision{Kind: Wait}
	case StateAuthenticated:
		return Decision{Kind: Allow}
	default:
		return Decision{Kind: Redirect, Target: RouteLogin}
	}
}

// RequireAdmin gates on the admin role and sends everyone else home.
func RequireAdmin(v AuthView) Decision {
	if v.State() == StateLoading {
		return Decision{Kind: Wait}
	}
	if u, ok := v.User(); ok && v.State() == StateAuthenticated && u.IsAdmin() {
		return Decision{Kind: Allow}
	}
	return Decision{Kind: Redirect, Target: RouteHome}
}
