package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/observable"
	"go.uber.org/zap"
)

// ErrUnknownRoute is returned by Navigate for routes outside the flow
var ErrUnknownRoute = errors.New("unknown route")

// Navigator holds the current route and back stack and keeps them consistent
// with the session inputs
type Navigator struct {
	mu        sync.Mutex
	current   models.NavigationState
	backStack []models.Route
	state     *observable.Value[models.NavigationState]
	logger    *zap.Logger
}

// NewNavigator starts at the login screen with no session
func NewNavigator(log *zap.Logger) *Navigator {
	initial := models.NavigationState{Route: models.RouteLogin}
	return &Navigator{
		current: initial,
		state:   observable.New(initial),
		logger:  log,
	}
}

// State returns the navigation state stream
func (n *Navigator) State() observable.Readable[models.NavigationState] {
	return n.state
}

// BackStack returns a copy of the routes Back would return to, oldest first
func (n *Navigator) BackStack() []models.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Route(nil), n.backStack...)
}

// Update records new session inputs and re-evaluates the policy
func (n *Navigator) Update(isLoggedIn, isProfileComplete bool) models.NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current.IsLoggedIn = isLoggedIn
	n.current.IsProfileComplete = isProfileComplete
	n.settleLocked()
	return n.current
}

// Run re-evaluates the policy on every change of either input until ctx is
// cancelled or both streams close
func (n *Navigator) Run(ctx context.Context, isLoggedIn, isProfileComplete observable.Readable[bool]) error {
	loggedInCh, cancelLoggedIn := isLoggedIn.Subscribe()
	defer cancelLoggedIn()
	completeCh, cancelComplete := isProfileComplete.Subscribe()
	defer cancelComplete()

	loggedIn, complete := isLoggedIn.Get(), isProfileComplete.Get()
	n.Update(loggedIn, complete)

	for loggedInCh != nil || completeCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-loggedInCh:
			if !ok {
				loggedInCh = nil
				continue
			}
			loggedIn = v
		case v, ok := <-completeCh:
			if !ok {
				completeCh = nil
				continue
			}
			complete = v
		}
		n.Update(loggedIn, complete)
	}
	return nil
}

// Navigate performs a user-initiated move. Opening the profile from home
// keeps home on the back stack; reaching home or login clears it. The
// policy is applied afterwards, so a move it forbids is redirected.
func (n *Navigator) Navigate(route models.Route) (models.NavigationState, error) {
	if !route.IsValid() {
		return models.NavigationState{}, fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if route != n.current.Route {
		switch route {
		case models.RouteProfile:
			n.backStack = append(n.backStack, n.current.Route)
		default:
			n.backStack = nil
		}
		n.logger.Debug("navigation_user_move",
			zap.String("from", string(n.current.Route)),
			zap.String("to", string(route)),
		)
		n.current.Route = route
	}
	n.settleLocked()
	return n.current, nil
}

// Back returns to the previous route. It reports false when the back stack
// is empty.
func (n *Navigator) Back() (models.NavigationState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.backStack) == 0 {
		return n.current, false
	}
	last := len(n.backStack) - 1
	n.current.Route = n.backStack[last]
	n.backStack = n.backStack[:last]
	n.settleLocked()
	return n.current, true
}

// Close closes the state stream
func (n *Navigator) Close() {
	n.state.Close()
}

// settleLocked applies policy decisions until none is left and publishes
// the result. Callers hold n.mu.
func (n *Navigator) settleLocked() {
	// Every rule lands on a route no other rule leaves for the same inputs,
	// so this runs at most twice
	for {
		decision, ok := Evaluate(n.current)
		if !ok {
			break
		}
		n.logger.Info("navigation_transition",
			zap.String("from", string(n.current.Route)),
			zap.String("to", string(decision.Route)),
			zap.String("reason", decision.Reason),
		)
		n.current.Route = decision.Route
		if decision.ClearBackStack {
			n.backStack = nil
		}
	}
	if n.state.Get() != n.current {
		n.state.Set(n.current)
	}
}
