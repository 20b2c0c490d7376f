// Package navigation decides which screen of the sign-in flow is shown.
package navigation

import "github.com/emrepbu/loginflow/internal/models"

// Decision is a policy-driven transition. Policy transitions always clear
// the back stack.
type Decision struct {
	Route          models.Route
	ClearBackStack bool
	Reason         string
}

// Evaluate applies the routing rules in priority order. It reports false
// when the state needs no transition; evaluating the same state again after
// applying a decision always reports false.
func Evaluate(state models.NavigationState) (Decision, bool) {
	switch {
	case !state.IsLoggedIn && state.Route != models.RouteLogin:
		return Decision{Route: models.RouteLogin, ClearBackStack: true, Reason: "signed_out"}, true

	case state.IsLoggedIn && state.Route == models.RouteLogin:
		if state.IsProfileComplete {
			return Decision{Route: models.RouteHome, ClearBackStack: true, Reason: "signed_in"}, true
		}
		return Decision{Route: models.RouteProfile, ClearBackStack: true, Reason: "signed_in_profile_incomplete"}, true

	case state.IsLoggedIn && !state.IsProfileComplete && state.Route == models.RouteHome:
		return Decision{Route: models.RouteProfile, ClearBackStack: true, Reason: "profile_required"}, true

	default:
		return Decision{}, false
	}
}

// IsEditMode reports whether the profile screen edits an existing profile
// rather than completing a new one
func IsEditMode(state models.NavigationState) bool {
	return state.Route == models.RouteProfile && state.IsProfileComplete
}
