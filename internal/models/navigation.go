package models

// Route is a screen of the sign-in flow
type Route string

const (
	// RouteLogin is the sign-in screen
	RouteLogin Route = "login"
	// RouteProfile is the profile completion / edit screen
	RouteProfile Route = "profile"
	// RouteHome is the signed-in home screen
	RouteHome Route = "home"
)

// IsValid reports whether r is a known route
func (r Route) IsValid() bool {
	switch r {
	case RouteLogin, RouteProfile, RouteHome:
		return true
	default:
		return false
	}
}

// NavigationState is the current route together with the inputs that gate it
type NavigationState struct {
	Route             Route `json:"route"`
	IsLoggedIn        bool  `json:"is_logged_in"`
	IsProfileComplete bool  `json:"is_profile_complete"`
}
