package navigation

import (
	"testing"

	"github.com/emrepbu/loginflow/internal/models"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		state    models.NavigationState
		wantMove bool
		want     models.Route
	}{
		{"signed out on login", models.NavigationState{Route: models.RouteLogin}, false, ""},
		{"signed out on profile", models.NavigationState{Route: models.RouteProfile}, true, models.RouteLogin},
		{"signed out on home", models.NavigationState{Route: models.RouteHome, IsProfileComplete: true}, true, models.RouteLogin},
		{"signed in on login, incomplete", models.NavigationState{Route: models.RouteLogin, IsLoggedIn: true}, true, models.RouteProfile},
		{"signed in on login, complete", models.NavigationState{Route: models.RouteLogin, IsLoggedIn: true, IsProfileComplete: true}, true, models.RouteHome},
		{"incomplete on home", models.NavigationState{Route: models.RouteHome, IsLoggedIn: true}, true, models.RouteProfile},
		{"complete on home", models.NavigationState{Route: models.RouteHome, IsLoggedIn: true, IsProfileComplete: true}, false, ""},
		{"complete on profile (edit)", models.NavigationState{Route: models.RouteProfile, IsLoggedIn: true, IsProfileComplete: true}, false, ""},
		{"incomplete on profile", models.NavigationState{Route: models.RouteProfile, IsLoggedIn: true}, false, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decision, moved := Evaluate(tt.state)
			if moved != tt.wantMove {
				t.Fatalf("Expected move=%v, got %v (%+v)", tt.wantMove, moved, decision)
			}
			if !moved {
				return
			}
			if decision.Route != tt.want {
				t.Errorf("Expected route %s, got %s", tt.want, decision.Route)
			}
			if !decision.ClearBackStack {
				t.Error("Policy transitions must clear the back stack")
			}

			// Applying the decision settles the state
			next := tt.state
			next.Route = decision.Route
			if again, moved := Evaluate(next); moved {
				t.Errorf("Expected no transition after applying decision, got %+v", again)
			}
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	t.Parallel()

	state := models.NavigationState{Route: models.RouteHome, IsLoggedIn: true, IsProfileComplete: true}
	for i := 0; i < 5; i++ {
		if _, moved := Evaluate(state); moved {
			t.Fatalf("Evaluation %d moved a stable state", i)
		}
	}
}

func TestIsEditMode(t *testing.T) {
	t.Parallel()

	if !IsEditMode(models.NavigationState{Route: models.RouteProfile, IsLoggedIn: true, IsProfileComplete: true}) {
		t.Error("Expected edit mode for a complete profile")
	}
	if IsEditMode(models.NavigationState{Route: models.RouteProfile, IsLoggedIn: true}) {
		t.Error("Expected completion mode for an incomplete profile")
	}
}
