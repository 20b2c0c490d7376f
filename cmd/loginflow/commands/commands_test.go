package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emrepbu/loginflow/internal/locale"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/spf13/cobra"
)

func TestArgumentValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     func(*Options) *cobra.Command
		args    []string
		wantErr string
	}{
		{name: "signin without credentials", cmd: NewSignInCmd, args: nil, wantErr: "one of --id-token, --code or --url is required"},
		{name: "signin with blank token", cmd: NewSignInCmd, args: []string{"--id-token", "  "}, wantErr: "one of --id-token, --code or --url is required"},
		{name: "signin with token and code", cmd: NewSignInCmd, args: []string{"--id-token", "t", "--code", "c"}, wantErr: "mutually exclusive"},
		{name: "navigate without route", cmd: NewNavigateCmd, args: nil, wantErr: "give either a route or --back"},
		{name: "navigate with route and back", cmd: NewNavigateCmd, args: []string{"home", "--back"}, wantErr: "give either a route or --back"},
		{name: "navigate with two routes", cmd: NewNavigateCmd, args: []string{"home", "profile"}, wantErr: "accepts at most 1 arg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := tt.cmd(&Options{})
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SilenceUsage = true

			err := cmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPrintSession(t *testing.T) {
	t.Parallel()

	en, err := locale.Load("en")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	tr, err := locale.Load("tr")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	complete := models.NewUserFromPrincipal("uid-1", "Ada", "ada@example.com", "").WithCompletedProfile(36, "Engineer")

	tests := []struct {
		name   string
		bundle *locale.Bundle
		user   *models.User
		state  models.NavigationState
		want   []string
	}{
		{
			name:   "signed out",
			bundle: en,
			state:  models.NavigationState{Route: models.RouteLogin},
			want:   []string{"Sign in to continue", "Route: login"},
		},
		{
			name:   "complete profile",
			bundle: en,
			user:   complete,
			state:  models.NavigationState{Route: models.RouteHome, IsLoggedIn: true, IsProfileComplete: true},
			want:   []string{"Welcome, Ada!", "User ID: uid-1", "Age: 36", "Bio: Engineer", "Profile complete: true", "Route: home"},
		},
		{
			name:   "incomplete profile in turkish",
			bundle: tr,
			user:   models.NewUserFromPrincipal("uid-2", "", "bob@example.com", ""),
			state:  models.NavigationState{Route: models.RouteProfile, IsLoggedIn: true},
			want:   []string{"bob@example.com", "Yaş: -", "Hakkımda: -", "Route: profile"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printSession(&buf, tt.bundle, tt.user, tt.state)

			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *models.User
		want string
	}{
		{name: "display name", user: models.NewUserFromPrincipal("uid", "Ada", "ada@example.com", ""), want: "Ada"},
		{name: "email fallback", user: models.NewUserFromPrincipal("uid", "", "ada@example.com", ""), want: "ada@example.com"},
		{name: "id fallback", user: models.NewUserFromPrincipal("uid", "", "", ""), want: "uid"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := displayName(tt.user); got != tt.want {
				t.Errorf("displayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWatch(t *testing.T) {
	t.Parallel()

	users := make(chan *models.User, 2)
	states := make(chan models.NavigationState, 1)
	users <- nil
	users <- models.NewUserFromPrincipal("uid-1", "", "", "")
	states <- models.NavigationState{Route: models.RouteProfile, IsLoggedIn: true}

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- watch(context.Background(), &buf, users, states)
	}()

	// Give the loop a chance to drain the buffered values before closing
	time.Sleep(50 * time.Millisecond)
	close(users)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected watch to stop when a stream closes")
	}

	out := buf.String()
	for _, want := range []string{"user signed_out", "user uid-1 profile_complete=false", "route profile logged_in=true profile_complete=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := watch(ctx, &buf, make(chan *models.User), make(chan models.NavigationState)); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
