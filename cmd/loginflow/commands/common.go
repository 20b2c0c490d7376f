// Package commands implements the loginflow CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emrepbu/loginflow/internal/app"
	"github.com/emrepbu/loginflow/internal/config"
	"github.com/emrepbu/loginflow/internal/locale"
	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/spf13/cobra"
)

// Options are shared by every command
type Options struct {
	Debug *bool
}

func (o *Options) debug() bool {
	return o != nil && o.Debug != nil && *o.Debug
}

// withContainer builds the sign-in flow, restores the session of this device
// and runs fn against it
func withContainer(cmd *cobra.Command, opts *Options, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger, err := logger.NewCLILogger(opts.debug())
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// One broker attempt: a CLI call should fail fast rather than back off
	c, err := app.NewContainer(ctx, cfg, zapLogger, app.Options{QueueAttempts: 1})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	return fn(ctx, c)
}

// settle reads the stored profile of the session user and applies the
// routing rules to it, so a one-shot command sees the final state
func settle(ctx context.Context, c *app.Container) (*models.User, models.NavigationState) {
	user := c.Session.Refresh(ctx)
	state := c.Navigator.Update(user != nil, user != nil && user.IsProfileComplete)
	return user, state
}

// resultError turns a failed AuthResult into a command error
func resultError(result models.AuthResult) error {
	if result.IsSuccess() {
		return nil
	}
	return errors.New(result.Message)
}

func printSession(w io.Writer, bundle *locale.Bundle, user *models.User, state models.NavigationState) {
	if user == nil {
		fmt.Fprintln(w, bundle.String("sign_in_to_continue"))
		fmt.Fprintf(w, "  Route: %s\n", state.Route)
		return
	}

	fmt.Fprintln(w, bundle.Format("welcome_message", displayName(user)))
	fmt.Fprintf(w, "  User ID: %s\n", user.ID)
	if user.Email != nil {
		fmt.Fprintf(w, "  Email: %s\n", *user.Email)
	}
	fmt.Fprintf(w, "  %s: %s\n", bundle.String("profile_age_label"), optionalInt(user.Age))
	fmt.Fprintf(w, "  %s: %s\n", bundle.String("profile_bio_label"), optionalText(user.Bio))
	fmt.Fprintf(w, "  Profile complete: %v\n", user.IsProfileComplete)
	fmt.Fprintf(w, "  Route: %s\n", state.Route)
}

func displayName(user *models.User) string {
	switch {
	case user.DisplayName != nil && strings.TrimSpace(*user.DisplayName) != "":
		return *user.DisplayName
	case user.Email != nil:
		return *user.Email
	default:
		return user.ID
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func optionalText(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
