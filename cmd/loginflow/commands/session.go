package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emrepbu/loginflow/internal/app"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in user and the current screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				user, state := settle(ctx, c)
				printSession(cmd.OutOrStdout(), c.Languages.Bundle(), user, state)
				return nil
			})
		},
	}
}

// NewNavigateCmd creates the navigate command
func NewNavigateCmd(opts *Options) *cobra.Command {
	var back bool

	cmd := &cobra.Command{
		Use:   "navigate [login|profile|home]",
		Short: "Show where a move leads from the current session",
		Long: "Applies a user move to the screen of the current session. " +
			"The routing rules still apply, so the screen shown may differ from the one requested.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if back == (len(args) == 1) {
				return fmt.Errorf("give either a route or --back")
			}

			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				_, state := settle(ctx, c)
				fmt.Fprintf(cmd.OutOrStdout(), "From: %s\n", state.Route)

				if back {
					next, moved := c.Navigator.Back()
					if !moved {
						fmt.Fprintln(cmd.OutOrStdout(), "Nothing to go back to")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "To: %s\n", next.Route)
					return nil
				}

				next, err := c.Navigator.Navigate(models.Route(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "To: %s\n", next.Route)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&back, "back", false, "Go back to the previous screen")

	return cmd
}

// NewWatchCmd creates the watch command
func NewWatchCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow session changes until interrupted",
		Long: "Prints the session user and screen whenever they change, " +
			"including sign-ins and sign-outs made by other processes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				users, cancelUsers := c.Session.CurrentUser().Subscribe()
				defer cancelUsers()
				states, cancelStates := c.Navigator.State().Subscribe()
				defer cancelStates()

				return watch(ctx, cmd.OutOrStdout(), users, states)
			})
		},
	}
}

// watch prints one line per change until ctx is done or a stream closes
func watch(ctx context.Context, w io.Writer, users <-chan *models.User, states <-chan models.NavigationState) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case user, ok := <-users:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s user %s\n", timestamp(), describeUser(user))
		case state, ok := <-states:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s route %s logged_in=%v profile_complete=%v\n",
				timestamp(), state.Route, state.IsLoggedIn, state.IsProfileComplete)
		}
	}
}

func describeUser(user *models.User) string {
	if user == nil {
		return "signed_out"
	}
	return fmt.Sprintf("%s profile_complete=%v", user.ID, user.IsProfileComplete)
}

func timestamp() string {
	return time.Now().Format(time.TimeOnly)
}
