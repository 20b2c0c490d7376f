package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrepbu/loginflow/internal/app"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/navigation"
	"github.com/spf13/cobra"
)

// NewProfileCmd creates the profile command
func NewProfileCmd(opts *Options) *cobra.Command {
	var age, bio string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show, complete or edit the profile",
		Long:  "Without flags the profile is shown. With --age (and optionally --bio) it is saved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			save := cmd.Flags().Changed("age") || cmd.Flags().Changed("bio")

			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				out := cmd.OutOrStdout()
				bundle := c.Languages.Bundle()

				user, state := settle(ctx, c)
				if user == nil {
					return errors.New(models.DefaultUnauthorizedMessage)
				}

				editMode := navigation.IsEditMode(models.NavigationState{
					Route:             models.RouteProfile,
					IsLoggedIn:        true,
					IsProfileComplete: user.IsProfileComplete,
				})
				if !save {
					title := "profile_setup_title"
					if editMode {
						title = "profile_edit_title"
					}
					fmt.Fprintln(out, bundle.String(title))
					printSession(out, bundle, user, state)
					return nil
				}

				// An incomplete profile keeps its bio unless a new one is given
				if !cmd.Flags().Changed("bio") && user.Bio != nil {
					bio = *user.Bio
				}
				if err := resultError(c.Gateway.CompleteProfile(ctx, age, bio)); err != nil {
					return err
				}

				saved := c.Session.CurrentUser().Get()
				c.Navigator.Update(saved != nil, saved != nil && saved.IsProfileComplete)
				state, err := c.Navigator.Navigate(models.RouteHome)
				if err != nil {
					return err
				}

				message := "profile_save_success"
				if editMode {
					message = "profile_update_success"
				}
				fmt.Fprintln(out, bundle.String(message))
				printSession(out, bundle, saved, state)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&age, "age", "", "Age in years")
	cmd.Flags().StringVar(&bio, "bio", "", "Short bio")

	return cmd
}
