package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrepbu/loginflow/internal/app"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewSignInCmd creates the signin command
func NewSignInCmd(opts *Options) *cobra.Command {
	var idToken, code string
	var printURL bool

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with Google",
		Long: "Sign in with a Google ID token or an authorization code. " +
			"Use --url to print the consent page for the code flow.",
		RunE: func(cmd *cobra.Command, args []string) error {
			idToken = strings.TrimSpace(idToken)
			code = strings.TrimSpace(code)
			if !printURL && idToken == "" && code == "" {
				return fmt.Errorf("one of --id-token, --code or --url is required")
			}
			if idToken != "" && code != "" {
				return fmt.Errorf("--id-token and --code are mutually exclusive")
			}

			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				out := cmd.OutOrStdout()

				if printURL {
					if c.SignIn == nil {
						return fmt.Errorf("the code flow needs GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL")
					}
					fmt.Fprintln(out, c.SignIn.AuthCodeURL(uuid.NewString()))
					return nil
				}

				var result models.AuthResult
				if code != "" {
					result = c.Gateway.SignInWithAuthCode(ctx, code)
				} else {
					result = c.Gateway.SignInWithGoogle(ctx, idToken)
				}
				if err := resultError(result); err != nil {
					return err
				}

				user, state := settle(ctx, c)
				printSession(out, c.Languages.Bundle(), user, state)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "Google ID token")
	cmd.Flags().StringVar(&code, "code", "", "OAuth2 authorization code")
	cmd.Flags().BoolVar(&printURL, "url", false, "Print the Google consent URL")

	return cmd
}

// NewSignOutCmd creates the signout command
func NewSignOutCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out of this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				if err := resultError(c.Gateway.SignOut(ctx)); err != nil {
					return err
				}
				user, state := settle(ctx, c)
				printSession(cmd.OutOrStdout(), c.Languages.Bundle(), user, state)
				return nil
			})
		},
	}
}
