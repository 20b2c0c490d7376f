package commands

import (
	"context"
	"fmt"

	"github.com/emrepbu/loginflow/internal/app"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/spf13/cobra"
)

// NewLanguageCmd creates the language command
func NewLanguageCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "language [code]",
		Short: "Show or change the interface language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				out := cmd.OutOrStdout()
				current := c.Languages.Language().Get()

				if len(args) == 1 {
					lang, err := c.Languages.SetLanguage(ctx, args[0])
					if err != nil {
						return err
					}
					current = lang
				}

				fmt.Fprintln(out, c.Languages.Bundle().String("language_title"))
				for _, lang := range models.SupportedLanguages() {
					marker := " "
					if lang.Code == current.Code {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s  %s\n", marker, lang.Code, lang.DisplayName)
				}
				return nil
			})
		},
	}
}
