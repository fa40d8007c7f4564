package cli

import (
	"bufio"
	"fmt"
	"strings"

	"mdcat-quiz-client/internal/auth"
	"github.com/spf13/cobra"
)

// NewLoginCmd authenticates against the backend and verifies the session.
func NewLoginCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log in to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()

			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			password, err := reader.ReadString('\n')
			if err != nil {
				return err
			}

			session := auth.NewSession(d.client)
			if err := session.Login(cmd.Context(), args[0], strings.TrimSpace(password)); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			user, err := session.User()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", user.Username)
			return nil
		},
	}
}

// NewLogoutCmd invalidates the backend session.
func NewLogoutCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()

			session := auth.NewSession(d.client)
			session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// NewWhoamiCmd verifies and prints the current session.
func NewWhoamiCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(cmd.Context(), *configPath, *apiURL)
			if err != nil {
				return err
			}
			defer d.close()

			session := auth.NewSession(d.client)
			if err := session.Init(cmd.Context()); err != nil {
				return err
			}
			user, err := session.User()
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Username, user.Email)
			return nil
		},
	}
}
