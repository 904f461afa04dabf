package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookbook-app/lookbook/internal/gate"
	"github.com/lookbook-app/lookbook/internal/session"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "session",
		Short:       "Manage the stored credential and guest mode",
		Annotations: map[string]string{gate.LoginRouteAnnotation: ""},
	}

	cmd.AddCommand(newSessionLoginCmd(opts))
	cmd.AddCommand(newSessionGuestCmd(opts))
	cmd.AddCommand(newSessionLogoutCmd(opts))
	cmd.AddCommand(newSessionStatusCmd(opts))

	return cmd
}

func newSessionLoginCmd(opts *rootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token issued by the recommendation service",
		Example: `  lookbook session login --token "$TOKEN"

  # Read the token from stdin
  echo "$TOKEN" | lookbook session login`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("LOOKBOOK_TOKEN")
			}
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("no token given: use --token, $LOOKBOOK_TOKEN or stdin")
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return fmt.Errorf("token must not be empty")
			}

			store, err := opts.sessions()
			if err != nil {
				return err
			}
			if err := store.Save(session.Session{Token: token}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	return cmd
}

func newSessionGuestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Continue without a credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.sessions()
			if err != nil {
				return err
			}
			if err := store.Save(session.Session{Guest: true}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Guest mode enabled.")
			return nil
		},
	}
}

func newSessionLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential and guest flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.sessions()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newSessionStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a credential or guest mode is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.sessions()
			if err != nil {
				return err
			}
			sess, err := store.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session file: %s\n", store.Path())
			switch {
			case sess.HasCredential():
				fmt.Fprintln(out, "Signed in with a token.")
			case sess.Guest:
				fmt.Fprintln(out, "Guest mode.")
			default:
				fmt.Fprintln(out, "Signed out.")
			}
			return nil
		},
	}
}
