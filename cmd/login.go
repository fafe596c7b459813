package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/killallgit/compass/pkg/api"
	"github.com/killallgit/compass/pkg/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the dashboard backend and store the tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		email, _ := cmd.Flags().GetString("email")
		password := os.Getenv("COMPASS_PASSWORD")

		in := bufio.NewReader(cmd.InOrStdin())
		if email == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Email: ")
			line, err := in.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			email = strings.TrimSpace(line)
		}
		if password == "" {
			p, err := readPassword(cmd, in)
			if err != nil {
				return err
			}
			password = p
		}
		if email == "" || password == "" {
			return errors.New("email and password are required")
		}

		client := newAPIClient(cfg)
		resp, err := client.Login(cmd.Context(), email, password)
		if err != nil {
			if api.IsStatus(err, 401) {
				return errors.New("invalid email or password")
			}
			return err
		}

		name := email
		if resp.User != nil && resp.User.Email != "" {
			name = resp.User.Email
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (credentials saved to %s)\n", name, cfg.Auth.CredentialsFile)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(config.Get())
		if err := client.Logout(cmd.Context()); err != nil {
			// The local tokens are gone either way.
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email (prompted when empty)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
