package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/templui/portfolio/internal/client"
)

type session struct {
	api    *client.API
	store  *client.Store
	tokens *client.SQLiteTokenStore
}

var (
	apiURL    string
	statePath string
	current   *session
)

// Root builds the portfolioctl command tree. Every subcommand gets a
// client.Store backed by the local token database.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Command-line client for the portfolio API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return openSession(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if current == nil {
				return nil
			}
			return current.tokens.Close()
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api", envOr("PORTFOLIO_API_URL", "http://localhost:5000"), "API base URL")
	root.PersistentFlags().StringVar(&statePath, "state", defaultStatePath(), "path of the local session database")

	root.AddCommand(
		signinCmd(),
		signupCmd(),
		signoutCmd(),
		whoamiCmd(),
		passwdCmd(),
		forgotPasswordCmd(),
		resetPasswordCmd(),
		profileCmd(),
		projectsCmd(),
	)
	return root
}

func openSession(ctx context.Context) error {
	err := os.MkdirAll(filepath.Dir(statePath), 0o700)
	if err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tokens, err := client.OpenSQLiteTokenStore(ctx, statePath)
	if err != nil {
		return err
	}

	api := client.NewAPI(apiURL, tokens)
	current = &session{
		api:    api,
		store:  client.NewStore(api, tokens),
		tokens: tokens,
	}
	return nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "portfolioctl", "session.db")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
