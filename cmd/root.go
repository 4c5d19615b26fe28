package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/config"
	"github.com/psds-microservice/helpdesk-service/internal/identity"
	"github.com/psds-microservice/helpdesk-service/internal/logging"
)

var (
	cfg       *config.Config
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:           "helpdesk",
	Short:         "IT support tickets: API server and command line client",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAPI,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}
		slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel, cfg.AppEnv))
		return nil
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "helpdesk API base URL (default $HELPDESK_SERVER)")
	rootCmd.AddCommand(apiCmd, migrateCmd, exportCmd, importCmd, submitCmd, mineCmd, showCmd, ticketsCmd,
		registerCmd, loginCmd, logoutCmd, recoverCmd, resetPasswordCmd, whoamiCmd)
}

func identityStore() *identity.Store {
	return identity.NewStore(cfg.ConfigDir)
}

// adminClient returns a client authenticated with the stored CLI session.
func adminClient() (*client.Client, *auth.Session, error) {
	sess, err := identityStore().LoadSession()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: run helpdesk login first", err)
	}
	return client.New(cfg.ServerURL, client.WithSession(sess)), sess, nil
}
