package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"otkeys/internal/app"
)

var (
	passphrase string
	wire       *app.Wire
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "otkeys",
		Short:         "Manage the one-time pre-keys of an end-to-end encrypted account",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			w, err := app.NewWire(cfg)
			if err != nil {
				return err
			}
			wire = w
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := wire.PushMetrics(cmd.Context()); err != nil {
				wire.Log.Warn("metrics not pushed", "err", err)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.String("home", "", "config dir (default ~/.otkeys)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the account file")
	pf.String("relay", "", "directory base URL (e.g. http://127.0.0.1:8080)")
	pf.String("username", "", "name one-time keys are published under")
	pf.Int("capacity", 0, "maximum one-time keys held (default 5000)")
	pf.String("kdf", "", "passphrase KDF for the account file: scrypt or argon2id")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("pushgateway", "", "Prometheus Pushgateway URL to report account metrics to")

	root.AddCommand(
		initCmd(),
		generateCmd(),
		publishCmd(),
		keysCmd(),
		statusCmd(),
		claimCmd(),
		consumeCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return errors.New("passphrase required (-p)")
	}
	return nil
}
