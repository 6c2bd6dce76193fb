package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"otkeys/internal/domain"
)

// consumeCmd resolves a one-time key named in a peer's first message and
// destroys it.
func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume <one-time-key> <peer-ephemeral-key>",
		Short: "Consume a one-time key and print the shared-secret fingerprint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			otk, err := domain.ParseX25519Public(args[0])
			if err != nil {
				return fmt.Errorf("one-time key: %w", err)
			}
			eph, err := domain.ParseX25519Public(args[1])
			if err != nil {
				return fmt.Errorf("peer ephemeral key: %w", err)
			}

			fp, err := wire.Prekey.Consume(passphrase, otk, eph)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shared secret fingerprint: %s\n", fp)
			return nil
		},
	}
}
