package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"otkeys/internal/crypto"
	"otkeys/internal/domain"
)

// claimCmd is the peer side: take one of someone's published keys.
func claimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <username>",
		Short: "Claim one of a user's published one-time keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wire.Directory == nil {
				return errors.New("relay URL required (--relay)")
			}
			k, err := wire.Directory.ClaimOneTimeKey(cmd.Context(), domain.Username(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", k.Public)
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", crypto.FingerprintX25519(k.Public))
			return nil
		},
	}
}
