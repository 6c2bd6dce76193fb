package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"otkeys/internal/onetimekeys"
)

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [count]",
		Short: "Generate one-time keys (default: one directory batch)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			count := onetimekeys.PublicMaxOneTimeKeys
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("invalid count %q", args[0])
				}
				count = n
			}

			res, err := wire.Prekey.Generate(passphrase, count)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d one-time keys", len(res.Created))
			if len(res.Removed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (evicted %d oldest)", len(res.Removed))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
