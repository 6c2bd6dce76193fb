package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"otkeys/internal/domain"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the one-time key pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			st, err := wire.Prekey.Status(passphrase)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored:      %d / %d\n", st.Stored, st.Capacity)
			fmt.Fprintf(out, "Unpublished: %d\n", st.Unpublished)
			fmt.Fprintf(out, "Next key id: %d\n", st.NextKeyID)
			if st.HasKeys {
				fmt.Fprintf(out, "Oldest id:   %d\n", st.OldestKeyID)
			}

			if wire.Directory != nil && wire.Config.Username != "" {
				n, err := wire.Directory.CountOneTimeKeys(cmd.Context(), domain.Username(wire.Config.Username))
				if err != nil {
					wire.Log.Warn("count directory keys", "err", err)
					return nil
				}
				fmt.Fprintf(out, "Directory:   %d\n", n)
			}
			return nil
		},
	}
}
