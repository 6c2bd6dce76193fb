package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"otkeys/internal/domain"
)

func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Upload unpublished one-time keys to the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if wire.Directory == nil {
				return errors.New("relay URL required (--relay)")
			}
			username := wire.Config.Username
			if username == "" {
				return errors.New("username required (--username)")
			}

			n, err := wire.Prekey.Publish(cmd.Context(), passphrase, domain.Username(username))
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to publish.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d one-time keys for %s\n", n, username)
			return nil
		},
	}
}
