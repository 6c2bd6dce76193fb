package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty account and store it securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			created, err := wire.Prekey.Init(passphrase)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "Account already exists.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created in %s\n", wire.Config.Home)
			return nil
		},
	}
}
