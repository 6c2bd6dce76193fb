package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List one-time keys awaiting upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			keys, err := wire.Prekey.UnpublishedKeys(passphrase)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPUBLIC KEY")
			for _, k := range keys {
				fmt.Fprintf(tw, "%d\t%s\n", k.ID, k.Public)
			}
			return tw.Flush()
		},
	}
}
