package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/chaos-io/cutout/segment"
	"github.com/spf13/cobra"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available SAM2 checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tVRAM\tSPEED\tQUALITY\tCHECKPOINT")
			for _, m := range segment.Models() {
				fmt.Fprintf(w, "%s\t%s\t%d GB\t%s\t%s\t%s\n",
					m.Key, m.Name(), m.VRAMGB, m.Speed, m.Quality, m.Checkpoint)
			}
			return w.Flush()
		},
	}
}
