package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recordstore/pkg/recordstore"
)

const modulePath = "github.com/mesh-intelligence/recordstore"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the recordstore version",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recordstore v%s\nmodule: %s\n", recordstore.Version, modulePath)
			if recordstore.Revision != "" {
				fmt.Fprintf(out, "revision: %s\n", recordstore.Revision)
			}
			return nil
		},
	}
}
