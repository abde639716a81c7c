package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDetectCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the issuer of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.open()
			if err != nil {
				return err
			}
			defer s.close()

			issuer, err := s.pipe.DetectFile(args[0], s.log)
			if err != nil {
				return documentError(args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), issuer)
			return nil
		},
	}
}
