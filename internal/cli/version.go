package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-latest"
)

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dedupe %s\n", version)
			if !check {
				return nil
			}
			res, err := latest.Check(&latest.GithubTag{
				Owner:      "nethoundsh",
				Repository: "dedupe",
			}, version)
			if err != nil {
				return fmt.Errorf("checking for a newer release: %w", err)
			}
			if res.Outdated {
				fmt.Fprintf(out, "A new version is available: %s\n", res.Current)
				fmt.Fprintln(out, "Download it from https://github.com/nethoundsh/dedupe/releases")
			} else {
				fmt.Fprintln(out, "You are using the latest version.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}
