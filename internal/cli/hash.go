package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nethoundsh/dedupe/internal/logging"
	"github.com/nethoundsh/dedupe/internal/runner"
)

func newHashCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print the SHA-256 digest of files",
		Long:  "Hash each file and print its digest in argument order. Files are hashed\nconcurrently; the output order does not depend on which finishes first.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1")
			}
			failed, err := runner.HashFiles(cmd.Context(), cmd.OutOrStdout(), args, runner.HashOptions{
				Workers: workers,
				Format:  a.outputFormat(),
				Logger:  logging.Named("hash"),
			})
			if err != nil {
				return err
			}
			if failed > 0 {
				return withCode(ExitError, fmt.Errorf("%d of %d files could not be hashed", failed, len(args)))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of files hashed at once")
	return cmd
}
