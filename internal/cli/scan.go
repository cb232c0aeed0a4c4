package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nethoundsh/dedupe/internal/metrics"
	"github.com/nethoundsh/dedupe/internal/runner"
	"github.com/nethoundsh/dedupe/pkg/output"
	"github.com/nethoundsh/dedupe/pkg/record"
	"github.com/nethoundsh/dedupe/pkg/trash"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		load        loadFlags
		sortKey     string
		desc        bool
		summaryOnly bool
		trashFlag   bool
		yes         bool
		dryRun      bool
		failOnDupes bool
	)

	cmd := &cobra.Command{
		Use:   "scan ROOT...",
		Short: "List duplicate, unique, empty and unreadable files under the roots",
		Long: "Walk each root in order, hash every regular file and print one line per\n" +
			"record. Files with identical content share a zero-padded group number;\n" +
			"groups are listed first.\n\n" +
			"Roots must not repeat and must not be a direct parent of one another.",
		Example: "  dedupe scan ~/Pictures ~/Backup/Pictures\n" +
			"  dedupe scan --filter 'result=00' --trash ~/Downloads",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := record.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s, err := load.loadSession(cmd.Context(), a, args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sort") || desc {
				s.Sort(key, desc)
			}

			format := a.outputFormat()
			if !summaryOnly {
				if err := output.PrintEntries(out, s.Current(), format); err != nil {
					return err
				}
			}
			sum := s.Summary()
			sum.Outcome = runner.Completed.String()
			if err := output.PrintSummary(out, sum, format); err != nil {
				return err
			}

			if trashFlag {
				res, err := s.TrashCurrent(runner.ResolveOptions{
					Trasher: trash.System(),
					Confirm: confirmer(cmd),
					Prompt:  !yes,
					DryRun:  dryRun,
				})
				if err := reportTrash(cmd, res, err, format); err != nil {
					return err
				}
			}

			if failOnDupes && sum.Groups > 0 {
				return withCode(ExitDuplicates, fmt.Errorf("%d duplicate groups found", sum.Groups))
			}
			return nil
		},
	}

	load.register(cmd.Flags())
	f := cmd.Flags()
	f.StringVar(&sortKey, "sort", "result", "Sort column: result or name")
	f.BoolVar(&desc, "desc", false, "Sort descending")
	f.BoolVar(&summaryOnly, "summary", false, "Print only the totals")
	f.BoolVar(&trashFlag, "trash", false, "Move every listed record to the trash")
	f.BoolVarP(&yes, "yes", "y", false, "Do not ask before trashing")
	f.BoolVar(&dryRun, "dry-run", false, "With --trash, list only")
	f.BoolVar(&failOnDupes, "fail-on-dupes", false, "Exit with status 2 when duplicates are found")
	return cmd
}

// reportTrash prints the result of a trash step. It returns err so
// callers can hand it straight back to cobra.
func reportTrash(cmd *cobra.Command, res runner.Result, err error, format string) error {
	metrics.SetOutcome(res.Outcome.String())
	if format == "json" {
		return err
	}
	w := cmd.OutOrStdout()
	switch {
	case res.Outcome == runner.Declined:
		fmt.Fprintln(w, "Cancelled.")
	case err != nil:
		fmt.Fprintf(w, "Trashed %d entries before the failure; reload before trying again.\n", res.Trash.Trashed)
	case res.Trash.Trashed > 0:
		fmt.Fprintf(w, "Trashed %d entries.\n", res.Trash.Trashed)
	}
	return err
}
