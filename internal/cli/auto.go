package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nethoundsh/dedupe/internal/metrics"
	"github.com/nethoundsh/dedupe/internal/runner"
	"github.com/nethoundsh/dedupe/pkg/preserve"
	"github.com/nethoundsh/dedupe/pkg/trash"
)

func newAutoCmd(a *app) *cobra.Command {
	var (
		load   loadFlags
		policy string
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "auto ROOT...",
		Short: "Keep one file of every duplicate group and trash the rest",
		Long: "Scan the roots, order the members of each group by the preserve policy\n" +
			"and move every member except the first to the trash. The Remain/Trash\n" +
			"plan is printed first.\n\n" +
			"Policies: " + strings.Join(preserve.Names(), ", ") + ".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.cfg.Policy()
			if policy != "" {
				parsed, err := preserve.ParsePolicy(policy)
				if err != nil {
					return err
				}
				p = parsed
			}

			s, err := load.loadSession(cmd.Context(), a, args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			format := a.outputFormat()
			res, err := s.Auto(p, runner.ResolveOptions{
				Trasher: trash.System(),
				Confirm: confirmer(cmd),
				Prompt:  a.cfg.AutoPrompt && !yes,
				DryRun:  dryRun,
				Format:  format,
				Out:     cmd.OutOrStdout(),
			})
			if res.Outcome == runner.NoDuplicatesFound {
				metrics.SetOutcome(res.Outcome.String())
				if format == "text" {
					fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("No duplicates found."))
				}
				return nil
			}
			if dryRun && err == nil && format == "text" {
				fmt.Fprintln(cmd.OutOrStdout(), "[DRY RUN] Nothing was trashed.")
			}
			return reportTrash(cmd, res, err, format)
		},
	}

	load.register(cmd.Flags())
	f := cmd.Flags()
	f.StringVarP(&policy, "preserve", "p", "", "Which member of each group to keep (default from config)")
	f.BoolVarP(&yes, "yes", "y", false, "Do not ask before trashing")
	f.BoolVar(&dryRun, "dry-run", false, "Print the plan without trashing anything")
	return cmd
}
