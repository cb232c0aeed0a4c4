package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func confirmAction(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", color.YellowString("%s", prompt))
	var response string
	_, _ = fmt.Fscanln(in, &response)
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// confirmer asks on the command's stdin and stderr, keeping stdout for
// the report.
func confirmer(cmd *cobra.Command) func(string) bool {
	return func(prompt string) bool {
		return confirmAction(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
	}
}
