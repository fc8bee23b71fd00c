package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/pkg/source/local"
)

// shellScripts generates the completion script of each supported shell.
var shellScripts = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        (*cobra.Command).GenZshCompletion,
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": (*cobra.Command).GenPowerShellCompletionWithDesc,
}

func (c *CLI) completionCommand() *cobra.Command {
	shells := make([]string, 0, len(shellScripts))
	for name := range shellScripts {
		shells = append(shells, name)
	}
	slices.Sort(shells)

	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: fmt.Sprintf(`Print the completion script for one of: %s.

Space arguments complete from the snapshot directory in effect, so
"splitdelegation top <TAB>" lists the spaces that have a snapshot.

  $ source <(splitdelegation completion bash)
  $ splitdelegation completion zsh > "${fpath[1]}/_splitdelegation"
  $ splitdelegation completion fish > ~/.config/fish/completions/splitdelegation.fish`, strings.Join(shells, ", ")),
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shellScripts[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// completeSpaces completes space arguments from the configured snapshot
// directory. At most limit spaces are completed; a negative limit means no
// limit. Spaces already on the command line are not offered again.
func (c *CLI) completeSpaces(limit int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if limit >= 0 && len(args) >= limit {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if err := c.loadConfig(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		spaces, err := local.NewDir(c.Config.Source.Dir).Spaces()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return slices.DeleteFunc(spaces, func(s string) bool {
			return !strings.HasPrefix(s, toComplete) || slices.Contains(args, s)
		}), cobra.ShellCompDirectiveNoFileComp
	}
}
