package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(shellCmd)
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive REPL: type any kvidx-inspect subcommand without the program name",
	Long: `shell reads lines from stdin, tokenizes each one the way a POSIX
shell would (quoting, escaping), and dispatches it through the same
cobra command tree as the top-level CLI — "get 1" and "kvidx-inspect get 1"
run identically.

Type "exit" or send EOF (ctrl-d) to leave.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	parser := shellwords.NewParser()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	if interactive {
		fmt.Fprint(cmd.OutOrStdout(), "kvidx> ")
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			if interactive {
				fmt.Fprint(cmd.OutOrStdout(), "kvidx> ")
			}
			continue
		}

		tokens, err := parser.Parse(line)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "parse error: %v\n", err)
		} else if err := dispatch(cmd, tokens); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}

		if interactive {
			fmt.Fprint(cmd.OutOrStdout(), "kvidx> ")
		}
	}
	if interactive {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading shell input: %w", err)
	}
	return nil
}

// dispatch runs tokens as a fresh invocation of the root command tree,
// reusing whatever store/verbose flags were set on the parent shell
// command so "shell --store x.db" then "get 1" opens the right store.
func dispatch(parent *cobra.Command, tokens []string) error {
	root := parent.Root()
	root.SetArgs(tokens)
	defer root.SetArgs(nil)
	return root.ExecuteContext(parent.Context())
}
