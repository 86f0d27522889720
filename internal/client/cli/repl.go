package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// runREPL reads commands line by line and hands each one to exec until EOF
// or "exit". Errors are reported and the loop continues.
func runREPL(ctx context.Context, exec func(ctx context.Context, args []string) error, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("statsync %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "shell":
			printlnFn("already in the shell")
			continue
		}

		if err := exec(ctx, parts); err != nil {
			printlnFn("error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.Mode)
}

func newShellCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one open session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := r.open(ctx)
			if err != nil {
				return err
			}
			go app.StartOnlineStatusWatcher(ctx, app.config.SyncInterval, nil)

			exec := func(ctx context.Context, args []string) error {
				sub := newRootCommand(r)
				sub.SetArgs(args)
				sub.SetIn(cmd.InOrStdin())
				sub.PersistentPostRunE = nil
				return sub.ExecuteContext(ctx)
			}
			printlnFn("statsync shell (type 'help' for commands, 'exit' to leave)")
			runREPL(ctx, exec, app.getStatus, bufio.NewScanner(cmd.InOrStdin()))
			return r.close()
		},
	}
}
