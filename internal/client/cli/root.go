package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/statsync/internal/client/config"
)

// runner carries state shared by the commands of one invocation.
type runner struct {
	args    []string
	out     io.Writer
	opts    []AppOption
	loadCfg func(args []string) (*config.Config, error)

	cfg *config.Config
	app *App
}

// app opens the App on first use so commands that only format or parse
// never touch the data root or the network.
func (r *runner) open(ctx context.Context) (*App, error) {
	if r.app != nil {
		return r.app, nil
	}
	cfg, err := r.config()
	if err != nil {
		return nil, err
	}
	app, err := NewApp(ctx, cfg, r.opts...)
	if err != nil {
		return nil, err
	}
	r.app = app
	return app, nil
}

func (r *runner) config() (*config.Config, error) {
	if r.cfg != nil {
		return r.cfg, nil
	}
	cfg, err := r.loadCfg(r.args)
	if err != nil {
		return nil, err
	}
	r.cfg = cfg
	return cfg, nil
}

func (r *runner) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// newRootCommand builds the command tree. Config flags are declared here
// only so cobra accepts them; config.LoadConfig reads their values.
func newRootCommand(r *runner) *cobra.Command {
	root := &cobra.Command{
		Use:           "statsync",
		Short:         "Offline-first sync client for training statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "shell" {
				return nil
			}
			return r.close()
		},
	}
	root.SetOut(r.out)
	root.SetErr(r.out)

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to JSON config file")
	pf.StringP("server", "a", "", "address and port of the sync endpoint")
	pf.StringP("data-root", "d", "", "directory for cache files")
	pf.StringP("cache-backend", "b", "", "cache backend: file or sqlite")
	pf.StringP("token", "t", "", "access token")
	pf.IntP("user", "u", -1, "user id when no token is given")
	pf.IntP("interval", "i", 0, "sync interval (in seconds)")
	pf.StringP("log-level", "l", "", "log level")
	pf.String("log-file", "", "rotate logs into this file")

	root.AddCommand(
		newPullCommand(r),
		newPushCommand(r),
		newSyncCommand(r),
		newStatusCommand(r),
		newPutCommand(r),
		newRateCommand(r),
		newDeleteCommand(r),
		newShowCommand(r),
		newURICommand(r),
		newShellCommand(r),
	)
	return root
}

// Execute runs the statsync command line with args (without the program
// name), writing user-facing output to out.
func Execute(ctx context.Context, args []string, out io.Writer, opts ...AppOption) error {
	r := &runner{args: args, out: out, opts: opts, loadCfg: config.LoadConfig}
	defer func() { _ = r.close() }()

	root := newRootCommand(r)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Main is the entry point used by cmd/statsync. SIGINT and SIGTERM cancel
// the running command.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Execute(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
