package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/statsync/internal/client/services"
	"github.com/dmitrijs2005/statsync/internal/resource"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

var ErrUnknownDatabase = errors.New("unknown database")

func parseDatabase(s string) (resource.Database, error) {
	db := resource.ParseDatabase(s)
	if db == resource.Unknown {
		return db, fmt.Errorf("%q: %w", s, ErrUnknownDatabase)
	}
	return db, nil
}

func newPullCommand(r *runner) *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   "pull [database...]",
		Short: "Fetch remote changes newer than the local cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := r.open(ctx)
			if err != nil {
				return err
			}

			var sinceTS *time.Time
			if since != "" {
				ts, err := timex.ParseStamp(since)
				if err != nil {
					return fmt.Errorf("--since: %w", err)
				}
				sinceTS = &ts
			}

			dbs := resource.Databases()
			if len(args) > 0 {
				dbs = dbs[:0:0]
				for _, a := range args {
					db, err := parseDatabase(a)
					if err != nil {
						return err
					}
					dbs = append(dbs, db)
				}
			}

			var chans []<-chan services.PullResult
			for _, db := range dbs {
				if sinceTS != nil {
					chans = append(chans, app.svc.PullSince(ctx, db, *sinceTS, true))
				} else {
					chans = append(chans, app.svc.Pull(ctx, db, true))
				}
			}
			var errs []error
			for _, ch := range chans {
				res := <-ch
				writePull(r.out, res)
				errs = append(errs, res.Err, res.SaveErr)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "pull from this timestamp (dd/mm/yyyy hh:mm:ss) instead of the cursor")
	return cmd
}

func newPushCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Send local changes to the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			report := <-app.svc.Push(cmd.Context(), true)
			writePush(r.out, report.Batch, report.Results)
			return report.Err()
		},
	}
}

func newSyncCommand(r *runner) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push local changes, then pull remote ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := r.open(ctx)
			if err != nil {
				return err
			}
			if !watch {
				return syncOnce(ctx, r.out, app)
			}
			return watchSync(ctx, r.out, app)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep syncing on the configured interval until interrupted")
	return cmd
}

func syncOnce(ctx context.Context, out io.Writer, app *App) error {
	report := <-app.svc.Sync(ctx, true)
	writePush(out, report.Batch, report.Push)
	for _, res := range report.Pull {
		writePull(out, res)
	}
	return report.Err()
}

// watchSync syncs every interval. A failed round is retried with
// exponential backoff until it succeeds or RetryMaxElapsed passes; the
// connectivity watcher triggers an early round when the remote comes back.
func watchSync(ctx context.Context, out io.Writer, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wake := make(chan struct{}, 1)
	go app.StartOnlineStatusWatcher(ctx, app.config.SyncInterval, func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})

	round := func() {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = app.config.RetryMaxElapsed
		err := backoff.RetryNotify(func() error {
			return syncOnce(ctx, out, app)
		}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
			app.logger.Warn(ctx, "sync round failed", "error", err, "retry_in", next)
		})
		if err != nil && ctx.Err() == nil {
			app.logger.Error(ctx, "giving up on sync round", "error", err)
		}
	}

	ticker := time.NewTicker(app.config.SyncInterval)
	defer ticker.Stop()
	for {
		round()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-wake:
		}
	}
}

func newStatusCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending changes and cursors per database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			r.printf("user %d on device %s\n", app.session.UserID, app.session.DeviceID)
			for _, st := range app.svc.Status() {
				cursor := "never"
				if !st.Cursor.IsZero() {
					cursor = timex.FormatStamp(st.Cursor)
				}
				r.printf("%-9s records=%d pending=%d last_synch=%s\n", st.Database, st.Records, st.Pending, cursor)
			}
			return nil
		},
	}
}

func newPutCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "put <database> <key> [text|-]",
		Short: "Store a text payload locally; '-' or no text reads it from stdin",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseDatabase(args[0])
			if err != nil {
				return err
			}
			var text string
			if len(args) == 3 && args[2] != "-" {
				text = args[2]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}

			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			st, err := app.svc.Put(db, args[1], text)
			if err != nil {
				return err
			}
			if err := app.save(cmd.Context(), db); err != nil {
				return err
			}
			r.printf("%s %s\n", args[1], st)
			return nil
		},
	}
}

func newRateCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <chapter> <rating>",
		Short: "Add a rating to a training chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating: %w", err)
			}
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			st, err := app.svc.PutChapterRating(args[0], rating, time.Now())
			if err != nil {
				return err
			}
			if err := app.save(cmd.Context(), resource.Stats); err != nil {
				return err
			}
			r.printf("%s %s\n", args[0], st)
			return nil
		},
	}
}

func newDeleteCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <database> <key>",
		Short: "Mark a record deleted locally",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseDatabase(args[0])
			if err != nil {
				return err
			}
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			st, err := app.svc.Delete(db, args[1])
			if err != nil {
				return err
			}
			if err := app.save(cmd.Context(), db); err != nil {
				return err
			}
			r.printf("%s %s\n", args[1], st)
			return nil
		},
	}
}

func newShowCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <database> [key]",
		Short: "Print cached records",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseDatabase(args[0])
			if err != nil {
				return err
			}
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 2 {
				rec, ok, err := app.svc.Get(db, args[1])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s/%s: not found", db, args[1])
				}
				r.printf("%s\n%s\n", resource.Format(rec.URI, rec.Timestamp, ""), strings.TrimRight(rec.Value, "\n"))
				return nil
			}

			for _, rec := range app.repos[db].All() {
				r.printf("%s\n", resource.Format(rec.URI, rec.Timestamp, ""))
			}
			return nil
		},
	}
}

func newURICommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uri",
		Short: "Parse or format resource URIs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "parse <uri>",
		Short: "Split a wire URI into its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ref, ok := resource.Parse(args[0])
			if !ok {
				return fmt.Errorf("%q: %w", args[0], resource.ErrInvalidURI)
			}
			r.printf("database=%s key=%s", ref.URI.Database(), ref.URI.Key())
			if ref.URI.Scoped() {
				r.printf(" user=%d", ref.URI.User())
			}
			if !ref.Timestamp.IsZero() {
				r.printf(" timestamp=%s", timex.FormatStamp(ref.Timestamp))
			}
			if ref.Method != "" {
				r.printf(" method=%s", ref.Method)
			}
			if ref.Meta != "" {
				r.printf(" meta=%s", ref.Meta)
			}
			r.printf("\n")
			return nil
		},
	})

	var user int
	var stamp, meta string
	format := &cobra.Command{
		Use:   "format <database> <key>",
		Short: "Build a wire URI",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := parseDatabase(args[0])
			if err != nil {
				return err
			}
			var ts time.Time
			if stamp != "" {
				if ts, err = timex.ParseStamp(stamp); err != nil {
					return fmt.Errorf("--timestamp: %w", err)
				}
			}
			u := resource.NewURI(db, args[1], user)
			if !u.Valid() || u.Key() == "" {
				return fmt.Errorf("%q: %w", args[1], resource.ErrInvalidURI)
			}
			r.printf("%s\n", resource.Format(u, ts, meta))
			return nil
		},
	}
	format.Flags().IntVar(&user, "owner", resource.NoUser, "owning user id; negative for unscoped")
	format.Flags().StringVar(&stamp, "timestamp", "", "dd/mm/yyyy hh:mm:ss")
	format.Flags().StringVar(&meta, "meta", "", "meta suffix")
	cmd.AddCommand(format)

	return cmd
}
