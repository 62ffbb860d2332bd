package cmd

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/session"
	"github.com/reploy-cli/reploy/internal/tmux"
	"github.com/reploy-cli/reploy/internal/util"
)

func newSessionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "List and clean up detached sessions opened by pipelines",
		Long: `List and clean up detached sessions opened by pipelines.

Every session a pipeline opens is recorded in the session journal under the
state directory. Pipelines never wait for sessions; these commands are the
way to find and stop them afterwards.`,
	}

	var killAll bool
	killCmd := &cobra.Command{
		Use:   "kill [session...]",
		Short: "Stop sessions and every process started inside them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.killSessions(cmd.Context(), args, killAll)
		},
	}
	killCmd.Flags().BoolVarP(&killAll, "all", "a", false, "stop every journaled session")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List journaled sessions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.listSessions(cmd.Context())
			},
		},
		killCmd,
		&cobra.Command{
			Use:   "prune",
			Short: "Forget sessions that are no longer running",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				live := c.liveSessions(cmd.Context())
				pruned, err := c.app.journal.Prune(live)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Pruned %d session(s)\n", len(pruned))
				return nil
			},
		},
	)
	return cmd
}

// liveSessions returns a predicate reporting whether a journaled session is
// still running. tmux sessions are looked up on their socket once per socket.
func (c *cli) liveSessions(ctx context.Context) func(session.Record) bool {
	bySocket := map[string]map[string]bool{}
	return func(r session.Record) bool {
		if r.Backend != session.BackendTmux {
			return session.ProcessAlive(r.PID)
		}
		names, ok := bySocket[r.Socket]
		if !ok {
			names = map[string]bool{}
			sessions, err := tmux.ListSessions(ctx, r.Socket)
			if err != nil {
				c.app.logger.Warn("failed to list tmux sessions", "socket", r.Socket, "error", err.Error())
			}
			for _, s := range sessions {
				names[s.Name] = true
			}
			bySocket[r.Socket] = names
		}
		return names[r.Session]
	}
}

func (c *cli) listSessions(ctx context.Context) error {
	records, err := c.app.journal.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No sessions recorded.")
		return nil
	}

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Session
	}
	width := util.MaxWidth(names)
	alive := c.liveSessions(ctx)

	for _, r := range records {
		status := c.style.Muted("exited")
		if alive(r) {
			status = c.style.Success("running")
		}
		fmt.Fprintf(c.out, "%s  %s  %-8s  %s  %s\n",
			util.PadANSI(r.Session, width),
			util.PadANSI(status, 7),
			r.Backend,
			r.StartedAt.Format(time.DateTime),
			util.TruncateANSI(r.Command, commandWidth),
		)
	}
	return nil
}

func (c *cli) killSessions(ctx context.Context, names []string, all bool) error {
	records, err := c.app.journal.List()
	if err != nil {
		return err
	}
	if !all && len(names) == 0 {
		return errors.NewValidationError("specify session names or --all")
	}

	var targets []session.Record
	if all {
		targets = records
	} else {
		for _, name := range names {
			r, ok := c.app.journal.Find(name)
			if !ok {
				return errors.NewNotFoundError("session", name)
			}
			targets = append(targets, r)
		}
	}

	var errs []error
	for _, r := range targets {
		if err := stopSession(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Session, err))
			continue
		}
		if err := c.app.journal.Remove(r.Session); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(c.out, "Stopped %s\n", r.Session)
	}
	return errors.Join(errs...)
}

// stopSession ends a journaled session. A session that already exited is
// not an error.
func stopSession(ctx context.Context, r session.Record) error {
	if r.Backend == session.BackendTmux {
		if err := tmux.KillSessionTree(ctx, r.Socket, r.Session); err != nil && tmuxSessionExists(ctx, r) {
			return err
		}
		return nil
	}
	if !session.ProcessAlive(r.PID) {
		return nil
	}
	// Terminal sessions lead their own process group.
	if err := syscall.Kill(-r.PID, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

func tmuxSessionExists(ctx context.Context, r session.Record) bool {
	sessions, _ := tmux.ListSessions(ctx, r.Socket)
	for _, s := range sessions {
		if s.Name == r.Session {
			return true
		}
	}
	return false
}
