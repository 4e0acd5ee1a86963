// Package main provides the readtrack command-line reading tracker.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/di"
	"github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/service"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app holds the services resolved for one command invocation.
type app struct {
	out      io.Writer
	errOut   io.Writer
	color    bool
	injector *do.RootScope
	log      *logger.Logger
	library  *service.LibraryService
	stats    *service.StatsService
	search   *service.SearchService // nil when search is disabled
}

// run executes one command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{out: stdout, errOut: stderr, color: isTerminal(stdout)}
	defer a.shutdown()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return errors.CodeOf(err).ExitCode()
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "readtrack",
		Short:         "Track reading progress, streaks, and habits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.start(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newAddCmd(a),
		newPageCmd(a),
		newStepCmd(a, "next", "Advance a book by one page", (*service.LibraryService).IncrementPage),
		newStepCmd(a, "prev", "Move a book back by one page", (*service.LibraryService).DecrementPage),
		newStyleCmd(a),
		newPinCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newStatsCmd(a),
		newChartCmd(a),
		newSearchCmd(a),
	)
	return root
}

// start builds the container from the command's flags and loads the library.
// A library that loaded with unreadable collections is still used; the
// problem is reported as a warning.
func (a *app) start(cmd *cobra.Command) error {
	a.injector = di.NewContainer(cmd.Flags())

	if err := di.Bootstrap(cmd.Context(), a.injector); err != nil {
		if !errors.Is(err, errors.ErrPersistence) || !a.resolved() {
			return err
		}
		fmt.Fprintln(a.errOut, "warning:", err)
	}
	if !a.resolved() {
		return errors.Internal("library unavailable")
	}

	a.log = do.MustInvoke[*logger.Logger](a.injector)
	a.stats = do.MustInvoke[*service.StatsService](a.injector)
	if cfg := do.MustInvoke[*config.Config](a.injector); cfg.Search.Enabled {
		a.search = do.MustInvoke[*service.SearchService](a.injector)
	}
	return nil
}

// resolved reports whether the library service could be built, caching it.
func (a *app) resolved() bool {
	if a.library != nil {
		return true
	}
	lib, err := do.Invoke[*service.LibraryService](a.injector)
	if err != nil {
		return false
	}
	a.library = lib
	return true
}

func (a *app) shutdown() {
	if a.injector == nil {
		return
	}
	if err := a.injector.Shutdown(); err != nil && a.log != nil {
		a.log.Error("shutdown error", "error", err)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
