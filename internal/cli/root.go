// Package cli implements the jot command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jotter/internal/app"
	"jotter/internal/config"
)

// Streams are the process standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func StdStreams() Streams { return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr} }

// env is shared by all commands of one invocation.
type env struct {
	streams Streams
	opt     app.Options
	app     *app.App
}

// open builds the App on first use.
func (e *env) open() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := app.New(e.opt)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// NewRootCommand builds `jot`. opt seeds app options not exposed as flags
// (environment lookup, clock).
func NewRootCommand(s Streams, opt app.Options) (*cobra.Command, *env) {
	e := &env{streams: s, opt: opt}
	if e.opt.Stderr == nil {
		e.opt.Stderr = s.Err
	}
	root := &cobra.Command{
		Use:           "jot",
		Short:         "Timestamped notes and a time-boxed schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&e.opt.ConfigPath, "config", config.DefaultPath, "settings file (JSON or YAML)")
	pf.StringVar(&e.opt.Document, "document", "", "shared configuration document holding the schedule")
	pf.StringVar(&e.opt.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")

	root.AddCommand(newScheduleCommand(e), newRemindCommand(e))
	return root, e
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, s Streams, opt app.Options) int {
	root, e := NewRootCommand(s, opt)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := e.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(s.Err, "error: %s\n", describe(err))
		return 1
	}
	return 0
}

// describe renders err for users. Typed schedule errors already name the
// field and kind.
func describe(err error) string {
	if errors.Is(err, context.Canceled) {
		return "interrupted"
	}
	return err.Error()
}

func newRemindCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder daemon",
		Long: "Watches the schedule and notifies about entries starting soon and " +
			"unfinished entries that just ran past their end. Stops on SIGINT/SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			start := time.Now()
			err = a.RunReminders(cmd.Context())
			a.Log().Info("reminder daemon exited")
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "reminders stopped after %s\n", time.Since(start).Round(time.Second))
			}
			return err
		},
	}
}
