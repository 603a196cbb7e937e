// Package cli wires configuration, logging and the backend client into the
// toman command tree. The root command runs the terminal client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/config"
)

// BuildInfo is set via ldflags
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app holds the state shared by one command tree
type app struct {
	v       *viper.Viper
	cfgFile string
	build   BuildInfo
	rt      *runtime
}

// NewRootCmd builds the full command tree
func NewRootCmd(build BuildInfo) *cobra.Command {
	a := &app{v: viper.New(), build: build}

	root := &cobra.Command{
		Use:   "toman",
		Short: "Terminal client for the Toman project manager",
		Long: `toman talks to a Toman backend: browse workspaces and projects, move tasks
across the board and manage invitations.

Without a subcommand it opens the interactive board.`,
		RunE:              a.runTUI,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/toman/config.yaml)")
	f.String("backend-url", "", "backend root URL")
	f.String("token", "", "session token from the identity provider")
	f.Duration("timeout", 0, "per-request timeout")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (text, json)")

	for key, flag := range map[string]string{
		"backend_url": "backend-url",
		"token":       "token",
		"timeout":     "timeout",
		"log.level":   "log-level",
		"log.format":  "log-format",
	} {
		_ = a.v.BindPFlag(key, f.Lookup(flag))
	}

	root.AddCommand(
		a.workspaceCmd(),
		a.projectCmd(),
		a.taskCmd(),
		a.inviteCmd(),
		a.joinCmd(),
		a.devserverCmd(),
		a.versionCmd(),
	)
	root.Version = build.Version
	return root
}

// Execute runs the command tree until it finishes or the process is interrupted
func Execute(build BuildInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(build).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg, cmd == cmd.Root())
	if err != nil {
		return err
	}
	a.rt = rt
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.rt != nil {
		a.rt.close()
		a.rt = nil
	}
}

// printError renders err for a terminal, listing field errors one per line
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", apperr.UserMessage(err))

	var e *apperr.Error
	if !errors.As(err, &e) || len(e.Fields) == 0 {
		return
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %s\n", f, e.Fields[f])
	}
}
