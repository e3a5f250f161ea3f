// Package main provides the entry point for the lando-hosts command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/lando-hosts/internal/config"
	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

// appVersion is set at compile time via ldflags
var appVersion = "dev"

func main() {
	a := newApp(platform.NewSystem(), platform.NewExecRunner(), os.Stdout, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := a.execute(ctx, os.Args[1:])
	stop()

	os.Exit(code)
}

// app holds the collaborators and global flags shared by every command.
type app struct {
	info   platform.Info
	runner platform.Runner
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger

	configPath string
	appName    string
	urls       []string
	logLevel   string
	logFormat  string
}

func newApp(info platform.Info, runner platform.Runner, stdout, stderr io.Writer) *app {
	log := logrus.New()
	log.SetOutput(stderr)

	return &app{
		info:   info,
		runner: runner,
		stdout: stdout,
		stderr: stderr,
		log:    log,
	}
}

// execute builds the command tree, runs it with args and returns the
// process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.AddCommand(
		a.newSyncCmd(),
		a.newCleanCmd(),
		a.newWatchCmd(),
		a.newTargetsCmd(),
		a.newInitCmd(),
		a.newVersionCmd(),
	)

	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			return int(code)
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// exitCode ends the process with a status after output was already printed.
type exitCode int

func (c exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lando-hosts",
		Short: "Keep hosts files in sync with local development hostnames",
		Long: `lando-hosts maps an application's local URLs to 127.0.0.1 and ::1 in a
managed block of the hosts file. On WSL the Windows hosts file is updated too.

Writing hosts files needs elevated privileges: sudo on Unix, sudo for Windows
or a UAC prompt on Windows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configureLogging()
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ./"+config.ProjectFile+" or the user config)")
	flags.StringVar(&a.appName, "app", "", "app name, overrides the config file")
	flags.StringSliceVar(&a.urls, "url", nil, "app URL, repeatable; overrides the config file services")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format (text, json)")

	return cmd
}

func (a *app) configureLogging() error {
	level, err := logrus.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	a.log.SetLevel(level)

	switch a.logFormat {
	case "text":
		a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format: %s", a.logFormat)
	}
	return nil
}
