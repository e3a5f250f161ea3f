package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/lando-hosts/internal/config"
	"github.com/lukaszraczylo/lando-hosts/internal/hosts"
	"github.com/lukaszraczylo/lando-hosts/internal/platform"
	"github.com/lukaszraczylo/lando-hosts/internal/ui"
)

// loadConfig reads the config file, when there is one, and applies the
// command line overrides.
func (a *app) loadConfig() (*config.Manager, *config.Config, error) {
	manager := config.NewManager(config.ResolvePath(a.configPath))
	if err := manager.Load(); err != nil {
		return nil, nil, err
	}

	cfg := manager.Get()
	a.applyOverrides(cfg)
	return manager, cfg, nil
}

func (a *app) applyOverrides(cfg *config.Config) {
	cfg.Override(a.appName, a.urls)
}

// hostnames extracts the hostnames of all configured URLs. URLs without a
// usable host are logged and skipped.
func (a *app) hostnames(cfg *config.Config) []string {
	names, errs := hosts.HostnamesFromURLs(cfg.URLs())
	for _, err := range errs {
		a.log.WithError(err).Warn("Skipping URL")
	}
	return names
}

func (a *app) newSyncer(cfg *config.Config) *hosts.Syncer {
	return hosts.NewSyncer(a.info, a.runner, hosts.Options{
		Elevation:   hosts.ElevationMode(cfg.Settings.WindowsElevation),
		FlushDNS:    cfg.Settings.FlushDNS,
		FlushMethod: hosts.FlushMethod(cfg.Settings.FlushMethod),
	}, a.log)
}

// sync runs one synchronization and prints its report.
func (a *app) sync(ctx context.Context, cfg *config.Config) (hosts.Report, error) {
	if err := config.RequireApp(cfg); err != nil {
		return hosts.Report{}, err
	}

	report, err := a.newSyncer(cfg).Sync(ctx, cfg.App.Name, a.hostnames(cfg))
	if err != nil {
		return hosts.Report{}, err
	}

	fmt.Fprint(a.stdout, ui.RenderReport(report))
	return report, nil
}

func (a *app) newSyncCmd() *cobra.Command {
	var dryRun, strict bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write the app's hostnames into the managed hosts file block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			if dryRun {
				return a.plan(cmd.Context(), cfg)
			}

			report, err := a.sync(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if strict && report.HasProblems() {
				return exitCode(2)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the changes as a diff without writing")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 2 when a hosts file could not be updated")

	return cmd
}

func (a *app) plan(ctx context.Context, cfg *config.Config) error {
	if err := config.RequireApp(cfg); err != nil {
		return err
	}

	changes, err := a.newSyncer(cfg).Plan(ctx, cfg.App.Name, a.hostnames(cfg))
	if err != nil {
		return err
	}

	out, err := ui.RenderPlan(changes)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, out)
	return nil
}

func (a *app) newCleanCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the app's managed block from the hosts files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := config.RequireApp(cfg); err != nil {
				return err
			}

			report, err := a.newSyncer(cfg).Clean(cmd.Context(), cfg.App.Name)
			if err != nil {
				return err
			}

			fmt.Fprint(a.stdout, ui.RenderReport(report))
			if strict && report.HasProblems() {
				return exitCode(2)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 2 when a hosts file could not be updated")

	return cmd
}

func (a *app) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync now and again whenever the config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			manager, cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if manager.Path() == "" {
				return errors.New("watch needs a config file")
			}

			if _, err := a.sync(ctx, cfg); err != nil {
				return err
			}

			err = manager.Watch(func(cfg *config.Config) {
				a.applyOverrides(cfg)
				a.log.WithField("path", manager.Path()).Info("Config changed, syncing")
				if _, err := a.sync(ctx, cfg); err != nil {
					a.log.WithError(err).Warn("Sync failed")
				}
			}, func(err error) {
				a.log.WithError(err).Warn("Config reload failed")
			})
			if err != nil {
				return err
			}
			defer manager.Stop()

			a.log.WithField("path", manager.Path()).Info("Watching config file")
			<-ctx.Done()
			return nil
		},
	}
}

func (a *app) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the hosts files managed on this platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			targets := hosts.NewLocator(a.info, a.runner, a.log).Locate(ctx)

			var facts *platform.HostFacts
			if f, err := platform.Describe(ctx); err != nil {
				a.log.WithError(err).Debug("Host facts unavailable")
			} else {
				facts = &f
			}

			fmt.Fprint(a.stdout, ui.RenderTargets(targets, facts))
			return nil
		},
	}
}

func (a *app) newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.ProjectFile + " in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.ProjectFile
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			name := a.appName
			if name == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
				name = filepath.Base(wd)
			}

			cfg := config.Example(name)
			a.applyOverrides(cfg)
			if err := config.Write(path, cfg); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "lando-hosts version %s\n", appVersion)
		},
	}
}
