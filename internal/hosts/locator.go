package hosts

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

const (
	// UnixHostsPath is the hosts file on Unix-like systems.
	UnixHostsPath = "/etc/hosts"

	defaultWinDir      = `C:\Windows`
	windowsHostsSuffix = `System32\drivers\etc\hosts`
)

// Kind tells the reader and writer how a target must be accessed.
type Kind string

const (
	// KindUnix is /etc/hosts on a Unix-like system, including the Linux side
	// of WSL.
	KindUnix Kind = "unix"
	// KindWindows is the hosts file of a native Windows process.
	KindWindows Kind = "windows"
	// KindWSLCompanion is the Windows hosts file reached from inside WSL.
	KindWSLCompanion Kind = "wsl-companion"
)

// Target is one hosts file to synchronize during a run.
type Target struct {
	// Path is the file as this process sees it.
	Path string
	Kind Kind
	// WindowsPath is the file as the Windows elevation helper sees it.
	WindowsPath string
	// StageDir is where staged copies are written, as this process sees it.
	StageDir string
	// WindowsStageDir is StageDir as the Windows elevation helper sees it.
	WindowsStageDir string
	// Contents is filled in by the reader for the duration of a run.
	Contents string
}

// Locator resolves the hosts files to update on the current platform.
type Locator struct {
	info   platform.Info
	runner platform.Runner
	log    logrus.FieldLogger
}

// NewLocator creates a locator.
func NewLocator(info platform.Info, runner platform.Runner, log logrus.FieldLogger) *Locator {
	return &Locator{info: info, runner: runner, log: log}
}

// Locate returns the targets for this platform in processing order. An
// unrecognized platform yields no targets. A WSL companion that cannot be
// resolved is left out with a warning.
func (l *Locator) Locate(ctx context.Context) []Target {
	goos := l.info.OS()

	switch {
	case goos == platform.Windows:
		return []Target{l.windowsTarget()}

	case platform.IsUnix(goos):
		targets := []Target{{Path: UnixHostsPath, Kind: KindUnix}}
		if !l.info.IsWSL() {
			return targets
		}

		companion, err := l.wslCompanion(ctx)
		if err != nil {
			l.log.WithError(err).Warn("Skipping Windows hosts file, could not resolve it from WSL")
			return targets
		}
		return append(targets, companion)

	default:
		l.log.WithField("os", goos).Debug("No hosts file known for this platform")
		return nil
	}
}

func (l *Locator) windowsTarget() Target {
	winDir := l.env(platform.EnvWinDir)
	if winDir == "" {
		winDir = l.env(platform.EnvSystemRoot)
	}
	if winDir == "" {
		winDir = defaultWinDir
	}

	stageDir := l.env(platform.EnvTemp)
	if stageDir == "" {
		stageDir = winJoin(winDir, "Temp")
	}

	hostsPath := winJoin(winDir, windowsHostsSuffix)
	return Target{
		Path:            hostsPath,
		Kind:            KindWindows,
		WindowsPath:     hostsPath,
		StageDir:        stageDir,
		WindowsStageDir: stageDir,
	}
}

func (l *Locator) wslCompanion(ctx context.Context) (Target, error) {
	res, err := l.runner.Run(ctx, platform.Command{
		Name: "powershell.exe",
		Args: []string{"-NoProfile", "-NonInteractive", "-Command", "echo $env:WinDir"},
	})
	if err != nil {
		return Target{}, fmt.Errorf("%w: failed to query Windows directory: %v", ErrPathTranslation, err)
	}
	winDir := strings.TrimSpace(string(res.Stdout))
	if winDir == "" {
		return Target{}, fmt.Errorf("%w: Windows directory is empty", ErrPathTranslation)
	}

	res, err = l.runner.Run(ctx, platform.Command{Name: "wslpath", Args: []string{"-u", winDir}})
	if err != nil {
		return Target{}, fmt.Errorf("%w: wslpath %s: %v", ErrPathTranslation, winDir, err)
	}
	mount := strings.TrimSpace(string(res.Stdout))
	if mount == "" {
		return Target{}, fmt.Errorf("%w: wslpath returned nothing for %s", ErrPathTranslation, winDir)
	}

	return Target{
		Path:            path.Join(mount, "System32", "drivers", "etc", "hosts"),
		Kind:            KindWSLCompanion,
		WindowsPath:     winJoin(winDir, windowsHostsSuffix),
		StageDir:        path.Join(mount, "Temp"),
		WindowsStageDir: winJoin(winDir, "Temp"),
	}, nil
}

func (l *Locator) env(key string) string {
	v, _ := l.info.LookupEnv(key)
	return strings.TrimSpace(v)
}

// winJoin joins Windows path elements regardless of the host OS.
func winJoin(dir, name string) string {
	return strings.TrimRight(dir, `\/`) + `\` + name
}
