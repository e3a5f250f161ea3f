package hosts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"

	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

// Outcome is the result of processing one target.
type Outcome string

const (
	OutcomeSkippedNoChange    Outcome = "skipped-no-change"
	OutcomeWritten            Outcome = "written"
	OutcomeSkippedNoPrivilege Outcome = "skipped-no-privilege"
	OutcomeFailed             Outcome = "failed"
)

// ElevationMode selects the Windows elevation helper.
type ElevationMode string

const (
	// ElevationSudo uses sudo for Windows and skips the write when it is
	// missing or disabled.
	ElevationSudo ElevationMode = "sudo"
	// ElevationPowerShell raises a UAC prompt through Start-Process -Verb RunAs.
	ElevationPowerShell ElevationMode = "powershell"
)

const (
	windowsSudo       = "sudo.exe"
	windowsPowerShell = "powershell.exe"
	stagePattern      = "lando-hosts-*.txt"
)

// ElevationRemediation tells the operator how to let Windows writes through.
const ElevationRemediation = "enable sudo for Windows (Settings > System > For developers > Enable sudo) " +
	"or set settings.windowsElevation to \"powershell\" to use a UAC prompt"

// elevate prefixes cmd with sudo unless the process is already privileged.
func elevate(info platform.Info, cmd platform.Command) platform.Command {
	if info.IsElevated() {
		return cmd
	}
	return platform.Command{
		Name:  "sudo",
		Args:  append([]string{cmd.Name}, cmd.Args...),
		Stdin: cmd.Stdin,
	}
}

// Reader reads hosts files that may require elevated privileges.
type Reader struct {
	info     platform.Info
	runner   platform.Runner
	readFile func(string) ([]byte, error)
}

// NewReader creates a reader.
func NewReader(info platform.Info, runner platform.Runner) *Reader {
	return &Reader{info: info, runner: runner, readFile: os.ReadFile}
}

// Read returns the current contents of the target.
func (r *Reader) Read(ctx context.Context, t Target) (string, error) {
	switch t.Kind {
	case KindUnix:
		res, err := r.runner.Run(ctx, elevate(r.info, platform.Command{Name: "cat", Args: []string{t.Path}}))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", t.Path, err)
		}
		return string(res.Stdout), nil

	case KindWindows, KindWSLCompanion:
		data, err := r.readFile(t.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", t.Path, err)
		}
		return string(data), nil

	default:
		return "", fmt.Errorf("unknown target kind %q", t.Kind)
	}
}

// Writer replaces hosts file contents through the platform's elevation helper.
type Writer struct {
	info       platform.Info
	runner     platform.Runner
	mode       ElevationMode
	log        logrus.FieldLogger
	createTemp func(dir, pattern string) (*os.File, error)
}

// NewWriter creates a writer. An empty mode means ElevationSudo.
func NewWriter(info platform.Info, runner platform.Runner, mode ElevationMode, log logrus.FieldLogger) *Writer {
	if mode == "" {
		mode = ElevationSudo
	}
	return &Writer{
		info:       info,
		runner:     runner,
		mode:       mode,
		log:        log,
		createTemp: os.CreateTemp,
	}
}

// Write replaces the target contents. The outcome is OutcomeWritten,
// OutcomeSkippedNoPrivilege (with an error wrapping ErrElevationUnavailable)
// or OutcomeFailed.
func (w *Writer) Write(ctx context.Context, t Target, contents string) (Outcome, error) {
	switch t.Kind {
	case KindUnix:
		cmd := elevate(w.info, platform.Command{
			Name:  "sh",
			Args:  []string{"-c", `cat > "$1"`, "lando-hosts", t.Path},
			Stdin: []byte(contents),
		})
		if _, err := w.runner.Run(ctx, cmd); err != nil {
			return OutcomeFailed, fmt.Errorf("failed to write %s: %w", t.Path, err)
		}
		return OutcomeWritten, nil

	case KindWindows, KindWSLCompanion:
		return w.writeStaged(ctx, t, contents)

	default:
		return OutcomeFailed, fmt.Errorf("unknown target kind %q", t.Kind)
	}
}

// writeStaged copies contents into a staged file both sides can reach and
// has the elevated helper copy it over the target. The staged file is
// removed on every path.
func (w *Writer) writeStaged(ctx context.Context, t Target, contents string) (Outcome, error) {
	if err := w.probe(ctx); err != nil {
		return OutcomeSkippedNoPrivilege, err
	}

	f, err := w.createTemp(t.StageDir, stagePattern)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to stage hosts file in %s: %w", t.StageDir, err)
	}
	staged := f.Name()
	defer func() {
		if err := os.Remove(staged); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.log.WithError(err).WithField("path", staged).Warn("Failed to remove staged hosts file")
		}
	}()

	if _, err := f.WriteString(contents); err != nil {
		f.Close()
		return OutcomeFailed, fmt.Errorf("failed to write staged hosts file: %w", err)
	}
	if err := f.Close(); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to close staged hosts file: %w", err)
	}

	cmd, err := w.copyCommand(winJoin(t.WindowsStageDir, baseName(staged)), t.WindowsPath)
	if err != nil {
		return OutcomeFailed, err
	}
	if _, err := w.runner.Run(ctx, cmd); err != nil {
		return OutcomeFailed, fmt.Errorf("elevated copy to %s failed: %w", t.WindowsPath, err)
	}

	return OutcomeWritten, nil
}

// probe checks that the configured helper can be invoked.
func (w *Writer) probe(ctx context.Context) error {
	var cmd platform.Command
	switch w.mode {
	case ElevationSudo:
		// Prints the configured mode and exits non-zero when sudo is disabled.
		cmd = platform.Command{Name: windowsSudo, Args: []string{"config"}}
	case ElevationPowerShell:
		cmd = platform.Command{Name: windowsPowerShell, Args: []string{"-NoProfile", "-NonInteractive", "-Command", "exit 0"}}
	default:
		return fmt.Errorf("%w: unknown elevation mode %q", ErrElevationUnavailable, w.mode)
	}

	if _, err := w.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrElevationUnavailable, cmd.Name, err)
	}
	return nil
}

func (w *Writer) copyCommand(src, dst string) (platform.Command, error) {
	script := fmt.Sprintf("Copy-Item -LiteralPath %s -Destination %s -Force -ErrorAction Stop", psQuote(src), psQuote(dst))
	encoded, err := encodePowerShell(script)
	if err != nil {
		return platform.Command{}, err
	}

	switch w.mode {
	case ElevationPowerShell:
		runAs := fmt.Sprintf(
			"$p = Start-Process -FilePath %s -ArgumentList '-NoProfile','-NonInteractive','-EncodedCommand','%s' -Verb RunAs -Wait -PassThru; exit $p.ExitCode",
			windowsPowerShell, encoded)
		return platform.Command{
			Name: windowsPowerShell,
			Args: []string{"-NoProfile", "-NonInteractive", "-Command", runAs},
		}, nil
	default:
		return platform.Command{
			Name: windowsSudo,
			Args: []string{windowsPowerShell, "-NoProfile", "-NonInteractive", "-EncodedCommand", encoded},
		}, nil
	}
}

// encodePowerShell encodes a script for -EncodedCommand (base64 of UTF-16LE).
func encodePowerShell(script string) (string, error) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(script)
	if err != nil {
		return "", fmt.Errorf("failed to encode powershell script: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(utf16)), nil
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func baseName(p string) string {
	return p[strings.LastIndexAny(p, `/\`)+1:]
}
