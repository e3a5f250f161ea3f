package hosts

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

type fakeInfo struct {
	goos     string
	wsl      bool
	elevated bool
	env      map[string]string
}

func (f *fakeInfo) OS() string       { return f.goos }
func (f *fakeInfo) IsWSL() bool      { return f.wsl }
func (f *fakeInfo) IsElevated() bool { return f.elevated }

func (f *fakeInfo) LookupEnv(key string) (string, bool) {
	v, ok := f.env[key]
	return v, ok
}

// fakeMachine plays every external command the synchronizer issues against
// an in-memory set of files.
type fakeMachine struct {
	t *testing.T

	files       map[string]string
	winDir      string
	mount       string
	sudoEnabled bool
	// failures keyed by command name, after unwrapping sudo.
	failures map[string]error

	// copyTo is the key in files that an elevated Windows copy writes to.
	copyTo   string
	stageDir string

	calls []platform.Command
}

func newFakeMachine(t *testing.T) *fakeMachine {
	return &fakeMachine{
		t:        t,
		files:    map[string]string{},
		failures: map[string]error{},
	}
}

func (m *fakeMachine) Run(_ context.Context, cmd platform.Command) (platform.Result, error) {
	m.calls = append(m.calls, cmd)

	inner := cmd
	if cmd.Name == "sudo" {
		inner = platform.Command{Name: cmd.Args[0], Args: cmd.Args[1:], Stdin: cmd.Stdin}
	}
	if err, ok := m.failures[inner.Name]; ok {
		return platform.Result{ExitCode: 1}, err
	}

	switch inner.Name {
	case "cat":
		contents, ok := m.files[inner.Args[0]]
		if !ok {
			return platform.Result{ExitCode: 1}, &platform.ExitError{Name: "cat", Code: 1, Stderr: "No such file or directory"}
		}
		return platform.Result{Stdout: []byte(contents)}, nil

	case "sh":
		m.files[inner.Args[len(inner.Args)-1]] = string(inner.Stdin)
		return platform.Result{}, nil

	case "powershell.exe":
		args := strings.Join(inner.Args, " ")
		if strings.Contains(args, "$env:WinDir") {
			return platform.Result{Stdout: []byte(m.winDir + "\r\n")}, nil
		}
		if strings.Contains(args, "Start-Process") {
			m.copyStaged()
		}
		return platform.Result{}, nil

	case "wslpath":
		return platform.Result{Stdout: []byte(m.mount + "\n")}, nil

	case "sudo.exe":
		if !m.sudoEnabled {
			return platform.Result{ExitCode: 1}, &platform.ExitError{Name: "sudo.exe", Code: 1, Stderr: "Sudo is disabled on this machine."}
		}
		if inner.Args[0] == "config" {
			return platform.Result{Stdout: []byte("Sudo is currently in Inline mode")}, nil
		}
		m.copyStaged()
		return platform.Result{}, nil
	}

	return platform.Result{}, nil
}

func (m *fakeMachine) readFile(path string) ([]byte, error) {
	contents, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(contents), nil
}

func (m *fakeMachine) copyStaged() {
	staged := stagedFiles(m.t, m.stageDir)
	require.Len(m.t, staged, 1, "exactly one staged file expected during the copy")

	data, err := os.ReadFile(staged[0])
	require.NoError(m.t, err)
	m.files[m.copyTo] = string(data)
}

func (m *fakeMachine) commandNames() []string {
	names := make([]string, len(m.calls))
	for i, c := range m.calls {
		names[i] = c.String()
	}
	return names
}

func (m *fakeMachine) ran(name string) bool {
	for _, c := range m.calls {
		if c.Name == name || (c.Name == "sudo" && len(c.Args) > 0 && c.Args[0] == name) {
			return true
		}
	}
	return false
}

func stagedFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "lando-hosts-*.txt"))
	require.NoError(t, err)
	return matches
}

func newTestLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

var encodedArg = regexp.MustCompile(`-EncodedCommand(?:',')?\s*'?([A-Za-z0-9+/=]+)`)

// decodeScript extracts and decodes the -EncodedCommand payload of cmd.
func decodeScript(t *testing.T, cmd platform.Command) string {
	t.Helper()
	m := encodedArg.FindStringSubmatch(strings.Join(cmd.Args, " "))
	require.Len(t, m, 2, "no encoded command in %s", cmd)

	raw, err := base64.StdEncoding.DecodeString(m[1])
	require.NoError(t, err)
	script, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	require.NoError(t, err)
	return string(script)
}
