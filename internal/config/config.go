// Package config handles YAML configuration parsing and hot-reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the per-project config file name, looked up in the working
// directory.
const ProjectFile = ".lando-hosts.yml"

// DefaultConfigDir returns the default config directory path for users.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lando-hosts")
}

// DefaultConfigPath returns the default config file path for users.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yml")
}

// ResolvePath picks the config file to use: the explicit path when given,
// otherwise the project file in the working directory, otherwise the user
// file. It returns "" when none exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range []string{ProjectFile, DefaultConfigPath()} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FlushMethod defines DNS cache flush methods.
type FlushMethod string

const (
	FlushMethodAuto        FlushMethod = "auto"
	FlushMethodDscacheutil FlushMethod = "dscacheutil"
	FlushMethodKillall     FlushMethod = "killall"
	FlushMethodBoth        FlushMethod = "both"
	FlushMethodSystemd     FlushMethod = "systemd"
	FlushMethodNscd        FlushMethod = "nscd"
	FlushMethodIpconfig    FlushMethod = "ipconfig"
	FlushMethodNone        FlushMethod = "none"
)

// ElevationMode selects how Windows hosts files are written.
type ElevationMode string

const (
	ElevationSudo       ElevationMode = "sudo"
	ElevationPowerShell ElevationMode = "powershell"
)

// Settings holds global configuration settings.
type Settings struct {
	FlushDNS         bool          `yaml:"flushDNS"`
	FlushMethod      FlushMethod   `yaml:"flushMethod"`
	WindowsElevation ElevationMode `yaml:"windowsElevation"`
}

// Service is one service of the application and the URLs it is served on.
type Service struct {
	Name string   `yaml:"name"`
	URLs []string `yaml:"urls"`
}

// App describes the application whose hostnames are managed. Its name
// identifies the managed block in the hosts file.
type App struct {
	Name     string    `yaml:"name"`
	Services []Service `yaml:"services"`
}

// Config represents the complete configuration.
type Config struct {
	App      App      `yaml:"app"`
	Settings Settings `yaml:"settings"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset settings.
func (c *Config) ApplyDefaults() {
	if c.Settings.FlushMethod == "" {
		c.Settings.FlushMethod = FlushMethodAuto
	}
	if c.Settings.WindowsElevation == "" {
		c.Settings.WindowsElevation = ElevationSudo
	}
}

// URLs returns the URLs of all services in declaration order.
func (c *Config) URLs() []string {
	var urls []string
	for _, s := range c.App.Services {
		urls = append(urls, s.URLs...)
	}
	return urls
}

// Override replaces the app name and service URLs with values given on the
// command line. Empty values leave the config untouched.
func (c *Config) Override(name string, urls []string) {
	if name != "" {
		c.App.Name = name
	}
	if len(urls) > 0 {
		c.App.Services = []Service{{Name: "cli", URLs: urls}}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.App.Services = make([]Service, len(c.App.Services))
	for i, s := range c.App.Services {
		out.App.Services[i] = Service{Name: s.Name, URLs: append([]string(nil), s.URLs...)}
	}
	return &out
}

// Manager handles configuration loading and watching.
type Manager struct {
	path     string
	config   *Config
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	onError  func(error)
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager creates a new config manager. An empty path means defaults only.
func NewManager(path string) *Manager {
	return &Manager{
		path:   path,
		stopCh: make(chan struct{}),
	}
}

// Path returns the file the manager reads.
func (m *Manager) Path() string {
	return m.path
}

// Load reads and parses the configuration file. Without a path, the
// defaults are loaded.
func (m *Manager) Load() error {
	if m.path == "" {
		m.set(Default())
		return nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyDefaults()

	if err := ValidateConfig(&cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m.set(&cfg)
	return nil
}

func (m *Manager) set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil
	}
	return m.config.Clone()
}

// Watch starts watching the config file for changes. onChange receives every
// successfully reloaded config; onError receives reload and watcher errors.
func (m *Manager) Watch(onChange func(*Config), onError func(error)) error {
	if m.path == "" {
		return errors.New("no config file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	m.watcher = watcher
	m.onChange = onChange
	m.onError = onError

	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	go m.watchLoop()

	return nil
}

func (m *Manager) watchLoop() {
	target := filepath.Clean(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := m.Load(); err != nil {
				m.reportError(err)
				continue
			}
			if m.onChange != nil {
				m.onChange(m.Get())
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.reportError(err)
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) reportError(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}

// Stop stops watching the config file.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.watcher != nil {
			m.watcher.Close()
		}
	})
}

// Example returns a starter configuration for app name.
func Example(name string) *Config {
	return &Config{
		App: App{
			Name: name,
			Services: []Service{
				{
					Name: "appserver",
					URLs: []string{fmt.Sprintf("https://%s.lndo.site", name)},
				},
			},
		},
		Settings: Settings{
			FlushDNS:         true,
			FlushMethod:      FlushMethodAuto,
			WindowsElevation: ElevationSudo,
		},
	}
}

// Write validates cfg and writes it to path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// CreateDefault writes the example configuration for app name to path.
func CreateDefault(path, name string) error {
	return Write(path, Example(name))
}
