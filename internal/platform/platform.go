// Package platform abstracts the operating system facts and subprocess
// execution the hosts synchronization depends on, so both can be substituted
// in tests.
package platform

import (
	"os"
	"runtime"
)

// Environment variables consulted by the synchronizer.
const (
	// EnvWSLDistro is set by WSL in every Linux process it starts. Only its
	// presence matters.
	EnvWSLDistro = "WSL_DISTRO_NAME"
	// EnvWinDir points at the Windows system directory.
	EnvWinDir = "WINDIR"
	// EnvSystemRoot is the fallback for EnvWinDir.
	EnvSystemRoot = "SystemRoot"
	// EnvTemp is the Windows temporary directory.
	EnvTemp = "TEMP"
)

// Operating system identifiers, matching runtime.GOOS.
const (
	Linux   = "linux"
	Darwin  = "darwin"
	Windows = "windows"
)

// Info describes the platform the process runs on.
type Info interface {
	// OS returns the operating system identifier (runtime.GOOS values).
	OS() string
	// IsWSL reports whether the process is a Linux process inside WSL.
	IsWSL() bool
	// LookupEnv returns the value of an environment variable.
	LookupEnv(key string) (string, bool)
	// IsElevated reports whether the process already runs with
	// administrative privileges.
	IsElevated() bool
}

// System is the Info backed by the running process.
type System struct{}

// NewSystem returns the Info of the running process.
func NewSystem() *System {
	return &System{}
}

// OS implements Info.
func (s *System) OS() string {
	return runtime.GOOS
}

// IsWSL implements Info.
func (s *System) IsWSL() bool {
	if runtime.GOOS != Linux {
		return false
	}
	_, ok := os.LookupEnv(EnvWSLDistro)
	return ok
}

// LookupEnv implements Info.
func (s *System) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// IsElevated implements Info.
func (s *System) IsElevated() bool {
	return isElevated()
}

// IsUnix reports whether goos is a Unix-like system with an /etc/hosts file.
func IsUnix(goos string) bool {
	switch goos {
	case Linux, Darwin, "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		return true
	}
	return false
}
