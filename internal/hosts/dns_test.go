package hosts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

func TestDNSFlusher_Darwin(t *testing.T) {
	tests := []struct {
		method   FlushMethod
		expected []string
	}{
		{FlushMethodDscacheutil, []string{"dscacheutil -flushcache"}},
		{FlushMethodKillall, []string{"sudo killall -HUP mDNSResponder"}},
		{FlushMethodBoth, []string{"dscacheutil -flushcache", "sudo killall -HUP mDNSResponder"}},
		{FlushMethodAuto, []string{"dscacheutil -flushcache", "sudo killall -HUP mDNSResponder"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			machine := newFakeMachine(t)
			log, _ := newTestLogger()

			err := NewDNSFlusher(&fakeInfo{goos: platform.Darwin}, machine, tt.method, log).Flush(context.Background(), []Kind{KindUnix})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, machine.commandNames())
		})
	}
}

func TestDNSFlusher_DarwinBothFail(t *testing.T) {
	machine := newFakeMachine(t)
	machine.failures["dscacheutil"] = errors.New("boom")
	machine.failures["killall"] = errors.New("boom")
	log, _ := newTestLogger()

	err := NewDNSFlusher(&fakeInfo{goos: platform.Darwin}, machine, FlushMethodBoth, log).Flush(context.Background(), []Kind{KindUnix})

	assert.Error(t, err)
}

func TestDNSFlusher_LinuxAutoStopsAtFirstSuccess(t *testing.T) {
	machine := newFakeMachine(t)
	log, _ := newTestLogger()

	err := NewDNSFlusher(&fakeInfo{goos: platform.Linux, elevated: true}, machine, FlushMethodAuto, log).Flush(context.Background(), []Kind{KindUnix})

	require.NoError(t, err)
	assert.Equal(t, []string{"resolvectl flush-caches"}, machine.commandNames())
}

func TestDNSFlusher_LinuxAutoFallsBack(t *testing.T) {
	machine := newFakeMachine(t)
	machine.failures["resolvectl"] = errors.New("not found")
	machine.failures["systemd-resolve"] = errors.New("not found")
	machine.failures["nscd"] = errors.New("not found")
	log, _ := newTestLogger()

	err := NewDNSFlusher(&fakeInfo{goos: platform.Linux, elevated: true}, machine, FlushMethodAuto, log).Flush(context.Background(), []Kind{KindUnix})

	require.NoError(t, err, "linux without a caching resolver needs no flush")
	assert.Equal(t, []string{"resolvectl flush-caches", "systemd-resolve --flush-caches", "nscd -i hosts"}, machine.commandNames())
}

func TestDNSFlusher_LinuxNscdFailure(t *testing.T) {
	machine := newFakeMachine(t)
	machine.failures["nscd"] = errors.New("not running")
	log, _ := newTestLogger()

	err := NewDNSFlusher(&fakeInfo{goos: platform.Linux}, machine, FlushMethodNscd, log).Flush(context.Background(), []Kind{KindUnix})

	assert.Error(t, err)
}

func TestDNSFlusher_Windows(t *testing.T) {
	machine := newFakeMachine(t)
	log, _ := newTestLogger()

	err := NewDNSFlusher(&fakeInfo{goos: platform.Windows}, machine, FlushMethodAuto, log).Flush(context.Background(), []Kind{KindWindows})

	require.NoError(t, err)
	assert.Equal(t, []string{"ipconfig /flushdns"}, machine.commandNames())
}

func TestDNSFlusher_WSL(t *testing.T) {
	machine := newFakeMachine(t)
	log, _ := newTestLogger()

	err := NewDNSFlusher(&fakeInfo{goos: platform.Linux, wsl: true, elevated: true}, machine, FlushMethodSystemd, log).
		Flush(context.Background(), []Kind{KindUnix, KindWSLCompanion})

	require.NoError(t, err)
	assert.Equal(t, []string{"resolvectl flush-caches", "ipconfig.exe /flushdns"}, machine.commandNames())
}

func TestDNSFlusher_None(t *testing.T) {
	machine := newFakeMachine(t)
	log, _ := newTestLogger()

	err := NewDNSFlusher(&fakeInfo{goos: platform.Linux}, machine, FlushMethodNone, log).
		Flush(context.Background(), []Kind{KindUnix, KindWSLCompanion})

	require.NoError(t, err)
	assert.Empty(t, machine.calls)
}
