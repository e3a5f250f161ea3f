package hosts

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lukaszraczylo/lando-hosts/internal/platform"
)

// FlushMethod defines the DNS cache flush method to use.
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

// DNSFlusher flushes resolver caches after hosts files change.
type DNSFlusher struct {
	info   platform.Info
	runner platform.Runner
	method FlushMethod
	log    logrus.FieldLogger
}

// NewDNSFlusher creates a new DNS flusher.
func NewDNSFlusher(info platform.Info, runner platform.Runner, method FlushMethod, log logrus.FieldLogger) *DNSFlusher {
	if method == "" {
		method = FlushMethodAuto
	}
	return &DNSFlusher{info: info, runner: runner, method: method, log: log}
}

// Flush flushes the caches that read the given kinds of hosts files.
func (f *DNSFlusher) Flush(ctx context.Context, kinds []Kind) error {
	if f.method == FlushMethodNone {
		return nil
	}

	var errs []error
	flushedWindows := false
	for _, k := range kinds {
		switch k {
		case KindUnix:
			switch f.info.OS() {
			case platform.Darwin:
				errs = append(errs, f.flushDarwin(ctx))
			case platform.Linux:
				errs = append(errs, f.flushLinux(ctx))
			}
		case KindWindows, KindWSLCompanion:
			if flushedWindows {
				continue
			}
			flushedWindows = true
			errs = append(errs, f.flushWindows(ctx, k))
		}
	}

	return errors.Join(errs...)
}

func (f *DNSFlusher) flushDarwin(ctx context.Context) error {
	var errs []error

	switch f.method {
	case FlushMethodDscacheutil:
		if err := f.run(ctx, "dscacheutil", "-flushcache"); err != nil {
			return fmt.Errorf("dscacheutil failed: %w", err)
		}
	case FlushMethodKillall:
		if err := f.runElevated(ctx, "killall", "-HUP", "mDNSResponder"); err != nil {
			return fmt.Errorf("killall mDNSResponder failed: %w", err)
		}
	case FlushMethodBoth:
		if err := f.run(ctx, "dscacheutil", "-flushcache"); err != nil {
			errs = append(errs, fmt.Errorf("dscacheutil failed: %w", err))
		}
		if err := f.runElevated(ctx, "killall", "-HUP", "mDNSResponder"); err != nil {
			errs = append(errs, fmt.Errorf("killall mDNSResponder failed: %w", err))
		}
		if len(errs) == 2 {
			return fmt.Errorf("all DNS flush methods failed: %v, %v", errs[0], errs[1])
		}
	default:
		_ = f.run(ctx, "dscacheutil", "-flushcache")
		_ = f.runElevated(ctx, "killall", "-HUP", "mDNSResponder")
	}

	return nil
}

func (f *DNSFlusher) flushLinux(ctx context.Context) error {
	switch f.method {
	case FlushMethodSystemd:
		// resolvectl is the newer name of systemd-resolve
		if err := f.runElevated(ctx, "resolvectl", "flush-caches"); err != nil {
			if err := f.runElevated(ctx, "systemd-resolve", "--flush-caches"); err != nil {
				return fmt.Errorf("systemd DNS flush failed: %w", err)
			}
		}
	case FlushMethodNscd:
		if err := f.runElevated(ctx, "nscd", "-i", "hosts"); err != nil {
			return fmt.Errorf("nscd flush failed: %w", err)
		}
	default:
		if err := f.runElevated(ctx, "resolvectl", "flush-caches"); err == nil {
			return nil
		}
		if err := f.runElevated(ctx, "systemd-resolve", "--flush-caches"); err == nil {
			return nil
		}
		// Most distributions without a caching resolver read /etc/hosts directly.
		_ = f.runElevated(ctx, "nscd", "-i", "hosts")
	}

	return nil
}

func (f *DNSFlusher) flushWindows(ctx context.Context, k Kind) error {
	name := "ipconfig"
	if k == KindWSLCompanion {
		name = "ipconfig.exe"
	}
	if err := f.run(ctx, name, "/flushdns"); err != nil {
		return fmt.Errorf("%s /flushdns failed: %w", name, err)
	}
	return nil
}

func (f *DNSFlusher) run(ctx context.Context, name string, args ...string) error {
	_, err := f.runner.Run(ctx, platform.Command{Name: name, Args: args})
	if err != nil {
		f.log.WithError(err).WithField("command", name).Debug("DNS flush command failed")
	}
	return err
}

func (f *DNSFlusher) runElevated(ctx context.Context, name string, args ...string) error {
	cmd := elevate(f.info, platform.Command{Name: name, Args: args})
	_, err := f.runner.Run(ctx, cmd)
	if err != nil {
		f.log.WithError(err).WithField("command", cmd.String()).Debug("DNS flush command failed")
	}
	return err
}
