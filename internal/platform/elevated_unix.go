//go:build unix

package platform

import "golang.org/x/sys/unix"

func isElevated() bool {
	return unix.Geteuid() == 0
}
