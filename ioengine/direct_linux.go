//go:build linux

package ioengine

import "golang.org/x/sys/unix"

// directIOFlag is O_DIRECT on Linux, the only platform in the support
// matrix whose kernel honors it on regular block devices.
const directIOFlag = unix.O_DIRECT
