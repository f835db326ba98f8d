//go:build !linux

package ioengine

// directIOFlag is 0 on platforms without O_DIRECT; UseDirectIO still
// enforces alignment discipline in software, it just doesn't bypass the
// page cache at the kernel level.
const directIOFlag = 0
