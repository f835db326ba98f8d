package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// BadSectorHandler logs unreadable offsets to a side file and permits the
// operation to continue skipping those offsets The log
// format is one decimal offset per line, newline-terminated,
// created in a conventional location keyed by device path.
type BadSectorHandler struct {
	mu   sync.Mutex
	path string
	seen map[int64]struct{}
}

// NewBadSectorHandler constructs a handler whose log lives under dir,
// named for devicePath. An empty dir uses the OS temporary directory.
func NewBadSectorHandler(dir, devicePath string) *BadSectorHandler {
	if dir == "" {
		dir = os.TempDir()
	}
	name := strings.Trim(strings.ReplaceAll(devicePath, string(os.PathSeparator), "_"), "_")
	return &BadSectorHandler{
		path: filepath.Join(dir, name+".badsectors"),
		seen: make(map[int64]struct{}),
	}
}

// Record appends offset to the log. Each offset appears exactly once no
// matter how many times it is recorded.
func (h *BadSectorHandler) Record(offset int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.seen[offset]; ok {
		return nil
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("recovery: open bad-sector log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", offset); err != nil {
		return fmt.Errorf("recovery: append bad-sector log: %w", err)
	}
	h.seen[offset] = struct{}{}
	return nil
}

// Offsets returns every recorded offset in ascending order.
func (h *BadSectorHandler) Offsets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, 0, len(h.seen))
	for o := range h.seen {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LogPath returns the side file's location.
func (h *BadSectorHandler) LogPath() string {
	return h.path
}
