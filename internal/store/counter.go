package store

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio"
)

// Counter is the persisted cycle counter: a single decimal integer in a file.
// Not safe for concurrent use; a single process owns the file.
type Counter struct {
	path string
	log  *slog.Logger
}

// NewCounter creates a Counter backed by path.
func NewCounter(path string, log *slog.Logger) *Counter {
	if log == nil {
		log = slog.Default()
	}
	return &Counter{path: path, log: log}
}

// Current returns the last issued cycle id. A missing or unreadable file
// counts as "no prior cycle" and returns 0.
func (c *Counter) Current() uint64 {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("counter unreadable, restarting at 1", "path", c.path, "error", err)
		}
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		c.log.Warn("counter corrupt, restarting at 1", "path", c.path, "content", string(data))
		return 0
	}
	return n
}

// Next reserves the next cycle id and atomically replaces the file with it
// before returning. An id is only returned once it is durable.
func (c *Counter) Next() (uint64, error) {
	next := c.Current() + 1
	data := []byte(strconv.FormatUint(next, 10) + "\n")
	if err := renameio.WriteFile(c.path, data, 0o644); err != nil {
		return 0, persistErr("write counter", err)
	}
	return next, nil
}
