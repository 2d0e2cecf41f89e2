// Package usage tracks the advisory free-extraction budget for
// unauthenticated callers.
package usage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/vishals9711/task-crafter/internal/logging"
)

// DefaultFreeUses is the number of extractions allowed before login.
const DefaultFreeUses = 5

const counterFileName = "usage_count"

// Counter is a file-backed use counter. Reads and increments are plain
// read-then-write with no locking: this is advisory rate limiting, not
// a security boundary.
type Counter struct {
	path  string
	limit int
}

// NewCounter creates a counter rooted at dir. A non-positive limit
// falls back to DefaultFreeUses.
func NewCounter(dir string, limit int) *Counter {
	if limit <= 0 {
		limit = DefaultFreeUses
	}
	return &Counter{
		path:  filepath.Join(dir, counterFileName),
		limit: limit,
	}
}

type counterFile struct {
	Count int `json:"count"`
}

// Count returns the recorded use count, zero when unreadable.
func (c *Counter) Count() int {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0
	}
	var f counterFile
	if err := json.Unmarshal(data, &f); err != nil {
		logging.Warn("usage counter file is corrupted, resetting", "path", c.path)
		return 0
	}
	return f.Count
}

// Remaining returns how many free uses are left.
func (c *Counter) Remaining() int {
	remaining := c.limit - c.Count()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ReachedLimit reports whether the free budget is exhausted.
func (c *Counter) ReachedLimit() bool {
	return c.Count() >= c.limit
}

// Increment records one use and returns the new count. Write failures
// are logged and otherwise ignored.
func (c *Counter) Increment() int {
	count := c.Count() + 1
	data, _ := json.Marshal(counterFile{Count: count})
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		logging.Warn("failed to create data directory for usage counter", "error", err)
		return count
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		logging.Warn("failed to persist usage counter", "error", err)
	}
	return count
}

// Reset clears the counter, e.g. after a successful login.
func (c *Counter) Reset() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
