package imagecache

import (
	"log"
	"os"
	"path"
	"time"

	"github.com/djherbis/times"
)

// Prune removes cache files that have not been accessed within maxAge.
// Falls back to the modification time on filesystems without atime.
func (c *Cache) Prune(maxAge time.Duration) {
	if c.cachedir == "" {
		return
	}
	entries, err := os.ReadDir(c.cachedir)
	if err != nil {
		log.Printf("imagecache: reading cache dir: %s", err)
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fn := path.Join(c.cachedir, entry.Name())
		ts, err := times.Stat(fn)
		if err != nil {
			continue
		}
		last := ts.ModTime()
		if ts.AccessTime().After(last) {
			last = ts.AccessTime()
		}
		if last.Before(cutoff) {
			os.Remove(fn)
		}
	}
}

// Background prunes the cache periodically. Blocks until the process exits.
func (c *Cache) Background(maxAge, interval time.Duration) {
	for {
		time.Sleep(interval)
		c.Prune(maxAge)
	}
}
