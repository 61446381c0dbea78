package feeds

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/miku/nipsharvest"
)

// IndexCache keeps year index pages on disk for a while, so repeated runs
// over the same years do not need to list the hashes again.
type IndexCache struct {
	Dir string
	TTL time.Duration
}

// NewIndexCache creates a cache under the XDG cache directory, if dir is
// empty.
func NewIndexCache(dir string, ttl time.Duration) (*IndexCache, error) {
	if dir == "" {
		f, err := xdg.CacheFile(filepath.Join(nipsharvest.AppName, "index"))
		if err != nil {
			return nil, err
		}
		dir = f
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &IndexCache{Dir: dir, TTL: ttl}, nil
}

func (c *IndexCache) filename(year int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%d.html", year))
}

// Get returns the cached index page, or nil, if there is none or it expired.
func (c *IndexCache) Get(year int) ([]byte, error) {
	cacheFile := c.filename(year)
	info, err := os.Stat(cacheFile)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Since(info.ModTime()) > c.TTL {
		return nil, nil
	}
	return os.ReadFile(cacheFile)
}

// Put stores an index page.
func (c *IndexCache) Put(year int, b []byte) error {
	return os.WriteFile(c.filename(year), b, 0644)
}
