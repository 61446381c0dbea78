package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/miku/nipsharvest/dateutil"
)

var (
	ErrCompression = errors.New("unknown compression")
	ErrBackoff     = errors.New("invalid backoff")
)

// Config for a harvest run. All values are set from flags, there are no
// environment variables.
type Config struct {
	// StartYear and EndYear delimit the harvest, both inclusive.
	StartYear int
	EndYear   int
	// OutputDir enables per paper files under OutputDir/<year>/<hash>.csv.
	OutputDir string
	// SkipExisting will not fetch a paper again, if its per paper file
	// exists. Only effective with OutputDir.
	SkipExisting bool
	// PapersFile and AuthorsFile are the final tables, written at the end of
	// a complete run.
	PapersFile  string
	AuthorsFile string
	// Compression for the final tables: "", "gzip" or "zstd".
	Compression string
	// DatabaseFile, if set, receives a copy of the final tables as SQLite.
	DatabaseFile string
	// UserAgent is sent with every request.
	UserAgent     string
	LegacyBaseURL string
	ModernBaseURL string
	// BackoffBase is the first sleep after a transport failure, doubled on
	// each consecutive failure, up to BackoffCap.
	BackoffBase time.Duration
	BackoffCap  time.Duration
	// MaxAttempts per request on transport failures, zero means unbounded.
	MaxAttempts uint
	// Timeout per request, zero means none.
	Timeout time.Duration
	// RequestsPerSecond throttles requests, zero means unlimited.
	RequestsPerSecond float64
	// IndexCacheTTL enables caching year index pages in CacheDir, if
	// positive.
	IndexCacheTTL time.Duration
	CacheDir      string
}

// Years returns the configured year interval.
func (c *Config) Years() dateutil.Interval {
	return dateutil.Interval{Start: c.StartYear, End: c.EndYear}
}

// Validate checks the configuration, before any network activity happens.
func (c *Config) Validate() error {
	if err := c.Years().Validate(); err != nil {
		return err
	}
	switch c.Compression {
	case "", "gzip", "zstd":
	default:
		return fmt.Errorf("%w: %s", ErrCompression, c.Compression)
	}
	if c.BackoffBase <= 0 || c.BackoffCap < c.BackoffBase {
		return fmt.Errorf("%w: base=%v, cap=%v", ErrBackoff, c.BackoffBase, c.BackoffCap)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond)
	}
	return nil
}
