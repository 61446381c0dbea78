// Package feeds harvests the NeurIPS proceedings: per year paper hashes from
// the index pages, then paper and author records from either JSON metadata
// documents (up to 2019) or HTML abstract pages (from 2020 on).
package feeds

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/miku/nipsharvest"
	"github.com/miku/nipsharvest/fetch"
	"github.com/miku/nipsharvest/paper"
	"github.com/sirupsen/logrus"
)

// Fetcher retrieves a single URL, cf. fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, link string) (*fetch.Response, error)
}

// Persister stores each entry right after extraction and knows, which
// entries need not be fetched again.
type Persister interface {
	Skip(year int, hash string) bool
	Save(e *paper.Entry) error
}

// DiscoveryError means the hashes for a year could not be listed.
type DiscoveryError struct {
	Year       int
	URL        string
	StatusCode int
	Err        error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discovery failed for %d (%s): %v", e.Year, e.URL, e.Err)
	}
	return fmt.Sprintf("discovery failed for %d (%s): HTTP %d", e.Year, e.URL, e.StatusCode)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// StatusError is a non-200 response for a paper page. The remaining papers of
// the year are skipped.
type StatusError struct {
	Year       int
	Hash       string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("couldn't complete the request for %s: HTTP %d", e.URL, e.StatusCode)
}

// ParseError is a paper page, that could not be parsed. Like a StatusError,
// it ends the current year.
type ParseError struct {
	Year int
	Hash string
	URL  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Harvester extracts papers and authors year by year, one request at a
// time.
type Harvester struct {
	Fetcher       Fetcher
	LegacyBaseURL string
	ModernBaseURL string
	// Persister is optional.
	Persister Persister
	// IndexCache is optional.
	IndexCache *IndexCache
	Logger     logrus.FieldLogger
}

// NewHarvester returns a harvester for the public proceedings site.
func NewHarvester(f Fetcher) *Harvester {
	return &Harvester{
		Fetcher:       f,
		LegacyBaseURL: nipsharvest.DefaultLegacyBaseURL,
		ModernBaseURL: nipsharvest.DefaultModernBaseURL,
	}
}

func (h *Harvester) logger() logrus.FieldLogger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// YearURL returns the index page of a year, e.g.
// https://papers.neurips.cc/paper/2019.
func (h *Harvester) YearURL(year int) string {
	return strings.TrimRight(h.LegacyBaseURL, "/") + "/" + strconv.Itoa(year)
}

// LegacyURL returns the metadata document location for a paper.
func (h *Harvester) LegacyURL(year int, hash string) string {
	return fmt.Sprintf("%s/file/%s-Metadata.json", h.YearURL(year), hash)
}

// ModernURL returns the abstract page location for a paper.
func (h *Harvester) ModernURL(year int, hash string) string {
	return fmt.Sprintf("%s/%d/hash/%s-Abstract.html",
		strings.TrimRight(h.ModernBaseURL, "/"), year, hash)
}

// yearLabel is the last path segment of the year index URL.
func (h *Harvester) yearLabel(year int) string {
	return path.Base(h.YearURL(year))
}

// Extract fetches and parses a single paper, with the schema of its year.
func (h *Harvester) Extract(ctx context.Context, year int, hash string) (*paper.Entry, error) {
	switch paper.SelectSchema(year) {
	case paper.Legacy:
		return h.ExtractLegacy(ctx, year, hash)
	default:
		return h.ExtractModern(ctx, year, hash)
	}
}
