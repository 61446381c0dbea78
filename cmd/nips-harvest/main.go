// nips-harvest collects papers and authors from the NeurIPS proceedings
// website into two tables, papers.csv and paper_authors.csv.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miku/nipsharvest"
	"github.com/miku/nipsharvest/config"
	"github.com/miku/nipsharvest/dateutil"
	"github.com/miku/nipsharvest/export"
	"github.com/miku/nipsharvest/feeds"
	"github.com/miku/nipsharvest/fetch"
	"github.com/miku/nipsharvest/paper"
	"github.com/miku/nipsharvest/persist"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var docs = strings.TrimLeft(`
# nips-harvest - papers and authors from the NeurIPS proceedings

Lists the papers of each year from the index pages and fetches metadata
for every paper: JSON documents up to 2019, HTML abstract pages from 2020
on. At the end of a complete run two tables are written to the current
directory:

    papers.csv          source_id, year, title, abstract, full_text, pdf_url
    paper_authors.csv   source_id, first_name, last_name, institution, name

Fields a year does not publish stay empty. From 2020 on, authors carry
only a name and the abstract includes title and author list, as rendered
on the page.

## resumable runs

With -dir, every paper is written to <dir>/<year>/<hash>.csv right after
it has been fetched. With -skip-existing in addition, papers with an
existing file are not fetched again.

    $ nips-harvest -start 2015 -end 2021 -dir papers -skip-existing

## failures

Connection errors are retried forever, sleeping 1s, 2s, 4s, ... up to
60s, unless -max-attempts is set. There is no request timeout, unless
-timeout is set. A failed page skips the rest of its year. A "Resource
Not Found" page stops the run.

## flags

`, "\n")

var (
	startYear     = flag.Int("start", dateutil.MinYear, "the start year to harvest papers for")
	endYear       = flag.Int("end", dateutil.LastCompleteYear(time.Now()), "the end year to harvest papers for")
	outputDir     = flag.String("dir", "", "output directory to store per paper csv files")
	skipExisting  = flag.Bool("skip-existing", false, "skip a paper if its csv file exists already (needs -dir)")
	papersFile    = flag.String("papers", "papers.csv", "filename for the papers table")
	authorsFile   = flag.String("authors", "paper_authors.csv", "filename for the authors table")
	compression   = flag.String("compress", "", "compress tables, gzip or zstd")
	databaseFile  = flag.String("db", "", "also save tables into this sqlite3 database")
	userAgent     = flag.String("ua", nipsharvest.DefaultUserAgent, "user agent to send")
	legacyBaseURL = flag.String("legacy-url", nipsharvest.DefaultLegacyBaseURL, "base URL for index pages and metadata documents")
	modernBaseURL = flag.String("modern-url", nipsharvest.DefaultModernBaseURL, "base URL for abstract pages")
	backoffBase   = flag.Duration("backoff", fetch.DefaultBackoff.Base, "first sleep after a connection error")
	backoffCap    = flag.Duration("backoff-cap", fetch.DefaultBackoff.Cap, "max sleep after a connection error")
	maxAttempts   = flag.Uint("max-attempts", 0, "max attempts per request on connection errors, 0 means no limit")
	timeout       = flag.Duration("timeout", 0, "request timeout, 0 means no timeout")
	qps           = flag.Float64("qps", 0, "max requests per second, 0 means no limit")
	indexCacheTTL = flag.Duration("index-cache-ttl", 0, "cache year index pages for this long, 0 disables the cache")
	cacheDir      = flag.String("cache-dir", "", "cache directory for index pages, defaults to XDG cache home")
	verbose       = flag.Bool("v", false, "verbose output")
	logJSON       = flag.Bool("log-json", false, "log as JSON")
	showVersion   = flag.Bool("version", false, "show version")
)

func main() {
	flag.Usage = func() {
		io.WriteString(os.Stderr, docs)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(nipsharvest.Version)
		os.Exit(0)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *logJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	cfg := &config.Config{
		StartYear:         *startYear,
		EndYear:           *endYear,
		OutputDir:         *outputDir,
		SkipExisting:      *skipExisting,
		PapersFile:        *papersFile,
		AuthorsFile:       *authorsFile,
		Compression:       *compression,
		DatabaseFile:      *databaseFile,
		UserAgent:         *userAgent,
		LegacyBaseURL:     *legacyBaseURL,
		ModernBaseURL:     *modernBaseURL,
		BackoffBase:       *backoffBase,
		BackoffCap:        *backoffCap,
		MaxAttempts:       *maxAttempts,
		Timeout:           *timeout,
		RequestsPerSecond: *qps,
		IndexCacheTTL:     *indexCacheTTL,
		CacheDir:          *cacheDir,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger := log.WithField("run", uuid.New().String())
	if cfg.SkipExisting && cfg.OutputDir == "" {
		logger.Warn("-skip-existing has no effect without -dir")
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			logger.Fatal(err)
		}
	}
	f := &fetch.Fetcher{
		Client:      fetch.NewClient(cfg.Timeout),
		UserAgent:   cfg.UserAgent,
		Backoff:     fetch.Backoff{Base: cfg.BackoffBase, Cap: cfg.BackoffCap},
		MaxAttempts: cfg.MaxAttempts,
		Logger:      logger,
	}
	if cfg.RequestsPerSecond > 0 {
		f.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	p := persist.New(cfg.OutputDir, cfg.SkipExisting)
	p.Logger = logger
	h := feeds.NewHarvester(f)
	h.LegacyBaseURL = cfg.LegacyBaseURL
	h.ModernBaseURL = cfg.ModernBaseURL
	h.Persister = p
	h.Logger = logger
	if cfg.IndexCacheTTL > 0 {
		cache, err := feeds.NewIndexCache(cfg.CacheDir, cfg.IndexCacheTTL)
		if err != nil {
			logger.Fatal(err)
		}
		h.IndexCache = cache
	}
	var (
		ctx       = context.Background()
		collector paper.Collector
		years     = cfg.Years()
		started   = time.Now()
	)
	logger.WithField("years", years.String()).Info("starting harvest")
	if err := h.Run(ctx, years.Years(), &collector); err != nil {
		logger.Fatal(err)
	}
	logger.WithFields(log.Fields{
		"papers":  len(collector.Papers()),
		"authors": len(collector.Authors()),
		"elapsed": time.Since(started).Round(time.Second),
	}).Info("harvest done")
	e := &export.Exporter{
		PapersFile:   cfg.PapersFile,
		AuthorsFile:  cfg.AuthorsFile,
		Compression:  cfg.Compression,
		DatabaseFile: cfg.DatabaseFile,
		Logger:       logger,
	}
	switch err := e.Export(ctx, collector.Papers(), collector.Authors()); {
	case errors.Is(err, export.ErrNoData):
		logger.Warn("couldn't save the files, nothing collected")
	case err != nil:
		logger.Fatal(err)
	}
}
