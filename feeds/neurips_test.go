package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miku/nipsharvest/fetch"
	"github.com/miku/nipsharvest/paper"
	"github.com/miku/nipsharvest/persist"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// mockIndex is a year index page, as served under /paper/<year>.
const mockIndex = `<!doctype html>
<html>
<body>
<nav class="navbar"><ul><li><a href="/">Home</a></li></ul></nav>
<div class="container-fluid">
  <h4>Advances in Neural Information Processing Systems %[1]d</h4>
  <ul>
    <li><a href="/paper/%[1]d/hash/aaa111-Abstract.html">First Paper</a> <i>Ada Lovelace</i></li>
    <li><a href="/paper/%[1]d/hash/bbb222-Abstract.html">Second Paper</a> <i>Alan Turing</i></li>
  </ul>
</div>
</body>
</html>
`

const mockMetadata = `{
  "sourceid": %d,
  "title": "Paper %s",
  "abstract": "",
  "full_text": "Full text of %s",
  "authors": [
    {"given_name": "Ada", "family_name": "Lovelace", "institution": "Analytical Engines"},
    {"given_name": "Alan", "family_name": "", "institution": null}
  ]
}`

const mockAbstractPage = `<!doctype html>
<html>
<head>
<meta name="citation_title" content="Modern %[1]s">
<meta name="citation_author" content="Lovelace, Ada">
<meta name="citation_author" content="Turing, Alan">
<meta name="citation_author" content="Hopper, Grace">
<meta name="citation_pdf_url" content="https://example.com/%[1]s-Paper.pdf">
<meta name="viewport" content="width=device-width">
</head>
<body>
<div class="container-fluid">
<div class="col">
  <h4>Modern %[1]s</h4>
  <p>Lovelace, Ada, Turing, Alan, Hopper, Grace</p>
  <h4>Abstract</h4>
  <p>We study %[1]s.</p>
</div>
</div>
</body>
</html>
`

// site serves index pages, metadata documents and abstract pages and counts
// requests per path.
type site struct {
	mu       sync.Mutex
	requests map[string]int
	// status overrides the status for a path.
	status map[string]int
	// body overrides the body for a path.
	body map[string]string
}

func newSite() *site {
	return &site{
		requests: make(map[string]int),
		status:   make(map[string]int),
		body:     make(map[string]string),
	}
}

func (s *site) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *site) total() (n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.requests {
		n += v
	}
	return n
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	status, hasStatus := s.status[r.URL.Path]
	body, hasBody := s.body[r.URL.Path]
	s.mu.Unlock()
	if hasStatus {
		w.WriteHeader(status)
		return
	}
	if hasBody {
		io.WriteString(w, body)
		return
	}
	var year int
	var hash string
	switch {
	case strings.HasPrefix(r.URL.Path, "/paper_files/paper/"):
		if _, err := fmt.Sscanf(r.URL.Path, "/paper_files/paper/%d/hash/", &year); err != nil {
			http.NotFound(w, r)
			return
		}
		hash = strings.TrimSuffix(filepath.Base(r.URL.Path), "-Abstract.html")
		fmt.Fprintf(w, mockAbstractPage, hash)
	case strings.Contains(r.URL.Path, "/file/"):
		hash = strings.TrimSuffix(filepath.Base(r.URL.Path), "-Metadata.json")
		fmt.Fprintf(w, mockMetadata, len(hash), hash, hash)
	default:
		if _, err := fmt.Sscanf(r.URL.Path, "/paper/%d", &year); err != nil {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, mockIndex, year)
	}
}

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestHarvester(t *testing.T, s *site) *Harvester {
	t.Helper()
	server := httptest.NewServer(s)
	t.Cleanup(server.Close)
	f := fetch.New("test-agent")
	f.Logger = nullLogger()
	return &Harvester{
		Fetcher:       f,
		LegacyBaseURL: server.URL + "/paper",
		ModernBaseURL: server.URL + "/paper_files/paper",
		Logger:        nullLogger(),
	}
}

func TestHashFromLink(t *testing.T) {
	var cases = []struct {
		link   string
		result string
	}{
		{"https://papers.nips.cc/paper/2019/file/abc123-Paper.pdf", "abc123"},
		{"/paper/2019/hash/abc123-Abstract.html", "abc123"},
		{"/paper_files/paper/2022/hash/002262941c9e-Abstract-Conference.html", "002262941c9e"},
		{"/paper/1234-learning-to-learn", "1234"},
		{"abc123", "abc123"},
		{"/paper/2019/", ""},
	}
	for _, c := range cases {
		if got := HashFromLink(c.link); got != c.result {
			t.Errorf("%s: got %q, want %q", c.link, got, c.result)
		}
	}
}

func TestParseHashes(t *testing.T) {
	hashes, err := ParseHashes([]byte(fmt.Sprintf(mockIndex, 2019)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"aaa111", "bbb222"}
	if !reflect.DeepEqual(hashes, want) {
		t.Fatalf("got %v, want %v", hashes, want)
	}
	if _, err := ParseHashes([]byte("<html><body><ul><li>x</li></ul></body></html>")); !errors.Is(err, ErrNoContainer) {
		t.Fatalf("got %v, want %v", err, ErrNoContainer)
	}
}

func TestDiscover(t *testing.T) {
	s := newSite()
	s.status["/paper/1990"] = http.StatusNotFound
	h := newTestHarvester(t, s)
	hashes, err := h.Discover(context.Background(), 2019)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("got %d hashes, want 2", len(hashes))
	}
	_, err = h.Discover(context.Background(), 1990)
	var de *DiscoveryError
	if !errors.As(err, &de) || de.StatusCode != http.StatusNotFound {
		t.Fatalf("got %v, want discovery error with 404", err)
	}
}

func TestDiscoverIndexCache(t *testing.T) {
	s := newSite()
	h := newTestHarvester(t, s)
	cache, err := NewIndexCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	h.IndexCache = cache
	for i := 0; i < 3; i++ {
		if _, err := h.Discover(context.Background(), 2019); err != nil {
			t.Fatalf("discover: %v", err)
		}
	}
	if n := s.count("/paper/2019"); n != 1 {
		t.Fatalf("got %d index requests, want 1", n)
	}
}

func TestExtractLegacy(t *testing.T) {
	h := newTestHarvester(t, newSite())
	entry, err := h.Extract(context.Background(), 2019, "aaa111")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	p, ok := entry.Paper.(*paper.LegacyPaper)
	if !ok {
		t.Fatalf("got %T, want legacy paper", entry.Paper)
	}
	if p.SourceID != "6" || p.Year != "2019" || p.Title != "Paper aaa111" {
		t.Fatalf("unexpected paper: %+v", p)
	}
	if p.Abstract.Valid {
		t.Fatalf("empty abstract must be absent, got %v", p.Abstract)
	}
	if p.FullText != "Full text of aaa111" {
		t.Fatalf("got full text %q", p.FullText)
	}
	if len(entry.Authors) != 2 {
		t.Fatalf("got %d authors, want 2", len(entry.Authors))
	}
	second := entry.Authors[1].(*paper.LegacyAuthor)
	if second.SourceID != "6" || !second.FirstName.Valid || second.LastName.Valid || second.Institution.Valid {
		t.Fatalf("unexpected author: %+v", second)
	}
}

func TestExtractModern(t *testing.T) {
	h := newTestHarvester(t, newSite())
	entry, err := h.Extract(context.Background(), 2020, "ccc333")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	p, ok := entry.Paper.(*paper.ModernPaper)
	if !ok {
		t.Fatalf("got %T, want modern paper", entry.Paper)
	}
	if p.Year != 2020 || p.Title.String != "Modern ccc333" {
		t.Fatalf("unexpected paper: %+v", p)
	}
	if p.PDFURL.String != "https://example.com/ccc333-Paper.pdf" {
		t.Fatalf("got pdf url %v", p.PDFURL)
	}
	for _, s := range []string{"Modern ccc333", "Hopper, Grace", "We study ccc333."} {
		if !strings.Contains(p.Abstract, s) {
			t.Fatalf("abstract %q does not contain %q", p.Abstract, s)
		}
	}
	var names []string
	for _, a := range entry.Authors {
		names = append(names, a.(*paper.ModernAuthor).Name)
	}
	want := []string{"Lovelace, Ada", "Turing, Alan", "Hopper, Grace"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestParseModernMissingTags(t *testing.T) {
	entry, err := ParseModern(2021, "x", []byte(`<html><body><div class="col">Only text</div></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	p := entry.Paper.(*paper.ModernPaper)
	if p.Title.Valid || p.PDFURL.Valid {
		t.Fatalf("title and pdf url must be absent: %+v", p)
	}
	if p.Abstract != "Only text" {
		t.Fatalf("got %q, want Only text", p.Abstract)
	}
	if len(entry.Authors) != 0 {
		t.Fatalf("got %d authors, want 0", len(entry.Authors))
	}
}

func TestRun(t *testing.T) {
	s := newSite()
	h := newTestHarvester(t, s)
	var c paper.Collector
	if err := h.Run(context.Background(), []int{2019, 2020}, &c); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(c.Papers()) != 4 {
		t.Fatalf("got %d papers, want 4", len(c.Papers()))
	}
	if len(c.Authors()) != 2*2+2*3 {
		t.Fatalf("got %d authors, want 10", len(c.Authors()))
	}
	var schemas []paper.Schema
	for _, p := range c.Papers() {
		schemas = append(schemas, p.Schema())
	}
	want := []paper.Schema{paper.Legacy, paper.Legacy, paper.Modern, paper.Modern}
	if !reflect.DeepEqual(schemas, want) {
		t.Fatalf("got %v, want %v", schemas, want)
	}
}

func TestRunStatusSkipsRestOfYear(t *testing.T) {
	s := newSite()
	s.status["/paper/2018/file/aaa111-Metadata.json"] = http.StatusInternalServerError
	s.status["/paper/2017"] = http.StatusBadGateway
	h := newTestHarvester(t, s)
	var c paper.Collector
	if err := h.Run(context.Background(), []int{2017, 2018, 2019}, &c); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := s.count("/paper/2018/file/bbb222-Metadata.json"); n != 0 {
		t.Fatalf("got %d requests for rest of year, want 0", n)
	}
	if len(c.Papers()) != 2 {
		t.Fatalf("got %d papers, want 2 from 2019", len(c.Papers()))
	}
}

func TestRunNotFoundIsFatal(t *testing.T) {
	s := newSite()
	s.body["/paper_files/paper/2020/hash/aaa111-Abstract.html"] = fetch.NotFoundSentinel
	h := newTestHarvester(t, s)
	var c paper.Collector
	err := h.Run(context.Background(), []int{2020, 2021}, &c)
	if !errors.Is(err, fetch.ErrResourceNotFound) {
		t.Fatalf("got %v, want %v", err, fetch.ErrResourceNotFound)
	}
	if n := s.count("/paper/2021"); n != 0 {
		t.Fatalf("run continued after fatal error")
	}
}

func TestRunResume(t *testing.T) {
	dir := t.TempDir()
	s := newSite()
	h := newTestHarvester(t, s)
	p := persist.New(dir, true)
	p.Logger = nullLogger()
	h.Persister = p
	if err := h.Run(context.Background(), []int{2019, 2020}, &paper.Collector{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"2019/aaa111.csv", "2019/bbb222.csv", "2020/aaa111.csv", "2020/bbb222.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing per paper file: %v", err)
		}
	}
	before := s.total()
	var c paper.Collector
	if err := h.Run(context.Background(), []int{2019, 2020}, &c); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Only the two index pages are requested again.
	if got := s.total() - before; got != 2 {
		t.Fatalf("got %d requests on second run, want 2", got)
	}
	if len(c.Papers()) != 0 {
		t.Fatalf("got %d papers on second run, want 0", len(c.Papers()))
	}
}
