package feeds

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// ErrNoContainer is returned for index pages without a listing.
var ErrNoContainer = errors.New("no listing container found")

// listingSelector finds the primary listing on a year index page.
const listingSelector = "div.container-fluid"

// HashFromLink derives the paper hash from a listing link, e.g.
// "/paper/2019/hash/abc123-Abstract.html" yields "abc123".
func HashFromLink(link string) string {
	segment := link[strings.LastIndex(link, "/")+1:]
	if i := strings.Index(segment, "-"); i >= 0 {
		return segment[:i]
	}
	return segment
}

// ParseHashes extracts the paper hashes from an index page, in page order.
func ParseHashes(b []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	container := doc.Find(listingSelector).First()
	if container.Length() == 0 {
		return nil, ErrNoContainer
	}
	var hashes []string
	container.Find("li").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return
		}
		if hash := HashFromLink(href); hash != "" {
			hashes = append(hashes, hash)
		}
	})
	return hashes, nil
}

// Discover lists the paper hashes of a year.
func (h *Harvester) Discover(ctx context.Context, year int) ([]string, error) {
	link := h.YearURL(year)
	b, err := h.fetchIndex(ctx, year, link)
	if err != nil {
		return nil, err
	}
	hashes, err := ParseHashes(b)
	if err != nil {
		return nil, &DiscoveryError{Year: year, URL: link, Err: err}
	}
	h.logger().WithFields(logrus.Fields{
		"year":   year,
		"hashes": len(hashes),
	}).Info("discovered papers")
	return hashes, nil
}

// fetchIndex returns the index page, from cache, if possible.
func (h *Harvester) fetchIndex(ctx context.Context, year int, link string) ([]byte, error) {
	if h.IndexCache != nil {
		b, err := h.IndexCache.Get(year)
		if err != nil {
			return nil, err
		}
		if b != nil {
			h.logger().WithField("year", year).Debug("using cached index page")
			return b, nil
		}
	}
	resp, err := h.Fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, &DiscoveryError{Year: year, URL: link, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &DiscoveryError{Year: year, URL: link, StatusCode: resp.StatusCode}
	}
	if h.IndexCache != nil {
		if err := h.IndexCache.Put(year, resp.Body); err != nil {
			return nil, err
		}
	}
	return resp.Body, nil
}
