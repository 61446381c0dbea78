package feeds

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/miku/nipsharvest/paper"
)

// contentSelector is the block we take the abstract from. It contains the
// rendered title and author list as well; we keep the text as published.
const contentSelector = "div.col"

// ExtractModern fetches and parses the HTML abstract page of a paper.
func (h *Harvester) ExtractModern(ctx context.Context, year int, hash string) (*paper.Entry, error) {
	link := h.ModernURL(year, hash)
	resp, err := h.Fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Year: year, Hash: hash, URL: link, StatusCode: resp.StatusCode}
	}
	entry, err := ParseModern(year, hash, resp.Body)
	if err != nil {
		return nil, &ParseError{Year: year, Hash: hash, URL: link, Err: err}
	}
	return entry, nil
}

// ParseModern reads the citation meta tags and the content block of an
// abstract page. Title and PDF link stay absent, if there is no such tag;
// every citation_author tag yields an author.
func ParseModern(year int, hash string, b []byte) (*paper.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var (
		p     = &paper.ModernPaper{Year: year}
		entry = &paper.Entry{Year: year, Hash: hash, Paper: p}
	)
	doc.Find("meta[name]").Each(func(i int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		switch s.AttrOr("name", "") {
		case "citation_title":
			p.Title = paper.NullString(content)
		case "citation_author":
			entry.Authors = append(entry.Authors, &paper.ModernAuthor{Name: content})
		case "citation_pdf_url":
			p.PDFURL = paper.NullString(content)
		}
	})
	p.Abstract = strings.TrimSpace(doc.Find(contentSelector).First().Text())
	return entry, nil
}
