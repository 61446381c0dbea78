package feeds

import (
	"context"
	"net/http"

	"github.com/miku/nipsharvest/paper"
	"github.com/miku/nipsharvest/schema/neurips"
	"github.com/segmentio/encoding/json"
)

// ExtractLegacy fetches and parses the JSON metadata document of a paper.
func (h *Harvester) ExtractLegacy(ctx context.Context, year int, hash string) (*paper.Entry, error) {
	link := h.LegacyURL(year, hash)
	resp, err := h.Fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Year: year, Hash: hash, URL: link, StatusCode: resp.StatusCode}
	}
	var md neurips.Metadata
	if err := json.Unmarshal(resp.Body, &md); err != nil {
		return nil, &ParseError{Year: year, Hash: hash, URL: link, Err: err}
	}
	return legacyEntry(year, hash, h.yearLabel(year), &md), nil
}

// legacyEntry maps a metadata document; empty values become absent, except
// for the full text, which is kept as is.
func legacyEntry(year int, hash, label string, md *neurips.Metadata) *paper.Entry {
	sourceID := string(md.SourceID)
	entry := &paper.Entry{
		Year: year,
		Hash: hash,
		Paper: &paper.LegacyPaper{
			SourceID: sourceID,
			Year:     label,
			Title:    md.Title,
			Abstract: paper.NullString(md.Abstract),
			FullText: md.FullText,
		},
	}
	for _, a := range md.Authors {
		entry.Authors = append(entry.Authors, &paper.LegacyAuthor{
			SourceID:    sourceID,
			FirstName:   paper.NullString(a.GivenName),
			LastName:    paper.NullString(a.FamilyName),
			Institution: paper.NullString(a.Institution),
		})
	}
	return entry
}
