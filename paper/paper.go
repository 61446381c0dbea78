// Package paper holds the records we extract: papers and their authors, in
// one of two shapes, depending on the publishing format of the year.
package paper

import (
	"database/sql"
	"fmt"
)

// ModernSinceYear is the first year published as HTML pages with citation
// meta tags; earlier years come with JSON metadata documents.
const ModernSinceYear = 2020

// Schema is the extraction schema of a record.
type Schema int

const (
	Legacy Schema = iota + 1
	Modern
)

func (s Schema) String() string {
	switch s {
	case Legacy:
		return "legacy"
	case Modern:
		return "modern"
	default:
		return fmt.Sprintf("Schema(%d)", int(s))
	}
}

// SelectSchema routes a year to its extraction schema.
func SelectSchema(year int) Schema {
	if year < ModernSinceYear {
		return Legacy
	}
	return Modern
}

// Paper is either a *LegacyPaper or a *ModernPaper.
type Paper interface {
	Schema() Schema
	isPaper()
}

// Author is either a *LegacyAuthor or a *ModernAuthor.
type Author interface {
	Schema() Schema
	isAuthor()
}

// LegacyPaper is extracted from a JSON metadata document.
type LegacyPaper struct {
	SourceID string
	// Year is the label from the index page path, e.g. "2019".
	Year     string
	Title    string
	Abstract sql.NullString
	FullText string
}

func (*LegacyPaper) Schema() Schema { return Legacy }
func (*LegacyPaper) isPaper()       {}

// ModernPaper is extracted from an HTML abstract page. Abstract contains the
// whole content block of the page, which includes title and author names.
type ModernPaper struct {
	Year     int
	Title    sql.NullString
	Abstract string
	PDFURL   sql.NullString
}

func (*ModernPaper) Schema() Schema { return Modern }
func (*ModernPaper) isPaper()       {}

// LegacyAuthor links to its paper through SourceID.
type LegacyAuthor struct {
	SourceID    string
	FirstName   sql.NullString
	LastName    sql.NullString
	Institution sql.NullString
}

func (*LegacyAuthor) Schema() Schema { return Legacy }
func (*LegacyAuthor) isAuthor()      {}

// ModernAuthor only has a name; the page format does not allow to link it to
// a paper, except by the order of extraction.
type ModernAuthor struct {
	Name string
}

func (*ModernAuthor) Schema() Schema { return Modern }
func (*ModernAuthor) isAuthor()      {}

// Entry is a single extracted paper together with its authors.
type Entry struct {
	Year    int
	Hash    string
	Paper   Paper
	Authors []Author
}

// NullString returns an invalid (absent) value for the empty string.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Collector accumulates all papers and authors of a run, in the order they
// are added. It is owned by the caller of a run and append only.
type Collector struct {
	papers  []Paper
	authors []Author
}

// Add appends an entry.
func (c *Collector) Add(e *Entry) {
	c.papers = append(c.papers, e.Paper)
	c.authors = append(c.authors, e.Authors...)
}

// Papers returns all papers collected so far.
func (c *Collector) Papers() []Paper { return c.papers }

// Authors returns all authors collected so far.
func (c *Collector) Authors() []Author { return c.authors }
