package export

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/miku/nipsharvest/paper"
)

// Legacy and modern records do not share all fields. Tables use the union of
// the fields and leave the cells a schema does not populate empty.
var (
	PaperColumns  = []string{"source_id", "year", "title", "abstract", "full_text", "pdf_url"}
	AuthorColumns = []string{"source_id", "first_name", "last_name", "institution", "name"}
)

func value(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

// PaperValues returns the column values of a paper, in PaperColumns order;
// absent fields are invalid.
func PaperValues(p paper.Paper) ([]sql.NullString, error) {
	switch p := p.(type) {
	case *paper.LegacyPaper:
		return []sql.NullString{
			paper.NullString(p.SourceID),
			paper.NullString(p.Year),
			{String: p.Title, Valid: true},
			p.Abstract,
			{String: p.FullText, Valid: true},
			{},
		}, nil
	case *paper.ModernPaper:
		return []sql.NullString{
			{},
			{String: strconv.Itoa(p.Year), Valid: true},
			p.Title,
			{String: p.Abstract, Valid: true},
			{},
			p.PDFURL,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported paper type %T", p)
	}
}

// AuthorValues returns the column values of an author, in AuthorColumns
// order.
func AuthorValues(a paper.Author) ([]sql.NullString, error) {
	switch a := a.(type) {
	case *paper.LegacyAuthor:
		return []sql.NullString{
			paper.NullString(a.SourceID),
			a.FirstName,
			a.LastName,
			a.Institution,
			{},
		}, nil
	case *paper.ModernAuthor:
		return []sql.NullString{{}, {}, {}, {}, {String: a.Name, Valid: true}}, nil
	default:
		return nil, fmt.Errorf("unsupported author type %T", a)
	}
}

func record(vs []sql.NullString) []string {
	result := make([]string, len(vs))
	for i, v := range vs {
		result[i] = value(v)
	}
	return result
}

// WritePapers writes a header and one row per paper.
func WritePapers(w io.Writer, papers []paper.Paper) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PaperColumns); err != nil {
		return err
	}
	for _, p := range papers {
		vs, err := PaperValues(p)
		if err != nil {
			return err
		}
		if err := cw.Write(record(vs)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAuthors writes a header and one row per author.
func WriteAuthors(w io.Writer, authors []paper.Author) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AuthorColumns); err != nil {
		return err
	}
	for _, a := range authors {
		vs, err := AuthorValues(a)
		if err != nil {
			return err
		}
		if err := cw.Write(record(vs)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
