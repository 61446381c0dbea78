// Package export writes collected papers and authors to tables.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/miku/nipsharvest/atomicfile"
	"github.com/miku/nipsharvest/paper"
	"github.com/sirupsen/logrus"
)

// ErrNoData is returned, if there is nothing to save.
var ErrNoData = errors.New("no papers or no authors collected")

// Exporter writes the final tables of a run.
type Exporter struct {
	PapersFile  string
	AuthorsFile string
	// Compression is "", "gzip" or "zstd".
	Compression string
	// DatabaseFile is optional.
	DatabaseFile string
	Logger       logrus.FieldLogger
}

func (e *Exporter) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

// Filename appends the file extension for a compression.
func Filename(name, compression string) string {
	switch compression {
	case "gzip":
		return name + ".gz"
	case "zstd":
		return name + ".zst"
	default:
		return name
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, compression string) (io.WriteCloser, error) {
	switch compression {
	case "":
		return nopWriteCloser{w}, nil
	case "gzip":
		return pgzip.NewWriter(w), nil
	case "zstd":
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unknown compression: %s", compression)
	}
}

// WriteFile atomically writes a file, compressed if requested.
func WriteFile(name, compression string, f func(w io.Writer) error) error {
	file, err := atomicfile.New(name)
	if err != nil {
		return err
	}
	w, err := compressWriter(file, compression)
	if err != nil {
		_ = file.Abort()
		return err
	}
	if err := f(w); err != nil {
		_ = w.Close()
		_ = file.Abort()
		return err
	}
	if err := w.Close(); err != nil {
		_ = file.Abort()
		return err
	}
	return file.Close()
}

// Export writes one table for papers and one for authors, if at least one of
// each was collected. Otherwise it returns ErrNoData and writes nothing.
func (e *Exporter) Export(ctx context.Context, papers []paper.Paper, authors []paper.Author) error {
	if len(papers) == 0 || len(authors) == 0 {
		return ErrNoData
	}
	var (
		papersFile  = Filename(e.PapersFile, e.Compression)
		authorsFile = Filename(e.AuthorsFile, e.Compression)
	)
	if err := WriteFile(papersFile, e.Compression, func(w io.Writer) error {
		return WritePapers(w, papers)
	}); err != nil {
		return fmt.Errorf("export papers: %w", err)
	}
	e.logger().WithField("rows", len(papers)).Infof("successfully saved %s", papersFile)
	if err := WriteFile(authorsFile, e.Compression, func(w io.Writer) error {
		return WriteAuthors(w, authors)
	}); err != nil {
		return fmt.Errorf("export authors: %w", err)
	}
	e.logger().WithField("rows", len(authors)).Infof("successfully saved %s", authorsFile)
	if e.DatabaseFile != "" {
		if err := WriteDatabase(ctx, e.DatabaseFile, papers, authors); err != nil {
			return fmt.Errorf("export database: %w", err)
		}
		e.logger().Infof("successfully saved %s", e.DatabaseFile)
	}
	return nil
}
