// Package persist writes each extracted paper to its own file right away,
// so an interrupted run loses at most the paper in flight.
package persist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/miku/nipsharvest/export"
	"github.com/miku/nipsharvest/paper"
	"github.com/sirupsen/logrus"
)

// Persister writes papers to Dir/<year>/<hash>.csv. With an empty Dir all
// operations are no-ops.
type Persister struct {
	Dir string
	// SkipExisting reports papers with an existing file as done, so they are
	// not fetched again.
	SkipExisting bool
	Logger       logrus.FieldLogger

	created map[int]bool
}

// New returns a persister.
func New(dir string, skipExisting bool) *Persister {
	return &Persister{Dir: dir, SkipExisting: skipExisting}
}

func (p *Persister) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}

// Enabled is true, if an output directory is configured.
func (p *Persister) Enabled() bool {
	return p != nil && p.Dir != ""
}

// YearDir returns the directory for a year.
func (p *Persister) YearDir(year int) string {
	return filepath.Join(p.Dir, strconv.Itoa(year))
}

// Filename returns the file for a single paper.
func (p *Persister) Filename(year int, hash string) string {
	return filepath.Join(p.YearDir(year), hash+".csv")
}

// ensureYearDir creates the year directory once per year.
func (p *Persister) ensureYearDir(year int) error {
	if p.created[year] {
		return nil
	}
	dir := p.YearDir(year)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		p.logger().Infof("mkdir %s", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if p.created == nil {
		p.created = make(map[int]bool)
	}
	p.created[year] = true
	return nil
}

// Skip reports whether a paper has been saved before and need not be
// fetched.
func (p *Persister) Skip(year int, hash string) bool {
	if !p.Enabled() || !p.SkipExisting {
		return false
	}
	_, err := os.Stat(p.Filename(year, hash))
	return err == nil
}

// Save writes the paper of an entry as a single row table.
func (p *Persister) Save(e *paper.Entry) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.ensureYearDir(e.Year); err != nil {
		return err
	}
	filename := p.Filename(e.Year, e.Hash)
	if err := export.WriteFile(filename, "", func(w io.Writer) error {
		return export.WritePapers(w, []paper.Paper{e.Paper})
	}); err != nil {
		return fmt.Errorf("persist %s: %w", filename, err)
	}
	return nil
}
