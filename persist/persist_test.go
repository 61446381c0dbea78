package persist

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/miku/nipsharvest/paper"
	"github.com/sirupsen/logrus/hooks/test"
)

func newPersister(dir string, skip bool) *Persister {
	logger, _ := test.NewNullLogger()
	p := New(dir, skip)
	p.Logger = logger
	return p
}

func TestDisabled(t *testing.T) {
	p := newPersister("", true)
	if p.Enabled() {
		t.Fatalf("persister without dir must be disabled")
	}
	if p.Skip(2019, "abc") {
		t.Fatalf("disabled persister must not skip")
	}
	if err := p.Save(&paper.Entry{Year: 2019, Hash: "abc", Paper: &paper.ModernPaper{}}); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}

func TestSaveAndSkip(t *testing.T) {
	dir := t.TempDir()
	p := newPersister(dir, true)
	if p.Skip(2020, "abc") {
		t.Fatalf("must not skip before save")
	}
	entry := &paper.Entry{
		Year: 2020,
		Hash: "abc",
		Paper: &paper.ModernPaper{
			Year:     2020,
			Title:    paper.NullString("T"),
			Abstract: "A",
		},
	}
	if err := p.Save(entry); err != nil {
		t.Fatalf("save: %v", err)
	}
	filename := filepath.Join(dir, "2020", "abc.csv")
	if p.Filename(2020, "abc") != filename {
		t.Fatalf("got %s, want %s", p.Filename(2020, "abc"), filename)
	}
	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header and one row", len(records))
	}
	if records[1][2] != "T" {
		t.Fatalf("got title %q, want T", records[1][2])
	}
	if !p.Skip(2020, "abc") {
		t.Fatalf("must skip after save")
	}
	if newPersister(dir, false).Skip(2020, "abc") {
		t.Fatalf("must not skip without skip existing")
	}
}

func TestSaveCreatesYearDirOnce(t *testing.T) {
	dir := t.TempDir()
	p := newPersister(dir, false)
	for _, hash := range []string{"a", "b"} {
		if err := p.Save(&paper.Entry{Year: 1999, Hash: hash, Paper: &paper.LegacyPaper{}}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, "1999"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d files, want 2", len(entries))
	}
	if !p.created[1999] {
		t.Fatalf("year dir not recorded")
	}
}
