package feeds

import (
	"context"
	"errors"

	"github.com/miku/nipsharvest/fetch"
	"github.com/miku/nipsharvest/paper"
	"github.com/sirupsen/logrus"
)

// Stats counts what happened in a year.
type Stats struct {
	Hashes    int
	Harvested int
	Skipped   int
}

// HarvestYear lists the hashes of a year and extracts each paper, unless the
// persister has it already. Extracted entries are added to the collector and
// persisted immediately. A StatusError or ParseError ends the year early and
// is returned together with the stats so far.
func (h *Harvester) HarvestYear(ctx context.Context, year int, c *paper.Collector) (Stats, error) {
	var stats Stats
	hashes, err := h.Discover(ctx, year)
	if err != nil {
		return stats, err
	}
	stats.Hashes = len(hashes)
	log := h.logger().WithFields(logrus.Fields{
		"year":   year,
		"schema": paper.SelectSchema(year),
	})
	for i, hash := range hashes {
		if h.Persister != nil && h.Persister.Skip(year, hash) {
			stats.Skipped++
			continue
		}
		log.WithFields(logrus.Fields{
			"hash":     hash,
			"progress": i + 1,
			"total":    len(hashes),
		}).Debug("extracting paper")
		entry, err := h.Extract(ctx, year, hash)
		if err != nil {
			return stats, err
		}
		c.Add(entry)
		stats.Harvested++
		if h.Persister != nil {
			if err := h.Persister.Save(entry); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// Run harvests all given years in order. A year that cannot be listed, or
// that has a broken paper page, is skipped. A resource not found response is
// fatal and ends the run.
func (h *Harvester) Run(ctx context.Context, years []int, c *paper.Collector) error {
	for _, year := range years {
		log := h.logger().WithField("year", year)
		log.Info("harvesting year")
		stats, err := h.HarvestYear(ctx, year, c)
		log = log.WithFields(logrus.Fields{
			"hashes":    stats.Hashes,
			"harvested": stats.Harvested,
			"skipped":   stats.Skipped,
		})
		var (
			de *DiscoveryError
			se *StatusError
			pe *ParseError
		)
		switch {
		case err == nil:
			log.Info("year done")
		case errors.Is(err, fetch.ErrResourceNotFound),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return err
		case errors.As(err, &de):
			log.Warnf("couldn't complete the request, skipping year: %v", err)
		case errors.Is(err, fetch.ErrGaveUp):
			log.Warnf("%v, skipping rest of year", err)
		case errors.As(err, &se):
			log.WithField("hash", se.Hash).Warnf("%v, skipping rest of year", err)
		case errors.As(err, &pe):
			log.WithField("hash", pe.Hash).Warnf("%v, skipping rest of year", err)
		default:
			return err
		}
	}
	return nil
}
