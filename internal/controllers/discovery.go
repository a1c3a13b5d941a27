package controllers

import (
	"context"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/avollmer/mediarr/internal/services/relations"
	"github.com/sirupsen/logrus"
)

// DiscoveryController sweeps the catalog and refreshes automatic relations
// for every item that carries an embedding
type DiscoveryController struct {
	db     *models.Database
	engine *relations.Engine
	logger *logrus.Logger
}

// NewDiscoveryController creates a new discovery controller
func NewDiscoveryController(db *models.Database, engine *relations.Engine, logger *logrus.Logger) *DiscoveryController {
	return &DiscoveryController{
		db:     db,
		engine: engine,
		logger: logger,
	}
}

// DiscoverAll refreshes embedding-similarity relations for every item with a
// stored vector. Per-item failures are logged and skipped so one bad item
// cannot stall the sweep.
func (c *DiscoveryController) DiscoverAll(ctx context.Context) error {
	items, err := c.db.GetItemsWithEmbeddings()
	if err != nil {
		return err
	}

	if len(items) == 0 {
		c.logger.Debug("No items with embeddings to process")
		return nil
	}

	c.logger.WithField("count", len(items)).Info("Refreshing relations for embedded items")

	refreshed := 0
	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rels, err := c.engine.Discover(item.ID, 0, 0)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"item_id": item.ID,
				"title":   item.Title,
			}).Error("Failed to refresh relations")
			continue
		}
		refreshed++
		c.logger.WithFields(logrus.Fields{
			"item_id":   item.ID,
			"relations": len(rels),
		}).Debug("Refreshed relations")
	}

	c.logger.WithFields(logrus.Fields{
		"items":     len(items),
		"refreshed": refreshed,
	}).Info("Relation sweep completed")
	return nil
}
