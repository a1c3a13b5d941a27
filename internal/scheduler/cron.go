package scheduler

import (
	"context"
	"fmt"

	"github.com/avollmer/mediarr/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages the periodic relation discovery sweep
type Scheduler struct {
	cron          *cron.Cron
	discoveryCtrl *controllers.DiscoveryController
	schedule      string
	logger        *logrus.Logger
}

// NewScheduler creates a new scheduler. schedule is a standard cron
// expression for the discovery sweep.
func NewScheduler(discoveryCtrl *controllers.DiscoveryController, schedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		discoveryCtrl: discoveryCtrl,
		schedule:      schedule,
		logger:        logger,
	}
}

// Start starts the scheduler and runs an initial sweep immediately
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runDiscovery()
	})
	if err != nil {
		return fmt.Errorf("failed to add discovery job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("Scheduler started")

	go s.runDiscovery()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runDiscovery executes one full relation sweep
func (s *Scheduler) runDiscovery() {
	s.logger.Info("Running scheduled relation discovery")
	ctx := context.Background()

	if err := s.discoveryCtrl.DiscoverAll(ctx); err != nil {
		s.logger.WithError(err).Error("Relation discovery failed")
	} else {
		s.logger.Info("Relation discovery completed successfully")
	}
}
