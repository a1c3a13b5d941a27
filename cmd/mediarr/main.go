package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avollmer/mediarr/internal/config"
	"github.com/avollmer/mediarr/internal/controllers"
	"github.com/avollmer/mediarr/internal/models"
	"github.com/avollmer/mediarr/internal/scheduler"
	"github.com/avollmer/mediarr/internal/services/catalog"
	"github.com/avollmer/mediarr/internal/services/embeddings"
	"github.com/avollmer/mediarr/internal/services/notes"
	"github.com/avollmer/mediarr/internal/services/relations"
	"github.com/avollmer/mediarr/internal/services/vocabulary"
	"github.com/avollmer/mediarr/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app bundles the wired services for the CLI commands
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	db         *models.Database
	vocab      *vocabulary.Service
	catalog    *catalog.Service
	embeddings *embeddings.Store
	relations  *relations.Engine
	notes      *notes.Service
}

// newApp loads configuration and wires every service
func newApp() (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 4. Initialize services
	vocab := vocabulary.NewService(db, cfg.TagCacheTTL, logger)
	cat := catalog.NewService(db, vocab, logger)
	store := embeddings.NewStore(db, cfg.EmbeddingModels, logger)
	engine := relations.NewEngine(db, store, cfg.DiscoveryK, cfg.DiscoveryMinSimilarity, logger)
	noteSvc := notes.NewService(db, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		vocab:      vocab,
		catalog:    cat,
		embeddings: store,
		relations:  engine,
		notes:      noteSvc,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database")
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "mediarr",
		Short:         "Personal media catalog with tag vocabularies and similarity discovery",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(embedCmd())
	rootCmd.AddCommand(similarCmd())
	rootCmd.AddCommand(relateCmd())
	rootCmd.AddCommand(unrelateCmd())
	rootCmd.AddCommand(relationsCmd())
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(mixlistCmd())
	rootCmd.AddCommand(noteCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// daemonCmd runs the background relation discovery scheduler until a
// shutdown signal arrives
func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the periodic relation discovery sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.logger.Info("Starting mediarr daemon")

			discoveryCtrl := controllers.NewDiscoveryController(a.db, a.relations, a.logger)
			sched := scheduler.NewScheduler(discoveryCtrl, a.cfg.DiscoveryCron, a.logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			a.logger.Info("mediarr daemon is running")
			sig := <-sigChan
			a.logger.WithField("signal", sig).Info("Received shutdown signal")

			a.logger.Info("mediarr daemon stopped")
			return nil
		},
	}
}
