// Package migrate runs gorm auto-migration over the persistence models.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vetiver-net/vetiver/internal/infrastructure/config"
	"github.com/vetiver-net/vetiver/internal/infrastructure/database"
	"github.com/vetiver-net/vetiver/internal/infrastructure/migration"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply the database schema by auto-migrating the persistence models.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log.Infow("running migrations", "environment", env, "driver", cfg.Database.Driver)

	if err := database.Get().AutoMigrate(migration.AutoMigrateModels()...); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}
