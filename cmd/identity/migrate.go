package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/identity-service/internal/infrastructure/config"
	mongostore "github.com/99minutos/identity-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/identity-service/internal/infrastructure/db/postgres"
	"github.com/99minutos/identity-service/pkg/logger"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|version]",
		Short: "Prepare the configured user store",
		Long: `Apply (up), roll back (down) or report (version) the PostgreSQL schema.
With STORAGE_DRIVER=mongo, "up" creates the users collection indexes.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, err := config.Process(cmd.Context())
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction(), Service: "identity-service"})

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return migratePostgres(cfg, direction, log)

	case config.DriverMongo:
		if direction != "up" {
			return fmt.Errorf("migrate %s is not supported for mongo", direction)
		}
		client, db, err := connectMongo(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(cmd.Context()) }()

		if err := mongostore.NewUserRepository(db).EnsureIndexes(cmd.Context()); err != nil {
			return err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo indexes ensured")
		return nil

	case config.DriverMemory:
		log.Info().Msg("memory store has no schema; nothing to migrate")
		return nil

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func migratePostgres(cfg *config.Config, direction string, log zerolog.Logger) error {
	m, err := postgres.NewMigrator(cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("closing migrator")
		}
	}()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		return errors.New("postgres schema is dirty; fix the failed migration and force the version")
	}
	log.Info().Str("direction", direction).Uint("version", version).Msg("postgres schema ready")
	return nil
}
