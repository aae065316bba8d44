package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
	"github.com/ekansa/opencontext-migrate/internal/utils"
)

type PostgresService struct {
	db   *gorm.DB
	name string
	log  *logger.Logger
}

// NewPostgresService opens one of the two stores. envPrefix selects the
// connection: "" reads POSTGRES_*, "PROD_" reads PROD_POSTGRES_*, so the
// default and prod databases can be configured side by side.
func NewPostgresService(log *logger.Logger, name, envPrefix string) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService", "db", name)

	host := utils.GetEnv(envPrefix+"POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv(envPrefix+"POSTGRES_PORT", "5432", log)
	user := utils.GetEnv(envPrefix+"POSTGRES_USER", "postgres", log)
	password := utils.GetEnv(envPrefix+"POSTGRES_PASSWORD", "", log)
	dbName := utils.GetEnv(envPrefix+"POSTGRES_NAME", "opencontext", log)
	sslMode := "disable"
	if utils.GetEnvAsBool(envPrefix+"POSTGRES_SSL", false, log) {
		sslMode = "require"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbName, sslMode)

	serviceLog.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres %q: %w", name, err)
	}

	return &PostgresService{db: gormDB, name: name, log: serviceLog}, nil
}

// AutoMigrateUnified creates/updates the unified target tables. The legacy
// tables are never touched; they are read-only source data.
func (s *PostgresService) AutoMigrateUnified() error {
	s.log.Info("Auto migrating unified tables...")
	err := s.db.AutoMigrate(
		&types.Entity{},
		&types.Assertion{},
		&types.Identifier{},
		&types.SpaceTime{},
		&types.Resource{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for unified tables", "error", err)
		return err
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) Name() string {
	return s.name
}
