package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ekansa/opencontext-migrate/internal/cache"
	"github.com/ekansa/opencontext-migrate/internal/db"
	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/migrate"
	"github.com/ekansa/opencontext-migrate/internal/repos"
	"github.com/ekansa/opencontext-migrate/internal/types"
	"github.com/ekansa/opencontext-migrate/internal/utils"
)

func main() {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Scope
	projectUUID := utils.GetEnv("MIGRATE_PROJECT_UUID", "", log)
	var modifiedAfter *time.Time
	if raw := utils.GetEnv("MIGRATE_MODIFIED_AFTER", "", log); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Fatal("MIGRATE_MODIFIED_AFTER must be RFC3339", "value", raw, "error", err)
		}
		modifiedAfter = &parsed
	}

	rules, err := migrate.LoadRules(utils.GetEnv("MIGRATE_RULES_FILE", "", log))
	if err != nil {
		log.Fatal("Failed to load migration rules", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log, "default", "")
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateUnified(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Cache
	var memo cache.Cache
	if utils.GetEnv("CACHE_BACKEND", "memory", log) == "redis" {
		memo, err = cache.NewRedis(log, "migrate:"+time.Now().UTC().Format("20060102T150405"))
		if err != nil {
			log.Fatal("Redis cache init failed", "error", err)
		}
	} else {
		memo = cache.NewMemory()
	}

	// Repos + engine
	log.Info("Setting up repos...")
	legacyRepo := repos.NewLegacyRepo(thePG, log)
	entityRepo := repos.NewEntityRepo(thePG, log)
	assertionRepo := repos.NewAssertionRepo(thePG, log)
	identifierRepo := repos.NewIdentifierRepo(thePG, log)
	spaceTimeRepo := repos.NewSpaceTimeRepo(thePG, log)
	resourceRepo := repos.NewResourceRepo(thePG, log)

	engine := migrate.NewEngine(log, memo, rules,
		legacyRepo, entityRepo, assertionRepo, identifierRepo, spaceTimeRepo, resourceRepo)

	ctx := context.Background()

	// Replay path: a saved retry file substitutes for the legacy query.
	if retryIn := utils.GetEnv("MIGRATE_RETRY_IN", "", log); retryIn != "" {
		records, err := migrate.ReadRetryFile(retryIn)
		if err != nil {
			log.Fatal("Failed to read retry file", "path", retryIn, "error", err)
		}
		log.Info("Replaying assertions from retry file", "path", retryIn, "count", len(records))
		result, err := engine.ReplayAssertions(ctx, records)
		if err != nil {
			log.Fatal("Replay failed", "error", err)
		}
		writeRetryOut(log, result)
		return
	}

	opts := migrate.Options{
		ProjectUUID:   projectUUID,
		ModifiedAfter: modifiedAfter,
		BatchSize:     utils.GetEnvAsInt("MIGRATE_BATCH_SIZE", 500, log),
	}
	result, err := engine.RunBatch(ctx, opts)
	if err != nil {
		log.Fatal("Migration batch failed", "error", err)
	}
	writeRetryOut(log, result)

	for _, itemType := range []string{
		types.ItemProjects, types.ItemPredicates, types.ItemTypes, types.ItemPersons,
		types.ItemDocuments, types.ItemMedia, types.ItemSubjects, types.ItemObservations,
	} {
		n, err := entityRepo.CountByItemType(ctx, nil, itemType)
		if err != nil {
			log.Error("Failed to count unified entities", "item_type", itemType, "error", err)
			continue
		}
		log.Info("Unified entity count", "item_type", itemType, "count", n)
	}
}

func writeRetryOut(log *logger.Logger, result *migrate.Result) {
	if len(result.FailedAssertions) == 0 {
		return
	}
	path := utils.GetEnv("MIGRATE_RETRY_OUT", "failed_assertions.csv", log)
	if err := migrate.WriteRetryFile(path, result.FailedAssertions); err != nil {
		log.Error("Failed to write retry file", "path", path, "error", err)
		return
	}
	log.Info("Wrote retry file", "path", path, "count", len(result.FailedAssertions))
}
