package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ekansa/opencontext-migrate/internal/db"
	"github.com/ekansa/opencontext-migrate/internal/logger"
	syncer "github.com/ekansa/opencontext-migrate/internal/sync"
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

	projectRaw := utils.GetEnv("SYNC_PROJECT_UUID", "", log)
	projectID, err := uuid.Parse(projectRaw)
	if err != nil {
		log.Fatal("SYNC_PROJECT_UUID must be a valid uuid", "value", projectRaw, "error", err)
	}

	policy := syncer.InsertOnly
	if utils.GetEnv("SYNC_POLICY", "insert", log) == "upsert" {
		policy = syncer.UpsertWithFallback
	}

	defaultService, err := db.NewPostgresService(log, "default", "")
	if err != nil {
		log.Fatal("Default Postgres init failed", "error", err)
	}
	prodService, err := db.NewPostgresService(log, "prod", "PROD_")
	if err != nil {
		log.Fatal("Prod Postgres init failed", "error", err)
	}

	src, dst := defaultService.DB(), prodService.DB()
	if utils.GetEnv("SYNC_DIRECTION", "default-to-prod", log) == "prod-to-default" {
		src, dst = dst, src
	}

	s := syncer.NewSynchronizer(src, dst, log, utils.GetEnvAsInt("SYNC_BATCH_SIZE", 500, log))
	result, err := s.SyncProject(context.Background(), projectID, policy)
	if err != nil {
		log.Fatal("Sync failed", "error", err)
	}
	if len(result.Failed) > 0 {
		log.Warn("Sync completed with failures", "failed", len(result.Failed))
	}
}
