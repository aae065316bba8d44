package migrate

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ekansa/opencontext-migrate/internal/cache"
	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/repos"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

var testDBCounter int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:migrate_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&types.Entity{},
		&types.Assertion{},
		&types.Identifier{},
		&types.SpaceTime{},
		&types.Resource{},
		&types.LegacyManifest{},
		&types.LegacyProject{},
		&types.LegacyPredicate{},
		&types.LegacyOCType{},
		&types.LegacyOCString{},
		&types.LegacyAssertion{},
		&types.LegacyPerson{},
		&types.LegacyDocument{},
		&types.LegacyMediaFile{},
		&types.LegacyGeospace{},
		&types.LegacyEvent{},
		&types.LegacyContainment{},
		&types.LegacyStableIdentifier{},
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()
	log := logger.NewNop()
	return NewEngine(
		log,
		cache.NewMemory(),
		DefaultRules(),
		repos.NewLegacyRepo(db, log),
		repos.NewEntityRepo(db, log),
		repos.NewAssertionRepo(db, log),
		repos.NewIdentifierRepo(db, log),
		repos.NewSpaceTimeRepo(db, log),
		repos.NewResourceRepo(db, log),
	)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func seedManifest(t *testing.T, db *gorm.DB, uuid, label, itemType, projectUUID string) {
	t.Helper()
	mustCreate(t, db, &types.LegacyManifest{
		UUID:        uuid,
		Label:       label,
		ItemType:    itemType,
		ProjectUUID: projectUUID,
		SourceID:    "ref:1",
		Published:   time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC),
		Revised:     time.Date(2012, 3, 15, 0, 0, 0, 0, time.UTC),
	})
}

// seedProject seeds a self-parented (top-level) legacy project.
func seedProject(t *testing.T, db *gorm.DB, uuid, label string) {
	t.Helper()
	seedManifest(t, db, uuid, label, types.ItemProjects, uuid)
	mustCreate(t, db, &types.LegacyProject{
		UUID:        uuid,
		ProjectUUID: uuid,
		Label:       label,
		ShortDes:    "test project",
	})
}

func seedPredicate(t *testing.T, db *gorm.DB, uuid, label, projectUUID, dataType string) {
	t.Helper()
	seedManifest(t, db, uuid, label, types.ItemPredicates, projectUUID)
	mustCreate(t, db, &types.LegacyPredicate{
		UUID:        uuid,
		ProjectUUID: projectUUID,
		DataType:    dataType,
	})
}

func seedSubject(t *testing.T, db *gorm.DB, uuid, label, projectUUID string) {
	t.Helper()
	seedManifest(t, db, uuid, label, types.ItemSubjects, projectUUID)
}

func floatPtr(v float64) *float64 { return &v }
