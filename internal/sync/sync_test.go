package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

var testDBCounter int

func newSyncDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:sync_test_%d?mode=memory&cache=shared", testDBCounter)
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
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedSource(t *testing.T, src *gorm.DB, projectID uuid.UUID) (uuid.UUID, uuid.UUID) {
	t.Helper()
	entityID := uuid.MustParse("30000000-0000-0000-0000-000000000001")
	assertionID := uuid.MustParse("30000000-0000-0000-0000-000000000002")

	project := &types.Entity{
		ID:        projectID,
		ItemType:  types.ItemProjects,
		DataType:  types.DataTypeID,
		ProjectID: projectID,
		Label:     "Test Excavation",
		Published: time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	subject := &types.Entity{
		ID:        entityID,
		ItemType:  types.ItemSubjects,
		DataType:  types.DataTypeID,
		ProjectID: projectID,
		ContextID: projectID,
		Label:     "Trench 5",
	}
	if err := src.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if err := src.Create(subject).Error; err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	if err := src.Create(&types.Identifier{
		ID:         uuid.MustParse("30000000-0000-0000-0000-000000000003"),
		EntityID:   entityID,
		Scheme:     types.SchemeLegacy,
		Identifier: "sub-1",
	}).Error; err != nil {
		t.Fatalf("seed identifier: %v", err)
	}
	if err := src.Create(&types.SpaceTime{
		ID:        uuid.MustParse("30000000-0000-0000-0000-000000000004"),
		EntityID:  entityID,
		ProjectID: projectID,
		FeatureID: 1,
		Latitude:  floatPtr(37.44),
		Longitude: floatPtr(27.92),
	}).Error; err != nil {
		t.Fatalf("seed spacetime: %v", err)
	}
	str := "charcoal lens"
	if err := src.Create(&types.Assertion{
		ID:            assertionID,
		ProjectID:     projectID,
		SubjectID:     entityID,
		PredicateID:   uuid.MustParse("30000000-0000-0000-0000-000000000005"),
		ObservationID: uuid.MustParse("30000000-0000-0000-0000-000000000006"),
		Visible:       true,
		StrContent:    &str,
		Created:       time.Now().UTC(),
	}).Error; err != nil {
		t.Fatalf("seed assertion: %v", err)
	}
	return entityID, assertionID
}

func floatPtr(v float64) *float64 { return &v }

func TestSyncProjectInsertOnly(t *testing.T) {
	src := newSyncDB(t)
	dst := newSyncDB(t)
	projectID := uuid.MustParse("30000000-0000-0000-0000-000000000099")
	entityID, _ := seedSource(t, src, projectID)

	s := NewSynchronizer(src, dst, logger.NewNop(), 10)
	result, err := s.SyncProject(context.Background(), projectID, InsertOnly)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("sync reported failures: %v", result.Failed)
	}
	if result.PerKind["entities"] == nil || result.PerKind["entities"].Synced != 2 {
		t.Fatalf("expected two entities synced, got %+v", result.PerKind["entities"])
	}

	var entity types.Entity
	if err := dst.Where("id = ?", entityID).First(&entity).Error; err != nil {
		t.Fatalf("destination entity missing: %v", err)
	}
	if entity.Label != "Trench 5" {
		t.Fatalf("label mismatch: %q", entity.Label)
	}
	var assertions, idents, spacetime int64
	dst.Model(&types.Assertion{}).Count(&assertions)
	dst.Model(&types.Identifier{}).Count(&idents)
	dst.Model(&types.SpaceTime{}).Count(&spacetime)
	if assertions != 1 || idents != 1 || spacetime != 1 {
		t.Fatalf("attachment counts wrong: assertions=%d idents=%d spacetime=%d", assertions, idents, spacetime)
	}
}

func TestSyncProjectInsertOnlyDoesNotOverwrite(t *testing.T) {
	src := newSyncDB(t)
	dst := newSyncDB(t)
	projectID := uuid.MustParse("30000000-0000-0000-0000-000000000099")
	entityID, _ := seedSource(t, src, projectID)

	s := NewSynchronizer(src, dst, logger.NewNop(), 10)
	if _, err := s.SyncProject(context.Background(), projectID, InsertOnly); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Edit the source row, re-sync insert-only: the destination keeps its copy.
	if err := src.Model(&types.Entity{}).Where("id = ?", entityID).Update("label", "Trench 5 (revised)").Error; err != nil {
		t.Fatalf("edit source: %v", err)
	}
	if _, err := s.SyncProject(context.Background(), projectID, InsertOnly); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	var entity types.Entity
	if err := dst.Where("id = ?", entityID).First(&entity).Error; err != nil {
		t.Fatalf("destination entity missing: %v", err)
	}
	if entity.Label != "Trench 5" {
		t.Fatalf("insert-only overwrote the destination: %q", entity.Label)
	}
}

func TestSyncProjectUpsertOverwrites(t *testing.T) {
	src := newSyncDB(t)
	dst := newSyncDB(t)
	projectID := uuid.MustParse("30000000-0000-0000-0000-000000000099")
	entityID, assertionID := seedSource(t, src, projectID)

	s := NewSynchronizer(src, dst, logger.NewNop(), 10)
	if _, err := s.SyncProject(context.Background(), projectID, InsertOnly); err != nil {
		t.Fatalf("seed sync: %v", err)
	}

	if err := src.Model(&types.Entity{}).Where("id = ?", entityID).Update("label", "Trench 5 (revised)").Error; err != nil {
		t.Fatalf("edit source entity: %v", err)
	}
	if err := src.Model(&types.Assertion{}).Where("id = ?", assertionID).Update("visible", false).Error; err != nil {
		t.Fatalf("edit source assertion: %v", err)
	}
	result, err := s.SyncProject(context.Background(), projectID, UpsertWithFallback)
	if err != nil {
		t.Fatalf("upsert sync: %v", err)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("upsert reported failures: %v", result.Failed)
	}

	var entity types.Entity
	if err := dst.Where("id = ?", entityID).First(&entity).Error; err != nil {
		t.Fatalf("destination entity missing: %v", err)
	}
	if entity.Label != "Trench 5 (revised)" {
		t.Fatalf("upsert did not carry the edit: %q", entity.Label)
	}
	var assertion types.Assertion
	if err := dst.Where("id = ?", assertionID).First(&assertion).Error; err != nil {
		t.Fatalf("destination assertion missing: %v", err)
	}
	if assertion.Visible {
		t.Fatal("upsert did not carry the visibility edit")
	}
}

func TestSyncProjectRequiresDestination(t *testing.T) {
	src := newSyncDB(t)
	s := &Synchronizer{src: src, log: logger.NewNop()}
	if _, err := s.SyncProject(context.Background(), uuid.New(), InsertOnly); err == nil {
		t.Fatal("nil destination must abort the run")
	}
}
