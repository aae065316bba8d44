package repos

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

var testDBCounter int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:repos_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&types.Entity{},
		&types.Assertion{},
		&types.LegacyAssertion{},
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestListAssertionsStreamsEveryRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewLegacyRepo(db, logger.NewNop())

	// The natural subject ordering runs opposite to the hash_id primary key,
	// so a paging cursor tied to anything but the primary key loses rows once
	// the scope spans more than one batch.
	const total = 10
	for i := 0; i < total; i++ {
		if err := db.Create(&types.LegacyAssertion{
			HashID:        fmt.Sprintf("h-%02d", i),
			UUID:          fmt.Sprintf("sub-%02d", total-i),
			ProjectUUID:   "proj-1",
			ObsNum:        1,
			Sort:          float64(total - i),
			Visibility:    1,
			PredicateUUID: "pred-1",
			ObjectType:    types.LegacyObjectDouble,
		}).Error; err != nil {
			t.Fatalf("seed row %d: %v", i, err)
		}
	}

	seen := map[string]int{}
	streamed := 0
	err := repo.ListAssertions(context.Background(), nil, LegacyScope{ProjectUUID: "proj-1"}, 3, func(batch []*types.LegacyAssertion) error {
		for _, row := range batch {
			seen[row.HashID]++
			streamed++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if streamed != total || len(seen) != total {
		t.Fatalf("streamed %d rows, %d distinct, want %d of each", streamed, len(seen), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("row %s streamed %d times", id, n)
		}
	}
}
