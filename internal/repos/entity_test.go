package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

func seqUUID(i int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-0000000000%02x", i))
}

func TestListByProjectStreamsEveryEntity(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntityRepo(db, logger.NewNop())
	projectID := seqUUID(0xff)

	// Labels run opposite to the id primary key so a paging cursor tied to
	// anything but the primary key loses rows across batches.
	const total = 12
	now := time.Now().UTC()
	for i := 0; i < total; i++ {
		if err := db.Create(&types.Entity{
			ID:        seqUUID(i + 1),
			ItemType:  types.ItemSubjects,
			DataType:  types.DataTypeID,
			ProjectID: projectID,
			ContextID: projectID,
			Label:     fmt.Sprintf("Unit %02d", total-i),
			Published: now,
			Revised:   now,
		}).Error; err != nil {
			t.Fatalf("seed entity %d: %v", i, err)
		}
	}

	seen := map[uuid.UUID]int{}
	streamed := 0
	err := repo.ListByProject(context.Background(), nil, projectID, 5, func(batch []*types.Entity) error {
		for _, row := range batch {
			seen[row.ID]++
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
			t.Fatalf("entity %s streamed %d times", id, n)
		}
	}
}
