package migrate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

func TestDuplicateSubjectsCollapse(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	ctx := context.Background()

	if err := engine.EnsureRoots(ctx); err != nil {
		t.Fatalf("ensure roots: %v", err)
	}
	seedProject(t, db, "proj-1", "Test Excavation")
	// Same label, project and context under two different legacy ids.
	seedSubject(t, db, "dup-a", "Trench 5", "proj-1")
	seedSubject(t, db, "dup-b", "Trench 5", "proj-1")

	first, err := engine.Resolve(ctx, "dup-a")
	if err != nil {
		t.Fatalf("resolve dup-a: %v", err)
	}
	second, err := engine.Resolve(ctx, "dup-b")
	if err != nil {
		t.Fatalf("resolve dup-b: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("content-identical subjects must collapse: %s vs %s", first.ID, second.ID)
	}

	var n int64
	if err := db.Model(&types.Entity{}).Where("item_type = ? AND label = ?", types.ItemSubjects, "Trench 5").Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one surviving row, got %d", n)
	}

	var survivor types.Entity
	if err := db.Where("id = ?", first.ID).First(&survivor).Error; err != nil {
		t.Fatalf("load survivor: %v", err)
	}
	meta := map[string]interface{}{}
	if err := json.Unmarshal(survivor.Meta, &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	raw, ok := meta[types.MetaDuplicateIDs].([]interface{})
	if !ok {
		t.Fatalf("survivor missing duplicate id list: %v", meta)
	}
	got := map[string]bool{}
	for _, id := range raw {
		got[id.(string)] = true
	}
	if !got["dup-a"] || !got["dup-b"] {
		t.Fatalf("duplicate id list must carry both legacy ids, got %v", raw)
	}
}

func TestDistinctSubjectsDoNotCollapse(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	ctx := context.Background()

	if err := engine.EnsureRoots(ctx); err != nil {
		t.Fatalf("ensure roots: %v", err)
	}
	seedProject(t, db, "proj-1", "Test Excavation")
	seedSubject(t, db, "s-1", "Trench 5", "proj-1")
	seedSubject(t, db, "s-2", "Trench 6", "proj-1")

	first, err := engine.Resolve(ctx, "s-1")
	if err != nil {
		t.Fatalf("resolve s-1: %v", err)
	}
	second, err := engine.Resolve(ctx, "s-2")
	if err != nil {
		t.Fatalf("resolve s-2: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("different labels must not collapse")
	}
}

func TestNormalizeStableID(t *testing.T) {
	scheme, value := normalizeStableID("doi", "https://doi.org/10.6078/M7Z60KZ7")
	if scheme != types.SchemeDOI || value != "10.6078/M7Z60KZ7" {
		t.Fatalf("doi prefix not trimmed: %s %s", scheme, value)
	}
	scheme, value = normalizeStableID("ark", "ark:/28722/k2rn30g1v")
	if scheme != types.SchemeARK || value != "28722/k2rn30g1v" {
		t.Fatalf("ark prefix not trimmed: %s %s", scheme, value)
	}
	scheme, value = normalizeStableID("orcid", "https://orcid.org/0000-0002-1825-0097")
	if scheme != types.SchemeORCID || value != "0000-0002-1825-0097" {
		t.Fatalf("orcid prefix not trimmed: %s %s", scheme, value)
	}
}
