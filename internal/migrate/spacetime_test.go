package migrate

import (
	"context"
	"testing"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

func TestChronologyBoundsSortAscending(t *testing.T) {
	record := &types.SpaceTime{}
	applyChronology(record, &types.LegacyEvent{
		WhenType: "oc-gen:formation-use-life",
		Start:    floatPtr(250),
		Stop:     floatPtr(100),
		Earliest: floatPtr(300),
		Latest:   floatPtr(50),
	})

	if *record.Earliest != 50 || *record.Start != 100 || *record.Stop != 250 || *record.Latest != 300 {
		t.Fatalf("bounds not sorted: earliest=%v start=%v stop=%v latest=%v",
			*record.Earliest, *record.Start, *record.Stop, *record.Latest)
	}
}

func TestChronologyPartialBounds(t *testing.T) {
	record := &types.SpaceTime{}
	applyChronology(record, &types.LegacyEvent{Start: floatPtr(900), Stop: floatPtr(400)})

	if *record.Earliest != 400 || *record.Latest != 900 {
		t.Fatalf("two bounds must span the interval, got earliest=%v latest=%v", *record.Earliest, *record.Latest)
	}
	if *record.Start != 400 || *record.Stop != 900 {
		t.Fatalf("unexpected inner bounds start=%v stop=%v", *record.Start, *record.Stop)
	}
}

func TestSpaceTimeCrossProduct(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	ctx := context.Background()

	if err := engine.EnsureRoots(ctx); err != nil {
		t.Fatalf("ensure roots: %v", err)
	}
	seedProject(t, db, "proj-1", "Test Excavation")
	seedSubject(t, db, "subj-1", "Trench 5", "proj-1")

	lat, lon := 37.97, 23.72
	mustCreate(t, db, &types.LegacyGeospace{
		HashID: "g1", UUID: "subj-1", FType: "Point", Latitude: &lat, Longitude: &lon,
	})
	mustCreate(t, db, &types.LegacyGeospace{
		HashID: "g2", UUID: "subj-1", FType: "Polygon",
		Coordinates: `[[[0,0],[0,1],[1,1],[1,0],[0,0]]]`,
	})
	for _, hash := range []string{"e1", "e2", "e3"} {
		mustCreate(t, db, &types.LegacyEvent{
			HashID: hash, UUID: "subj-1", WhenType: "oc-gen:formation-use-life",
			Start: floatPtr(100), Stop: floatPtr(200),
		})
	}

	written, err := engine.CoalesceSpaceTime(ctx, "subj-1")
	if err != nil {
		t.Fatalf("coalesce: %v", err)
	}
	if written != 6 {
		t.Fatalf("2 geometries x 3 events must yield 6 rows, got %d", written)
	}

	var rows []*types.SpaceTime
	if err := db.Where("entity_id = ?", DeriveID("subj-1")).Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	seen := map[int]bool{}
	for _, row := range rows {
		if seen[row.FeatureID] {
			t.Fatalf("feature id %d assigned twice", row.FeatureID)
		}
		seen[row.FeatureID] = true
	}
}

func TestSpaceTimeGeometryOnly(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	ctx := context.Background()

	if err := engine.EnsureRoots(ctx); err != nil {
		t.Fatalf("ensure roots: %v", err)
	}
	seedProject(t, db, "proj-1", "Test Excavation")
	seedSubject(t, db, "subj-1", "Trench 5", "proj-1")

	lat, lon := 40.1, 29.0
	mustCreate(t, db, &types.LegacyGeospace{
		HashID: "g1", UUID: "subj-1", FType: "Point", Latitude: &lat, Longitude: &lon,
	})

	written, err := engine.CoalesceSpaceTime(ctx, "subj-1")
	if err != nil {
		t.Fatalf("coalesce: %v", err)
	}
	if written != 1 {
		t.Fatalf("one geometry and no chronology must yield one row, got %d", written)
	}

	var row types.SpaceTime
	if err := db.Where("entity_id = ?", DeriveID("subj-1")).First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.Latitude == nil || *row.Latitude != 40.1 {
		t.Fatalf("point latitude lost: %+v", row.Latitude)
	}
	if row.Earliest != nil {
		t.Fatal("chronology placeholder must leave bounds empty")
	}
}

func TestSpaceTimeRerunAddsNothing(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	ctx := context.Background()

	if err := engine.EnsureRoots(ctx); err != nil {
		t.Fatalf("ensure roots: %v", err)
	}
	seedProject(t, db, "proj-1", "Test Excavation")
	seedSubject(t, db, "subj-1", "Trench 5", "proj-1")
	lat, lon := 40.1, 29.0
	mustCreate(t, db, &types.LegacyGeospace{
		HashID: "g1", UUID: "subj-1", FType: "Point", Latitude: &lat, Longitude: &lon,
	})
	mustCreate(t, db, &types.LegacyEvent{
		HashID: "e1", UUID: "subj-1", Start: floatPtr(100), Stop: floatPtr(200),
	})

	if _, err := engine.CoalesceSpaceTime(ctx, "subj-1"); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// A fresh engine simulates a killed-and-restarted batch.
	second := newTestEngine(t, db)
	written, err := second.CoalesceSpaceTime(ctx, "subj-1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if written != 0 {
		t.Fatalf("re-run must be a no-op, wrote %d rows", written)
	}
}

func TestNormalizeRingOrder(t *testing.T) {
	// Clockwise outer ring gets reversed to counter-clockwise.
	rings := [][][]float64{
		{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}},
	}
	normalized := normalizeRingOrder(rings)
	if signedArea(normalized[0]) <= 0 {
		t.Fatal("outer ring must wind counter-clockwise after normalization")
	}
}
