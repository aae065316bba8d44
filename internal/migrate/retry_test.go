package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

func TestRetryFileRoundTrip(t *testing.T) {
	when := time.Date(2011, 7, 4, 12, 30, 0, 0, time.UTC)
	records := []*types.LegacyAssertion{
		{
			HashID:        "h-1",
			UUID:          "sub-1",
			PredicateUUID: "pred-1",
			ObjectType:    types.LegacyObjectDouble,
			DataNum:       floatPtr(1.45),
		},
		{
			HashID:        "h-2",
			UUID:          "sub-2",
			PredicateUUID: "pred-2",
			ObjectType:    types.LegacyObjectDate,
			DataDate:      &when,
		},
		{
			HashID:        "h-3",
			UUID:          "sub-2",
			PredicateUUID: "pred-3",
			ObjectType:    "subjects",
			ObjectUUID:    "sub-1",
		},
	}

	path := filepath.Join(t.TempDir(), "failed.csv")
	if err := WriteRetryFile(path, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := ReadRetryFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(loaded))
	}
	for i, got := range loaded {
		want := records[i]
		if got.HashID != want.HashID || got.UUID != want.UUID ||
			got.PredicateUUID != want.PredicateUUID ||
			got.ObjectType != want.ObjectType || got.ObjectUUID != want.ObjectUUID {
			t.Fatalf("record %d mismatch: %+v vs %+v", i, got, want)
		}
	}
	if loaded[0].DataNum == nil || *loaded[0].DataNum != 1.45 {
		t.Fatalf("data_num lost: %+v", loaded[0])
	}
	if loaded[1].DataDate == nil || !loaded[1].DataDate.Equal(when) {
		t.Fatalf("data_date lost: %+v", loaded[1])
	}
	if loaded[2].DataNum != nil || loaded[2].DataDate != nil {
		t.Fatalf("empty payload columns must stay nil: %+v", loaded[2])
	}
	for i, got := range loaded {
		if got.Visibility != 1 {
			t.Fatalf("record %d must reload visible, got %d", i, got.Visibility)
		}
	}
}

func TestReadRetryFileRejectsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	body := "hash_id,uuid,predicate_uuid,object_type,object_uuid,data_num,data_date\n" +
		"h-1,sub-1,pred-1,xsd:double,,not-a-number,\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadRetryFile(path); err == nil {
		t.Fatal("expected parse error for bad data_num")
	}
}

func TestReplayAssertionsAfterFix(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedProject(t, db, "proj-1", "Test Excavation")
	seedPredicate(t, db, "pred-str", "Notes", "proj-1", types.DataTypeString)
	seedSubject(t, db, "sub-1", "Trench 5", "proj-1")
	failing := &types.LegacyAssertion{
		HashID:        "a-1",
		UUID:          "sub-1",
		ProjectUUID:   "proj-1",
		SourceID:      "ref:1",
		ObsNum:        1,
		Visibility:    1,
		PredicateUUID: "pred-str",
		ObjectType:    types.LegacyObjectString,
		ObjectUUID:    "str-missing",
	}
	mustCreate(t, db, failing)

	engine := newTestEngine(t, db)
	if err := engine.EnsureRoots(ctx); err != nil {
		t.Fatalf("ensure roots: %v", err)
	}
	if _, err := engine.TranslateAssertion(ctx, failing); err == nil {
		t.Fatal("assertion with missing string object should fail")
	}

	path := filepath.Join(t.TempDir(), "failed.csv")
	if err := WriteRetryFile(path, []*types.LegacyAssertion{failing}); err != nil {
		t.Fatalf("export: %v", err)
	}

	// Backfill the missing string row, then replay from file.
	mustCreate(t, db, &types.LegacyOCString{UUID: "str-missing", ProjectUUID: "proj-1", Content: "charcoal lens"})
	loaded, err := ReadRetryFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	result, err := engine.ReplayAssertions(ctx, loaded)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	stage := result.Stages[StageAssertions]
	if stage == nil || stage.Migrated != 1 || stage.Errored != 0 {
		t.Fatalf("replay should migrate the fixed record, got %+v", stage)
	}
	if len(result.FailedAssertions) != 0 {
		t.Fatalf("nothing should remain failed: %+v", result.FailedAssertions)
	}

	var replayed []types.Assertion
	if err := db.Where("str_content = ?", "charcoal lens").Find(&replayed).Error; err != nil {
		t.Fatalf("load replayed: %v", err)
	}
	if len(replayed) != 1 {
		t.Fatalf("expected one replayed assertion, got %d", len(replayed))
	}
	if !replayed[0].Visible {
		t.Fatal("replayed assertion must stay visible")
	}
}
