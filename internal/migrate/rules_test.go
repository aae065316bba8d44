package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

func TestLoadRulesOverlay(t *testing.T) {
	body := `
predicate_data_types:
  pred-1: xsd:integer
subject_parents:
  afghanistan-uuid: asia-uuid
type_predicates:
  type-1: pred-1
media_classes:
  oc-gen:image: oc-gen:gis-vector-file
file_role_ranks:
  oc-gen:fullfile: 3
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rules.PredicateDataTypes["pred-1"] != types.DataTypeInteger {
		t.Fatalf("predicate override missing: %v", rules.PredicateDataTypes)
	}
	if rules.SubjectParents["afghanistan-uuid"] != "asia-uuid" {
		t.Fatalf("subject parent override missing: %v", rules.SubjectParents)
	}
	if rules.TypePredicates["type-1"] != "pred-1" {
		t.Fatalf("type predicate override missing: %v", rules.TypePredicates)
	}
	// Overlay replaces a default entry but leaves the others alone.
	if rules.MediaClasses["oc-gen:image"] != MediaClassGIS {
		t.Fatalf("media class override missing: %v", rules.MediaClasses)
	}
	if rules.MediaClasses["oc-gen:document"] != MediaClassDocument {
		t.Fatalf("default media class lost: %v", rules.MediaClasses)
	}
	if rules.FileRoleRanks[types.LegacyFileFull] != 3 {
		t.Fatalf("file role rank override missing: %v", rules.FileRoleRanks)
	}
	if rules.FileRoleRanks[types.LegacyFileArchive] != 1 {
		t.Fatalf("default file role rank lost: %v", rules.FileRoleRanks)
	}
}

func TestLoadRulesEmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rules.MediaClasses["oc-gen:image"] != MediaClassImage {
		t.Fatalf("defaults missing: %v", rules.MediaClasses)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}

func TestNormalizeDataTypeAliases(t *testing.T) {
	cases := map[string]string{
		"xsd:string": types.DataTypeString,
		"string":     types.DataTypeString,
		"int":        types.DataTypeInteger,
		"decimal":    types.DataTypeDouble,
		"datetime":   types.DataTypeDate,
		"subjects":   types.DataTypeID,
		"":           types.DataTypeID,
	}
	for raw, want := range cases {
		if got := normalizeDataType(raw); got != want {
			t.Fatalf("normalizeDataType(%q) = %q, want %q", raw, got, want)
		}
	}
}
