package migrate

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// Unified resource-type vocabulary ids, one per legacy file role.
var (
	ResourceTypeFull    = uuid.MustParse("20000000-0000-0000-0000-000000000001")
	ResourceTypePreview = uuid.MustParse("20000000-0000-0000-0000-000000000002")
	ResourceTypeThumb   = uuid.MustParse("20000000-0000-0000-0000-000000000003")
	ResourceTypeArchive = uuid.MustParse("20000000-0000-0000-0000-000000000004")
	ResourceTypeIA      = uuid.MustParse("20000000-0000-0000-0000-000000000005")
	ResourceTypeHero    = uuid.MustParse("20000000-0000-0000-0000-000000000006")
)

// Media classes assigned when no explicit class mapping applies.
const (
	MediaClassImage    = "oc-gen:image"
	MediaClassDocument = "oc-gen:document"
	MediaClassGIS      = "oc-gen:gis-vector-file"
	MediaClassOther    = "oc-gen:media-other"
)

var fileRoleResourceTypes = map[string]uuid.UUID{
	types.LegacyFileFull:       ResourceTypeFull,
	types.LegacyFilePreview:    ResourceTypePreview,
	types.LegacyFileThumb:      ResourceTypeThumb,
	types.LegacyFileArchive:    ResourceTypeArchive,
	types.LegacyFileIA:         ResourceTypeIA,
	types.LegacyFileHeroBanner: ResourceTypeHero,
}

// Rules are the hand-curated override tables the migration consults before
// falling back to legacy data. Compiled-in defaults can be overlaid from a
// YAML file.
type Rules struct {
	// PredicateDataTypes overrides a legacy predicate's declared data type,
	// keyed by legacy predicate id.
	PredicateDataTypes map[string]string `yaml:"predicate_data_types"`
	// SubjectParents seeds known spatial roots, keyed by legacy subject id
	// with the parent's legacy id as value ("Afghanistan" -> "Asia").
	SubjectParents map[string]string `yaml:"subject_parents"`
	// TypePredicates maps a legacy type id to its owning predicate's legacy
	// id when the type row itself does not record one.
	TypePredicates map[string]string `yaml:"type_predicates"`
	// MediaClasses maps a legacy class uri to a unified media class.
	MediaClasses map[string]string `yaml:"media_classes"`
	// FileRoleRanks adjusts resource rank per legacy file role.
	FileRoleRanks map[string]int `yaml:"file_role_ranks"`
}

func DefaultRules() *Rules {
	return &Rules{
		PredicateDataTypes: map[string]string{},
		SubjectParents:     map[string]string{},
		TypePredicates:     map[string]string{},
		MediaClasses: map[string]string{
			"oc-gen:image":    MediaClassImage,
			"oc-gen:document": MediaClassDocument,
			"oc-gen:gis-file": MediaClassGIS,
		},
		FileRoleRanks: map[string]int{
			types.LegacyFileArchive: 1,
			types.LegacyFileIA:      1,
		},
	}
}

// LoadRules reads a YAML rules file over the defaults. An empty path returns
// the defaults untouched.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var overlay Rules
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	for k, v := range overlay.PredicateDataTypes {
		rules.PredicateDataTypes[k] = v
	}
	for k, v := range overlay.SubjectParents {
		rules.SubjectParents[k] = v
	}
	for k, v := range overlay.TypePredicates {
		rules.TypePredicates[k] = v
	}
	for k, v := range overlay.MediaClasses {
		rules.MediaClasses[k] = v
	}
	for k, v := range overlay.FileRoleRanks {
		rules.FileRoleRanks[k] = v
	}
	return rules, nil
}

// ResourceTypeForRole maps a legacy file role to its unified resource type.
func ResourceTypeForRole(role string) (uuid.UUID, bool) {
	rt, ok := fileRoleResourceTypes[strings.TrimSpace(role)]
	return rt, ok
}

// normalizeObjectType coerces a legacy object-type tag into the canonical
// set. Legacy data is not type-clean; anything outside the literal set is an
// entity reference.
func normalizeObjectType(raw string) string {
	switch strings.TrimSpace(raw) {
	case types.LegacyObjectString:
		return types.DataTypeString
	case types.LegacyObjectInteger:
		return types.DataTypeInteger
	case types.LegacyObjectDouble:
		return types.DataTypeDouble
	case types.LegacyObjectBoolean:
		return types.DataTypeBoolean
	case types.LegacyObjectDate:
		return types.DataTypeDate
	default:
		return types.DataTypeID
	}
}

// normalizeDataType maps a legacy predicate's declared data type onto the
// unified set, defaulting to entity-reference for unknown declarations.
func normalizeDataType(raw string) string {
	switch strings.TrimSpace(raw) {
	case types.DataTypeString, "string":
		return types.DataTypeString
	case types.DataTypeInteger, "integer", "int":
		return types.DataTypeInteger
	case types.DataTypeDouble, "double", "float", "decimal":
		return types.DataTypeDouble
	case types.DataTypeBoolean, "boolean", "bool":
		return types.DataTypeBoolean
	case types.DataTypeDate, "date", "datetime":
		return types.DataTypeDate
	default:
		return types.DataTypeID
	}
}
