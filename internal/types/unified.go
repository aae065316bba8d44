package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Item types for the unified manifest. Closed set; the migration batch
// processes them in this dependency order.
const (
	ItemProjects     = "projects"
	ItemPredicates   = "predicates"
	ItemTypes        = "types"
	ItemPersons      = "persons"
	ItemDocuments    = "documents"
	ItemMedia        = "media"
	ItemSubjects     = "subjects"
	ItemObservations = "observations"
)

// Data types a predicate may declare. "id" means the object is a reference
// to another entity; the xsd types are literals.
const (
	DataTypeID      = "id"
	DataTypeString  = "xsd:string"
	DataTypeBoolean = "xsd:boolean"
	DataTypeInteger = "xsd:integer"
	DataTypeDouble  = "xsd:double"
	DataTypeDate    = "xsd:date"
)

// Identifier schemes recognized by the unified schema.
const (
	SchemeLegacy = "legacy-oc"
	SchemeORCID  = "orcid"
	SchemeDOI    = "doi"
	SchemeARK    = "ark"
)

// Metadata keys retained on every migrated entity.
const (
	MetaLegacyID     = "legacy_id"
	MetaLegacySource = "legacy_source"
	MetaDuplicateIDs = "duplicate_ids"
)

// Entity is the single polymorphic manifest row: project, predicate, type,
// person, document, media item, spatial subject or observation. ContextID is
// the parent in whatever hierarchy applies to the item type (containing
// project, owning predicate, containing subject).
type Entity struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ItemType    string         `gorm:"column:item_type;not null;index" json:"item_type"`
	DataType    string         `gorm:"column:data_type;not null;default:'id'" json:"data_type"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;column:project_id;index" json:"project_id"`
	PublisherID uuid.UUID      `gorm:"type:uuid;column:publisher_id" json:"publisher_id"`
	ContextID   uuid.UUID      `gorm:"type:uuid;column:context_id;index" json:"context_id"`
	Label       string         `gorm:"column:label;not null" json:"label"`
	ContentHash string         `gorm:"column:content_hash;index" json:"content_hash"`
	SourceID    string         `gorm:"column:source_id;index" json:"source_id"`
	Published   time.Time      `gorm:"column:published" json:"published"`
	Revised     time.Time      `gorm:"column:revised" json:"revised"`
	Meta        datatypes.JSON `gorm:"column:meta;type:jsonb" json:"meta"`
}

func (Entity) TableName() string { return "oc_entities" }

// Assertion is a subject/predicate/object statement scoped to an observation.
// Exactly one value slot is populated, chosen by the predicate's data type;
// ObjectID is uuid.Nil unless the predicate is entity-valued.
type Assertion struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID  `gorm:"type:uuid;column:project_id;index" json:"project_id"`
	SourceID      string     `gorm:"column:source_id" json:"source_id"`
	SubjectID     uuid.UUID  `gorm:"type:uuid;column:subject_id;not null;index" json:"subject_id"`
	PredicateID   uuid.UUID  `gorm:"type:uuid;column:predicate_id;not null;index" json:"predicate_id"`
	ObservationID uuid.UUID  `gorm:"type:uuid;column:observation_id;not null" json:"observation_id"`
	Sort          float64    `gorm:"column:sort" json:"sort"`
	Visible       bool       `gorm:"column:visible;not null;default:true" json:"visible"`
	ObjectID      uuid.UUID  `gorm:"type:uuid;column:object_id" json:"object_id"`
	StrContent    *string    `gorm:"column:str_content" json:"str_content,omitempty"`
	Boolean       *bool      `gorm:"column:boolean" json:"boolean,omitempty"`
	Integer       *int64     `gorm:"column:integer" json:"integer,omitempty"`
	Double        *float64   `gorm:"column:double" json:"double,omitempty"`
	Date          *time.Time `gorm:"column:date" json:"date,omitempty"`
	Created       time.Time  `gorm:"column:created" json:"created"`
}

func (Assertion) TableName() string { return "oc_assertions" }

// Identifier maps an entity to an externally meaningful id under a scheme.
type Identifier struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID   uuid.UUID `gorm:"type:uuid;column:entity_id;not null;index" json:"entity_id"`
	Scheme     string    `gorm:"column:scheme;not null;uniqueIndex:idx_scheme_identifier" json:"scheme"`
	Identifier string    `gorm:"column:identifier;not null;uniqueIndex:idx_scheme_identifier" json:"identifier"`
}

func (Identifier) TableName() string { return "oc_identifiers" }

// SpaceTime is one combined spatial+temporal record. FeatureID disambiguates
// multiple geometries/intervals attached to the same entity. The four
// chronology bounds are stored ascending: Earliest <= Start <= Stop <= Latest.
type SpaceTime struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID     uuid.UUID      `gorm:"type:uuid;column:entity_id;not null;index" json:"entity_id"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;column:project_id;index" json:"project_id"`
	SourceID     string         `gorm:"column:source_id" json:"source_id"`
	FeatureID    int            `gorm:"column:feature_id;not null" json:"feature_id"`
	EventClass   string         `gorm:"column:event_class" json:"event_class"`
	GeometryType string         `gorm:"column:geometry_type" json:"geometry_type"`
	Latitude     *float64       `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude    *float64       `gorm:"column:longitude" json:"longitude,omitempty"`
	Coordinates  datatypes.JSON `gorm:"column:coordinates;type:jsonb" json:"coordinates,omitempty"`
	Specificity  int            `gorm:"column:specificity" json:"specificity"`
	Earliest     *float64       `gorm:"column:earliest" json:"earliest,omitempty"`
	Start        *float64       `gorm:"column:start" json:"start,omitempty"`
	Stop         *float64       `gorm:"column:stop" json:"stop,omitempty"`
	Latest       *float64       `gorm:"column:latest" json:"latest,omitempty"`
}

func (SpaceTime) TableName() string { return "oc_spacetime" }

// Resource is one physical file attached to a media entity.
type Resource struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID     uuid.UUID `gorm:"type:uuid;column:entity_id;not null;index" json:"entity_id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;column:project_id" json:"project_id"`
	ResourceType uuid.UUID `gorm:"type:uuid;column:resource_type;not null" json:"resource_type"`
	Rank         int       `gorm:"column:rank" json:"rank"`
	URI          string    `gorm:"column:uri;not null" json:"uri"`
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes    int64     `gorm:"column:size_bytes" json:"size_bytes"`
}

func (Resource) TableName() string { return "oc_resources" }
