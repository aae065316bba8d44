package types

import (
	"time"
)

// Legacy schema models. These tables are read-only for the migration engine
// and keep their historical names and string primary keys (legacy ids are
// not uniformly UUIDs; some are integers, slugs or historical codes).

// LegacyManifest is the legacy per-item index row shared by all item types.
type LegacyManifest struct {
	UUID        string    `gorm:"column:uuid;primaryKey" json:"uuid"`
	Label       string    `gorm:"column:label" json:"label"`
	ItemType    string    `gorm:"column:item_type;index" json:"item_type"`
	ClassURI    string    `gorm:"column:class_uri" json:"class_uri"`
	ProjectUUID string    `gorm:"column:project_uuid;index" json:"project_uuid"`
	SourceID    string    `gorm:"column:source_id" json:"source_id"`
	Published   time.Time `gorm:"column:published" json:"published"`
	Revised     time.Time `gorm:"column:revised;index" json:"revised"`
}

func (LegacyManifest) TableName() string { return "oc_manifest" }

type LegacyProject struct {
	UUID        string    `gorm:"column:uuid;primaryKey" json:"uuid"`
	ProjectUUID string    `gorm:"column:project_uuid" json:"project_uuid"`
	Label       string    `gorm:"column:label" json:"label"`
	ShortDes    string    `gorm:"column:short_des" json:"short_des"`
	Updated     time.Time `gorm:"column:updated" json:"updated"`
}

func (LegacyProject) TableName() string { return "oc_projects" }

type LegacyPredicate struct {
	UUID        string    `gorm:"column:uuid;primaryKey" json:"uuid"`
	ProjectUUID string    `gorm:"column:project_uuid;index" json:"project_uuid"`
	DataType    string    `gorm:"column:data_type" json:"data_type"`
	Sort        float64   `gorm:"column:sort" json:"sort"`
	Updated     time.Time `gorm:"column:updated" json:"updated"`
}

func (LegacyPredicate) TableName() string { return "oc_predicates" }

// LegacyOCType is a controlled-vocabulary value owned by a predicate. The
// owning predicate and display string live in separate columns/tables and
// are not always populated.
type LegacyOCType struct {
	UUID          string    `gorm:"column:uuid;primaryKey" json:"uuid"`
	ProjectUUID   string    `gorm:"column:project_uuid;index" json:"project_uuid"`
	PredicateUUID string    `gorm:"column:predicate_uuid" json:"predicate_uuid"`
	ContentUUID   string    `gorm:"column:content_uuid" json:"content_uuid"`
	Rank          float64   `gorm:"column:rank" json:"rank"`
	Updated       time.Time `gorm:"column:updated" json:"updated"`
}

func (LegacyOCType) TableName() string { return "oc_types" }

// LegacyOCString holds literal string content referenced by assertions and
// type display strings.
type LegacyOCString struct {
	UUID        string    `gorm:"column:uuid;primaryKey" json:"uuid"`
	ProjectUUID string    `gorm:"column:project_uuid;index" json:"project_uuid"`
	Content     string    `gorm:"column:content" json:"content"`
	Updated     time.Time `gorm:"column:updated" json:"updated"`
}

func (LegacyOCString) TableName() string { return "oc_strings" }

// Legacy object-type tags carried on assertions. Anything outside this set
// is treated as an entity reference to the named table.
const (
	LegacyObjectString  = "xsd:string"
	LegacyObjectInteger = "xsd:integer"
	LegacyObjectDouble  = "xsd:double"
	LegacyObjectBoolean = "xsd:boolean"
	LegacyObjectDate    = "xsd:date"
)

type LegacyAssertion struct {
	HashID        string     `gorm:"column:hash_id;primaryKey" json:"hash_id"`
	UUID          string     `gorm:"column:uuid;index" json:"uuid"`
	ProjectUUID   string     `gorm:"column:project_uuid;index" json:"project_uuid"`
	SourceID      string     `gorm:"column:source_id" json:"source_id"`
	ObsNode       string     `gorm:"column:obs_node" json:"obs_node"`
	ObsNum        int        `gorm:"column:obs_num" json:"obs_num"`
	Sort          float64    `gorm:"column:sort" json:"sort"`
	Visibility    int        `gorm:"column:visibility" json:"visibility"`
	PredicateUUID string     `gorm:"column:predicate_uuid;index" json:"predicate_uuid"`
	ObjectType    string     `gorm:"column:object_type" json:"object_type"`
	ObjectUUID    string     `gorm:"column:object_uuid" json:"object_uuid"`
	DataNum       *float64   `gorm:"column:data_num" json:"data_num,omitempty"`
	DataDate      *time.Time `gorm:"column:data_date" json:"data_date,omitempty"`
	Updated       time.Time  `gorm:"column:updated;index" json:"updated"`
}

func (LegacyAssertion) TableName() string { return "oc_assertions_legacy" }

type LegacyPerson struct {
	UUID        string `gorm:"column:uuid;primaryKey" json:"uuid"`
	ProjectUUID string `gorm:"column:project_uuid;index" json:"project_uuid"`
	ForeName    string `gorm:"column:foaf_name" json:"foaf_name"`
	GivenName   string `gorm:"column:given_name" json:"given_name"`
	Surname     string `gorm:"column:surname" json:"surname"`
	Initials    string `gorm:"column:initials" json:"initials"`
}

func (LegacyPerson) TableName() string { return "oc_persons" }

type LegacyDocument struct {
	UUID        string    `gorm:"column:uuid;primaryKey" json:"uuid"`
	ProjectUUID string    `gorm:"column:project_uuid;index" json:"project_uuid"`
	Content     string    `gorm:"column:content" json:"content"`
	Updated     time.Time `gorm:"column:updated" json:"updated"`
}

func (LegacyDocument) TableName() string { return "oc_documents" }

// Legacy file-role tags on media files.
const (
	LegacyFileFull       = "oc-gen:fullfile"
	LegacyFilePreview    = "oc-gen:preview"
	LegacyFileThumb      = "oc-gen:thumbnail"
	LegacyFileArchive    = "oc-gen:archive"
	LegacyFileIA         = "oc-gen:ia-fullfile"
	LegacyFileHeroBanner = "oc-gen:hero"
)

type LegacyMediaFile struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	UUID        string `gorm:"column:uuid;index" json:"uuid"`
	ProjectUUID string `gorm:"column:project_uuid;index" json:"project_uuid"`
	FileType    string `gorm:"column:file_type" json:"file_type"`
	FileURI     string `gorm:"column:file_uri" json:"file_uri"`
	MimeType    string `gorm:"column:mime_type_uri" json:"mime_type_uri"`
	FileSize    int64  `gorm:"column:filesize" json:"filesize"`
	Highlight   int    `gorm:"column:highlight" json:"highlight"`
}

func (LegacyMediaFile) TableName() string { return "oc_mediafiles" }

// LegacyGeospace is one legacy geometry record. Point rows carry lat/lon;
// complex rows carry a serialized coordinate blob.
type LegacyGeospace struct {
	HashID      string   `gorm:"column:hash_id;primaryKey" json:"hash_id"`
	UUID        string   `gorm:"column:uuid;index" json:"uuid"`
	ProjectUUID string   `gorm:"column:project_uuid" json:"project_uuid"`
	SourceID    string   `gorm:"column:source_id" json:"source_id"`
	FType       string   `gorm:"column:ftype" json:"ftype"`
	Latitude    *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude   *float64 `gorm:"column:longitude" json:"longitude,omitempty"`
	Coordinates string   `gorm:"column:coordinates" json:"coordinates"`
	Specificity int      `gorm:"column:specificity" json:"specificity"`
}

func (LegacyGeospace) TableName() string { return "oc_geospace" }

// LegacyEvent is one legacy chronology record. The four bounds are defined
// by relative position after sorting, not by source field name.
type LegacyEvent struct {
	HashID      string   `gorm:"column:hash_id;primaryKey" json:"hash_id"`
	UUID        string   `gorm:"column:uuid;index" json:"uuid"`
	ProjectUUID string   `gorm:"column:project_uuid" json:"project_uuid"`
	SourceID    string   `gorm:"column:source_id" json:"source_id"`
	WhenType    string   `gorm:"column:when_type" json:"when_type"`
	Earliest    *float64 `gorm:"column:earliest" json:"earliest,omitempty"`
	Start       *float64 `gorm:"column:start" json:"start,omitempty"`
	Stop        *float64 `gorm:"column:stop" json:"stop,omitempty"`
	Latest      *float64 `gorm:"column:latest" json:"latest,omitempty"`
}

func (LegacyEvent) TableName() string { return "oc_events" }

// LegacyContainment records the spatial parent of a subject.
type LegacyContainment struct {
	HashID     string `gorm:"column:hash_id;primaryKey" json:"hash_id"`
	ParentUUID string `gorm:"column:parent_uuid;index" json:"parent_uuid"`
	ChildUUID  string `gorm:"column:child_uuid;index" json:"child_uuid"`
}

func (LegacyContainment) TableName() string { return "oc_containment" }

type LegacyStableIdentifier struct {
	ID       int64  `gorm:"column:id;primaryKey" json:"id"`
	UUID     string `gorm:"column:uuid;index" json:"uuid"`
	ItemType string `gorm:"column:item_type" json:"item_type"`
	StableID string `gorm:"column:stable_id" json:"stable_id"`
	Scheme   string `gorm:"column:stable_type" json:"stable_type"`
}

func (LegacyStableIdentifier) TableName() string { return "oc_identifiers_legacy" }
