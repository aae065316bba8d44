package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Namespace for derived ids. Fixed forever: changing it would re-key every
// migrated entity and break published URLs.
var idNamespace = uuid.MustParse("7f9a6274-3f8c-44f1-b24c-4a0d8e3b5f11")

// Well-known root entities. The legacy root project has no legacy parent, so
// it gets a hard-coded sentinel rather than a derived id.
var (
	RootProjectID       = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	WorldSubjectID      = uuid.MustParse("10000000-0000-0000-0000-000000000002")
	DefaultPublisherID  = uuid.MustParse("10000000-0000-0000-0000-000000000003")
	ContainsPredicateID = uuid.MustParse("10000000-0000-0000-0000-000000000004")
)

// Legacy ids the root project was historically known by.
const legacyRootProjectID = "0"

// IsLegacyRoot reports whether a legacy id names the root project.
func IsLegacyRoot(legacyID string) bool {
	return legacyID == "" || legacyID == legacyRootProjectID
}

// DeriveID maps a legacy identifier to its unified id. Legacy ids that are
// already well-formed UUIDs are kept verbatim so published citations stay
// valid; anything else (integers, slugs, historical codes) hashes into a
// name-based UUID in the fixed namespace. Pure and total.
func DeriveID(legacyID string) uuid.UUID {
	if IsLegacyRoot(legacyID) {
		return RootProjectID
	}
	if parsed, err := uuid.Parse(legacyID); err == nil {
		return parsed
	}
	return uuid.NewSHA1(idNamespace, []byte(legacyID))
}

// DeriveSeedID derives a stable id from a composed seed, used for synthetic
// entities (observations, assertions, space-time rows) that have no single
// legacy id.
func DeriveSeedID(parts ...string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "/")))
}

// ContentHash fingerprints an entity's semantic content for deduplication.
// Distinct from the derived id: two legacy records with different ids but
// identical content share a fingerprint and collapse to one row.
func ContentHash(itemType, dataType, label string, projectID, contextID uuid.UUID, extra ...string) string {
	h := sha256.New()
	h.Write([]byte(itemType))
	h.Write([]byte{0})
	h.Write([]byte(dataType))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(strings.ToLower(label))))
	h.Write([]byte{0})
	h.Write([]byte(projectID.String()))
	h.Write([]byte{0})
	h.Write([]byte(contextID.String()))
	for _, part := range extra {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
