package migrate

import (
	"context"

	"github.com/google/uuid"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// migrateSubject translates one spatial subject. The parent comes from the
// override table (used to seed known roots) or the legacy containment
// statement; the parent is always migrated first, and a "contains" assertion
// links the migrated parent to the child.
func (e *Engine) migrateSubject(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	project, err := e.Resolve(ctx, manifest.ProjectUUID)
	if err != nil {
		if isMissing(err) {
			return nil, missingDep(manifest.UUID, "owning project "+manifest.ProjectUUID+" unresolvable")
		}
		return nil, err
	}

	parentID, err := e.resolveSubjectParent(ctx, manifest.UUID)
	if err != nil {
		return nil, err
	}

	entity := baseEntity(manifest, types.ItemSubjects, project.ID, parentID)
	migrated, err := e.finishEntity(ctx, manifest, entity)
	if err != nil {
		return nil, err
	}

	observation, err := e.ensureObservation(ctx, project, manifest.SourceID, 1)
	if err != nil {
		return nil, err
	}
	contains := &types.Assertion{
		ProjectID:     project.ID,
		SourceID:      manifest.SourceID,
		SubjectID:     parentID,
		PredicateID:   ContainsPredicateID,
		ObservationID: observation.ID,
		Visible:       true,
		ObjectID:      migrated.ID,
	}
	if err := e.persistAssertion(ctx, contains); err != nil {
		return nil, err
	}
	return migrated, nil
}

// resolveSubjectParent walks one step up the containment hierarchy. Override
// first, then the legacy containment row; a subject with no parent, a
// self-parented subject or a containment cycle attaches to the world root.
func (e *Engine) resolveSubjectParent(ctx context.Context, subjectUUID string) (uuid.UUID, error) {
	parentLegacy := e.rules.SubjectParents[subjectUUID]
	if parentLegacy == "" {
		containment, err := e.legacy.GetParentContainment(ctx, nil, subjectUUID)
		if err != nil {
			return uuid.Nil, err
		}
		if containment != nil {
			parentLegacy = containment.ParentUUID
		}
	}

	if parentLegacy == "" || parentLegacy == subjectUUID || e.visiting[parentLegacy] {
		return WorldSubjectID, nil
	}

	parent, err := e.Resolve(ctx, parentLegacy)
	if err != nil {
		if isMissing(err) {
			return uuid.Nil, missingDep(subjectUUID, "parent subject "+parentLegacy+" unresolvable")
		}
		return uuid.Nil, err
	}
	return parent.ID, nil
}
