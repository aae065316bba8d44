package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// ensureObservation get-or-creates the observation entity for a
// (project, source, observation-number) key. Observation one is the default
// used when legacy metadata recorded no explicit observation.
func (e *Engine) ensureObservation(ctx context.Context, project *types.Entity, sourceID string, obsNum int) (*types.Entity, error) {
	if obsNum < 1 {
		obsNum = 1
	}

	seed := fmt.Sprintf("obs/%s/%s/%d", project.ID, sourceID, obsNum)
	id := DeriveSeedID(seed)

	existing, err := e.entities.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	label := fmt.Sprintf("Observation %d", obsNum)
	if obsNum == 1 {
		label = "Main Observation"
	}
	now := time.Now().UTC()
	observation := &types.Entity{
		ID:          id,
		ItemType:    types.ItemObservations,
		DataType:    types.DataTypeID,
		ProjectID:   project.ID,
		PublisherID: project.PublisherID,
		ContextID:   project.ID,
		Label:       label,
		SourceID:    sourceID,
		Published:   now,
		Revised:     now,
	}
	observation.ContentHash = ContentHash(observation.ItemType, observation.DataType, observation.Label,
		observation.ProjectID, observation.ContextID, sourceID, fmt.Sprintf("%d", obsNum))

	if _, err := e.entities.InsertOnce(ctx, nil, observation); err != nil {
		return nil, &PersistenceError{Kind: types.ItemObservations, LegacyID: seed, Err: err}
	}
	return observation, nil
}
