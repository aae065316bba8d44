package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// CoalesceSpaceTime rebuilds the combined spatial+temporal records for one
// migrated entity from the two independent legacy tables. Every
// (geometry, chronology) pair in the cross product becomes one row; when one
// side is absent a single nil placeholder keeps the other side's rows. Runs
// as a distinct pass after entity migration. Returns the number of rows
// written.
func (e *Engine) CoalesceSpaceTime(ctx context.Context, legacyID string) (int, error) {
	doneKey := "spacetime:" + legacyID
	if _, err := e.memo.Get(ctx, doneKey); err == nil {
		return 0, nil
	}

	geometries, err := e.legacy.GetGeospace(ctx, nil, legacyID)
	if err != nil {
		return 0, err
	}
	events, err := e.legacy.GetEvents(ctx, nil, legacyID)
	if err != nil {
		return 0, err
	}
	if len(geometries) == 0 && len(events) == 0 {
		return 0, nil
	}

	entity, err := e.Resolve(ctx, legacyID)
	if err != nil {
		return 0, err
	}

	// Nil placeholders keep the cross product one-row-per-present-record.
	geoSide := make([]*types.LegacyGeospace, 0, len(geometries))
	geoSide = append(geoSide, geometries...)
	if len(geoSide) == 0 {
		geoSide = append(geoSide, nil)
	}
	eventSide := make([]*types.LegacyEvent, 0, len(events))
	eventSide = append(eventSide, events...)
	if len(eventSide) == 0 {
		eventSide = append(eventSide, nil)
	}

	existing, err := e.spacetime.ListByEntity(ctx, nil, entity.ID)
	if err != nil {
		return 0, err
	}
	taken := map[int]bool{}
	for _, row := range existing {
		taken[row.FeatureID] = true
	}

	written := 0
	for _, geometry := range geoSide {
		for _, event := range eventSide {
			record := &types.SpaceTime{
				ID:        DeriveSeedID("spacetime", entity.ID.String(), sideKey(geometry), eventKey(event)),
				EntityID:  entity.ID,
				ProjectID: entity.ProjectID,
				SourceID:  entity.SourceID,
				FeatureID: nextFeatureID(taken),
			}
			if geometry != nil {
				if err := applyGeometry(record, geometry); err != nil {
					return written, err
				}
				record.SourceID = geometry.SourceID
			}
			if event != nil {
				applyChronology(record, event)
			}
			inserted, err := e.spacetime.InsertOnce(ctx, nil, record)
			if err != nil {
				return written, &PersistenceError{Kind: "spacetime", LegacyID: legacyID, Err: err}
			}
			if inserted {
				taken[record.FeatureID] = true
				written++
			}
		}
	}

	_ = e.memo.Set(ctx, doneKey, []byte("1"))
	return written, nil
}

// nextFeatureID picks the lowest positive integer not yet used by the
// entity's space-time rows, so feature ids stay unique and deterministic in
// input order.
func nextFeatureID(taken map[int]bool) int {
	for id := 1; ; id++ {
		if !taken[id] {
			taken[id] = true
			return id
		}
	}
}

// applyGeometry fills the spatial columns. Point rows synthesize a
// two-element [lon, lat] pair; complex rows parse the serialized coordinate
// blob and get exactly one ring-order normalization pass.
func applyGeometry(record *types.SpaceTime, geometry *types.LegacyGeospace) error {
	record.Specificity = geometry.Specificity
	ftype := strings.TrimSpace(geometry.FType)
	record.GeometryType = ftype

	if strings.EqualFold(ftype, "Point") {
		record.Latitude = geometry.Latitude
		record.Longitude = geometry.Longitude
		if geometry.Latitude != nil && geometry.Longitude != nil {
			pair, err := json.Marshal([]float64{*geometry.Longitude, *geometry.Latitude})
			if err != nil {
				return err
			}
			record.Coordinates = datatypes.JSON(pair)
		}
		return nil
	}

	if strings.TrimSpace(geometry.Coordinates) == "" {
		return missingDep(geometry.UUID, "complex geometry without coordinates")
	}
	var rings [][][]float64
	if err := json.Unmarshal([]byte(geometry.Coordinates), &rings); err != nil {
		// MultiPolygon blobs nest one level deeper.
		var multi [][][][]float64
		if err2 := json.Unmarshal([]byte(geometry.Coordinates), &multi); err2 != nil {
			return fmt.Errorf("parse coordinates for %s: %w", geometry.UUID, err)
		}
		for i := range multi {
			multi[i] = normalizeRingOrder(multi[i])
		}
		encoded, err2 := json.Marshal(multi)
		if err2 != nil {
			return err2
		}
		record.Coordinates = datatypes.JSON(encoded)
		return nil
	}
	rings = normalizeRingOrder(rings)
	encoded, err := json.Marshal(rings)
	if err != nil {
		return err
	}
	record.Coordinates = datatypes.JSON(encoded)
	return nil
}

// normalizeRingOrder applies the one GeoJSON winding pass: outer ring
// counter-clockwise, holes clockwise.
func normalizeRingOrder(rings [][][]float64) [][][]float64 {
	for i, ring := range rings {
		clockwise := signedArea(ring) < 0
		wantClockwise := i > 0
		if clockwise != wantClockwise {
			reverseRing(ring)
		}
	}
	return rings
}

func signedArea(ring [][]float64) float64 {
	area := 0.0
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		if len(ring[i]) < 2 || len(ring[j]) < 2 {
			continue
		}
		area += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return area / 2
}

func reverseRing(ring [][]float64) {
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
}

// applyChronology stores the four bounds in ascending order. The bounds are
// defined by relative position, not by which legacy field held them; legacy
// data entry swapped them freely.
func applyChronology(record *types.SpaceTime, event *types.LegacyEvent) {
	record.EventClass = event.WhenType

	var bounds []float64
	for _, b := range []*float64{event.Earliest, event.Start, event.Stop, event.Latest} {
		if b != nil {
			bounds = append(bounds, *b)
		}
	}
	if len(bounds) == 0 {
		return
	}
	sort.Float64s(bounds)

	first := bounds[0]
	last := bounds[len(bounds)-1]
	record.Earliest = &first
	record.Latest = &last

	start := bounds[0]
	stop := bounds[len(bounds)-1]
	if len(bounds) > 2 {
		start = bounds[1]
		stop = bounds[len(bounds)-2]
	}
	record.Start = &start
	record.Stop = &stop
}

func sideKey(geometry *types.LegacyGeospace) string {
	if geometry == nil {
		return "geo:null"
	}
	return "geo:" + geometry.HashID
}

func eventKey(event *types.LegacyEvent) string {
	if event == nil {
		return "event:null"
	}
	return "event:" + event.HashID
}
