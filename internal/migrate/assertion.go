package migrate

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// TranslateAssertion converts one legacy statement into a unified,
// type-dispatched assertion. Subject, predicate, observation and (for
// entity-valued predicates) object are resolved first, migrating on demand;
// the populated value slot is chosen by the predicate's migrated data type.
func (e *Engine) TranslateAssertion(ctx context.Context, legacy *types.LegacyAssertion) (*types.Assertion, error) {
	subject, err := e.Resolve(ctx, legacy.UUID)
	if err != nil {
		return nil, err
	}
	predicate, err := e.Resolve(ctx, legacy.PredicateUUID)
	if err != nil {
		return nil, err
	}
	project, err := e.assertionProject(ctx, legacy, subject)
	if err != nil {
		return nil, err
	}
	observation, err := e.ensureObservation(ctx, project, observationSource(legacy), legacy.ObsNum)
	if err != nil {
		return nil, err
	}

	assertion := &types.Assertion{
		ProjectID:     project.ID,
		SourceID:      legacy.SourceID,
		SubjectID:     subject.ID,
		PredicateID:   predicate.ID,
		ObservationID: observation.ID,
		Sort:          legacy.Sort,
		Visible:       legacy.Visibility != 0,
	}

	objectType := normalizeObjectType(legacy.ObjectType)
	if err := e.dispatchValue(ctx, assertion, predicate, legacy, objectType); err != nil {
		return nil, err
	}
	if err := checkValueSlots(assertion, predicate); err != nil {
		return nil, err
	}
	if err := e.persistAssertion(ctx, assertion); err != nil {
		return nil, err
	}
	return assertion, nil
}

// dispatchValue populates exactly one value slot.
//
// String-typed predicates are the data-quality workhorse: a literal string
// object copies the string content, an entity-reference object substitutes
// the referenced entity's label (a deliberate legacy-era normalization), and
// any other literal kind is stringified. Literal-typed predicates convert the
// legacy payload to the matching slot. Everything else resolves the object's
// migrated entity reference.
func (e *Engine) dispatchValue(ctx context.Context, assertion *types.Assertion, predicate *types.Entity, legacy *types.LegacyAssertion, objectType string) error {
	switch predicate.DataType {
	case types.DataTypeString:
		content, err := e.stringValue(ctx, legacy, objectType)
		if err != nil {
			return err
		}
		assertion.StrContent = &content

	case types.DataTypeBoolean:
		if legacy.DataNum == nil {
			return typeConflict(legacy, predicate, objectType)
		}
		val := *legacy.DataNum != 0
		assertion.Boolean = &val

	case types.DataTypeInteger:
		if legacy.DataNum == nil {
			return typeConflict(legacy, predicate, objectType)
		}
		rounded := math.Round(*legacy.DataNum)
		if rounded != *legacy.DataNum {
			return typeConflict(legacy, predicate, types.DataTypeDouble)
		}
		val := int64(rounded)
		assertion.Integer = &val

	case types.DataTypeDouble:
		if legacy.DataNum == nil {
			return typeConflict(legacy, predicate, objectType)
		}
		val := *legacy.DataNum
		assertion.Double = &val

	case types.DataTypeDate:
		if legacy.DataDate == nil {
			return typeConflict(legacy, predicate, objectType)
		}
		val := *legacy.DataDate
		assertion.Date = &val

	default: // entity reference
		if objectType != types.DataTypeID {
			return typeConflict(legacy, predicate, objectType)
		}
		object, err := e.Resolve(ctx, legacy.ObjectUUID)
		if err != nil {
			return err
		}
		assertion.ObjectID = object.ID
	}
	return nil
}

// stringValue extracts the string rendition of a legacy object for a
// string-typed predicate.
func (e *Engine) stringValue(ctx context.Context, legacy *types.LegacyAssertion, objectType string) (string, error) {
	switch objectType {
	case types.DataTypeString:
		content, err := e.legacy.GetString(ctx, nil, legacy.ObjectUUID)
		if err != nil {
			return "", err
		}
		if content == nil {
			return "", missingDep(legacy.ObjectUUID, "no legacy string row")
		}
		return content.Content, nil
	case types.DataTypeID:
		object, err := e.Resolve(ctx, legacy.ObjectUUID)
		if err != nil {
			return "", err
		}
		return object.Label, nil
	case types.DataTypeInteger, types.DataTypeDouble:
		if legacy.DataNum == nil {
			return "", missingDep(legacy.HashID, "numeric literal without payload")
		}
		return strconv.FormatFloat(*legacy.DataNum, 'f', -1, 64), nil
	case types.DataTypeBoolean:
		if legacy.DataNum == nil {
			return "", missingDep(legacy.HashID, "boolean literal without payload")
		}
		return strconv.FormatBool(*legacy.DataNum != 0), nil
	case types.DataTypeDate:
		if legacy.DataDate == nil {
			return "", missingDep(legacy.HashID, "date literal without payload")
		}
		return legacy.DataDate.UTC().Format(time.RFC3339), nil
	default:
		return "", missingDep(legacy.HashID, "unrecognized object type "+objectType)
	}
}

// checkValueSlots enforces the mutual-exclusivity invariant: exactly one
// populated slot, agreeing with the predicate's declared data type.
func checkValueSlots(assertion *types.Assertion, predicate *types.Entity) error {
	populated := 0
	kind := types.DataTypeID
	if assertion.StrContent != nil {
		populated++
		kind = types.DataTypeString
	}
	if assertion.Boolean != nil {
		populated++
		kind = types.DataTypeBoolean
	}
	if assertion.Integer != nil {
		populated++
		kind = types.DataTypeInteger
	}
	if assertion.Double != nil {
		populated++
		kind = types.DataTypeDouble
	}
	if assertion.Date != nil {
		populated++
		kind = types.DataTypeDate
	}
	if assertion.ObjectID != uuid.Nil {
		populated++
		kind = types.DataTypeID
	}
	if populated != 1 || kind != predicate.DataType {
		return &TypeConflictError{
			PredicateID: predicate.ID.String(),
			Declared:    predicate.DataType,
			Found:       []string{kind},
		}
	}
	return nil
}

// persistAssertion derives the assertion id from (subject, predicate,
// observation, value) and writes it insert-only: re-running the same legacy
// statement dedupes naturally on the derivation.
func (e *Engine) persistAssertion(ctx context.Context, assertion *types.Assertion) error {
	if assertion.ID == uuid.Nil {
		assertion.ID = DeriveSeedID("assertion",
			assertion.SubjectID.String(),
			assertion.PredicateID.String(),
			assertion.ObservationID.String(),
			valueKey(assertion))
	}
	if assertion.Created.IsZero() {
		assertion.Created = time.Now().UTC()
	}
	if _, err := e.assertions.InsertOnce(ctx, nil, assertion); err != nil {
		return &PersistenceError{Kind: "assertion", LegacyID: assertion.ID.String(), Err: err}
	}
	return nil
}

// valueKey serializes whichever value slot is populated.
func valueKey(assertion *types.Assertion) string {
	switch {
	case assertion.StrContent != nil:
		return "str:" + *assertion.StrContent
	case assertion.Boolean != nil:
		return "bool:" + strconv.FormatBool(*assertion.Boolean)
	case assertion.Integer != nil:
		return "int:" + strconv.FormatInt(*assertion.Integer, 10)
	case assertion.Double != nil:
		return "dbl:" + strconv.FormatFloat(*assertion.Double, 'f', -1, 64)
	case assertion.Date != nil:
		return "date:" + assertion.Date.UTC().Format(time.RFC3339)
	default:
		return "id:" + assertion.ObjectID.String()
	}
}

// assertionProject locates the owning project. Retry-file rows carry no
// project column, so those fall back to the subject's migrated project.
func (e *Engine) assertionProject(ctx context.Context, legacy *types.LegacyAssertion, subject *types.Entity) (*types.Entity, error) {
	if legacy.ProjectUUID != "" {
		return e.Resolve(ctx, legacy.ProjectUUID)
	}
	project, err := e.entities.GetByID(ctx, nil, subject.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, missingDep(legacy.HashID, "subject project "+subject.ProjectID.String()+" not migrated")
	}
	return project, nil
}

func observationSource(legacy *types.LegacyAssertion) string {
	if legacy.ObsNode != "" {
		return legacy.ObsNode
	}
	return legacy.SourceID
}

func typeConflict(legacy *types.LegacyAssertion, predicate *types.Entity, found string) error {
	return &TypeConflictError{
		PredicateID: fmt.Sprintf("%s (legacy %s)", predicate.ID, legacy.PredicateUUID),
		Declared:    predicate.DataType,
		Found:       []string{found},
	}
}
