package migrate

import (
	"context"
	"strings"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// migrateMedia translates one legacy media item and synthesizes one unified
// resource row per legacy physical file. The item's logical class comes from
// the explicit class map when present, otherwise from its file roles and
// declared MIME types.
func (e *Engine) migrateMedia(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	project, err := e.Resolve(ctx, manifest.ProjectUUID)
	if err != nil {
		if isMissing(err) {
			return nil, missingDep(manifest.UUID, "owning project "+manifest.ProjectUUID+" unresolvable")
		}
		return nil, err
	}

	files, err := e.legacy.GetMediaFiles(ctx, nil, manifest.UUID)
	if err != nil {
		return nil, err
	}

	entity := baseEntity(manifest, types.ItemMedia, project.ID, project.ID)
	entity.Meta = appendMeta(entity.Meta, "media_class", e.mediaClass(manifest.ClassURI, files))

	migrated, err := e.finishEntity(ctx, manifest, entity)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		resourceType, ok := ResourceTypeForRole(file.FileType)
		if !ok {
			e.log.Warn("unknown legacy file role, skipping resource",
				"legacy_id", manifest.UUID, "file_type", file.FileType)
			continue
		}
		rank := e.rules.FileRoleRanks[file.FileType]
		if file.Highlight != 0 {
			rank++
		}
		resource := &types.Resource{
			ID:           DeriveSeedID("resource", manifest.UUID, file.FileType, file.FileURI),
			EntityID:     migrated.ID,
			ProjectID:    migrated.ProjectID,
			ResourceType: resourceType,
			Rank:         rank,
			URI:          file.FileURI,
			MimeType:     file.MimeType,
			SizeBytes:    file.FileSize,
		}
		if _, err := e.resources.InsertOnce(ctx, nil, resource); err != nil {
			return nil, &PersistenceError{Kind: "resource", LegacyID: manifest.UUID, Err: err}
		}
	}
	return migrated, nil
}

// mediaClass infers the logical media category. Explicit class mappings win;
// otherwise matching rules over associated file roles and MIME types apply.
func (e *Engine) mediaClass(classURI string, files []*types.LegacyMediaFile) string {
	if mapped, ok := e.rules.MediaClasses[classURI]; ok {
		return mapped
	}
	for _, file := range files {
		mime := strings.ToLower(file.MimeType)
		switch {
		case strings.Contains(mime, "image/"):
			return MediaClassImage
		case strings.Contains(mime, "pdf"):
			return MediaClassDocument
		case strings.Contains(mime, "shapefile"), strings.Contains(mime, "geo+json"), strings.Contains(mime, "gis"):
			return MediaClassGIS
		}
	}
	if classURI != "" {
		return classURI
	}
	return MediaClassOther
}
