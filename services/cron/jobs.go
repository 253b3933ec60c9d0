package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/storage"
)

// SweepOrphanBlobs deletes uploaded files that no pending or public material
// points at. Blobs younger than the grace period are left alone so an upload
// whose record is still being written is never removed.
func (m *CronManager) SweepOrphanBlobs(ctx context.Context) (*JobResult, error) {
	objects, err := m.blobs.List(ctx, storage.MaterialsPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	cutoff := m.now().Add(-m.config.OrphanGracePeriod)
	var candidates []string
	for _, obj := range objects {
		if obj.LastModified.Before(cutoff) {
			candidates = append(candidates, obj.Key)
		}
	}
	if len(candidates) == 0 {
		return &JobResult{
			Message:  "No orphaned blobs",
			Metadata: map[string]interface{}{"scanned": len(objects)},
		}, nil
	}

	referenced := make(map[string]bool, len(candidates))
	for _, table := range []interface{}{&model.PendingAcademicMaterial{}, &model.AcademicMaterial{}} {
		// Chunked to stay under bind-parameter limits
		for start := 0; start < len(candidates); start += 500 {
			end := min(start+500, len(candidates))
			var keys []string
			if err := m.db.WithContext(ctx).Model(table).
				Where("file_key IN ?", candidates[start:end]).
				Pluck("file_key", &keys).Error; err != nil {
				return nil, fmt.Errorf("failed to look up referenced blobs: %w", err)
			}
			for _, k := range keys {
				referenced[k] = true
			}
		}
	}

	deleted, failed := 0, 0
	for _, key := range candidates {
		if referenced[key] {
			continue
		}
		if err := m.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			m.log.Warn("failed to delete orphaned blob", "key", key, "error", err)
			failed++
			continue
		}
		m.log.Info("deleted orphaned blob", "key", key)
		deleted++
	}

	return &JobResult{
		Message: fmt.Sprintf("Scanned %d blobs, deleted %d orphans, failed %d", len(objects), deleted, failed),
		Metadata: map[string]interface{}{
			"scanned": len(objects),
			"deleted": deleted,
			"failed":  failed,
		},
	}, nil
}

// CleanupTokenBlacklist removes revocations whose tokens have expired anyway
func (m *CronManager) CleanupTokenBlacklist(ctx context.Context) (*JobResult, error) {
	removed, err := m.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to clean token blacklist: %w", err)
	}
	return &JobResult{
		Message:  fmt.Sprintf("Removed %d expired blacklist entries", removed),
		Metadata: map[string]interface{}{"removed": removed},
	}, nil
}

// CleanupNotifications removes read notifications past their retention
func (m *CronManager) CleanupNotifications(ctx context.Context) (*JobResult, error) {
	removed, err := m.notices.CleanupRead(ctx, m.config.NoticeRetention)
	if err != nil {
		return nil, fmt.Errorf("failed to clean notifications: %w", err)
	}
	return &JobResult{
		Message:  fmt.Sprintf("Removed %d read notifications", removed),
		Metadata: map[string]interface{}{"removed": removed},
	}, nil
}
