// Package cleaner holds the retention jobs run by the cron scheduler.
package cleaner

import (
	"context"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/config"
)

const (
	PurgeEpicsJob            = "purge-soft-deleted-epics"
	PurgeArchivedProjectsJob = "purge-archived-projects"
)

// CleanerFunc runs one cleanup pass and reports how many rows it removed.
type CleanerFunc func(ctx context.Context) (int64, error)

// WrapCleanerFunc adds the shared logging around a cleanup pass so the
// scheduler can treat every job the same way.
func WrapCleanerFunc(jobName string, fn CleanerFunc) func() {
	return func() {
		ctx := context.Background()
		start := time.Now()
		purged, err := fn(ctx)
		if err != nil {
			klog.Errorf("cleaner %s failed after %s: %v", jobName, time.Since(start), err)
			return
		}
		klog.Infof("cleaner %s purged %d rows in %s", jobName, purged, time.Since(start))
	}
}

// PurgeSoftDeletedEpics permanently removes epics whose soft-delete is
// older than the retention window. Work items still pointing at a purged
// epic keep their EpicID; lookups treat the dangling id as no epic.
func PurgeSoftDeletedEpics(ctx context.Context, db *gorm.DB) (int64, error) {
	retention := config.GetConfig().Retention
	cutoff := time.Now().AddDate(0, 0, -retention.Days)

	res := db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&model.Epic{})
	return res.RowsAffected, res.Error
}

// PurgeArchivedProjects removes archived projects that no longer hold any
// epics or work items, together with their counter rows. Disabled unless
// retention.purgeArchivedProjects is set.
func PurgeArchivedProjects(ctx context.Context, db *gorm.DB) (int64, error) {
	retention := config.GetConfig().Retention
	if !retention.PurgeArchivedProjects {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retention.Days)

	var projects []model.Project
	err := db.WithContext(ctx).
		Where("is_archived = ? AND updated_at < ?", true, cutoff).
		Find(&projects).Error
	if err != nil {
		return 0, err
	}

	var purged int64
	for i := range projects {
		project := &projects[i]
		var items int64
		if err := db.WithContext(ctx).Model(&model.WorkItem{}).
			Where("project_id = ?", project.ID).Count(&items).Error; err != nil {
			return purged, err
		}
		var epics int64
		if err := db.WithContext(ctx).Unscoped().Model(&model.Epic{}).
			Where("project_id = ?", project.ID).Count(&epics).Error; err != nil {
			return purged, err
		}
		if items > 0 || epics > 0 {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("project_id = ?", project.ID).
				Delete(&model.ProjectCounter{}).Error; err != nil {
				return err
			}
			return tx.Unscoped().Delete(project).Error
		})
		if err != nil {
			return purged, err
		}
		purged++
		klog.Infof("purged archived project %s (%d)", project.Key, project.ID)
	}
	return purged, nil
}
