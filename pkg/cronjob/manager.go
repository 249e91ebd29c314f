// Package cronjob schedules the retention cleaners.
package cronjob

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/raids-lab/tracker/pkg/cleaner"
	"github.com/raids-lab/tracker/pkg/config"
)

type CronJobManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

func NewCronJobManager(db *gorm.DB) *CronJobManager {
	return &CronJobManager{
		cron: cron.New(cron.WithLocation(time.Local)),
		db:   db,
	}
}

// AddCronJob registers a named cleanup pass on the given cron spec.
func (cm *CronJobManager) AddCronJob(jobName, jobSpec string, fn cleaner.CleanerFunc) (cron.EntryID, error) {
	entryID, err := cm.cron.AddFunc(jobSpec, cleaner.WrapCleanerFunc(jobName, fn))
	if err != nil {
		klog.Error(err)
		return -1, err
	}
	return entryID, nil
}

// Start schedules the retention jobs from config and starts the cron loop.
func (cm *CronJobManager) Start() error {
	schedule := config.GetConfig().Retention.PurgeSchedule
	if schedule == "" {
		klog.Info("CronJobManager: no purge schedule configured, scheduler idle")
		return nil
	}

	if _, err := cm.AddCronJob(cleaner.PurgeEpicsJob, schedule, func(ctx context.Context) (int64, error) {
		return cleaner.PurgeSoftDeletedEpics(ctx, cm.db)
	}); err != nil {
		return err
	}
	if _, err := cm.AddCronJob(cleaner.PurgeArchivedProjectsJob, schedule, func(ctx context.Context) (int64, error) {
		return cleaner.PurgeArchivedProjects(ctx, cm.db)
	}); err != nil {
		return err
	}

	cm.cron.Start()
	klog.Infof("CronJobManager: cron scheduler started with spec %q", schedule)
	return nil
}

// StopCron stops the scheduler; running jobs finish on their own.
func (cm *CronJobManager) StopCron() {
	cm.cron.Stop()
}
