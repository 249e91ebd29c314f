package query

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/raids-lab/tracker/dao/model"
)

// Migrate brings the schema up to date. The initial migration is a plain
// AutoMigrate of every model; later schema changes are appended as dated
// migrations so existing deployments roll forward instead of re-creating.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250301-init",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.Project{},
					&model.ProjectCounter{},
					&model.Epic{},
					&model.WorkItem{},
					&model.Status{},
					&model.StatusTransition{},
					&model.Board{},
					&model.BoardColumn{},
					&model.Activity{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&model.Activity{},
					&model.BoardColumn{},
					&model.Board{},
					&model.StatusTransition{},
					&model.Status{},
					&model.WorkItem{},
					&model.Epic{},
					&model.ProjectCounter{},
					&model.Project{},
				)
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	klog.Info("database migration success")
	return nil
}
