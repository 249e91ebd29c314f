package model

import (
	"time"

	"gorm.io/gorm"
)

// Epic groups related work items within a project. Epics soft-delete
// (gorm.Model carries DeletedAt) because they can still be referenced by
// work items when removed; the cleaner purges them after the retention
// window.
type Epic struct {
	gorm.Model
	ProjectID   uint    `gorm:"index;not null"`
	Key         string  `gorm:"uniqueIndex;type:varchar(32);comment:generated key PKEY-EPIC-n"`
	Summary     string  `gorm:"type:varchar(256)"`
	Description *string `gorm:"type:text"`
	StatusID    uint    `gorm:"index;not null"`
	AssigneeID  *uint
	Priority    Priority `gorm:"default:3"`
	StartDate   *time.Time
	DueDate     *time.Time

	WorkItems []WorkItem `gorm:"foreignKey:EpicID"`
}
