package model

import "gorm.io/gorm"

type Project struct {
	gorm.Model
	Key         string  `gorm:"uniqueIndex;type:varchar(16);comment:short uppercase project code"`
	Name        string  `gorm:"type:varchar(64)"`
	Description *string `gorm:"type:varchar(256)"`
	OwnerID     uint    `gorm:"index"`
	IsActive    bool    `gorm:"type:boolean;default:true"`
	IsArchived  bool    `gorm:"type:boolean;default:false"`

	Epics     []Epic
	WorkItems []WorkItem
}

// ProjectCounter backs key issuance. One row per (project, kind); Value is
// the last issued sequence number and is only touched inside a locking
// transaction (see pkg/planctl/keygen).
type ProjectCounter struct {
	gorm.Model
	ProjectID uint        `gorm:"uniqueIndex:idx_counter_scope"`
	Kind      CounterKind `gorm:"uniqueIndex:idx_counter_scope"`
	Value     int64
}
