package model

import "gorm.io/gorm"

// Status is a node of the per-instance workflow state machine.
type Status struct {
	gorm.Model
	Name          string `gorm:"uniqueIndex;type:varchar(64)"`
	Color         string `gorm:"type:varchar(16)"`
	OrderIndex    int    `gorm:"default:0;comment:display order"`
	IsDefaultForNew bool `gorm:"type:boolean;default:false"`
	IsCompleted   bool   `gorm:"type:boolean;default:false"`
	IsCancelled   bool   `gorm:"type:boolean;default:false"`
	IsActive      bool   `gorm:"type:boolean;default:true"`
}

// StatusTransition is a directed edge of the transition graph. The absence
// of an edge between two statuses means the transition is allowed; an edge
// records an explicit decision either way.
type StatusTransition struct {
	gorm.Model
	FromStatusID uint `gorm:"uniqueIndex:idx_transition_edge;not null"`
	ToStatusID   uint `gorm:"uniqueIndex:idx_transition_edge;not null"`
	IsAllowed    bool `gorm:"type:boolean;default:true"`
}
