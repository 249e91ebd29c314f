package model

import "time"

// WorkItem is the atomic unit of planned work (Task, Bug or Subtask).
//
// Work items hard-delete, so gorm.Model is deliberately not embedded here:
// a DeletedAt column would switch GORM to soft-delete semantics.
//
// Hierarchy invariant: a Subtask's ParentID must reference a Task or Bug;
// Tasks and Bugs never have a parent. Nesting therefore caps at
// Epic -> WorkItem -> Subtask and the parent graph stays acyclic by type
// alone, as long as parent reassignment goes through the hierarchy check.
type WorkItem struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ProjectID   uint         `gorm:"index;not null"`
	Key         string       `gorm:"uniqueIndex;type:varchar(32);comment:generated key PKEY-n"`
	Type        WorkItemType `gorm:"not null"`
	Summary     string       `gorm:"type:varchar(256)"`
	Description *string      `gorm:"type:text"`
	EpicID      *uint        `gorm:"index"`
	ParentID    *uint        `gorm:"index;comment:parent work item, subtasks only"`
	StatusID    uint         `gorm:"index;not null"`
	AssigneeID  *uint
	ReporterID  uint     `gorm:"not null"`
	Priority    Priority `gorm:"default:3"`
	DueDate     *time.Time
	OrderIndex  int `gorm:"default:0;comment:stable ordering within a status column"`
}
