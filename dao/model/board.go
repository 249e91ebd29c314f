package model

import "gorm.io/gorm"

// Board is the Kanban view of one project, one-to-one with Project.
type Board struct {
	gorm.Model
	ProjectID   uint    `gorm:"uniqueIndex;not null"`
	Name        string  `gorm:"type:varchar(64)"`
	Description *string `gorm:"type:varchar(256)"`

	Columns []BoardColumn
}

// BoardColumn maps one Status to a column of the board. The WIP limit is
// advisory: the data layer records it, the presentation layer flags it.
type BoardColumn struct {
	gorm.Model
	BoardID     uint `gorm:"uniqueIndex:idx_board_status;not null"`
	StatusID    uint `gorm:"uniqueIndex:idx_board_status;not null"`
	OrderIndex  int  `gorm:"default:0"`
	WIPLimit    *int
	IsCollapsed bool `gorm:"type:boolean;default:false"`
}
