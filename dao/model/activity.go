package model

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is an append-only trail of tracked mutations (status moves,
// parent changes, column reorders) consumed by the history panel.
type Activity struct {
	ID        string `gorm:"primarykey;type:varchar(36)"`
	ProjectID uint   `gorm:"index;not null"`
	ActorID   uint   `gorm:"index"`
	Verb      string `gorm:"type:varchar(32)"`
	Payload   datatypes.JSON
	CreatedAt time.Time `gorm:"index"`
}
