// Package activity keeps the append-only trail of tracked mutations behind
// the history panel. Recording is best-effort: a failed insert is logged
// and never fails the mutation that triggered it.
package activity

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/logutils"
)

type Recorder interface {
	Record(ctx context.Context, projectID, actorID uint, verb string, payload map[string]any)
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Record(ctx context.Context, projectID, actorID uint, verb string, payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logutils.Log.Errorf("marshal activity payload: %v", err)
		return
	}

	event := model.Activity{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		ActorID:   actorID,
		Verb:      verb,
		Payload:   datatypes.JSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		logutils.Log.WithFields(logutils.Fields{
			"project": projectID,
			"verb":    verb,
		}).Errorf("record activity: %v", err)
	}
}

func (s *Service) List(ctx context.Context, projectID uint, pageIndex, pageSize int) ([]model.Activity, int64, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&model.Activity{}).Where("project_id = ?", projectID)
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var events []model.Activity
	err := q.Order("created_at desc").
		Offset(pageIndex * pageSize).Limit(pageSize).
		Find(&events).Error
	return events, count, err
}
