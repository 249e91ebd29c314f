package status

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raids-lab/tracker/dao/model"
)

type dbStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &dbStore{db: db}
}

func (s *dbStore) List(ctx context.Context, onlyActive bool) ([]model.Status, error) {
	var statuses []model.Status
	q := s.db.WithContext(ctx).Order("order_index asc")
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&statuses).Error
	return statuses, err
}

func (s *dbStore) Get(ctx context.Context, id uint) (*model.Status, error) {
	var status model.Status
	err := s.db.WithContext(ctx).First(&status, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *dbStore) GetByName(ctx context.Context, name string) (*model.Status, error) {
	var status model.Status
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *dbStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Status{}).Count(&count).Error
	return count, err
}

func (s *dbStore) Create(ctx context.Context, status *model.Status) error {
	return s.db.WithContext(ctx).Create(status).Error
}

func (s *dbStore) CreateAll(ctx context.Context, statuses []model.Status) error {
	return s.db.WithContext(ctx).Create(&statuses).Error
}

func (s *dbStore) Update(ctx context.Context, status *model.Status) error {
	return s.db.WithContext(ctx).Save(status).Error
}

func (s *dbStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.Status{}, id).Error
}

func (s *dbStore) Edge(ctx context.Context, fromID, toID uint) (*model.StatusTransition, error) {
	var edge model.StatusTransition
	err := s.db.WithContext(ctx).
		Where("from_status_id = ? AND to_status_id = ?", fromID, toID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (s *dbStore) AllowedEdgesFrom(ctx context.Context, fromID uint) ([]model.StatusTransition, error) {
	var edges []model.StatusTransition
	err := s.db.WithContext(ctx).
		Where("from_status_id = ? AND is_allowed = ?", fromID, true).
		Find(&edges).Error
	return edges, err
}

func (s *dbStore) UpsertEdge(ctx context.Context, edge *model.StatusTransition) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_status_id"}, {Name: "to_status_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_allowed", "updated_at"}),
	}).Create(edge).Error
}

func (s *dbStore) References(ctx context.Context, statusID uint) (epics, workItems int64, err error) {
	if err = s.db.WithContext(ctx).Model(&model.Epic{}).
		Where("status_id = ?", statusID).Count(&epics).Error; err != nil {
		return 0, 0, err
	}
	if err = s.db.WithContext(ctx).Model(&model.WorkItem{}).
		Where("status_id = ?", statusID).Count(&workItems).Error; err != nil {
		return 0, 0, err
	}
	return epics, workItems, nil
}
