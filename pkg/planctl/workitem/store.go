package workitem

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/raids-lab/tracker/dao/model"
)

// Filter narrows a work item search. Nil fields are ignored; Text matches
// summary or description, case-insensitively.
type Filter struct {
	ProjectID  *uint
	EpicID     *uint
	Type       *model.WorkItemType
	StatusID   *uint
	AssigneeID *uint
	ReporterID *uint
	Priority   *model.Priority
	Text       string
	PageIndex  int
	PageSize   int
}

type Store interface {
	Create(ctx context.Context, item *model.WorkItem) error
	Get(ctx context.Context, id uint) (*model.WorkItem, error)
	Updates(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, filter *Filter) ([]model.WorkItem, int64, error)
	MaxOrderIndex(ctx context.Context, projectID, statusID uint) (int, error)
	CountChildren(ctx context.Context, parentID uint) (int64, error)

	GetProject(ctx context.Context, id uint) (*model.Project, error)
	GetEpic(ctx context.Context, id uint) (*model.Epic, error)
}

type dbStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &dbStore{db: db}
}

func (s *dbStore) Create(ctx context.Context, item *model.WorkItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *dbStore) Get(ctx context.Context, id uint) (*model.WorkItem, error) {
	var item model.WorkItem
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *dbStore) Updates(ctx context.Context, id uint, updates map[string]any) error {
	return s.db.WithContext(ctx).Model(&model.WorkItem{}).
		Where("id = ?", id).Updates(updates).Error
}

func (s *dbStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.WorkItem{}, id).Error
}

func (s *dbStore) Search(ctx context.Context, filter *Filter) ([]model.WorkItem, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.WorkItem{})

	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.EpicID != nil {
		q = q.Where("epic_id = ?", *filter.EpicID)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.StatusID != nil {
		q = q.Where("status_id = ?", *filter.StatusID)
	}
	if filter.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.ReporterID != nil {
		q = q.Where("reporter_id = ?", *filter.ReporterID)
	}
	if filter.Priority != nil {
		q = q.Where("priority = ?", *filter.Priority)
	}
	if filter.Text != "" {
		pattern := "%" + filter.Text + "%"
		q = q.Where("summary ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var items []model.WorkItem
	err := q.Order("order_index asc, id asc").
		Offset(filter.PageIndex * filter.PageSize).Limit(filter.PageSize).
		Find(&items).Error
	return items, count, err
}

func (s *dbStore) MaxOrderIndex(ctx context.Context, projectID, statusID uint) (int, error) {
	var max *int
	err := s.db.WithContext(ctx).Model(&model.WorkItem{}).
		Where("project_id = ? AND status_id = ?", projectID, statusID).
		Select("max(order_index)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (s *dbStore) CountChildren(ctx context.Context, parentID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.WorkItem{}).
		Where("parent_id = ?", parentID).Count(&count).Error
	return count, err
}

func (s *dbStore) GetProject(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *dbStore) GetEpic(ctx context.Context, id uint) (*model.Epic, error) {
	var epic model.Epic
	err := s.db.WithContext(ctx).First(&epic, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &epic, nil
}
