package board

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/raids-lab/tracker/dao/model"
)

type Store interface {
	GetProject(ctx context.Context, id uint) (*model.Project, error)
	GetBoard(ctx context.Context, projectID uint) (*model.Board, error)
	CreateBoardWithColumns(ctx context.Context, board *model.Board, columns []model.BoardColumn) error
	ListColumns(ctx context.Context, boardID uint) ([]model.BoardColumn, error)
	GetColumn(ctx context.Context, boardID, columnID uint) (*model.BoardColumn, error)
	UpdateColumn(ctx context.Context, columnID uint, updates map[string]any) error
	ReorderColumns(ctx context.Context, boardID uint, orderedIDs []uint) error
	GetWorkItem(ctx context.Context, id uint) (*model.WorkItem, error)
	ListItems(ctx context.Context, projectID uint, filter *ViewFilter) ([]model.WorkItem, error)
}

type dbStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &dbStore{db: db}
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

func (s *dbStore) GetBoard(ctx context.Context, projectID uint) (*model.Board, error) {
	var board model.Board
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *dbStore) CreateBoardWithColumns(ctx context.Context, board *model.Board, columns []model.BoardColumn) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}
		for i := range columns {
			columns[i].BoardID = board.ID
		}
		if len(columns) == 0 {
			return nil
		}
		return tx.Create(&columns).Error
	})
}

func (s *dbStore) ListColumns(ctx context.Context, boardID uint) ([]model.BoardColumn, error) {
	var columns []model.BoardColumn
	err := s.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("order_index asc").
		Find(&columns).Error
	return columns, err
}

func (s *dbStore) GetColumn(ctx context.Context, boardID, columnID uint) (*model.BoardColumn, error) {
	var column model.BoardColumn
	err := s.db.WithContext(ctx).
		Where("board_id = ? AND id = ?", boardID, columnID).
		First(&column).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &column, nil
}

func (s *dbStore) UpdateColumn(ctx context.Context, columnID uint, updates map[string]any) error {
	return s.db.WithContext(ctx).Model(&model.BoardColumn{}).
		Where("id = ?", columnID).Updates(updates).Error
}

// ReorderColumns rewrites every OrderIndex in one transaction so concurrent
// board reads never observe an interleaved partial order.
func (s *dbStore) ReorderColumns(ctx context.Context, boardID uint, orderedIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			res := tx.Model(&model.BoardColumn{}).
				Where("id = ? AND board_id = ?", id, boardID).
				Update("order_index", i)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

func (s *dbStore) GetWorkItem(ctx context.Context, id uint) (*model.WorkItem, error) {
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

func (s *dbStore) ListItems(ctx context.Context, projectID uint, filter *ViewFilter) ([]model.WorkItem, error) {
	q := s.db.WithContext(ctx).Model(&model.WorkItem{}).
		Where("project_id = ?", projectID)

	if filter != nil {
		if filter.EpicID != nil {
			q = q.Where("epic_id = ?", *filter.EpicID)
		}
		if filter.AssigneeID != nil {
			q = q.Where("assignee_id = ?", *filter.AssigneeID)
		}
		if filter.Text != "" {
			pattern := "%" + filter.Text + "%"
			q = q.Where("summary ILIKE ? OR description ILIKE ?", pattern, pattern)
		}
	}

	var items []model.WorkItem
	err := q.Order("order_index asc, id asc").Find(&items).Error
	return items, err
}
