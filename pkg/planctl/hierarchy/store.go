package hierarchy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/raids-lab/tracker/dao/model"
)

type dbStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) ParentLookup {
	return &dbStore{db: db}
}

func (s *dbStore) ParentID(ctx context.Context, itemID uint) (*uint, error) {
	var item model.WorkItem
	err := s.db.WithContext(ctx).Select("parent_id").First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ParentID, nil
}
