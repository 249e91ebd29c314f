// Package keygen issues the human-readable keys for epics and work items
// (PROJ-EPIC-7, PROJ-42). Keys are monotonically increasing per project and
// kind and must stay unique under concurrent creates, so issuance is
// serialized twice: an in-process mutex per (project, kind) and a row lock
// on the counter inside the transaction. Either alone would do on a single
// node; the row lock also covers multiple server replicas.
package keygen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/apperrors"
)

type lockKey struct {
	projectID uint
	kind      model.CounterKind
}

type Service struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex

	// issue is swapped out by tests that exercise the serialization without
	// a database.
	issue func(ctx context.Context, projectID uint, kind model.CounterKind) (string, int64, error)
}

func NewService(db *gorm.DB) *Service {
	s := &Service{
		db:    db,
		locks: make(map[lockKey]*sync.Mutex),
	}
	s.issue = s.issueFromStore
	return s
}

func (s *Service) NextEpicKey(ctx context.Context, projectID uint) (string, error) {
	projectKey, n, err := s.next(ctx, projectID, model.CounterEpic)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-EPIC-%d", projectKey, n), nil
}

func (s *Service) NextWorkItemKey(ctx context.Context, projectID uint) (string, error) {
	projectKey, n, err := s.next(ctx, projectID, model.CounterWorkItem)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", projectKey, n), nil
}

func (s *Service) next(ctx context.Context, projectID uint, kind model.CounterKind) (string, int64, error) {
	lock := s.lockFor(projectID, kind)
	lock.Lock()
	defer lock.Unlock()

	return s.issue(ctx, projectID, kind)
}

func (s *Service) lockFor(projectID uint, kind model.CounterKind) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lockKey{projectID: projectID, kind: kind}
	if _, ok := s.locks[key]; !ok {
		s.locks[key] = &sync.Mutex{}
	}
	return s.locks[key]
}

// issueFromStore increments the counter row under a row lock. The first
// issuance for a (project, kind) creates the row.
func (s *Service) issueFromStore(ctx context.Context, projectID uint, kind model.CounterKind) (string, int64, error) {
	var projectKey string
	var value int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project model.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("key generation: project %d not found", projectID)
			}
			return err
		}
		projectKey = project.Key

		var counter model.ProjectCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ? AND kind = ?", projectID, kind).
			First(&counter).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			counter = model.ProjectCounter{ProjectID: projectID, Kind: kind, Value: 1}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			counter.Value++
			if err := tx.Save(&counter).Error; err != nil {
				return err
			}
		}

		value = counter.Value
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return projectKey, value, nil
}
