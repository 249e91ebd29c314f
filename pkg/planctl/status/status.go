// Package status owns the workflow state machine: the set of statuses and
// the directed transition graph between them.
package status

import (
	"context"

	"github.com/samber/lo"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/apperrors"
	"github.com/raids-lab/tracker/pkg/logutils"
)

// Store is the persistence surface the service needs. The gorm-backed
// implementation lives in store.go; tests use an in-memory fake.
type Store interface {
	List(ctx context.Context, onlyActive bool) ([]model.Status, error)
	Get(ctx context.Context, id uint) (*model.Status, error)
	GetByName(ctx context.Context, name string) (*model.Status, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, status *model.Status) error
	CreateAll(ctx context.Context, statuses []model.Status) error
	Update(ctx context.Context, status *model.Status) error
	Delete(ctx context.Context, id uint) error

	Edge(ctx context.Context, fromID, toID uint) (*model.StatusTransition, error)
	AllowedEdgesFrom(ctx context.Context, fromID uint) ([]model.StatusTransition, error)
	UpsertEdge(ctx context.Context, edge *model.StatusTransition) error

	// References counts epics and work items currently pointing at the status.
	References(ctx context.Context, statusID uint) (epics, workItems int64, err error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ValidateTransition reports whether moving from one status to another is
// permitted. Self-transitions are always allowed. An explicit edge decides;
// a missing edge means allowed — the graph records decisions, it does not
// enumerate permissions.
func (s *Service) ValidateTransition(ctx context.Context, fromID, toID uint) (bool, error) {
	if fromID == toID {
		return true, nil
	}
	edge, err := s.store.Edge(ctx, fromID, toID)
	if err != nil {
		return false, err
	}
	if edge == nil {
		return true, nil
	}
	return edge.IsAllowed, nil
}

// AllowedTransitions lists the targets with an explicit allowed edge from
// fromID. Targets reachable only through the permissive default are not
// included; see the validate-transition endpoint for the authoritative
// answer on a specific pair.
func (s *Service) AllowedTransitions(ctx context.Context, fromID uint) ([]model.Status, error) {
	edges, err := s.store.AllowedEdgesFrom(ctx, fromID)
	if err != nil {
		return nil, err
	}

	targets := make([]model.Status, 0, len(edges))
	for _, edge := range edges {
		target, err := s.store.Get(ctx, edge.ToStatusID)
		if err != nil {
			return nil, err
		}
		if target != nil {
			targets = append(targets, *target)
		}
	}
	return targets, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*model.Status, error) {
	status, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, apperrors.NotFoundf("status %d not found", id)
	}
	return status, nil
}

func (s *Service) List(ctx context.Context, onlyActive bool) ([]model.Status, error) {
	return s.store.List(ctx, onlyActive)
}

// DefaultStatus returns the status new items start in: the one flagged
// IsDefaultForNew, or the active status with the lowest display order when
// nothing is flagged.
func (s *Service) DefaultStatus(ctx context.Context) (*model.Status, error) {
	statuses, err := s.store.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, apperrors.NotFoundf("no active statuses configured")
	}

	if flagged, ok := lo.Find(statuses, func(st model.Status) bool { return st.IsDefaultForNew }); ok {
		return &flagged, nil
	}
	lowest := lo.MinBy(statuses, func(a, b model.Status) bool { return a.OrderIndex < b.OrderIndex })
	return &lowest, nil
}

func (s *Service) CreateStatus(ctx context.Context, status *model.Status) error {
	existing, err := s.store.GetByName(ctx, status.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.DuplicateKeyf("status name %q already exists", status.Name)
	}
	return s.store.Create(ctx, status)
}

func (s *Service) UpdateStatus(ctx context.Context, status *model.Status) error {
	existing, err := s.store.GetByName(ctx, status.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != status.ID {
		return apperrors.DuplicateKeyf("status name %q already exists", status.Name)
	}
	return s.store.Update(ctx, status)
}

// DeleteStatus removes a status; it fails while any epic or work item still
// references it, naming the blocker counts.
func (s *Service) DeleteStatus(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	epics, workItems, err := s.store.References(ctx, id)
	if err != nil {
		return err
	}
	if epics > 0 || workItems > 0 {
		return apperrors.BadRequestf(
			"status %d is still referenced by %d epic(s) and %d work item(s)", id, epics, workItems)
	}
	return s.store.Delete(ctx, id)
}

// SetTransition records an explicit edge decision, overwriting any previous
// decision for the pair.
func (s *Service) SetTransition(ctx context.Context, fromID, toID uint, allowed bool) error {
	if _, err := s.Get(ctx, fromID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, toID); err != nil {
		return err
	}
	return s.store.UpsertEdge(ctx, &model.StatusTransition{
		FromStatusID: fromID,
		ToStatusID:   toID,
		IsAllowed:    allowed,
	})
}

// SeedDefaultStatuses installs the stock workflow. It is a no-op when any
// status already exists, so calling it on every boot is safe.
func (s *Service) SeedDefaultStatuses(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.Status{
		{Name: "BACKLOG", Color: "#6B7280", OrderIndex: 0, IsActive: true},
		{Name: "TODO", Color: "#3B82F6", OrderIndex: 1, IsDefaultForNew: true, IsActive: true},
		{Name: "IN PROGRESS", Color: "#F59E0B", OrderIndex: 2, IsActive: true},
		{Name: "DONE", Color: "#10B981", OrderIndex: 3, IsCompleted: true, IsActive: true},
		{Name: "CANCELLED", Color: "#EF4444", OrderIndex: 4, IsCancelled: true, IsActive: true},
	}
	if err := s.store.CreateAll(ctx, defaults); err != nil {
		return err
	}
	logutils.Log.Info("seeded default statuses")
	return nil
}
