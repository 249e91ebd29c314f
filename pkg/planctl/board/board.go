// Package board derives the Kanban view of a project and owns column
// configuration. The view is never stored: every read recomputes it from
// column config plus the current work items, which keeps it trivially
// consistent with the underlying state.
package board

import (
	"context"

	"github.com/samber/lo"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/apperrors"
	"github.com/raids-lab/tracker/pkg/planctl/activity"
)

// StatusLister is the slice of the status service this package consumes.
type StatusLister interface {
	List(ctx context.Context, onlyActive bool) ([]model.Status, error)
}

// Mover performs the validated status move; implemented by the work item
// service so the transition check lives in exactly one place.
type Mover interface {
	Move(ctx context.Context, id, toStatusID, actorID uint) (*model.WorkItem, error)
}

type Service struct {
	store      Store
	statuses   StatusLister
	mover      Mover
	activities activity.Recorder
}

func NewService(store Store, statuses StatusLister, mover Mover, activities activity.Recorder) *Service {
	return &Service{
		store:      store,
		statuses:   statuses,
		mover:      mover,
		activities: activities,
	}
}

type (
	// ViewFilter narrows the cards shown; columns always show.
	ViewFilter struct {
		EpicID     *uint
		AssigneeID *uint
		Text       string
	}

	ColumnView struct {
		ColumnID    uint             `json:"columnID"`
		Status      model.Status     `json:"status"`
		WIPLimit    *int             `json:"wipLimit"`
		IsCollapsed bool             `json:"isCollapsed"`
		OverLimit   bool             `json:"overLimit"`
		ItemCount   int              `json:"itemCount"`
		Items       []model.WorkItem `json:"items"`
	}

	View struct {
		Board   model.Board  `json:"board"`
		Columns []ColumnView `json:"columns"`
	}
)

// CreateBoard creates the project's single board and seeds one column per
// active status, in the statuses' own display order.
func (s *Service) CreateBoard(ctx context.Context, projectID uint, name string, description *string) (*model.Board, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.NotFoundf("project %d not found", projectID)
	}

	existing, err := s.store.GetBoard(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.DuplicateKeyf("a board already exists for project %s", project.Key)
	}

	statuses, err := s.statuses.List(ctx, true)
	if err != nil {
		return nil, err
	}

	board := &model.Board{
		ProjectID:   projectID,
		Name:        name,
		Description: description,
	}
	columns := lo.Map(statuses, func(st model.Status, i int) model.BoardColumn {
		return model.BoardColumn{
			StatusID:   st.ID,
			OrderIndex: i,
		}
	})
	if err := s.store.CreateBoardWithColumns(ctx, board, columns); err != nil {
		return nil, err
	}
	return board, nil
}

// GetBoardView assembles the column layout and the filtered, ordered cards.
// Columns with no matching items still appear with an empty list.
func (s *Service) GetBoardView(ctx context.Context, projectID uint, filter *ViewFilter) (*View, error) {
	board, err := s.store.GetBoard(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, apperrors.NotFoundf("no board for project %d", projectID)
	}

	columns, err := s.store.ListColumns(ctx, board.ID)
	if err != nil {
		return nil, err
	}

	statuses, err := s.statuses.List(ctx, false)
	if err != nil {
		return nil, err
	}
	statusByID := lo.KeyBy(statuses, func(st model.Status) uint { return st.ID })

	items, err := s.store.ListItems(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}
	itemsByStatus := lo.GroupBy(items, func(item model.WorkItem) uint { return item.StatusID })

	view := &View{Board: *board, Columns: make([]ColumnView, 0, len(columns))}
	for _, col := range columns {
		cards := itemsByStatus[col.StatusID]
		if cards == nil {
			cards = []model.WorkItem{}
		}
		view.Columns = append(view.Columns, ColumnView{
			ColumnID:    col.ID,
			Status:      statusByID[col.StatusID],
			WIPLimit:    col.WIPLimit,
			IsCollapsed: col.IsCollapsed,
			OverLimit:   col.WIPLimit != nil && len(cards) > *col.WIPLimit,
			ItemCount:   len(cards),
			Items:       cards,
		})
	}
	return view, nil
}

// MoveWorkItem backs drag-and-drop: it scopes the item to the project's
// board, then delegates the transition check and the status write to the
// work item service. Only StatusID and UpdatedAt change; hierarchy and
// ordering stay untouched. WIP limits are advisory and never block a move.
func (s *Service) MoveWorkItem(ctx context.Context, projectID, workItemID, toStatusID, actorID uint) (*model.WorkItem, error) {
	board, err := s.store.GetBoard(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, apperrors.NotFoundf("no board for project %d", projectID)
	}

	item, err := s.store.GetWorkItem(ctx, workItemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.ProjectID != projectID {
		return nil, apperrors.NotFoundf("work item %d not found in project %d", workItemID, projectID)
	}

	return s.mover.Move(ctx, workItemID, toStatusID, actorID)
}

// UpdateColumn mutates WIP limit and collapse only; it never moves items.
func (s *Service) UpdateColumn(ctx context.Context, projectID, columnID uint, wipLimit **int, isCollapsed *bool) (*model.BoardColumn, error) {
	board, err := s.store.GetBoard(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, apperrors.NotFoundf("no board for project %d", projectID)
	}

	column, err := s.store.GetColumn(ctx, board.ID, columnID)
	if err != nil {
		return nil, err
	}
	if column == nil {
		return nil, apperrors.NotFoundf("column %d not found on board %d", columnID, board.ID)
	}

	updates := make(map[string]any)
	if wipLimit != nil {
		updates["wip_limit"] = *wipLimit
	}
	if isCollapsed != nil {
		updates["is_collapsed"] = *isCollapsed
	}
	if len(updates) > 0 {
		if err := s.store.UpdateColumn(ctx, column.ID, updates); err != nil {
			return nil, err
		}
	}
	return s.store.GetColumn(ctx, board.ID, columnID)
}

// ReorderColumns rewrites OrderIndex from a full permutation of the board's
// column ids. Anything short of an exact permutation is rejected before any
// write, and the rewrite itself runs in one transaction, so a bad request
// never leaves a partial order behind.
func (s *Service) ReorderColumns(ctx context.Context, projectID uint, orderedIDs []uint, actorID uint) error {
	board, err := s.store.GetBoard(ctx, projectID)
	if err != nil {
		return err
	}
	if board == nil {
		return apperrors.NotFoundf("no board for project %d", projectID)
	}

	columns, err := s.store.ListColumns(ctx, board.ID)
	if err != nil {
		return err
	}

	current := lo.Map(columns, func(col model.BoardColumn, _ int) uint { return col.ID })
	if len(orderedIDs) != len(current) {
		return apperrors.BadRequestf("reorder must list all %d columns, got %d", len(current), len(orderedIDs))
	}
	missing, extra := lo.Difference(current, orderedIDs)
	if len(missing) > 0 || len(extra) > 0 {
		return apperrors.BadRequestf("reorder list is not a permutation of the board's columns")
	}

	if err := s.store.ReorderColumns(ctx, board.ID, orderedIDs); err != nil {
		return err
	}

	if s.activities != nil {
		s.activities.Record(ctx, projectID, actorID, model.VerbColumnsOrdered, map[string]any{
			"board": board.ID,
		})
	}
	return nil
}
