// Package workitem implements CRUD, search and status moves for work items,
// enforcing the hierarchy type rules and the status state machine before
// any write.
package workitem

import (
	"context"
	"time"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/apperrors"
	"github.com/raids-lab/tracker/pkg/planctl/activity"
)

// StatusValidator is the slice of the status service this package consumes.
type StatusValidator interface {
	Get(ctx context.Context, id uint) (*model.Status, error)
	DefaultStatus(ctx context.Context) (*model.Status, error)
	ValidateTransition(ctx context.Context, fromID, toID uint) (bool, error)
}

// CycleChecker guards parent reassignment.
type CycleChecker interface {
	WouldCreateCycle(ctx context.Context, itemID, proposedParentID uint) (bool, error)
}

// KeyIssuer hands out project-scoped keys.
type KeyIssuer interface {
	NextWorkItemKey(ctx context.Context, projectID uint) (string, error)
}

type Service struct {
	store      Store
	statuses   StatusValidator
	cycles     CycleChecker
	keys       KeyIssuer
	activities activity.Recorder
}

func NewService(store Store, statuses StatusValidator, cycles CycleChecker,
	keys KeyIssuer, activities activity.Recorder) *Service {
	return &Service{
		store:      store,
		statuses:   statuses,
		cycles:     cycles,
		keys:       keys,
		activities: activities,
	}
}

type CreateRequest struct {
	ProjectID   uint
	Type        model.WorkItemType
	Summary     string
	Description *string
	EpicID      *uint
	ParentID    *uint
	AssigneeID  *uint
	Priority    model.Priority
	DueDate     *time.Time
}

// UpdateRequest uses pointers for optionality: nil fields are untouched.
// ParentID and EpicID use a double pointer so "clear the parent" (inner nil)
// is distinguishable from "leave it alone" (outer nil).
type UpdateRequest struct {
	Summary     *string
	Description *string
	EpicID      **uint
	ParentID    **uint
	StatusID    *uint
	AssigneeID  **uint
	Priority    *model.Priority
	DueDate     **time.Time
}

func (s *Service) Create(ctx context.Context, req *CreateRequest, actorID uint) (*model.WorkItem, error) {
	project, err := s.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.NotFoundf("project %d not found", req.ProjectID)
	}
	if project.IsArchived {
		return nil, apperrors.BadRequestf("project %s is archived", project.Key)
	}

	if req.EpicID != nil {
		epic, err := s.store.GetEpic(ctx, *req.EpicID)
		if err != nil {
			return nil, err
		}
		if epic == nil {
			return nil, apperrors.NotFoundf("epic %d not found", *req.EpicID)
		}
		if epic.ProjectID != req.ProjectID {
			return nil, apperrors.InvalidHierarchyf(
				"epic %s belongs to another project", epic.Key)
		}
	}

	if err := s.checkParentType(ctx, req.Type, req.ParentID, req.ProjectID); err != nil {
		return nil, err
	}
	// Create is exempt from the cycle check: a brand-new item cannot be
	// anyone's ancestor yet.

	defaultStatus, err := s.statuses.DefaultStatus(ctx)
	if err != nil {
		return nil, err
	}

	key, err := s.keys.NextWorkItemKey(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	maxOrder, err := s.store.MaxOrderIndex(ctx, req.ProjectID, defaultStatus.ID)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == 0 {
		priority = model.PriorityMedium
	}

	item := &model.WorkItem{
		ProjectID:   req.ProjectID,
		Key:         key,
		Type:        req.Type,
		Summary:     req.Summary,
		Description: req.Description,
		EpicID:      req.EpicID,
		ParentID:    req.ParentID,
		StatusID:    defaultStatus.ID,
		AssigneeID:  req.AssigneeID,
		ReporterID:  actorID,
		Priority:    priority,
		DueDate:     req.DueDate,
		OrderIndex:  maxOrder + 1,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*model.WorkItem, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.NotFoundf("work item %d not found", id)
	}
	return item, nil
}

//nolint:gocyclo // field-by-field patch application reads better flat.
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest, actorID uint, privileged bool) (*model.WorkItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)

	if req.ParentID != nil {
		newParent := *req.ParentID
		if err := s.checkParentType(ctx, item.Type, newParent, item.ProjectID); err != nil {
			return nil, err
		}
		if newParent != nil {
			cycle, err := s.cycles.WouldCreateCycle(ctx, item.ID, *newParent)
			if err != nil {
				return nil, err
			}
			if cycle {
				return nil, apperrors.CircularHierarchyf(
					"setting parent %d on %s would create a cycle", *newParent, item.Key)
			}
		}
		updates["parent_id"] = newParent
	}

	if req.EpicID != nil {
		newEpic := *req.EpicID
		if newEpic != nil {
			epic, err := s.store.GetEpic(ctx, *newEpic)
			if err != nil {
				return nil, err
			}
			if epic == nil {
				return nil, apperrors.NotFoundf("epic %d not found", *newEpic)
			}
			if epic.ProjectID != item.ProjectID {
				return nil, apperrors.InvalidHierarchyf("epic %s belongs to another project", epic.Key)
			}
		}
		updates["epic_id"] = newEpic
	}

	if req.StatusID != nil && *req.StatusID != item.StatusID {
		if err := s.validateTransition(ctx, item.StatusID, *req.StatusID); err != nil {
			return nil, err
		}
		updates["status_id"] = *req.StatusID
	}

	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}

	if len(updates) == 0 {
		return item, nil
	}
	if err := s.store.Updates(ctx, id, updates); err != nil {
		return nil, err
	}

	if _, ok := updates["parent_id"]; ok && s.activities != nil {
		s.activities.Record(ctx, item.ProjectID, actorID, model.VerbParentChanged, map[string]any{
			"workItem": item.Key,
		})
	}

	return s.Get(ctx, id)
}

// Move is the lightweight operation behind drag-and-drop: it validates the
// transition and writes the new status, touching nothing else.
func (s *Service) Move(ctx context.Context, id, toStatusID uint, actorID uint) (*model.WorkItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.StatusID == toStatusID {
		return item, nil
	}

	if err := s.validateTransition(ctx, item.StatusID, toStatusID); err != nil {
		return nil, err
	}

	if err := s.store.Updates(ctx, id, map[string]any{"status_id": toStatusID}); err != nil {
		return nil, err
	}

	if s.activities != nil {
		s.activities.Record(ctx, item.ProjectID, actorID, model.VerbStatusMoved, map[string]any{
			"workItem": item.Key,
			"from":     item.StatusID,
			"to":       toStatusID,
		})
	}

	item.StatusID = toStatusID
	return item, nil
}

func (s *Service) Search(ctx context.Context, filter *Filter) ([]model.WorkItem, int64, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if filter.PageIndex < 0 {
		filter.PageIndex = 0
	}
	return s.store.Search(ctx, filter)
}

// Delete removes a work item permanently. Only the reporter or a privileged
// actor may delete, and items with subtasks are blocked until the subtasks
// go first, so the hierarchy never dangles.
func (s *Service) Delete(ctx context.Context, id, actorID uint, privileged bool) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.ReporterID != actorID && !privileged {
		return apperrors.Forbiddenf("only the reporter or an admin may delete %s", item.Key)
	}

	children, err := s.store.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperrors.BadRequestf("%s still has %d subtask(s)", item.Key, children)
	}

	return s.store.Delete(ctx, id)
}

// checkParentType enforces the two-level nesting rule: subtasks require a
// Task or Bug parent in the same project, everything else must be
// parentless.
func (s *Service) checkParentType(ctx context.Context, itemType model.WorkItemType, parentID *uint, projectID uint) error {
	if itemType == model.WorkItemSubtask {
		if parentID == nil {
			return apperrors.InvalidHierarchyf("a subtask requires a parent task or bug")
		}
		parent, err := s.store.Get(ctx, *parentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return apperrors.NotFoundf("parent work item %d not found", *parentID)
		}
		if parent.ProjectID != projectID {
			return apperrors.InvalidHierarchyf("parent %s belongs to another project", parent.Key)
		}
		if parent.Type == model.WorkItemSubtask {
			return apperrors.InvalidHierarchyf("parent %s is a subtask; subtasks cannot nest", parent.Key)
		}
		return nil
	}

	if parentID != nil {
		return apperrors.InvalidHierarchyf("only subtasks may have a parent work item")
	}
	return nil
}

func (s *Service) validateTransition(ctx context.Context, fromID, toID uint) error {
	to, err := s.statuses.Get(ctx, toID)
	if err != nil {
		return err
	}
	if !to.IsActive {
		return apperrors.BadRequestf("status %q is not active", to.Name)
	}

	ok, err := s.statuses.ValidateTransition(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	from, err := s.statuses.Get(ctx, fromID)
	if err != nil {
		return err
	}
	return apperrors.InvalidTransitionf("transition %q -> %q is not allowed", from.Name, to.Name)
}
