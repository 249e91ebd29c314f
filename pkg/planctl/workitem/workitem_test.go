package workitem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/apperrors"
)

type fakeStore struct {
	nextID   uint
	items    map[uint]model.WorkItem
	projects map[uint]model.Project
	epics    map[uint]model.Epic
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   1,
		items:    make(map[uint]model.WorkItem),
		projects: make(map[uint]model.Project),
		epics:    make(map[uint]model.Epic),
	}
}

func (f *fakeStore) Create(_ context.Context, item *model.WorkItem) error {
	item.ID = f.nextID
	f.nextID++
	f.items[item.ID] = *item
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uint) (*model.WorkItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeStore) Updates(_ context.Context, id uint, updates map[string]any) error {
	item := f.items[id]
	for column, value := range updates {
		switch column {
		case "status_id":
			item.StatusID = value.(uint)
		case "summary":
			item.Summary = value.(string)
		case "parent_id":
			item.ParentID = value.(*uint)
		case "epic_id":
			item.EpicID = value.(*uint)
		case "assignee_id":
			item.AssigneeID = value.(*uint)
		case "priority":
			item.Priority = value.(model.Priority)
		}
	}
	f.items[id] = item
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uint) error {
	delete(f.items, id)
	return nil
}

func (f *fakeStore) Search(_ context.Context, filter *Filter) ([]model.WorkItem, int64, error) {
	var out []model.WorkItem
	for _, item := range f.items {
		if filter.ProjectID != nil && item.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.StatusID != nil && item.StatusID != *filter.StatusID {
			continue
		}
		if filter.Text != "" && !strings.Contains(strings.ToLower(item.Summary), strings.ToLower(filter.Text)) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	total := int64(len(out))
	start := filter.PageIndex * filter.PageSize
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *fakeStore) MaxOrderIndex(_ context.Context, projectID, statusID uint) (int, error) {
	max := 0
	for _, item := range f.items {
		if item.ProjectID == projectID && item.StatusID == statusID && item.OrderIndex > max {
			max = item.OrderIndex
		}
	}
	return max, nil
}

func (f *fakeStore) CountChildren(_ context.Context, parentID uint) (int64, error) {
	var count int64
	for _, item := range f.items {
		if item.ParentID != nil && *item.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetProject(_ context.Context, id uint) (*model.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return &project, nil
}

func (f *fakeStore) GetEpic(_ context.Context, id uint) (*model.Epic, error) {
	epic, ok := f.epics[id]
	if !ok {
		return nil, nil
	}
	return &epic, nil
}

// fakeStatuses implements StatusValidator with a fixed TODO/IN PROGRESS/DONE
// workflow; the blocked map holds explicit disallowed edges.
type fakeStatuses struct {
	statuses map[uint]model.Status
	blocked  map[[2]uint]bool
}

func newFakeStatuses() *fakeStatuses {
	return &fakeStatuses{
		statuses: map[uint]model.Status{
			1: {Name: "TODO", IsActive: true, IsDefaultForNew: true},
			2: {Name: "IN PROGRESS", IsActive: true},
			3: {Name: "DONE", IsActive: true},
			4: {Name: "RETIRED", IsActive: false},
		},
		blocked: make(map[[2]uint]bool),
	}
}

func (f *fakeStatuses) Get(_ context.Context, id uint) (*model.Status, error) {
	st, ok := f.statuses[id]
	if !ok {
		return nil, apperrors.NotFoundf("status %d not found", id)
	}
	st.ID = id
	return &st, nil
}

func (f *fakeStatuses) DefaultStatus(_ context.Context) (*model.Status, error) {
	return f.Get(context.Background(), 1)
}

func (f *fakeStatuses) ValidateTransition(_ context.Context, fromID, toID uint) (bool, error) {
	if fromID == toID {
		return true, nil
	}
	return !f.blocked[[2]uint{fromID, toID}], nil
}

type fakeCycles struct {
	cyclic bool
}

func (f *fakeCycles) WouldCreateCycle(_ context.Context, _, _ uint) (bool, error) {
	return f.cyclic, nil
}

type fakeKeys struct {
	n int
}

func (f *fakeKeys) NextWorkItemKey(_ context.Context, _ uint) (string, error) {
	f.n++
	return fmt.Sprintf("ENG-%d", f.n), nil
}

type testEnv struct {
	service  *Service
	store    *fakeStore
	statuses *fakeStatuses
	cycles   *fakeCycles
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	store.projects[1] = model.Project{Key: "ENG", IsActive: true}
	store.projects[2] = model.Project{Key: "OPS", IsActive: true, IsArchived: true}
	store.epics[10] = model.Epic{ProjectID: 1, Key: "ENG-EPIC-1"}
	store.epics[11] = model.Epic{ProjectID: 3, Key: "WEB-EPIC-1"}

	statuses := newFakeStatuses()
	cycles := &fakeCycles{}
	return &testEnv{
		service:  NewService(store, statuses, cycles, &fakeKeys{}, nil),
		store:    store,
		statuses: statuses,
		cycles:   cycles,
	}
}

func ptrTo[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	PatchConvey("Create", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		Convey("defaults: status, key, priority and order index", func() {
			item, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1,
				Type:      model.WorkItemTask,
				Summary:   "first",
			}, 7)
			So(err, ShouldBeNil)
			So(item.Key, ShouldEqual, "ENG-1")
			So(item.StatusID, ShouldEqual, 1)
			So(item.Priority, ShouldEqual, model.PriorityMedium)
			So(item.ReporterID, ShouldEqual, 7)
			So(item.OrderIndex, ShouldEqual, 1)

			second, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1,
				Type:      model.WorkItemTask,
				Summary:   "second",
			}, 7)
			So(err, ShouldBeNil)
			So(second.Key, ShouldEqual, "ENG-2")
			So(second.OrderIndex, ShouldEqual, 2)
		})

		Convey("unknown project", func() {
			_, err := env.service.Create(ctx, &CreateRequest{ProjectID: 9, Type: model.WorkItemTask}, 7)
			So(apperrors.IsKind(err, apperrors.KindNotFound), ShouldBeTrue)
		})

		Convey("archived project rejects creates", func() {
			_, err := env.service.Create(ctx, &CreateRequest{ProjectID: 2, Type: model.WorkItemTask}, 7)
			So(apperrors.IsKind(err, apperrors.KindBadRequest), ShouldBeTrue)
		})

		Convey("epic from another project", func() {
			_, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemTask, EpicID: ptrTo(uint(11)),
			}, 7)
			So(apperrors.IsKind(err, apperrors.KindInvalidHierarchy), ShouldBeTrue)
		})

		Convey("a task may not have a parent", func() {
			_, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemTask, ParentID: ptrTo(uint(1)),
			}, 7)
			So(apperrors.IsKind(err, apperrors.KindInvalidHierarchy), ShouldBeTrue)
		})

		Convey("a subtask requires a parent", func() {
			_, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemSubtask,
			}, 7)
			So(apperrors.IsKind(err, apperrors.KindInvalidHierarchy), ShouldBeTrue)
		})

		Convey("a subtask under a task is fine, under a subtask is not", func() {
			task, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemTask, Summary: "parent",
			}, 7)
			So(err, ShouldBeNil)

			sub, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemSubtask, Summary: "child", ParentID: &task.ID,
			}, 7)
			So(err, ShouldBeNil)
			So(*sub.ParentID, ShouldEqual, task.ID)

			_, err = env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemSubtask, Summary: "grandchild", ParentID: &sub.ID,
			}, 7)
			So(apperrors.IsKind(err, apperrors.KindInvalidHierarchy), ShouldBeTrue)
		})
	})
}

func TestUpdate(t *testing.T) {
	PatchConvey("Update", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		item, err := env.service.Create(ctx, &CreateRequest{
			ProjectID: 1, Type: model.WorkItemTask, Summary: "task",
		}, 7)
		So(err, ShouldBeNil)

		Convey("status change goes through the transition check", func() {
			env.statuses.blocked[[2]uint{1, 3}] = true
			_, err := env.service.Update(ctx, item.ID, &UpdateRequest{StatusID: ptrTo(uint(3))}, 7, false)
			So(apperrors.IsKind(err, apperrors.KindInvalidStatusTransition), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "TODO")
			So(err.Error(), ShouldContainSubstring, "DONE")
		})

		Convey("moving to an inactive status is rejected", func() {
			_, err := env.service.Update(ctx, item.ID, &UpdateRequest{StatusID: ptrTo(uint(4))}, 7, false)
			So(apperrors.IsKind(err, apperrors.KindBadRequest), ShouldBeTrue)
		})

		Convey("reparenting through a cycle is rejected", func() {
			sub, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemSubtask, Summary: "child", ParentID: &item.ID,
			}, 7)
			So(err, ShouldBeNil)

			env.cycles.cyclic = true
			parent := ptrTo(item.ID)
			_, err = env.service.Update(ctx, sub.ID, &UpdateRequest{ParentID: &parent}, 7, false)
			So(apperrors.IsKind(err, apperrors.KindCircularHierarchy), ShouldBeTrue)
		})

		Convey("clearing the epic writes a null", func() {
			epicID := ptrTo(uint(10))
			updated, err := env.service.Update(ctx, item.ID, &UpdateRequest{EpicID: &epicID}, 7, false)
			So(err, ShouldBeNil)
			So(*updated.EpicID, ShouldEqual, 10)

			var cleared *uint
			updated, err = env.service.Update(ctx, item.ID, &UpdateRequest{EpicID: &cleared}, 7, false)
			So(err, ShouldBeNil)
			So(updated.EpicID, ShouldBeNil)
		})

		Convey("empty patch is a no-op", func() {
			updated, err := env.service.Update(ctx, item.ID, &UpdateRequest{}, 7, false)
			So(err, ShouldBeNil)
			So(updated.Summary, ShouldEqual, "task")
		})
	})
}

func TestMove(t *testing.T) {
	PatchConvey("Move", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		item, err := env.service.Create(ctx, &CreateRequest{
			ProjectID: 1, Type: model.WorkItemTask, Summary: "task",
		}, 7)
		So(err, ShouldBeNil)

		Convey("only the status changes", func() {
			moved, err := env.service.Move(ctx, item.ID, 2, 7)
			So(err, ShouldBeNil)
			So(moved.StatusID, ShouldEqual, 2)
			So(moved.Summary, ShouldEqual, "task")
			So(moved.OrderIndex, ShouldEqual, item.OrderIndex)
		})

		Convey("moving to the current status is a no-op", func() {
			moved, err := env.service.Move(ctx, item.ID, item.StatusID, 7)
			So(err, ShouldBeNil)
			So(moved.StatusID, ShouldEqual, item.StatusID)
		})

		Convey("a blocked transition fails", func() {
			env.statuses.blocked[[2]uint{1, 2}] = true
			_, err := env.service.Move(ctx, item.ID, 2, 7)
			So(apperrors.IsKind(err, apperrors.KindInvalidStatusTransition), ShouldBeTrue)
		})
	})
}

func TestDelete(t *testing.T) {
	PatchConvey("Delete", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		item, err := env.service.Create(ctx, &CreateRequest{
			ProjectID: 1, Type: model.WorkItemTask, Summary: "task",
		}, 7)
		So(err, ShouldBeNil)

		Convey("a stranger cannot delete", func() {
			err := env.service.Delete(ctx, item.ID, 99, false)
			So(apperrors.IsKind(err, apperrors.KindForbidden), ShouldBeTrue)
		})

		Convey("an admin can delete someone else's item", func() {
			So(env.service.Delete(ctx, item.ID, 99, true), ShouldBeNil)
		})

		Convey("items with subtasks are blocked", func() {
			_, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemSubtask, Summary: "child", ParentID: &item.ID,
			}, 7)
			So(err, ShouldBeNil)

			err = env.service.Delete(ctx, item.ID, 7, false)
			So(apperrors.IsKind(err, apperrors.KindBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "1 subtask(s)")
		})

		Convey("the reporter deletes their own item", func() {
			So(env.service.Delete(ctx, item.ID, 7, false), ShouldBeNil)
			_, err := env.service.Get(ctx, item.ID)
			So(apperrors.IsKind(err, apperrors.KindNotFound), ShouldBeTrue)
		})
	})
}

func TestSearch(t *testing.T) {
	PatchConvey("Search", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		for i := 0; i < 3; i++ {
			_, err := env.service.Create(ctx, &CreateRequest{
				ProjectID: 1, Type: model.WorkItemTask, Summary: fmt.Sprintf("login bug %d", i),
			}, 7)
			So(err, ShouldBeNil)
		}

		Convey("text filter matches the summary", func() {
			items, total, err := env.service.Search(ctx, &Filter{ProjectID: ptrTo(uint(1)), Text: "login"})
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 3)
			So(len(items), ShouldEqual, 3)
		})

		Convey("pagination clamps and defaults", func() {
			items, total, err := env.service.Search(ctx, &Filter{ProjectID: ptrTo(uint(1)), PageIndex: -5})
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 3)
			So(len(items), ShouldEqual, 3)

			items, total, err = env.service.Search(ctx, &Filter{ProjectID: ptrTo(uint(1)), PageIndex: 1, PageSize: 2})
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 3)
			So(len(items), ShouldEqual, 1)
		})

		Convey("results keep order index order", func() {
			items, _, err := env.service.Search(ctx, &Filter{ProjectID: ptrTo(uint(1))})
			So(err, ShouldBeNil)
			So(items[0].OrderIndex, ShouldBeLessThan, items[1].OrderIndex)
		})
	})
}
