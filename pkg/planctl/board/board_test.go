package board

import (
	"context"
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
	projects map[uint]model.Project
	boards   map[uint]model.Board // keyed by project id
	columns  map[uint]model.BoardColumn
	items    map[uint]model.WorkItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   1,
		projects: make(map[uint]model.Project),
		boards:   make(map[uint]model.Board),
		columns:  make(map[uint]model.BoardColumn),
		items:    make(map[uint]model.WorkItem),
	}
}

func (f *fakeStore) id() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) GetProject(_ context.Context, id uint) (*model.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return &project, nil
}

func (f *fakeStore) GetBoard(_ context.Context, projectID uint) (*model.Board, error) {
	board, ok := f.boards[projectID]
	if !ok {
		return nil, nil
	}
	return &board, nil
}

func (f *fakeStore) CreateBoardWithColumns(_ context.Context, board *model.Board, columns []model.BoardColumn) error {
	board.ID = f.id()
	f.boards[board.ProjectID] = *board
	for i := range columns {
		columns[i].ID = f.id()
		columns[i].BoardID = board.ID
		f.columns[columns[i].ID] = columns[i]
	}
	return nil
}

func (f *fakeStore) ListColumns(_ context.Context, boardID uint) ([]model.BoardColumn, error) {
	var out []model.BoardColumn
	for _, col := range f.columns {
		if col.BoardID == boardID {
			out = append(out, col)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) GetColumn(_ context.Context, boardID, columnID uint) (*model.BoardColumn, error) {
	col, ok := f.columns[columnID]
	if !ok || col.BoardID != boardID {
		return nil, nil
	}
	return &col, nil
}

func (f *fakeStore) UpdateColumn(_ context.Context, columnID uint, updates map[string]any) error {
	col := f.columns[columnID]
	for column, value := range updates {
		switch column {
		case "wip_limit":
			col.WIPLimit = value.(*int)
		case "is_collapsed":
			col.IsCollapsed = value.(bool)
		}
	}
	f.columns[columnID] = col
	return nil
}

func (f *fakeStore) ReorderColumns(_ context.Context, boardID uint, orderedIDs []uint) error {
	for i, id := range orderedIDs {
		col, ok := f.columns[id]
		if !ok || col.BoardID != boardID {
			return apperrors.NotFoundf("column %d not found", id)
		}
		col.OrderIndex = i
		f.columns[id] = col
	}
	return nil
}

func (f *fakeStore) GetWorkItem(_ context.Context, id uint) (*model.WorkItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeStore) ListItems(_ context.Context, projectID uint, filter *ViewFilter) ([]model.WorkItem, error) {
	var out []model.WorkItem
	for _, item := range f.items {
		if item.ProjectID != projectID {
			continue
		}
		if filter != nil {
			if filter.EpicID != nil && (item.EpicID == nil || *item.EpicID != *filter.EpicID) {
				continue
			}
			if filter.AssigneeID != nil && (item.AssigneeID == nil || *item.AssigneeID != *filter.AssigneeID) {
				continue
			}
			if filter.Text != "" && !strings.Contains(strings.ToLower(item.Summary), strings.ToLower(filter.Text)) {
				continue
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeStatuses struct {
	statuses []model.Status
}

func (f *fakeStatuses) List(_ context.Context, onlyActive bool) ([]model.Status, error) {
	var out []model.Status
	for _, st := range f.statuses {
		if onlyActive && !st.IsActive {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

type fakeMover struct {
	moved []uint
}

func (f *fakeMover) Move(_ context.Context, id, toStatusID, _ uint) (*model.WorkItem, error) {
	f.moved = append(f.moved, id)
	return &model.WorkItem{ID: id, StatusID: toStatusID}, nil
}

type testEnv struct {
	service *Service
	store   *fakeStore
	mover   *fakeMover
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	store.projects[1] = model.Project{Key: "ENG"}
	statuses := &fakeStatuses{statuses: []model.Status{
		{Name: "TODO", IsActive: true},
		{Name: "IN PROGRESS", IsActive: true},
		{Name: "DONE", IsActive: true},
	}}
	for i := range statuses.statuses {
		statuses.statuses[i].ID = uint(100 + i)
	}
	mover := &fakeMover{}
	return &testEnv{
		service: NewService(store, statuses, mover, nil),
		store:   store,
		mover:   mover,
	}
}

func ptrTo[T any](v T) *T { return &v }

func TestCreateBoard(t *testing.T) {
	PatchConvey("CreateBoard", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		Convey("seeds a column per active status", func() {
			created, err := env.service.CreateBoard(ctx, 1, "ENG board", nil)
			So(err, ShouldBeNil)

			columns, err := env.store.ListColumns(ctx, created.ID)
			So(err, ShouldBeNil)
			So(len(columns), ShouldEqual, 3)
			So(columns[0].StatusID, ShouldEqual, 100)
			So(columns[2].StatusID, ShouldEqual, 102)
		})

		Convey("a second board for the same project is rejected", func() {
			_, err := env.service.CreateBoard(ctx, 1, "first", nil)
			So(err, ShouldBeNil)
			_, err = env.service.CreateBoard(ctx, 1, "second", nil)
			So(apperrors.IsKind(err, apperrors.KindDuplicateKey), ShouldBeTrue)
		})

		Convey("unknown project", func() {
			_, err := env.service.CreateBoard(ctx, 9, "nope", nil)
			So(apperrors.IsKind(err, apperrors.KindNotFound), ShouldBeTrue)
		})
	})
}

func TestGetBoardView(t *testing.T) {
	PatchConvey("GetBoardView", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		_, err := env.service.CreateBoard(ctx, 1, "ENG board", nil)
		So(err, ShouldBeNil)

		Convey("empty columns still appear, with empty item lists", func() {
			view, err := env.service.GetBoardView(ctx, 1, nil)
			So(err, ShouldBeNil)
			So(len(view.Columns), ShouldEqual, 3)
			for _, col := range view.Columns {
				So(col.Items, ShouldNotBeNil)
				So(col.ItemCount, ShouldEqual, 0)
			}
		})

		Convey("items land in their status column and over-limit is flagged", func() {
			env.store.items[1] = model.WorkItem{ID: 1, ProjectID: 1, StatusID: 100, Summary: "a"}
			env.store.items[2] = model.WorkItem{ID: 2, ProjectID: 1, StatusID: 100, Summary: "b"}

			columns, _ := env.store.ListColumns(ctx, env.store.boards[1].ID)
			So(env.store.UpdateColumn(ctx, columns[0].ID, map[string]any{"wip_limit": ptrTo(1)}), ShouldBeNil)

			view, err := env.service.GetBoardView(ctx, 1, nil)
			So(err, ShouldBeNil)
			So(view.Columns[0].ItemCount, ShouldEqual, 2)
			So(view.Columns[0].OverLimit, ShouldBeTrue)
			So(view.Columns[1].ItemCount, ShouldEqual, 0)
		})

		Convey("filters narrow the cards but never drop columns", func() {
			env.store.items[1] = model.WorkItem{ID: 1, ProjectID: 1, StatusID: 100, Summary: "login bug"}
			env.store.items[2] = model.WorkItem{ID: 2, ProjectID: 1, StatusID: 101, Summary: "dashboard"}

			view, err := env.service.GetBoardView(ctx, 1, &ViewFilter{Text: "login"})
			So(err, ShouldBeNil)
			So(len(view.Columns), ShouldEqual, 3)
			So(view.Columns[0].ItemCount, ShouldEqual, 1)
			So(view.Columns[1].ItemCount, ShouldEqual, 0)
		})

		Convey("no board is not found", func() {
			_, err := env.service.GetBoardView(ctx, 9, nil)
			So(apperrors.IsKind(err, apperrors.KindNotFound), ShouldBeTrue)
		})
	})
}

func TestMoveWorkItem(t *testing.T) {
	PatchConvey("MoveWorkItem", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		_, err := env.service.CreateBoard(ctx, 1, "ENG board", nil)
		So(err, ShouldBeNil)
		env.store.items[1] = model.WorkItem{ID: 1, ProjectID: 1, StatusID: 100}
		env.store.items[2] = model.WorkItem{ID: 2, ProjectID: 3, StatusID: 100}

		Convey("delegates to the mover", func() {
			item, err := env.service.MoveWorkItem(ctx, 1, 1, 101, 7)
			So(err, ShouldBeNil)
			So(item.StatusID, ShouldEqual, 101)
			So(env.mover.moved, ShouldResemble, []uint{1})
		})

		Convey("an item from another project is out of scope", func() {
			_, err := env.service.MoveWorkItem(ctx, 1, 2, 101, 7)
			So(apperrors.IsKind(err, apperrors.KindNotFound), ShouldBeTrue)
			So(env.mover.moved, ShouldBeEmpty)
		})
	})
}

func TestUpdateColumn(t *testing.T) {
	PatchConvey("UpdateColumn", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		created, err := env.service.CreateBoard(ctx, 1, "ENG board", nil)
		So(err, ShouldBeNil)
		columns, _ := env.store.ListColumns(ctx, created.ID)

		Convey("set and clear the WIP limit", func() {
			limit := ptrTo(5)
			col, err := env.service.UpdateColumn(ctx, 1, columns[0].ID, &limit, nil)
			So(err, ShouldBeNil)
			So(*col.WIPLimit, ShouldEqual, 5)

			var cleared *int
			col, err = env.service.UpdateColumn(ctx, 1, columns[0].ID, &cleared, nil)
			So(err, ShouldBeNil)
			So(col.WIPLimit, ShouldBeNil)
		})

		Convey("collapse flag", func() {
			col, err := env.service.UpdateColumn(ctx, 1, columns[1].ID, nil, ptrTo(true))
			So(err, ShouldBeNil)
			So(col.IsCollapsed, ShouldBeTrue)
		})

		Convey("unknown column", func() {
			_, err := env.service.UpdateColumn(ctx, 1, 9999, nil, ptrTo(true))
			So(apperrors.IsKind(err, apperrors.KindNotFound), ShouldBeTrue)
		})
	})
}

func TestReorderColumns(t *testing.T) {
	PatchConvey("ReorderColumns", t, func() {
		ctx := context.Background()
		env := newTestEnv()

		created, err := env.service.CreateBoard(ctx, 1, "ENG board", nil)
		So(err, ShouldBeNil)
		columns, _ := env.store.ListColumns(ctx, created.ID)
		ids := []uint{columns[0].ID, columns[1].ID, columns[2].ID}

		Convey("a full permutation is applied", func() {
			So(env.service.ReorderColumns(ctx, 1, []uint{ids[2], ids[0], ids[1]}, 7), ShouldBeNil)

			reordered, _ := env.store.ListColumns(ctx, created.ID)
			So(reordered[0].ID, ShouldEqual, ids[2])
			So(reordered[1].ID, ShouldEqual, ids[0])
			So(reordered[2].ID, ShouldEqual, ids[1])
		})

		Convey("a short list is rejected before any write", func() {
			err := env.service.ReorderColumns(ctx, 1, []uint{ids[0], ids[1]}, 7)
			So(apperrors.IsKind(err, apperrors.KindBadRequest), ShouldBeTrue)

			unchanged, _ := env.store.ListColumns(ctx, created.ID)
			So(unchanged[0].ID, ShouldEqual, ids[0])
		})

		Convey("duplicates are not a permutation", func() {
			err := env.service.ReorderColumns(ctx, 1, []uint{ids[0], ids[1], ids[1]}, 7)
			So(apperrors.IsKind(err, apperrors.KindBadRequest), ShouldBeTrue)
		})

		Convey("foreign column ids are not a permutation", func() {
			err := env.service.ReorderColumns(ctx, 1, []uint{ids[0], ids[1], 9999}, 7)
			So(apperrors.IsKind(err, apperrors.KindBadRequest), ShouldBeTrue)
		})
	})
}
