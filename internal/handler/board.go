package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/raids-lab/tracker/internal/resputil"
	"github.com/raids-lab/tracker/internal/util"
	"github.com/raids-lab/tracker/pkg/planctl/board"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewBoardMgr)
}

// BoardMgr shares the "projects" group with ProjectMgr so board routes
// nest under /v1/projects/:id/board.
type BoardMgr struct {
	name   string
	boards *board.Service
}

func NewBoardMgr(conf *RegisterConfig) Manager {
	return &BoardMgr{
		name:   "projects",
		boards: conf.BoardService,
	}
}

func (mgr *BoardMgr) GetName() string { return mgr.name }

func (mgr *BoardMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *BoardMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/:id/board", mgr.Create)
	g.GET("/:id/board/view", mgr.GetView)
	g.PUT("/:id/board/workitems/:workItemID/move", mgr.MoveWorkItem)
	g.PUT("/:id/board/columns/reorder", mgr.ReorderColumns)
	g.PUT("/:id/board/columns/:columnID", mgr.UpdateColumn)
}

func (mgr *BoardMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	BoardProjectReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	BoardCreateReq struct {
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
	}

	BoardViewReq struct {
		EpicID     *uint  `form:"epicId"`
		AssigneeID *uint  `form:"assigneeId"`
		SearchText string `form:"searchText"`
	}

	BoardMoveReq struct {
		ID         uint `uri:"id" binding:"required"`
		WorkItemID uint `uri:"workItemID" binding:"required"`
	}

	BoardMoveBody struct {
		ToStatusID uint `json:"toStatusId" binding:"required"`
	}

	BoardColumnReq struct {
		ID       uint `uri:"id" binding:"required"`
		ColumnID uint `uri:"columnID" binding:"required"`
	}

	BoardColumnBody struct {
		WIPLimit      *int  `json:"wipLimit"`
		ClearWIPLimit bool  `json:"clearWipLimit"`
		IsCollapsed   *bool `json:"isCollapsed"`
	}

	BoardReorderReq struct {
		OrderedColumnIDs []uint `json:"orderedColumnIds" binding:"required"`
	}
)

// Create godoc
// @Summary Create the project board
// @Description Seeds one column per active status in display order; a project has at most one board
// @Tags Board
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Param data body BoardCreateReq true "board"
// @Success 201 {object} resputil.Response[model.Board] "created"
// @Failure 400 {object} resputil.Response[any] "board already exists"
// @Router /v1/projects/{id}/board [post]
func (mgr *BoardMgr) Create(c *gin.Context) {
	var uriReq BoardProjectReq
	if err := c.ShouldBindUri(&uriReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req BoardCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	created, err := mgr.boards.CreateBoard(c, uriReq.ID, req.Name, req.Description)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Created(c, created)
}

// GetView godoc
// @Summary Get the derived Kanban view
// @Description Recomputed on every read; empty columns are included, WIP limits are advisory and only set the overLimit flag
// @Tags Board
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Param epicId query uint false "filter cards by epic"
// @Param assigneeId query uint false "filter cards by assignee"
// @Param searchText query string false "filter cards by summary/description text"
// @Success 200 {object} resputil.Response[board.View] "view"
// @Failure 404 {object} resputil.Response[any] "board not found"
// @Router /v1/projects/{id}/board/view [get]
func (mgr *BoardMgr) GetView(c *gin.Context) {
	var uriReq BoardProjectReq
	if err := c.ShouldBindUri(&uriReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req BoardViewReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	view, err := mgr.boards.GetBoardView(c, uriReq.ID, &board.ViewFilter{
		EpicID:     req.EpicID,
		AssigneeID: req.AssigneeID,
		Text:       req.SearchText,
	})
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, view)
}

// MoveWorkItem godoc
// @Summary Move a card to another column
// @Description Delegates to the work item move so the transition check is shared with the direct endpoint
// @Tags Board
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Param workItemID path uint true "work item id"
// @Param data body BoardMoveBody true "target status"
// @Success 200 {object} resputil.Response[model.WorkItem] "moved item"
// @Failure 400 {object} resputil.Response[any] "transition not allowed"
// @Router /v1/projects/{id}/board/workitems/{workItemID}/move [put]
func (mgr *BoardMgr) MoveWorkItem(c *gin.Context) {
	token := util.GetToken(c)

	var uriReq BoardMoveReq
	if err := c.ShouldBindUri(&uriReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req BoardMoveBody
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	item, err := mgr.boards.MoveWorkItem(c, uriReq.ID, uriReq.WorkItemID, req.ToStatusID, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, item)
}

// UpdateColumn godoc
// @Summary Update a column's WIP limit or collapsed flag
// @Tags Board
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Param columnID path uint true "column id"
// @Param data body BoardColumnBody true "changes"
// @Success 200 {object} resputil.Response[model.BoardColumn] "updated column"
// @Failure 404 {object} resputil.Response[any] "column not found"
// @Router /v1/projects/{id}/board/columns/{columnID} [put]
func (mgr *BoardMgr) UpdateColumn(c *gin.Context) {
	var uriReq BoardColumnReq
	if err := c.ShouldBindUri(&uriReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req BoardColumnBody
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	// Three states for the limit: absent (untouched), clear, or set.
	var wipLimit **int
	if req.ClearWIPLimit {
		var cleared *int
		wipLimit = &cleared
	} else if req.WIPLimit != nil {
		wipLimit = &req.WIPLimit
	}

	column, err := mgr.boards.UpdateColumn(c, uriReq.ID, uriReq.ColumnID, wipLimit, req.IsCollapsed)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, column)
}

// ReorderColumns godoc
// @Summary Reorder all board columns
// @Description The list must be a full permutation of the board's column ids; applied atomically
// @Tags Board
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Param data body BoardReorderReq true "new column order"
// @Success 204 "reordered"
// @Failure 400 {object} resputil.Response[any] "not a permutation of the existing columns"
// @Router /v1/projects/{id}/board/columns/reorder [put]
func (mgr *BoardMgr) ReorderColumns(c *gin.Context) {
	token := util.GetToken(c)

	var uriReq BoardProjectReq
	if err := c.ShouldBindUri(&uriReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req BoardReorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.boards.ReorderColumns(c, uriReq.ID, req.OrderedColumnIDs, token.UserID); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.NoContent(c)
}
