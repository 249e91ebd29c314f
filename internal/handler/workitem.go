package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/internal/payload"
	"github.com/raids-lab/tracker/internal/resputil"
	"github.com/raids-lab/tracker/internal/util"
	"github.com/raids-lab/tracker/pkg/planctl/workitem"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewWorkItemMgr)
}

type WorkItemMgr struct {
	name      string
	workItems *workitem.Service
}

func NewWorkItemMgr(conf *RegisterConfig) Manager {
	return &WorkItemMgr{
		name:      "workitems",
		workItems: conf.WorkItemService,
	}
}

func (mgr *WorkItemMgr) GetName() string { return mgr.name }

func (mgr *WorkItemMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *WorkItemMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/search", mgr.Search)
	g.POST("", mgr.Create)
	g.GET("/:id", mgr.Get)
	g.PUT("/:id", mgr.Update)
	g.PUT("/:id/move", mgr.Move)
	g.DELETE("/:id", mgr.Delete)
}

func (mgr *WorkItemMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	WorkItemIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	WorkItemCreateReq struct {
		ProjectID   uint               `json:"projectId" binding:"required"`
		Type        model.WorkItemType `json:"type" binding:"required"`
		Summary     string             `json:"summary" binding:"required"`
		Description *string            `json:"description"`
		EpicID      *uint              `json:"epicId"`
		ParentID    *uint              `json:"parentId"`
		AssigneeID  *uint              `json:"assigneeId"`
		Priority    model.Priority     `json:"priority"`
		DueDate     *time.Time         `json:"dueDate"`
	}

	// Nil fields are untouched; the Clear* flags distinguish "set to null"
	// from "leave alone" for the optional references.
	WorkItemUpdateReq struct {
		Summary     *string         `json:"summary"`
		Description *string         `json:"description"`
		EpicID      *uint           `json:"epicId"`
		ClearEpic   bool            `json:"clearEpic"`
		ParentID    *uint           `json:"parentId"`
		ClearParent bool            `json:"clearParent"`
		StatusID    *uint           `json:"statusId"`
		AssigneeID  *uint           `json:"assigneeId"`
		ClearAssignee bool          `json:"clearAssignee"`
		Priority    *model.Priority `json:"priority"`
		DueDate     *time.Time      `json:"dueDate"`
		ClearDueDate bool           `json:"clearDueDate"`
	}

	WorkItemMoveReq struct {
		ToStatusID uint `json:"toStatusId" binding:"required"`
	}

	WorkItemSearchReq struct {
		PageIndex  *int                `form:"page_index" binding:"required"`
		PageSize   *int                `form:"page_size" binding:"required"`
		ProjectID  *uint               `form:"project_id"`
		EpicID     *uint               `form:"epic_id"`
		Type       *model.WorkItemType `form:"type"`
		StatusID   *uint               `form:"status_id"`
		AssigneeID *uint               `form:"assignee_id"`
		ReporterID *uint               `form:"reporter_id"`
		Priority   *model.Priority     `form:"priority"`
		SearchText *string             `form:"search_text"`
	}

	// Swagger does not support nested generics, so alias the page type.
	WorkItemListResp payload.ListResp[model.WorkItem]
)

// Search godoc
// @Summary Search work items
// @Description Paginated filtered search; text matches summary and description case-insensitively
// @Tags WorkItem
// @Accept json
// @Produce json
// @Security Bearer
// @Param page query WorkItemSearchReq true "filters and pagination"
// @Success 200 {object} resputil.Response[WorkItemListResp] "page of work items"
// @Failure 400 {object} resputil.Response[any] "invalid request"
// @Router /v1/workitems/search [get]
func (mgr *WorkItemMgr) Search(c *gin.Context) {
	var req WorkItemSearchReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	filter := &workitem.Filter{
		ProjectID:  req.ProjectID,
		EpicID:     req.EpicID,
		Type:       req.Type,
		StatusID:   req.StatusID,
		AssigneeID: req.AssigneeID,
		ReporterID: req.ReporterID,
		Priority:   req.Priority,
		PageIndex:  *req.PageIndex,
		PageSize:   *req.PageSize,
	}
	if req.SearchText != nil {
		filter.Text = *req.SearchText
	}

	items, count, err := mgr.workItems.Search(c, filter)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, WorkItemListResp{Rows: items, Count: count})
}

// Create godoc
// @Summary Create a work item
// @Description Validates hierarchy type rules and assigns the default status and a generated key
// @Tags WorkItem
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body WorkItemCreateReq true "work item"
// @Success 201 {object} resputil.Response[model.WorkItem] "created"
// @Failure 400 {object} resputil.Response[any] "invalid hierarchy"
// @Failure 404 {object} resputil.Response[any] "project, epic or parent not found"
// @Router /v1/workitems [post]
func (mgr *WorkItemMgr) Create(c *gin.Context) {
	token := util.GetToken(c)

	var req WorkItemCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	item, err := mgr.workItems.Create(c, &workitem.CreateRequest{
		ProjectID:   req.ProjectID,
		Type:        req.Type,
		Summary:     req.Summary,
		Description: req.Description,
		EpicID:      req.EpicID,
		ParentID:    req.ParentID,
		AssigneeID:  req.AssigneeID,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	}, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Created(c, item)
}

// Get godoc
// @Summary Get a work item
// @Tags WorkItem
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "work item id"
// @Success 200 {object} resputil.Response[model.WorkItem] "work item"
// @Failure 404 {object} resputil.Response[any] "not found"
// @Router /v1/workitems/{id} [get]
func (mgr *WorkItemMgr) Get(c *gin.Context) {
	var req WorkItemIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	item, err := mgr.workItems.Get(c, req.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, item)
}

// Update godoc
// @Summary Update a work item
// @Description Re-validates hierarchy on parent change and the transition graph on status change
// @Tags WorkItem
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "work item id"
// @Param data body WorkItemUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[model.WorkItem] "updated"
// @Failure 400 {object} resputil.Response[any] "invalid hierarchy or transition"
// @Router /v1/workitems/{id} [put]
func (mgr *WorkItemMgr) Update(c *gin.Context) {
	token := util.GetToken(c)

	var idReq WorkItemIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req WorkItemUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	update := &workitem.UpdateRequest{
		Summary:     req.Summary,
		Description: req.Description,
		StatusID:    req.StatusID,
		Priority:    req.Priority,
	}
	if req.EpicID != nil || req.ClearEpic {
		update.EpicID = &req.EpicID
	}
	if req.ParentID != nil || req.ClearParent {
		update.ParentID = &req.ParentID
	}
	if req.AssigneeID != nil || req.ClearAssignee {
		update.AssigneeID = &req.AssigneeID
	}
	if req.DueDate != nil || req.ClearDueDate {
		update.DueDate = &req.DueDate
	}

	item, err := mgr.workItems.Update(c, idReq.ID, update, token.UserID, token.IsPrivileged())
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, item)
}

// Move godoc
// @Summary Move a work item to another status
// @Description Validates the transition and writes only StatusId and UpdatedAt
// @Tags WorkItem
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "work item id"
// @Param data body WorkItemMoveReq true "target status"
// @Success 200 {object} resputil.Response[model.WorkItem] "moved"
// @Failure 400 {object} resputil.Response[any] "invalid transition"
// @Router /v1/workitems/{id}/move [put]
func (mgr *WorkItemMgr) Move(c *gin.Context) {
	token := util.GetToken(c)

	var idReq WorkItemIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req WorkItemMoveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	item, err := mgr.workItems.Move(c, idReq.ID, req.ToStatusID, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, item)
}

// Delete godoc
// @Summary Delete a work item
// @Description Hard delete, gated on reporter or admin; blocked while subtasks remain
// @Tags WorkItem
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "work item id"
// @Success 204 "deleted"
// @Failure 403 {object} resputil.Response[any] "not the reporter"
// @Router /v1/workitems/{id} [delete]
func (mgr *WorkItemMgr) Delete(c *gin.Context) {
	token := util.GetToken(c)

	var req WorkItemIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.workItems.Delete(c, req.ID, token.UserID, token.IsPrivileged()); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.NoContent(c)
}
