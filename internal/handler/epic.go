package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/internal/resputil"
	"github.com/raids-lab/tracker/internal/util"
	"github.com/raids-lab/tracker/pkg/planctl/keygen"
	"github.com/raids-lab/tracker/pkg/planctl/status"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewEpicMgr)
}

type EpicMgr struct {
	name     string
	db       *gorm.DB
	keys     *keygen.Service
	statuses *status.Service
}

func NewEpicMgr(conf *RegisterConfig) Manager {
	return &EpicMgr{
		name:     "epics",
		db:       conf.DB,
		keys:     conf.KeyGenService,
		statuses: conf.StatusService,
	}
}

func (mgr *EpicMgr) GetName() string { return mgr.name }

func (mgr *EpicMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *EpicMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("", mgr.Create)
	g.GET("/:id", mgr.Get)
	g.PUT("/:id", mgr.Update)
	g.DELETE("/:id", mgr.Delete)
}

func (mgr *EpicMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	EpicIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	EpicListReq struct {
		ProjectID uint `form:"project_id" binding:"required"`
	}

	EpicCreateReq struct {
		ProjectID   uint           `json:"projectId" binding:"required"`
		Summary     string         `json:"summary" binding:"required"`
		Description *string        `json:"description"`
		AssigneeID  *uint          `json:"assigneeId"`
		Priority    model.Priority `json:"priority"`
		StartDate   *time.Time     `json:"startDate"`
		DueDate     *time.Time     `json:"dueDate"`
	}

	EpicUpdateReq struct {
		Summary     *string         `json:"summary"`
		Description *string         `json:"description"`
		StatusID    *uint           `json:"statusId"`
		AssigneeID  *uint           `json:"assigneeId"`
		Priority    *model.Priority `json:"priority"`
		StartDate   *time.Time      `json:"startDate"`
		DueDate     *time.Time      `json:"dueDate"`
	}
)

// List godoc
// @Summary List epics of a project
// @Tags Epic
// @Accept json
// @Produce json
// @Security Bearer
// @Param project_id query uint true "project id"
// @Success 200 {object} resputil.Response[[]model.Epic] "epics"
// @Failure 400 {object} resputil.Response[any] "invalid request"
// @Router /v1/epics [get]
func (mgr *EpicMgr) List(c *gin.Context) {
	var req EpicListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var epics []model.Epic
	err := mgr.db.WithContext(c).
		Where("project_id = ?", req.ProjectID).
		Order("id desc").
		Find(&epics).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, epics)
}

// Create godoc
// @Summary Create an epic
// @Description Assigns the default status and a generated PKEY-EPIC-n key
// @Tags Epic
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body EpicCreateReq true "epic"
// @Success 201 {object} resputil.Response[model.Epic] "created"
// @Failure 404 {object} resputil.Response[any] "project not found"
// @Router /v1/epics [post]
func (mgr *EpicMgr) Create(c *gin.Context) {
	var req EpicCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	defaultStatus, err := mgr.statuses.DefaultStatus(c)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}

	key, err := mgr.keys.NextEpicKey(c, req.ProjectID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}

	priority := req.Priority
	if priority == 0 {
		priority = model.PriorityMedium
	}

	epic := model.Epic{
		ProjectID:   req.ProjectID,
		Key:         key,
		Summary:     req.Summary,
		Description: req.Description,
		StatusID:    defaultStatus.ID,
		AssigneeID:  req.AssigneeID,
		Priority:    priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	}
	if err := mgr.db.WithContext(c).Create(&epic).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Created(c, epic)
}

// Get godoc
// @Summary Get an epic
// @Tags Epic
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "epic id"
// @Success 200 {object} resputil.Response[model.Epic] "epic"
// @Failure 404 {object} resputil.Response[any] "not found"
// @Router /v1/epics/{id} [get]
func (mgr *EpicMgr) Get(c *gin.Context) {
	var req EpicIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var epic model.Epic
	err := mgr.db.WithContext(c).First(&epic, req.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "epic not found", resputil.EntityNotFound)
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, epic)
}

// Update godoc
// @Summary Update an epic
// @Description Status changes are validated against the transition graph
// @Tags Epic
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "epic id"
// @Param data body EpicUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[model.Epic] "updated"
// @Failure 400 {object} resputil.Response[any] "invalid transition"
// @Router /v1/epics/{id} [put]
func (mgr *EpicMgr) Update(c *gin.Context) {
	var idReq EpicIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req EpicUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var epic model.Epic
	err := mgr.db.WithContext(c).First(&epic, idReq.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "epic not found", resputil.EntityNotFound)
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	updates := make(map[string]any)
	if req.StatusID != nil && *req.StatusID != epic.StatusID {
		ok, err := mgr.statuses.ValidateTransition(c, epic.StatusID, *req.StatusID)
		if err != nil {
			resputil.WrapServiceError(c, err)
			return
		}
		if !ok {
			resputil.HTTPError(c, 400, "status transition not allowed", resputil.InvalidStatusTransition)
			return
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
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}

	if len(updates) > 0 {
		if err := mgr.db.WithContext(c).Model(&epic).Updates(updates).Error; err != nil {
			resputil.Error(c, err.Error(), resputil.NotSpecified)
			return
		}
	}
	resputil.Success(c, epic)
}

// Delete godoc
// @Summary Delete an epic
// @Description Soft delete; work items keep their EpicId until reassigned, and the retention purge removes the row later
// @Tags Epic
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "epic id"
// @Success 204 "deleted"
// @Failure 403 {object} resputil.Response[any] "not permitted"
// @Router /v1/epics/{id} [delete]
func (mgr *EpicMgr) Delete(c *gin.Context) {
	token := util.GetToken(c)

	var req EpicIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var epic model.Epic
	err := mgr.db.WithContext(c).First(&epic, req.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "epic not found", resputil.EntityNotFound)
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, epic.ProjectID).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if project.OwnerID != token.UserID && !token.IsPrivileged() {
		resputil.HTTPError(c, 403, "only the project owner or an admin may delete epics", resputil.UserNotAllowed)
		return
	}

	if err := mgr.db.WithContext(c).Delete(&epic).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.NoContent(c)
}
