package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/internal/resputil"
	"github.com/raids-lab/tracker/pkg/planctl/status"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewStatusMgr)
}

type StatusMgr struct {
	name     string
	statuses *status.Service
}

func NewStatusMgr(conf *RegisterConfig) Manager {
	return &StatusMgr{
		name:     "statuses",
		statuses: conf.StatusService,
	}
}

func (mgr *StatusMgr) GetName() string { return mgr.name }

func (mgr *StatusMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *StatusMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("/validate-transition", mgr.ValidateTransition)
	g.GET("/:id/transitions", mgr.AllowedTransitions)
}

func (mgr *StatusMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("", mgr.Create)
	g.PUT("/:id", mgr.Update)
	g.DELETE("/:id", mgr.Delete)
	g.PUT("/transitions", mgr.SetTransition)
}

type (
	StatusIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	ValidateTransitionReq struct {
		FromStatusID uint `json:"fromStatusId" binding:"required"`
		ToStatusID   uint `json:"toStatusId" binding:"required"`
	}

	ValidateTransitionResp struct {
		IsValid bool `json:"isValid"`
	}

	StatusCreateReq struct {
		Name            string `json:"name" binding:"required"`
		Color           string `json:"color" binding:"required"`
		OrderIndex      *int   `json:"orderIndex" binding:"required"`
		IsDefaultForNew bool   `json:"isDefaultForNew"`
		IsCompleted     bool   `json:"isCompleted"`
		IsCancelled     bool   `json:"isCancelled"`
	}

	SetTransitionReq struct {
		FromStatusID uint  `json:"fromStatusId" binding:"required"`
		ToStatusID   uint  `json:"toStatusId" binding:"required"`
		IsAllowed    *bool `json:"isAllowed" binding:"required"`
	}
)

// List godoc
// @Summary List active statuses
// @Description Active statuses in display order
// @Tags Status
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]model.Status] "statuses"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /v1/statuses [get]
func (mgr *StatusMgr) List(c *gin.Context) {
	statuses, err := mgr.statuses.List(c, true)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, statuses)
}

// ValidateTransition godoc
// @Summary Check a status transition
// @Description Answers whether moving from one status to another is allowed
// @Tags Status
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ValidateTransitionReq true "transition to check"
// @Success 200 {object} resputil.Response[ValidateTransitionResp] "verdict"
// @Failure 400 {object} resputil.Response[any] "invalid request"
// @Router /v1/statuses/validate-transition [post]
func (mgr *StatusMgr) ValidateTransition(c *gin.Context) {
	var req ValidateTransitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	valid, err := mgr.statuses.ValidateTransition(c, req.FromStatusID, req.ToStatusID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, ValidateTransitionResp{IsValid: valid})
}

// AllowedTransitions godoc
// @Summary List explicit allowed transitions
// @Description Targets with an explicit allowed edge from the given status.
// @Description Targets reachable only via the permissive default are not listed.
// @Tags Status
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "status id"
// @Success 200 {object} resputil.Response[[]model.Status] "targets"
// @Failure 404 {object} resputil.Response[any] "status not found"
// @Router /v1/statuses/{id}/transitions [get]
func (mgr *StatusMgr) AllowedTransitions(c *gin.Context) {
	var req StatusIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if _, err := mgr.statuses.Get(c, req.ID); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	targets, err := mgr.statuses.AllowedTransitions(c, req.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, targets)
}

// Create godoc
// @Summary Create a status
// @Tags Status
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body StatusCreateReq true "status"
// @Success 201 {object} resputil.Response[model.Status] "created"
// @Failure 400 {object} resputil.Response[any] "duplicate name"
// @Router /v1/admin/statuses [post]
func (mgr *StatusMgr) Create(c *gin.Context) {
	var req StatusCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	st := &model.Status{
		Name:            req.Name,
		Color:           req.Color,
		OrderIndex:      *req.OrderIndex,
		IsDefaultForNew: req.IsDefaultForNew,
		IsCompleted:     req.IsCompleted,
		IsCancelled:     req.IsCancelled,
		IsActive:        true,
	}
	if err := mgr.statuses.CreateStatus(c, st); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Created(c, st)
}

// Update godoc
// @Summary Update a status
// @Tags Status
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "status id"
// @Param data body StatusCreateReq true "status"
// @Success 200 {object} resputil.Response[model.Status] "updated"
// @Failure 404 {object} resputil.Response[any] "status not found"
// @Router /v1/admin/statuses/{id} [put]
func (mgr *StatusMgr) Update(c *gin.Context) {
	var idReq StatusIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req StatusCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	st, err := mgr.statuses.Get(c, idReq.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}

	st.Name = req.Name
	st.Color = req.Color
	st.OrderIndex = *req.OrderIndex
	st.IsDefaultForNew = req.IsDefaultForNew
	st.IsCompleted = req.IsCompleted
	st.IsCancelled = req.IsCancelled
	if err := mgr.statuses.UpdateStatus(c, st); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, st)
}

// Delete godoc
// @Summary Delete a status
// @Description Fails while any epic or work item references the status
// @Tags Status
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "status id"
// @Success 204 "deleted"
// @Failure 400 {object} resputil.Response[any] "status still referenced"
// @Router /v1/admin/statuses/{id} [delete]
func (mgr *StatusMgr) Delete(c *gin.Context) {
	var req StatusIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.statuses.DeleteStatus(c, req.ID); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.NoContent(c)
}

// SetTransition godoc
// @Summary Record an explicit transition decision
// @Tags Status
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body SetTransitionReq true "edge"
// @Success 200 {object} resputil.Response[any] "recorded"
// @Failure 404 {object} resputil.Response[any] "status not found"
// @Router /v1/admin/statuses/transitions [put]
func (mgr *StatusMgr) SetTransition(c *gin.Context) {
	var req SetTransitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.statuses.SetTransition(c, req.FromStatusID, req.ToStatusID, *req.IsAllowed); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, "")
}
