package handler

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/internal/payload"
	"github.com/raids-lab/tracker/internal/resputil"
	"github.com/raids-lab/tracker/internal/util"
	"github.com/raids-lab/tracker/pkg/planctl/activity"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

var (
	projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,15}$`)
	errDuplicateKey   = errors.New("duplicate project key")
)

type ProjectMgr struct {
	name       string
	db         *gorm.DB
	activities *activity.Service
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name:       "projects",
		db:         conf.DB,
		activities: conf.ActivityService,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("", mgr.Create)
	g.GET("/:id", mgr.Get)
	g.GET("/:id/activities", mgr.ListActivities)
}

func (mgr *ProjectMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.PUT("/:id/archive", mgr.Archive)
	g.PUT("/:id/unarchive", mgr.Unarchive)
}

type (
	ProjectIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	ProjectCreateReq struct {
		Key         string  `json:"key" binding:"required"`
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
	}

	ActivityListReq struct {
		PageIndex *int `form:"page_index" binding:"required"`
		PageSize  *int `form:"page_size" binding:"required"`
	}

	ActivityListResp payload.ListResp[model.Activity]
)

// List godoc
// @Summary List projects
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]model.Project] "projects"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /v1/projects [get]
func (mgr *ProjectMgr) List(c *gin.Context) {
	var projects []model.Project
	err := mgr.db.WithContext(c).
		Where("is_archived = ?", false).
		Order("id desc").
		Find(&projects).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, projects)
}

// Create godoc
// @Summary Create a project
// @Description Creates a project and its key counters in one transaction
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ProjectCreateReq true "project"
// @Success 201 {object} resputil.Response[model.Project] "created"
// @Failure 400 {object} resputil.Response[any] "duplicate key or bad code"
// @Router /v1/projects [post]
func (mgr *ProjectMgr) Create(c *gin.Context) {
	token := util.GetToken(c)

	var req ProjectCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if !projectKeyPattern.MatchString(req.Key) {
		resputil.BadRequestError(c, "project key must be a short uppercase code")
		return
	}

	project := model.Project{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     token.UserID,
		IsActive:    true,
	}

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Project{}).Where("key = ?", req.Key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicateKey
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		counters := []model.ProjectCounter{
			{ProjectID: project.ID, Kind: model.CounterEpic, Value: 0},
			{ProjectID: project.ID, Kind: model.CounterWorkItem, Value: 0},
		}
		return tx.Create(&counters).Error
	})
	if errors.Is(err, errDuplicateKey) {
		resputil.HTTPError(c, 400, "project key "+req.Key+" already exists", resputil.DuplicateKey)
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Created(c, project)
}

// Get godoc
// @Summary Get a project
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Success 200 {object} resputil.Response[model.Project] "project"
// @Failure 404 {object} resputil.Response[any] "not found"
// @Router /v1/projects/{id} [get]
func (mgr *ProjectMgr) Get(c *gin.Context) {
	var req ProjectIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var project model.Project
	err := mgr.db.WithContext(c).First(&project, req.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, 404, "project not found", resputil.EntityNotFound)
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, project)
}

// ListActivities godoc
// @Summary List project activity
// @Description Recent tracked mutations, newest first
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Param page query ActivityListReq true "pagination"
// @Success 200 {object} resputil.Response[ActivityListResp] "activity page"
// @Failure 400 {object} resputil.Response[any] "invalid request"
// @Router /v1/projects/{id}/activities [get]
func (mgr *ProjectMgr) ListActivities(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req ActivityListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	events, count, err := mgr.activities.List(c, idReq.ID, *req.PageIndex, *req.PageSize)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, ActivityListResp{Rows: events, Count: count})
}

// Archive godoc
// @Summary Archive a project
// @Description Projects archive instead of hard-deleting while dependents exist
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Success 200 {object} resputil.Response[any] "archived"
// @Failure 404 {object} resputil.Response[any] "not found"
// @Router /v1/admin/projects/{id}/archive [put]
func (mgr *ProjectMgr) Archive(c *gin.Context) {
	mgr.setArchived(c, true)
}

// Unarchive godoc
// @Summary Unarchive a project
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path uint true "project id"
// @Success 200 {object} resputil.Response[any] "unarchived"
// @Failure 404 {object} resputil.Response[any] "not found"
// @Router /v1/admin/projects/{id}/unarchive [put]
func (mgr *ProjectMgr) Unarchive(c *gin.Context) {
	mgr.setArchived(c, false)
}

func (mgr *ProjectMgr) setArchived(c *gin.Context, archived bool) {
	var req ProjectIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	res := mgr.db.WithContext(c).Model(&model.Project{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{"is_archived": archived, "is_active": !archived})
	if res.Error != nil {
		resputil.Error(c, res.Error.Error(), resputil.NotSpecified)
		return
	}
	if res.RowsAffected == 0 {
		resputil.HTTPError(c, 404, "project not found", resputil.EntityNotFound)
		return
	}
	resputil.Success(c, "")
}
