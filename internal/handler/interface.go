package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/raids-lab/tracker/pkg/planctl/activity"
	"github.com/raids-lab/tracker/pkg/planctl/board"
	"github.com/raids-lab/tracker/pkg/planctl/hierarchy"
	"github.com/raids-lab/tracker/pkg/planctl/keygen"
	"github.com/raids-lab/tracker/pkg/planctl/status"
	"github.com/raids-lab/tracker/pkg/planctl/workitem"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the shared dependencies into the handler
// constructors collected in Registers.
type RegisterConfig struct {
	DB *gorm.DB

	StatusService    *status.Service
	HierarchyService *hierarchy.Service
	KeyGenService    *keygen.Service
	WorkItemService  *workitem.Service
	BoardService     *board.Service
	ActivityService  *activity.Service
}

// Registers collects the handler constructors; each handler file appends
// its own in init().
var Registers []func(*RegisterConfig) Manager
