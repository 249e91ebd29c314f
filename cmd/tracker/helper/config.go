package helper

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/raids-lab/tracker/dao/query"
	"github.com/raids-lab/tracker/internal/handler"
	"github.com/raids-lab/tracker/pkg/config"
	"github.com/raids-lab/tracker/pkg/planctl/activity"
	"github.com/raids-lab/tracker/pkg/planctl/board"
	"github.com/raids-lab/tracker/pkg/planctl/hierarchy"
	"github.com/raids-lab/tracker/pkg/planctl/keygen"
	"github.com/raids-lab/tracker/pkg/planctl/status"
	"github.com/raids-lab/tracker/pkg/planctl/workitem"
)

// ConfigInitializer wires configuration and the service graph.
type ConfigInitializer struct {
	backendConfig *config.Config
}

func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{
		backendConfig: config.GetConfig(),
	}
}

func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment overrides the listen addresses from .debug.env when
// running in gin debug mode.
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}

	err := godotenv.Load(".debug.env")
	if err != nil {
		return err
	}

	be := os.Getenv("TRACKER_BE_PORT")
	if be == "" {
		panic("TRACKER_BE_PORT is not set")
	}

	ci.backendConfig.ServerAddr = ":" + be
	if ms := os.Getenv("TRACKER_MS_PORT"); ms != "" {
		ci.backendConfig.MetricsAddr = ":" + ms
	}
	return nil
}

// InitializeRegisterConfig opens the database, runs migrations, seeds the
// default workflow and assembles the service graph the handlers consume.
func (ci *ConfigInitializer) InitializeRegisterConfig() (*handler.RegisterConfig, error) {
	db := query.GetDB()
	if err := query.Migrate(db); err != nil {
		return nil, err
	}

	statusService := status.NewService(status.NewStore(db))
	if err := statusService.SeedDefaultStatuses(context.Background()); err != nil {
		return nil, err
	}
	klog.Info("default workflow seeded")

	hierarchyService := hierarchy.NewService(hierarchy.NewStore(db))
	keyGenService := keygen.NewService(db)
	activityService := activity.NewService(db)

	workItemService := workitem.NewService(
		workitem.NewStore(db),
		statusService,
		hierarchyService,
		keyGenService,
		activityService,
	)

	// The work item service is the board's mover so the transition check
	// stays in one place.
	boardService := board.NewService(
		board.NewStore(db),
		statusService,
		workItemService,
		activityService,
	)

	return &handler.RegisterConfig{
		DB:               db,
		StatusService:    statusService,
		HierarchyService: hierarchyService,
		KeyGenService:    keyGenService,
		WorkItemService:  workItemService,
		BoardService:     boardService,
		ActivityService:  activityService,
	}, nil
}
