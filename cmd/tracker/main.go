package main

import (
	"time"

	"k8s.io/klog/v2"

	"github.com/raids-lab/tracker/cmd/tracker/helper"
)

// @title						Tracker API
// @version						1.0.0
// @description					Planning and tracking engine: projects, epics, work items, statuses and boards.
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description					Type "Bearer" followed by a space and JWT token.
func main() {
	// set global timezone
	time.Local = time.UTC

	configInit := helper.NewConfigInitializer()
	backendConfig := configInit.GetBackendConfig()

	if err := configInit.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}

	registerConfig, err := configInit.InitializeRegisterConfig()
	if err != nil {
		klog.Fatalf("Failed to register config: %s\n", err)
	}

	serverRunner := helper.NewServerRunner(backendConfig)
	cronManager := serverRunner.StartCron(registerConfig)
	serverRunner.StartServer(registerConfig, cronManager)
}
