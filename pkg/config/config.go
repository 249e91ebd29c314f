package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host        string `json:"host"`        // The domain name of the server.
	ServerAddr  string `json:"serverAddr"`  // The address the server endpoint binds to.
	MetricsAddr string `json:"metricsAddr"` // The address the metric endpoint binds to.

	Auth struct {
		AccessTokenSecret  string `json:"accessTokenSecret"`
		RefreshTokenSecret string `json:"refreshTokenSecret"`
	} `json:"auth"`

	Postgres struct {
		Host        string `json:"host"`
		ReplicaHost string `json:"replicaHost"` // Optional read replica; empty disables routing.
		Port        string `json:"port"`
		DBName      string `json:"dbname"`
		User        string `json:"user"`
		Password    string `json:"password"`
		SSLMode     string `json:"sslmode"`
		TimeZone    string `json:"TimeZone"`
	} `json:"postgres"`

	Retention struct {
		PurgeSchedule         string `json:"purgeSchedule"`         // Cron spec for the trash purge, empty disables it.
		Days                  int    `json:"days"`                  // Soft-deleted epics older than this are purged.
		PurgeArchivedProjects bool   `json:"purgeArchivedProjects"` // Also purge archived projects with no remaining items.
	} `json:"retention"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode it reads
// etc/debug-config.yaml from the working tree; in release mode it reads the
// config.yaml mounted from the deployment.
func initConfig() *Config {
	config := &Config{}

	configPath := "/etc/config/config.yaml"
	if IsDebugMode() {
		configPath = "etc/debug-config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		klog.Fatalf("read config file %s failed: %v", configPath, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		klog.Fatalf("unmarshal config file %s failed: %v", configPath, err)
	}

	if config.Retention.Days == 0 {
		config.Retention.Days = 30
	}

	return config
}
