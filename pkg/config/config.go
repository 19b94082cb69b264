package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arnavshah/staffing-engine-go/pkg/schedule"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Database DatabaseConfig         `mapstructure:"database"`
	Log      LogConfig              `mapstructure:"log"`
	Features FeatureConfig          `mapstructure:"features"`
	Budget   schedule.BudgetOptions `mapstructure:"budget"`
	Auth     AuthConfig             `mapstructure:"auth"`
	Admin    AdminConfig            `mapstructure:"admin"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// DatabaseConfig selects postgres when URL is set, sqlite at Path otherwise.
// MigratePlanningColumns adds planning_status and required_staff_count to
// tickets on startup; off by default so an existing schema is left alone.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url"`
	Path                   string `mapstructure:"path"`
	MigratePlanningColumns bool   `mapstructure:"migrate_planning_columns"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FeatureConfig toggles optional schema features.
type FeatureConfig struct {
	PlanningStatus bool `mapstructure:"planning_status"`
}

// AuthConfig holds signing secrets.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	APIMasterSecret string `mapstructure:"api_master_secret"`
}

// AdminConfig seeds the first dashboard administrator.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// envPaths are tried in order; the first existing file wins.
var envPaths = []string{".env", "../.env", "../../.env"}

// LoadDotEnv loads the first .env file found near the working directory.
func LoadDotEnv() {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads config.yaml (optional), STAFFING_* environment variables and
// the legacy DATABASE_URL / DATA_PATH / JWT_SECRET / API_MASTER_SECRET names.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STAFFING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"database.url":           "DATABASE_URL",
		"database.path":          "DATA_PATH",
		"server.port":            "PORT",
		"server.gin_mode":        "GIN_MODE",
		"auth.jwt_secret":        "JWT_SECRET",
		"auth.api_master_secret": "API_MASTER_SECRET",
		"admin.username":         "ADMIN_USERNAME",
		"admin.password":         "ADMIN_PASSWORD",
	} {
		if err := v.BindEnv(key, "STAFFING_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	v.SetDefault("server.port", 8000)
	v.SetDefault("database.path", "staffing.db")
	v.SetDefault("database.migrate_planning_columns", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("features.planning_status", true)
	v.SetDefault("budget.overtime_threshold", schedule.DefaultOvertimeThreshold)
	v.SetDefault("budget.overtime_multiplier", schedule.DefaultOvertimeMultiplier)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger builds the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
