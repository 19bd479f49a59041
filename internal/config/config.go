package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/snapshot"
	"qa-analytics/internal/stats"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	Snapshot            snapshot.SourceConfig
	HTTPAddr            string
	BinsFile            string
	Bins                stats.BinSet
	LaundryDefectType   string
	EnableMermaidCharts bool
}

// LoadEnv loads .env files into the process environment: the executable's
// directory first, then the working directory. Existing variables win.
func LoadEnv() {
	if exePath, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	LoadEnv()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exePath, err := os.Executable(); err == nil {
			dataPath = filepath.Dir(exePath)
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	cfg := &AppConfig{
		DataPath: dataPath,
		LogDir:   logDir,
		Snapshot: snapshot.SourceConfig{
			Driver: snapshot.Driver(getEnv("SNAPSHOT_DRIVER", string(snapshot.DriverFile))),
			Path:   getEnv("SNAPSHOT_PATH", filepath.Join(dataPath, "snapshot.json")),
			DSN:    getEnv("SNAPSHOT_DSN", ""),
			// Empty S3 keys fall back to the default AWS credential chain.
			S3: snapshot.S3Config{
				Region:          getEnv("SNAPSHOT_S3_REGION", ""),
				Bucket:          getEnv("SNAPSHOT_S3_BUCKET", ""),
				Key:             getEnv("SNAPSHOT_S3_KEY", ""),
				Endpoint:        getEnv("SNAPSHOT_S3_ENDPOINT", ""),
				PathStyle:       getEnvBool("SNAPSHOT_S3_PATH_STYLE", false),
				AccessKeyID:     getEnv("SNAPSHOT_S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("SNAPSHOT_S3_SECRET_ACCESS_KEY", ""),
			},
			HTTP: snapshot.HTTPConfig{
				BaseURL:  getEnv("SNAPSHOT_URL", ""),
				Token:    getEnv("SNAPSHOT_TOKEN", ""),
				CacheTTL: getEnvDuration("SNAPSHOT_CACHE_TTL", 0),
			},
		},
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		BinsFile:            getEnv("BINS_FILE", ""),
		Bins:                stats.DefaultBins(),
		LaundryDefectType:   getEnv("LAUNDRY_DEFECT_TYPE", analytics.DefaultLaundryDefectType),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	if cfg.BinsFile != "" {
		bins, err := LoadBins(cfg.BinsFile)
		if err != nil {
			return nil, err
		}
		cfg.Bins = bins
		log.Debug().Str("path", cfg.BinsFile).Msg("Loaded bin ranges")
	}

	return cfg, nil
}

// EngineOptions returns the analytics options carried by the config.
func (c *AppConfig) EngineOptions() analytics.Options {
	return analytics.Options{Bins: c.Bins, LaundryDefectType: c.LaundryDefectType}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid duration")
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
