package config

import (
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL   string        `envconfig:"DATABASE_URL"   required:"true"`
	WebRoot       string        `envconfig:"WEB_ROOT"       required:"true"` // uploaded images live below this directory
	HttpPort      string        `envconfig:"HTTP_PORT"      default:":8081"`
	GrpcPort      string        `envconfig:"GRPC_PORT"      default:":50051"`
	LogLevel      string        `envconfig:"LOG_LEVEL"      default:"info"`
	RunMigrations bool          `envconfig:"RUN_MIGRATIONS" default:"true"`

	MaxPhotoSizeMB       int64 `envconfig:"MAX_PHOTO_SIZE_MB"       default:"2"`
	SniffUploadContent   bool  `envconfig:"SNIFF_UPLOAD_CONTENT"    default:"false"`
	ListPrimaryImageOnly bool  `envconfig:"LIST_PRIMARY_IMAGE_ONLY" default:"false"`

	RedisAddr string        `envconfig:"REDIS_ADDR"`
	FlashTTL  time.Duration `envconfig:"FLASH_TTL" default:"10m"`
}

var (
	config Config
	once   sync.Once
)

func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		err = envconfig.Process("", &config)
		if err != nil {
			logger.Fatalf("Failed to process configuration from environment variables: %v", err)
		}

		logger.Infof("Configuration loaded: HTTP Port=%s, GRPC Port=%s, LogLevel=%s, WebRoot=%s",
			config.HttpPort, config.GrpcPort, config.LogLevel, config.WebRoot)
		if config.RedisAddr != "" {
			logger.Infof("Configuration loaded: flash messages stored in redis at %s", config.RedisAddr)
		}
		if config.DatabaseURL != "" {
			logger.Info("Configuration loaded: DatabaseURL is set")
		} else {
			logger.Fatal("Configuration error: DATABASE_URL is not set")
		}
	})
	return &config
}

