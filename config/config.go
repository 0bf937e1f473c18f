// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string
	GinMode   string
	Debug     bool
	PublicDir string

	Upload  UploadConfig
	Storage StorageConfig
	Mongo   MongoConfig
	Diary   DiaryConfig
	HTTP    HTTPConfig
}

type UploadConfig struct {
	MaxSize        int64
	AllowedTypes   []string
	ListLimit      int
	LenientListing bool
}

type StorageConfig struct {
	Backend       string // local, s3 or minio
	Folder        string
	UploadDir     string
	PublicBaseURL string

	AWSRegion       string
	Bucket          string
	S3Endpoint      string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	MinioPublicBase string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type DiaryConfig struct {
	Location *time.Location
}

type HTTPConfig struct {
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
}

// Load reads .env if present and then the process environment. The bool
// reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil
	cfg, err := FromViper(viper.New())
	return cfg, dotenv, err
}

// FromViper builds a Config from v with defaults applied.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("DEBUG", false)
	v.SetDefault("PUBLIC_DIR", "./public")

	v.SetDefault("MAX_UPLOAD_SIZE", 5*1024*1024) // 5MB
	v.SetDefault("ALLOWED_TYPES", "image/jpeg,image/png,image/webp")
	v.SetDefault("LIST_LIMIT", 100)
	v.SetDefault("LENIENT_LISTING", false)

	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("UPLOAD_FOLDER", "")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("PUBLIC_BASE_URL", "/uploads")

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("BUCKET_NAME", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("PRESIGN_TTL", "60m")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "selfies")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PUBLIC_BASE", "")

	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "selfiebox")
	v.SetDefault("MONGO_TIMEOUT", "10s")

	v.SetDefault("DIARY_TIMEZONE", "Asia/Kolkata")

	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT", 0)
	v.SetDefault("RATE_WINDOW", "1m")

	v.AutomaticEnv()

	cfg := &Config{
		Port:      v.GetString("PORT"),
		GinMode:   v.GetString("GIN_MODE"),
		Debug:     v.GetBool("DEBUG"),
		PublicDir: v.GetString("PUBLIC_DIR"),
		Upload: UploadConfig{
			MaxSize:        v.GetInt64("MAX_UPLOAD_SIZE"),
			AllowedTypes:   splitList(v.GetString("ALLOWED_TYPES")),
			ListLimit:      v.GetInt("LIST_LIMIT"),
			LenientListing: v.GetBool("LENIENT_LISTING"),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(v.GetString("STORAGE_BACKEND")),
			Folder:        strings.Trim(v.GetString("UPLOAD_FOLDER"), "/"),
			UploadDir:     v.GetString("UPLOAD_DIR"),
			PublicBaseURL: v.GetString("PUBLIC_BASE_URL"),

			AWSRegion:       v.GetString("AWS_REGION"),
			Bucket:          v.GetString("BUCKET_NAME"),
			S3Endpoint:      v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			PresignTTL:      v.GetDuration("PRESIGN_TTL"),

			MinioEndpoint:   v.GetString("MINIO_ENDPOINT"),
			MinioAccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey:  v.GetString("MINIO_SECRET_KEY"),
			MinioBucket:     v.GetString("MINIO_BUCKET"),
			MinioUseSSL:     v.GetBool("MINIO_USE_SSL"),
			MinioPublicBase: v.GetString("MINIO_PUBLIC_BASE"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
			Timeout:  v.GetDuration("MONGO_TIMEOUT"),
		},
		HTTP: HTTPConfig{
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
			RateLimit:   v.GetInt("RATE_LIMIT"),
			RateWindow:  v.GetDuration("RATE_WINDOW"),
		},
	}

	// Remote backends default to the "selfies" prefix.
	if cfg.Storage.Folder == "" && cfg.Storage.Backend != "local" {
		cfg.Storage.Folder = "selfies"
	}

	loc, err := time.LoadLocation(v.GetString("DIARY_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIARY_TIMEZONE: %w", err)
	}
	cfg.Diary.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "local", "s3", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("BUCKET_NAME is required for the s3 backend")
	}
	if c.Upload.ListLimit <= 0 {
		return fmt.Errorf("LIST_LIMIT must be positive, got %d", c.Upload.ListLimit)
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("ALLOWED_TYPES must not be empty")
	}
	if c.Mongo.Timeout <= 0 {
		return fmt.Errorf("MONGO_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
