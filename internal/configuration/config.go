package configuration

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
)

type Config struct {
	FileDB      DatabaseConfig
	UserDB      DatabaseConfig
	MinIO       MinIOConfig
	FileServer  ServerConfig
	UserServer  ServerConfig
	JWT         JWTConfig
	Roles       RolePolicy
	Upload      UploadPolicy
	NATSURL     string
	CLAMAVURL   string
	SoftDelete  bool
	DDTraceOn   bool
	ServiceName string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

type ServerConfig struct {
	Port string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// RolePolicy lists the roles allowed to perform each file action.
// Loaded once at startup and injected, never mutated afterwards.
type RolePolicy struct {
	View     []models.Role
	Download []models.Role
	Upload   []models.Role
	Delete   []models.Role
}

// UploadPolicy is the content validation applied before any store write.
type UploadPolicy struct {
	SizeLimit          int64
	ExtensionWhitelist map[string]bool
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		FileDB: DatabaseConfig{
			Host:     getEnv("FILE_DB_HOST", "localhost"),
			Port:     getEnv("FILE_DB_PORT", "5432"),
			User:     getEnv("FILE_DB_USER", "fileuser"),
			Password: getEnv("FILE_DB_PASSWORD", "filepassword"),
			DBName:   getEnv("FILE_DB_NAME", "file_service"),
			SSLMode:  getEnv("FILE_DB_SSL_MODE", "disable"),
		},
		UserDB: DatabaseConfig{
			Host:     getEnv("USER_DB_HOST", "localhost"),
			Port:     getEnv("USER_DB_PORT", "5432"),
			User:     getEnv("USER_DB_USER", "useruser"),
			Password: getEnv("USER_DB_PASSWORD", "userpassword"),
			DBName:   getEnv("USER_DB_NAME", "user_service"),
			SSLMode:  getEnv("USER_DB_SSL_MODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
			BucketName: getEnv("MINIO_BUCKET", "files"),
			UseSSL:     getEnv("MINIO_USE_SSL", "false") == "true",
		},
		FileServer: ServerConfig{Port: getEnv("FILE_SERVER_PORT", "8080")},
		UserServer: ServerConfig{Port: getEnv("USER_SERVER_PORT", "8081")},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET_KEY", "dev-only-secret"),
			Expiry: time.Duration(getEnvInt64("JWT_EXPIRE_MINUTES", 60)) * time.Minute,
		},
		Roles: RolePolicy{
			View:     []models.Role{models.RoleViewer, models.RoleUploader, models.RoleAdmin},
			Download: []models.Role{models.RoleUploader, models.RoleAdmin},
			Upload:   []models.Role{models.RoleUploader, models.RoleAdmin},
			Delete:   []models.Role{models.RoleUploader, models.RoleAdmin},
		},
		Upload: UploadPolicy{
			SizeLimit: getEnvInt64("FILE_SIZE_LIMIT", 500_000_000), // 500MB
			ExtensionWhitelist: map[string]bool{
				".pdf": true, ".doc": true, ".docx": true,
				".ppt": true, ".pptx": true, ".xls": true,
				".xlsx": true, ".txt": true, ".csv": true,
			},
		},
		NATSURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		CLAMAVURL:   getEnv("CLAMAV_URL", ""),
		SoftDelete:  getEnv("USER_SOFT_DELETE", "true") == "true",
		DDTraceOn:   getEnv("DD_TRACE_ENABLED", "false") == "true",
		ServiceName: getEnv("DD_SERVICE", "storage-platform"),
	}
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Warning: invalid value for %s, using default", key)
	}
	return defaultValue
}
