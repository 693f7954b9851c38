package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	AppEnv  string
	// JWTKey may be empty: the server still boots and reports a configuration
	// error on every login/verify until JWT_SECRET is set.
	JWTKey []byte

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	MenuCacheTTL      time.Duration
	ImageCleanupQueue string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		AppEnv:             getEnv("APP_ENV", "development"),
		JWTKey:             []byte(getEnv("JWT_SECRET", "")),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "user"),
		DBPassword:         getEnv("DB_PASSWORD", "password"),
		DBName:             getEnv("DB_NAME", "restaurant_menu"),
		DBSslMode:          getEnv("DB_SSLMODE", "disable"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		MenuCacheTTL:       time.Duration(getEnvAsInt("MENU_CACHE_TTL_SECONDS", 300)) * time.Second,
		ImageCleanupQueue:  getEnv("IMAGE_CLEANUP_QUEUE", "image_cleanup_queue"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:        getEnv("S3_PUBLIC_URL", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_MB", 10)) << 20,
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode
	return cfg
}

// IsProduction controls the Secure attribute of the session cookie and the log format.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// String masks secrets.
func (c *Config) String() string {
	jwt := "unset"
	if len(c.JWTKey) > 0 {
		jwt = "***"
	}
	return fmt.Sprintf("Config{port: %s, env: %s, jwt: %s, db: %s@%s:%s/%s, redis: %q, s3: %q}",
		c.APIPort, c.AppEnv, jwt, c.DBUser, c.DBHost, c.DBPort, c.DBName, c.RedisAddr, c.S3Bucket)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
