package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config gathers everything the process reads from the environment so
// startup has one place to look.
type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Media storage. UseS3 switches from local disk to the bucket.
	UseS3         bool
	S3Bucket      string
	S3Region      string
	CloudFrontURL string

	// SystemElementsFile seeds built-in custom element definitions.
	SystemElementsFile string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "strata"),

		UseS3:         getEnv("USE_S3", "") == "true",
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", ""),
		CloudFrontURL: getEnv("CLOUDFRONT_URL", ""),

		SystemElementsFile: getEnv("SYSTEM_ELEMENTS_FILE", ""),
	}

	log.Println("✅ Config loaded")
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
