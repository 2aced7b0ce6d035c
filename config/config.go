package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultPhotosSubDir     = "photos"
	DefaultThumbnailsSubDir = "thumbnails"
)

const (
	defaultThumbnailQueueSize  = 200
	defaultNumThumbnailWorkers = 2
	defaultThumbnailMaxSize    = 400

	defaultTaskRetentionMinutes = 1440 // terminal import tasks are kept for a day
	defaultMaxRetainedTasks     = 200
)

type Config struct {
	// data root (database, stored photos, generated assets)
	DataPath string

	// database path
	DatabasePath string

	// photo storage configuration
	PhotosPath     string // uploaded originals
	ThumbnailsPath string // generated thumbnails

	// vision API (GLM-4V compatible chat/completions endpoint)
	VisionAPIKey  string
	VisionBaseURL string
	VisionModel   string

	// reverse geocoding (Amap); empty key disables the service
	AmapAPIKey string

	// vector store (Chroma REST API)
	ChromaBaseURL    string
	ChromaCollection string

	// thumbnail generation settings
	ThumbnailMaxSize int

	// worker settings
	ThumbnailQueueSize  int
	NumThumbnailWorkers int

	// import task retention
	TaskRetention    time.Duration
	MaxRetainedTasks int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dataDir := getEnvOrDefault("DATA_DIR", filepath.Join(".", "data"))
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for data directory '%s': %w", dataDir, err)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", filepath.Join(absDataDir, "photomind.db"))

	photosSubDir := getEnvOrDefault("PHOTOS_SUBDIR", DefaultPhotosSubDir)
	absPhotosPath := filepath.Join(absDataDir, photosSubDir)

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	absThumbnailsPath := filepath.Join(absDataDir, thumbSubDir)

	thumbMaxSize := getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize)
	queueSize := getEnvIntOrDefault("THUMBNAIL_QUEUE_SIZE", defaultThumbnailQueueSize)
	numWorkers := getEnvIntOrDefault("NUM_THUMBNAIL_WORKERS", defaultNumThumbnailWorkers)

	retentionMinutes := getEnvIntOrDefault("TASK_RETENTION_MINUTES", defaultTaskRetentionMinutes)
	maxTasks := getEnvIntOrDefault("MAX_RETAINED_TASKS", defaultMaxRetainedTasks)

	cfg := Config{
		DataPath:            absDataDir,
		DatabasePath:        dbPath,
		PhotosPath:          absPhotosPath,
		ThumbnailsPath:      absThumbnailsPath,
		VisionAPIKey:        os.Getenv("VISION_API_KEY"),
		VisionBaseURL:       getEnvOrDefault("VISION_BASE_URL", "https://open.bigmodel.cn/api/paas/v4"),
		VisionModel:         getEnvOrDefault("VISION_MODEL", "glm-4v-flash"),
		AmapAPIKey:          os.Getenv("AMAP_API_KEY"),
		ChromaBaseURL:       getEnvOrDefault("CHROMA_BASE_URL", "http://localhost:8000"),
		ChromaCollection:    getEnvOrDefault("CHROMA_COLLECTION", "photos"),
		ThumbnailMaxSize:    thumbMaxSize,
		ThumbnailQueueSize:  queueSize,
		NumThumbnailWorkers: numWorkers,
		TaskRetention:       time.Duration(retentionMinutes) * time.Minute,
		MaxRetainedTasks:    maxTasks,
	}

	return cfg, nil
}
