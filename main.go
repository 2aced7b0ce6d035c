package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/photomind/photomindbackend/config"
	"github.com/photomind/photomindbackend/database"
	"github.com/photomind/photomindbackend/geocode"
	"github.com/photomind/photomindbackend/handlers"
	"github.com/photomind/photomindbackend/importer"
	"github.com/photomind/photomindbackend/media"
	"github.com/photomind/photomindbackend/realtime"
	"github.com/photomind/photomindbackend/repository"
	"github.com/photomind/photomindbackend/vectorstore"
	"github.com/photomind/photomindbackend/vision"
	"github.com/photomind/photomindbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.PhotosPath, cfg.ThumbnailsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypePhoto:     filepath.Base(cfg.PhotosPath),
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.DataPath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore)

	photoRepo := repository.NewPhotoRepository(db)

	vectors := vectorstore.NewClient(cfg.ChromaBaseURL, cfg.ChromaCollection)
	visionClient := vision.NewClient(cfg.VisionBaseURL, cfg.VisionAPIKey, cfg.VisionModel)
	geoClient := geocode.NewClient("", cfg.AmapAPIKey)
	if !geoClient.Enabled() {
		log.Printf("Reverse geocoding disabled: AMAP_API_KEY not set")
	}

	log.Printf("Initializing thumbnail worker pool (Workers: %d, Queue Size: %d)...", cfg.NumThumbnailWorkers, cfg.ThumbnailQueueSize)
	thumbnailProcessor := workers.NewThumbnailProcessor(photoRepo, mediaProcessor, cfg.ThumbnailMaxSize, cfg.ThumbnailQueueSize, cfg.NumThumbnailWorkers)
	defer thumbnailProcessor.Stop()

	hub := realtime.NewHub()
	go hub.Run()

	taskStore := importer.NewStore(cfg.TaskRetention, cfg.MaxRetainedTasks)
	broker := importer.NewBroker()
	runner := &importer.Runner{
		Tasks:      taskStore,
		Events:     broker,
		Extractor:  media.Extractor{},
		Geo:        geoClient,
		Vision:     visionClient,
		Store:      &importer.PersistentPhotoStore{Repo: photoRepo, Vectors: vectors},
		Thumbnails: thumbnailProcessor,
		Mirror:     hub,
	}

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing photos in: %s", cfg.PhotosPath)
	log.Printf("Storing thumbnails in: %s", cfg.ThumbnailsPath)
	log.Printf("Thumbnail max size (longest side): %dpx", cfg.ThumbnailMaxSize)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	importHandler := &handlers.ImportHandler{Tasks: taskStore, Broker: broker, Runner: runner, MediaStore: mediaStore}
	streamHandler := &handlers.StreamHandler{Tasks: taskStore, Broker: broker}
	photoHandler := &handlers.PhotoHandler{Repo: photoRepo, MediaStore: mediaStore, Vectors: vectors, PhotosPath: cfg.PhotosPath}
	searchHandler := &handlers.SearchHandler{Repo: photoRepo, Vectors: vectors}
	healthHandler := &handlers.HealthHandler{Repo: photoRepo, Vectors: vectors}

	r.Route("/api", func(r chi.Router) {
		r.Route("/import", func(r chi.Router) {
			// event streams stay open for the whole import, so the
			// request timeout only wraps the non-streaming routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))
				r.Post("/", importHandler.StartImport)
				r.Get("/tasks", importHandler.ListTasks)
				r.Route("/{taskID}", func(r chi.Router) {
					r.Get("/status", importHandler.GetStatus)
					r.Post("/cancel", importHandler.Cancel)
				})
			})
			r.Get("/{taskID}/events", streamHandler.StreamEvents)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/photos", func(r chi.Router) {
				r.Get("/", photoHandler.ListPhotos)
				r.Route("/{photoID}", func(r chi.Router) {
					r.Get("/", photoHandler.GetPhoto)
					r.Delete("/", photoHandler.DeletePhoto)
					r.Get("/file", photoHandler.ServeFile)
					r.Get("/thumbnail", photoHandler.ServeThumbnail)
				})
			})

			r.Post("/search/text", searchHandler.SearchText)
			r.Get("/health", healthHandler.Health)
		})
	})

	r.Get("/thumbnails/*", handlers.ThumbnailServer(cfg.ThumbnailsPath))
	r.Get("/ws", hub.ServeWS)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// WriteTimeout stays unset so SSE and websocket connections are
		// not cut off mid-stream
		IdleTimeout: 120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
