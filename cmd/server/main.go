package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/cobrapixel/ocr-extractor/internal/config"
	"github.com/cobrapixel/ocr-extractor/internal/database"
	"github.com/cobrapixel/ocr-extractor/internal/handlers"
	"github.com/cobrapixel/ocr-extractor/internal/middleware"
	"github.com/cobrapixel/ocr-extractor/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize OCR providers at startup so configuration errors surface
	// here, not as request-time 500s
	registry := services.NewProviderRegistry()

	if lib, err := services.NewLibraryProvider(cfg.OCRLanguages); err != nil {
		log.Printf("Warning: in-process OCR provider unavailable: %v", err)
	} else {
		registry.Register(lib)
		defer lib.Close()
	}

	if bin, err := services.NewBinaryProvider(cfg.TesseractPath, cfg.OCRLanguages); err != nil {
		log.Printf("Warning: tesseract binary provider unavailable: %v", err)
	} else {
		registry.Register(bin)
	}

	if cloud, err := services.NewCloudProvider(cfg.OCRSpaceAPIKey, cfg.CloudLanguage, cfg.CloudTimeout); err != nil {
		log.Printf("Warning: cloud OCR provider unavailable: %v", err)
	} else {
		registry.Register(cloud)
	}

	if registry.Len() == 0 {
		log.Println("Warning: no OCR providers available, extraction endpoints will return 503")
	} else {
		log.Printf("OCR providers available: %v", registry.Kinds())
	}

	extractor := services.NewExtractor(registry, cfg.OCRConcurrency, cfg.MaxUploadBytes())

	// Initialize artifact store
	var artifacts services.ArtifactStore
	switch cfg.ArtifactBackend {
	case "s3":
		s3Store, err := services.NewS3Store(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			log.Fatalf("Failed to initialize S3 artifact store: %v", err)
		}
		if err := s3Store.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("Failed to ensure S3 bucket exists: %v", err)
		}
		artifacts = s3Store
		log.Printf("Artifact store: S3 bucket %q at %s", cfg.S3Bucket, cfg.S3Endpoint)
	default:
		fileStore, err := services.NewFileStore(cfg.ExportDir)
		if err != nil {
			log.Fatalf("Failed to initialize file artifact store: %v", err)
		}
		artifacts = fileStore
		log.Printf("Artifact store: directory %s", cfg.ExportDir)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1024*1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Create handler with dependencies
	h := handlers.New(db, cfg, extractor, artifacts)

	// Write endpoints get a token gate when auth is enabled
	protected := func(handler fiber.Handler) []fiber.Handler {
		if cfg.AuthEnabled {
			return []fiber.Handler{middleware.AuthRequired(cfg), handler}
		}
		return []fiber.Handler{handler}
	}

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	api := app.Group("/api")

	if cfg.AuthEnabled {
		auth := api.Group("/auth")
		auth.Post("/token", h.IssueToken)
	}

	// OCR routes
	ocr := api.Group("/ocr")
	ocr.Get("/ping", h.Ping)
	ocr.Post("/", h.ExtractLocal)
	ocr.Post("/cloud", h.ExtractCloud)

	// Save and download routes
	api.Post("/save", protected(h.SaveExtraction)...)
	api.Get("/download/:filename", h.DownloadArtifact)

	// Record routes
	api.Get("/records", h.ListRecords)
	api.Get("/records/:id", h.GetRecord)
	api.Delete("/records/:id", protected(h.DeleteRecord)...)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
