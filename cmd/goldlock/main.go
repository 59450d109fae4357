package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/aurumpay/goldlock/app/controllers"
	"github.com/aurumpay/goldlock/app/repository"
	"github.com/aurumpay/goldlock/internal/pkg/bnsl"
	"github.com/aurumpay/goldlock/internal/pkg/cache"
	"github.com/aurumpay/goldlock/internal/pkg/database"
	"github.com/aurumpay/goldlock/internal/pkg/env"
	"github.com/aurumpay/goldlock/internal/pkg/goldprice"
	"github.com/aurumpay/goldlock/internal/pkg/router"
	"github.com/aurumpay/goldlock/internal/pkg/s3archive"
	"github.com/aurumpay/goldlock/internal/pkg/scheduler"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	engine := buildEngine()
	controllers.InitializePlanController(engine)

	if _, err := scheduler.Start(engine, buildArchiver()); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/goldlock to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "goldlock",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

func buildEngine() *bnsl.Engine {
	store := bnsl.NewStore(database.GetDB())

	var oracle goldprice.Oracle
	if env.GetEnv("GOLD_FEED_URL", "") != "" {
		oracle = goldprice.NewCached(goldprice.NewHTTPFeed(), goldprice.DefaultCacheTTL)
	} else {
		// Fixed price fallback for local development
		price, err := decimal.NewFromString(env.GetEnv("GOLD_PRICE_USD_PER_GRAM", "93.50"))
		if err != nil {
			log.Fatalf("invalid GOLD_PRICE_USD_PER_GRAM: %v", err)
		}
		oracle = goldprice.NewFixed(price)
	}

	workers := runtime.NumCPU()
	if v, err := strconv.Atoi(env.GetEnv("SWEEP_WORKERS", "")); err == nil && v > 0 {
		workers = v
	}

	return bnsl.NewEngine(store, oracle, workers)
}

func buildArchiver() *s3archive.Archiver {
	cfg, err := s3archive.LoadConfig()
	if err != nil {
		log.Fatalf("invalid S3 archive configuration: %v", err)
	}
	if !cfg.IsEnabled() {
		return nil
	}

	client, err := s3archive.NewClient(cfg)
	if err != nil {
		log.Fatalf("failed to initialize S3 archive: %v", err)
	}
	return s3archive.NewArchiver(database.GetDB(), client, cfg)
}
