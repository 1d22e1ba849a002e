package server

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"pdfbatch/internal/config"
	"pdfbatch/internal/http/handlers"
	"pdfbatch/internal/http/middleware"
	"pdfbatch/internal/infra/metrics"
	"pdfbatch/internal/infra/storage"
)

type Deps struct {
	Config config.Config
	Redis  *redis.Client
	// Store overrides the store selected by Config.Output.Mode.
	Store storage.Store
}

// New creates and configures a Fiber app serving both route prefixes.
func New(d Deps) (*fiber.App, error) {
	cfg := d.Config
	store := d.Store
	if store == nil {
		var err error
		if store, err = OpenStore(context.Background(), cfg, d.Redis); err != nil {
			return nil, err
		}
	}
	svc, err := NewService(cfg, store)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimitMB << 20,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          handlers.ErrorHandler,
	})

	metrics.Init()
	middleware.Register(app, cfg)
	RegisterRoutes(app, svc)

	if dir := cfg.Server.PublicDir; dir != "" {
		registerSPA(app, dir)
	}

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app, nil
}

// RegisterRoutes mounts the service under "/" and "/api".
func RegisterRoutes(app *fiber.App, svc *handlers.Service) {
	for _, r := range []fiber.Router{app, app.Group("/api")} {
		r.Post("/convert-to-pdf", svc.HandleConvert)
		r.Post("/merge-pdfs", svc.HandleMerge)
		r.Get("/health", svc.HandleHealth)
		r.Delete("/delete-file/:filename", svc.HandleDelete)
	}

	app.Get("/uploads/:filename", svc.HandleDownload)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/ops/monitor", monitor.New())
}

var reservedPrefixes = []string{"/api/", "/ops/", "/uploads/", "/metrics"}

// registerSPA serves static assets from dir and falls back to its index.html
// for every other GET outside the API namespaces.
func registerSPA(app *fiber.App, dir string) {
	app.Static("/", dir)
	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		for _, p := range reservedPrefixes {
			if strings.HasPrefix(c.Path(), p) {
				return c.Next()
			}
		}
		return c.SendFile(index)
	})
}
