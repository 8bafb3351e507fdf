package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skill-connect/internal/config"
	"skill-connect/internal/delivery/http/middleware"
	"skill-connect/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container

	sweeperCancel context.CancelFunc
}

// Bootstrap builds the container, loads the cold-start snapshot when a
// store is configured, starts the hold sweeper, and wires the HTTP surface.
func Bootstrap(cfg config.Config, log *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	if c.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := c.Engine.RebuildFromSnapshot(ctx)
		cancel()
		if err != nil {
			_ = c.Close()
			return nil, nil, err
		}
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	c.Engine.StartSweeper(sweepCtx)

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})
	f.Use(middleware.AccessLog(log))
	f.Use(middleware.NewErrorMiddleware(log).Middleware())
	routes.NewRegistry(c.Engine, c.Taxonomy).Register(f)

	app := &App{Fiber: f, Container: c, sweeperCancel: sweepCancel}
	cleanup := func() error {
		sweepCancel()
		return c.Close()
	}
	return app, cleanup, nil
}

// Shutdown drains the engine, then stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Container.Engine.Shutdown(ctx); err != nil {
		a.Container.Log.Warn("engine drain incomplete", zap.Error(err))
	}
	a.sweeperCancel()
	return a.Fiber.ShutdownWithContext(ctx)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
