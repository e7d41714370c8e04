package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/internal/convo"
	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
	"github.com/mohammad-safakhou/ragchat/internal/runtime"
	"github.com/mohammad-safakhou/ragchat/provider"
)

func Run(addr string, configPath string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cfg := config.LoadConfig(configPath)

	// Initialize shared dependencies (top-level DI)
	ctx := context.Background()

	if cfg.Retrieval.Provider == "postgres" {
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return err
		}
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			baseLogger.Printf("migrate: %v", err)
		}
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	gateway, err := retrieval.NewGateway(ctx, cfg, llm)
	if err != nil {
		return err
	}

	registry := convo.NewRegistry(cfg.Conversation.Registry, gateway, llm, cfg.General.Debug)
	registry.Start()
	defer registry.Stop()

	// choose a model from routing for conversation completions
	chatModel := cfg.LLM.Routing.Chatting
	if chatModel == "" {
		chatModel = cfg.LLM.Routing.Fallback
	}
	if chatModel == "" {
		chatModel = "gpt-4o"
	}

	api := e.Group("/api")
	if cfg.Server.AdminPasswordHash != "" {
		secret, err := runtime.LoadJWTSecret(cfg)
		if err != nil {
			return err
		}
		auth := &AuthHandler{Secret: secret, PasswordHash: cfg.Server.AdminPasswordHash}
		auth.Register(api.Group("/auth"))
		api.Use(authExempt(runtime.EchoAuthMiddleware(secret)))
	}

	ch := &ChatHandler{Registry: registry, Defaults: cfg.Conversation, Model: chatModel}
	ch.Register(api)

	if addr == "" {
		addr = cfg.Server.Address
	}
	return e.Start(addr)
}

// authExempt skips token checks for the login/logout endpoints themselves.
func authExempt(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := mw(next)
		return func(c echo.Context) error {
			switch c.Path() {
			case "/api/auth/login", "/api/auth/logout":
				return next(c)
			}
			return guarded(c)
		}
	}
}
