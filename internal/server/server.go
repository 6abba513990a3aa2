package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/subtracker/backend/internal/alerts"
	"example.com/subtracker/backend/internal/auth"
	"example.com/subtracker/backend/internal/config"
	"example.com/subtracker/backend/internal/handlers"
	"example.com/subtracker/backend/internal/notifications"
	"example.com/subtracker/backend/internal/repository"
	"example.com/subtracker/backend/internal/transfer"
)

const bodyLimit = "5M"

type Deps struct {
	Store     *repository.Store
	DB        handlers.Pinger
	Hub       *notifications.Hub
	Keyring   *auth.Keyring
	Dismissed *alerts.DismissedSet
	Now       func() time.Time
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, deps Deps) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Dismissed == nil {
		deps.Dismissed = alerts.NewDismissedSet()
	}

	validate := NewValidator()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.BodyLimit(bodyLimit))
	if len(cfg.Server.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.AllowedOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	clock := handlers.Clock(deps.Now)
	store := deps.Store
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL, deps.Now)

	subscriptionHandler := handlers.NewSubscriptionHandler(store.Subscriptions, store.Settings, deps.Hub, logger, clock)
	memberHandler := handlers.NewMemberHandler(store.Members, deps.Hub)
	categoryHandler := handlers.NewCategoryHandler(store.Categories, deps.Hub)
	settingsHandler := handlers.NewSettingsHandler(store.Settings, deps.Keyring, deps.Hub)
	viewHandler := handlers.NewViewHandler(store.Subscriptions, store.Categories, store.Settings, deps.Dismissed, deps.Hub, cfg.Alerts, clock)
	transferHandler := handlers.NewTransferHandler(store, store.Subscriptions, store.Settings, transfer.NewDecoder(validate.Engine()), deps.Keyring, deps.Dismissed, deps.Hub, logger, clock)
	pinHandler := handlers.NewPinHandler(store.Settings, store.Subscriptions, tokenManager, deps.Keyring, deps.Hub, logger)
	liveHandler := handlers.NewLiveHandler(deps.Hub, viewHandler)

	registerRoutes(
		e,
		deps.DB,
		subscriptionHandler,
		memberHandler,
		categoryHandler,
		settingsHandler,
		viewHandler,
		transferHandler,
		pinHandler,
		liveHandler,
		auth.SessionMiddleware(tokenManager, deps.Keyring),
		pinRateLimiter(cfg.Auth),
	)

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

// pinRateLimiter ограничивает попытки ввода PIN по IP.
func pinRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.PinRateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.PinRateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
