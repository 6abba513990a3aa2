package server

import (
	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	db handlers.Pinger,
	subscriptionHandler *handlers.SubscriptionHandler,
	memberHandler *handlers.MemberHandler,
	categoryHandler *handlers.CategoryHandler,
	settingsHandler *handlers.SettingsHandler,
	viewHandler *handlers.ViewHandler,
	transferHandler *handlers.TransferHandler,
	pinHandler *handlers.PinHandler,
	liveHandler *handlers.LiveHandler,
	sessionMiddleware echo.MiddlewareFunc,
	pinRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health(db))

	api := e.Group("/api/v1")

	subscriptions := api.Group("/subscriptions")
	subscriptions.GET("", subscriptionHandler.List)
	subscriptions.POST("", subscriptionHandler.Create)
	subscriptions.GET("/:id", subscriptionHandler.Get)
	subscriptions.PATCH("/:id", subscriptionHandler.Update)
	subscriptions.DELETE("/:id", subscriptionHandler.Delete)
	subscriptions.POST("/:id/snooze", subscriptionHandler.Snooze)
	subscriptions.POST("/:id/price", subscriptionHandler.RecordPrice)
	subscriptions.GET("/:id/sensitive-notes", subscriptionHandler.GetSensitiveNotes, sessionMiddleware)
	subscriptions.PUT("/:id/sensitive-notes", subscriptionHandler.PutSensitiveNotes, sessionMiddleware)

	members := api.Group("/members")
	members.GET("", memberHandler.List)
	members.POST("", memberHandler.Create)
	members.PATCH("/:id", memberHandler.Update)
	members.DELETE("/:id", memberHandler.Delete)

	categories := api.Group("/categories")
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create)
	categories.PATCH("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)

	settings := api.Group("/settings")
	settings.GET("", settingsHandler.Get)
	settings.PATCH("", settingsHandler.Update)
	settings.POST("/reset", settingsHandler.Reset)

	api.GET("/dashboard", viewHandler.Dashboard)
	api.GET("/cashflow", viewHandler.Cashflow)
	api.GET("/alerts", viewHandler.Alerts)
	api.POST("/alerts/:id/dismiss", viewHandler.DismissAlert)
	api.GET("/insights", viewHandler.Insights)

	api.GET("/export/json", transferHandler.ExportJSON)
	api.GET("/export/csv", transferHandler.ExportCSV)
	api.POST("/import/json", transferHandler.ImportJSON)
	api.POST("/import/csv", transferHandler.ImportCSV)
	api.POST("/reset", transferHandler.ResetAll)

	pin := api.Group("/pin", pinRateLimiter)
	pin.POST("", pinHandler.Set)
	pin.DELETE("", pinHandler.Remove)
	pin.POST("/unlock", pinHandler.Unlock)
	pin.POST("/lock", pinHandler.Lock, sessionMiddleware)

	api.GET("/live/stream", liveHandler.Stream)
}
