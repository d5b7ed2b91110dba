package server

import (
  "strings"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/orienta-app/orienta-backend/internal/handlers"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/middleware"
  "github.com/orienta-app/orienta-backend/internal/utils"
)

type RouterConfig struct {
  Log               *logger.Logger
  AuthMiddleware    *middleware.AuthMiddleware
  DiagnosticHandler *handlers.DiagnosticHandler
  PaymentHandler    *handlers.PaymentHandler
  OperatorHandler   *handlers.OperatorHandler
  WebhookHandler    *handlers.WebhookHandler
  SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  allowOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
  if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", cfg.Log); raw != "" {
    allowOrigins = strings.Split(raw, ",")
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     allowOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Country-Code"},
    AllowCredentials: true,
  }))

  // ===============
  // || Public    ||
  // ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  // Provider callbacks authenticate by signature, not by session.
  webhooks := router.Group("/webhooks")
  {
    webhooks.POST("/stripe", cfg.WebhookHandler.Stripe)
    webhooks.POST("/pawapay", cfg.WebhookHandler.Pawapay)
  }

  // ===============
  // || Protected ||
  // ===============
  api := router.Group("/api")
  api.Use(cfg.AuthMiddleware.RequireAuth())
  // Diagnostics
  api.POST("/diagnostics", cfg.DiagnosticHandler.Create)
  api.GET("/diagnostics/:id", cfg.DiagnosticHandler.Get)
  api.GET("/diagnostics/:id/blocs/:bloc", cfg.DiagnosticHandler.GetBloc)
  api.POST("/diagnostics/:id/blocs/:bloc", cfg.DiagnosticHandler.SubmitBloc)
  api.GET("/diagnostics/:id/results", cfg.DiagnosticHandler.Results)
  api.GET("/diagnostics/:id/report/status", cfg.DiagnosticHandler.ReportStatus)
  api.GET("/diagnostics/:id/report", cfg.DiagnosticHandler.DownloadReport)
  api.GET("/diagnostics/:id/payment", cfg.PaymentHandler.GetStatusByDiagnostic)
  // Payments
  api.GET("/payments/:id", cfg.PaymentHandler.GetStatus)
  // Operators
  api.GET("/operators", cfg.OperatorHandler.List)
  // SSE
  api.GET("/events", cfg.SSEHandler.Stream)

  return router
}
