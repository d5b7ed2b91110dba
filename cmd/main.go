package main

import (
  "context"
  "fmt"
  "os"

  "github.com/orienta-app/orienta-backend/internal/clients/redis"
  "github.com/orienta-app/orienta-backend/internal/db"
  "github.com/orienta-app/orienta-backend/internal/handlers"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/middleware"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/server"
  "github.com/orienta-app/orienta-backend/internal/services"
  "github.com/orienta-app/orienta-backend/internal/sse"
  "github.com/orienta-app/orienta-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  if os.Getenv("SEED_ON_STARTUP") == "true" {
    if err := db.SeedAll(thePG, log); err != nil {
      log.Warn("Seeding failed", "error", err)
    }
  }

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  questionRepo := repos.NewQuestionRepo(thePG, log)
  diagnosticRepo := repos.NewDiagnosticRepo(thePG, log)
  answerRepo := repos.NewDiagnosticAnswerRepo(thePG, log)
  profileRepo := repos.NewProfileRepo(thePG, log)
  trajectoryRepo := repos.NewTrajectoryRepo(thePG, log)
  paymentRepo := repos.NewPaymentRepo(thePG, log)
  operatorRepo := repos.NewMobileOperatorRepo(thePG, log)
  reportRunRepo := repos.NewReportRunRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)
  paymentBus, err := redis.NewPaymentBus(log)
  if err != nil {
    log.Warn("Could not init PaymentBus, events stay instance local", "error", err)
    paymentBus = nil
  } else {
    if err := paymentBus.StartForwarder(context.Background(), sseHub.Broadcast); err != nil {
      log.Warn("Could not start PaymentBus forwarder", "error", err)
    }
  }

  // Services
  log.Info("Setting up Services from main...")
  txRunner := services.NewGormTxRunner(thePG)
  tokenService, err := services.NewTokenService(log)
  if err != nil {
    log.Error("Could not init TokenService", "error", err)
    os.Exit(1)
  }
  bucketService, err := services.NewBucketService(log)
  if err != nil {
    log.Error("Could not init BucketService", "error", err)
    os.Exit(1)
  }
  renderer, err := services.NewReportRenderer(log)
  if err != nil {
    log.Error("Could not init ReportRenderer", "error", err)
    os.Exit(1)
  }
  stripeClient, err := services.NewStripeClient(log)
  if err != nil {
    log.Error("Could not init StripeClient", "error", err)
    os.Exit(1)
  }
  pawapayClient, err := services.NewPawapayClient(log)
  if err != nil {
    log.Error("Could not init PawapayClient", "error", err)
    os.Exit(1)
  }

  scoringService := services.NewScoringService(log, diagnosticRepo, answerRepo, questionRepo, profileRepo)
  questionnaireService := services.NewQuestionnaireService(log, txRunner, diagnosticRepo, questionRepo, answerRepo, scoringService)
  operatorService := services.NewMobileOperatorService(log, operatorRepo)
  paymentService := services.NewPaymentService(log, paymentRepo)
  productLabel := utils.GetEnv("DIAGNOSTIC_PRODUCT_LABEL", "Diagnostic de Repositionnement Stratégique", log)
  stripeCheckout := services.NewStripeCheckoutService(log, services.PaymentConfig{
    AmountMinorUnits: utils.GetEnvAsInt("STRIPE_UNIT_AMOUNT", 300000, log),
    Currency:         utils.GetEnv("STRIPE_CURRENCY", "xof", log),
    ProductLabel:     productLabel,
  }, stripeClient, paymentRepo, userRepo)
  pawapayDeposit := services.NewPawapayDepositService(log, services.PaymentConfig{
    AmountMinorUnits: utils.GetEnvAsInt("PAWAPAY_DEPOSIT_AMOUNT", 3000, log),
    Currency:         utils.GetEnv("PAWAPAY_CURRENCY", "XOF", log),
    ProductLabel:     utils.GetEnv("PAWAPAY_STATEMENT", "Diagnostic Repositionnement Strategique", log),
  }, pawapayClient, paymentRepo, operatorRepo)
  reportGenService := services.NewReportGenerationService(
    log,
    diagnosticRepo,
    profileRepo,
    trajectoryRepo,
    userRepo,
    reportRunRepo,
    bucketService,
    renderer,
    sseHub,
    paymentBus,
  )
  reportGenService.StartWorker(context.Background())
  diagnosticService := services.NewDiagnosticService(log, diagnosticRepo, profileRepo, trajectoryRepo, stripeCheckout, pawapayDeposit, reportGenService, bucketService)
  stripeWebhookService := services.NewStripeWebhookService(log, txRunner, paymentRepo, diagnosticRepo, sseHub, paymentBus)
  pawapayWebhookService := services.NewPawapayWebhookService(log, txRunner, paymentRepo, diagnosticRepo, reportGenService, sseHub, paymentBus)

  // Handlers
  log.Info("Setting up handlers from main...")
  diagnosticHandler := handlers.NewDiagnosticHandler(diagnosticService, questionnaireService)
  paymentHandler := handlers.NewPaymentHandler(paymentService)
  operatorHandler := handlers.NewOperatorHandler(operatorService)
  webhookHandler := handlers.NewWebhookHandler(log, stripeWebhookService, pawapayWebhookService)
  sseHandler := handlers.NewSSEHandler(sseHub)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, tokenService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    Log:               log,
    AuthMiddleware:    authMiddleware,
    DiagnosticHandler: diagnosticHandler,
    PaymentHandler:    paymentHandler,
    OperatorHandler:   operatorHandler,
    WebhookHandler:    webhookHandler,
    SSEHandler:        sseHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
