package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/orienta-app/orienta-backend/internal/types"
  "github.com/orienta-app/orienta-backend/internal/utils"
  "github.com/orienta-app/orienta-backend/internal/logger"
)

type PostgresService struct {
  db *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "orienta", log)
  log.Debug("Environment variables loaded")

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }
  log.Info("uuid-ossp extension enabled")

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.Profile{},
    &types.Trajectory{},
    &types.Question{},
    &types.Diagnostic{},
    &types.DiagnosticAnswer{},
    &types.Payment{},
    &types.MobileOperator{},
    &types.ReportRun{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  s.log.Info("Configuring foreign key relationships for postgres tables...")
  constraints := []struct {
    name string
    sql  string
  }{
    {"fk_diagnostic_user_id", `
      ALTER TABLE "diagnostic"
      ADD CONSTRAINT "fk_diagnostic_user_id"
      FOREIGN KEY ("user_id")
      REFERENCES "user"("id")
      ON DELETE CASCADE
    `},
    {"fk_diagnostic_answer_diagnostic_id", `
      ALTER TABLE "diagnostic_answer"
      ADD CONSTRAINT "fk_diagnostic_answer_diagnostic_id"
      FOREIGN KEY ("diagnostic_id")
      REFERENCES "diagnostic"("id")
      ON DELETE CASCADE
    `},
    {"fk_diagnostic_answer_question_id", `
      ALTER TABLE "diagnostic_answer"
      ADD CONSTRAINT "fk_diagnostic_answer_question_id"
      FOREIGN KEY ("question_id")
      REFERENCES "question"("id")
      ON DELETE CASCADE
    `},
    {"fk_payment_diagnostic_id", `
      ALTER TABLE "payment"
      ADD CONSTRAINT "fk_payment_diagnostic_id"
      FOREIGN KEY ("diagnostic_id")
      REFERENCES "diagnostic"("id")
      ON DELETE CASCADE
    `},
    {"fk_trajectory_profile_id", `
      ALTER TABLE "trajectory"
      ADD CONSTRAINT "fk_trajectory_profile_id"
      FOREIGN KEY ("profile_id")
      REFERENCES "profile"("id")
      ON DELETE CASCADE
    `},
  }
  for _, c := range constraints {
    var count int64
    s.db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name).Scan(&count)
    if count > 0 {
      continue
    }
    if err := s.db.Exec(c.sql).Error; err != nil {
      return fmt.Errorf("Failed to add %s: %w", c.name, err)
    }
  }

  // External payment references are unique when present; providers may omit
  // them on failed initiations.
  if err := s.db.Exec(`
    CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_provider_payment_id
    ON "payment" ("provider_payment_id")
    WHERE provider_payment_id IS NOT NULL AND provider_payment_id <> ''
  `).Error; err != nil {
    return fmt.Errorf("Failed to add idx_payment_provider_payment_id: %w", err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
