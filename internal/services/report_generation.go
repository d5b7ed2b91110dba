package services

import (
  "bytes"
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/clients/redis"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/sse"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// ReportGenerationService produces the PDF report for a completed
// diagnostic. Mobile money confirmations enqueue an async run picked up by
// the worker; the card flow generates inline on first results view.
type ReportGenerationService interface {
  Enqueue(ctx context.Context, userID, diagnosticID uuid.UUID) (*types.ReportRun, error)
  GenerateNow(ctx context.Context, diagnostic *types.Diagnostic) error
  StartWorker(ctx context.Context)
}

type reportGenerationService struct {
  log            *logger.Logger
  diagnosticRepo repos.DiagnosticRepo
  profileRepo    repos.ProfileRepo
  trajectoryRepo repos.TrajectoryRepo
  userRepo       repos.UserRepo
  runRepo        repos.ReportRunRepo
  bucket         BucketService
  renderer       ReportRenderer
  hub            *sse.SSEHub
  bus            redis.PaymentBus
}

func NewReportGenerationService(
  baseLog *logger.Logger,
  diagnosticRepo repos.DiagnosticRepo,
  profileRepo repos.ProfileRepo,
  trajectoryRepo repos.TrajectoryRepo,
  userRepo repos.UserRepo,
  runRepo repos.ReportRunRepo,
  bucket BucketService,
  renderer ReportRenderer,
  hub *sse.SSEHub,
  bus redis.PaymentBus,
) ReportGenerationService {
  return &reportGenerationService{
    log:            baseLog.With("service", "ReportGenerationService"),
    diagnosticRepo: diagnosticRepo,
    profileRepo:    profileRepo,
    trajectoryRepo: trajectoryRepo,
    userRepo:       userRepo,
    runRepo:        runRepo,
    bucket:         bucket,
    renderer:       renderer,
    hub:            hub,
    bus:            bus,
  }
}

func (s *reportGenerationService) Enqueue(ctx context.Context, userID, diagnosticID uuid.UUID) (*types.ReportRun, error) {
  existing, err := s.runRepo.GetLatestByDiagnosticID(ctx, nil, diagnosticID)
  if err != nil {
    return nil, err
  }
  if existing != nil && (existing.Status == "queued" || existing.Status == "running") {
    return existing, nil
  }

  now := time.Now().UTC()
  run := &types.ReportRun{
    ID:           uuid.New(),
    UserID:       userID,
    DiagnosticID: diagnosticID,
    Status:       "queued",
    Attempts:     0,
    CreatedAt:    now,
    UpdatedAt:    now,
  }
  if _, err := s.runRepo.Create(ctx, nil, []*types.ReportRun{run}); err != nil {
    return nil, err
  }
  s.log.Info("Report run enqueued", "run_id", run.ID, "diagnostic_id", diagnosticID)
  return run, nil
}

func (s *reportGenerationService) StartWorker(ctx context.Context) {
  go func() {
    ticker := time.NewTicker(1 * time.Second)
    defer ticker.Stop()

    // Worker policy
    const maxAttempts = 5
    retryDelay := 30 * time.Second
    staleRunning := 2 * time.Minute

    for {
      select {
      case <-ctx.Done():
        return
      case <-ticker.C:
        run, err := s.runRepo.ClaimNextRunnable(ctx, nil, maxAttempts, retryDelay, staleRunning)
        if err != nil {
          s.log.Warn("ClaimNextRunnable failed", "error", err)
          continue
        }
        if run == nil {
          continue
        }
        s.processRun(ctx, run)
      }
    }
  }()
}

func (s *reportGenerationService) processRun(ctx context.Context, run *types.ReportRun) {
  fail := func(err error) {
    now := time.Now().UTC()
    _ = s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
      "status":        "failed",
      "error":         err.Error(),
      "last_error_at": now,
      "locked_at":     nil,
      "updated_at":    now,
    })
    s.log.Error("Report run failed", "run_id", run.ID, "diagnostic_id", run.DiagnosticID, "error", err)
  }

  diagnostics, err := s.diagnosticRepo.GetByIDs(ctx, nil, []uuid.UUID{run.DiagnosticID})
  if err != nil {
    fail(fmt.Errorf("load diagnostic: %w", err))
    return
  }
  if len(diagnostics) == 0 {
    fail(fmt.Errorf("diagnostic %s not found", run.DiagnosticID))
    return
  }
  diagnostic := diagnostics[0]

  _ = s.runRepo.Heartbeat(ctx, nil, run.ID)

  if !diagnostic.PDFGenerated {
    // The worker may claim a run before the questionnaire finishes; keep
    // the run queued until scoring has produced a primary profile.
    if diagnostic.Status != types.DiagnosticStatusCompleted || diagnostic.PrimaryProfileID == nil {
      now := time.Now().UTC()
      _ = s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
        "status":        "failed",
        "error":         "diagnostic not completed yet",
        "last_error_at": now,
        "locked_at":     nil,
        "updated_at":    now,
      })
      return
    }
    if err := s.GenerateNow(ctx, diagnostic); err != nil {
      fail(err)
      return
    }
  }

  now := time.Now().UTC()
  _ = s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
    "status":     "succeeded",
    "error":      "",
    "locked_at":  nil,
    "updated_at": now,
  })
  s.log.Info("Report run succeeded", "run_id", run.ID, "diagnostic_id", run.DiagnosticID)
}

// GenerateNow renders, uploads and records the report for a completed
// diagnostic. It is a no-op when the report already exists.
func (s *reportGenerationService) GenerateNow(ctx context.Context, diagnostic *types.Diagnostic) error {
  if diagnostic == nil {
    return fmt.Errorf("diagnostic is nil")
  }
  if diagnostic.PDFGenerated {
    return nil
  }
  if diagnostic.Status != types.DiagnosticStatusCompleted || diagnostic.PrimaryProfileID == nil {
    return ErrDiagnosticNotCompleted
  }

  data, err := s.buildReportData(ctx, diagnostic)
  if err != nil {
    return err
  }

  pdf, err := s.renderer.Render(data)
  if err != nil {
    return fmt.Errorf("render report: %w", err)
  }

  key := fmt.Sprintf("reports/diagnostic-%s.pdf", diagnostic.ID)
  if err := s.bucket.UploadFile(ctx, key, bytes.NewReader(pdf), "application/pdf"); err != nil {
    return fmt.Errorf("upload report: %w", err)
  }

  if err := s.diagnosticRepo.UpdateFields(ctx, nil, diagnostic.ID, map[string]interface{}{
    "pdf_generated": true,
    "report_key":    key,
  }); err != nil {
    return fmt.Errorf("record report: %w", err)
  }
  diagnostic.PDFGenerated = true
  diagnostic.ReportKey = key

  s.log.Info("Report generated", "diagnostic_id", diagnostic.ID, "key", key)
  publishUserEvent(ctx, s.log, s.hub, s.bus, diagnostic.UserID, sse.SSEEventReportReady, paymentEventData{
    DiagnosticID: diagnostic.ID,
  })
  return nil
}

// buildReportData assembles the report sections, dropping what cannot be
// loaded instead of failing the whole report.
func (s *reportGenerationService) buildReportData(ctx context.Context, diagnostic *types.Diagnostic) (*ReportData, error) {
  data := &ReportData{GeneratedAt: time.Now().UTC()}

  if users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{diagnostic.UserID}); err == nil && len(users) > 0 {
    data.GeneratedFor = users[0].Email
  }

  scores, err := diagnostic.Scores()
  if err != nil {
    s.log.Warn("Score data unreadable, omitting scores", "diagnostic_id", diagnostic.ID, "error", err)
    scores = map[string]int{}
  }

  profileIDs := []uuid.UUID{}
  if diagnostic.PrimaryProfileID != nil {
    profileIDs = append(profileIDs, *diagnostic.PrimaryProfileID)
  }
  if diagnostic.ComplementaryProfileID != nil {
    profileIDs = append(profileIDs, *diagnostic.ComplementaryProfileID)
  }
  profiles, err := s.profileRepo.GetByIDs(ctx, nil, profileIDs)
  if err != nil {
    return nil, fmt.Errorf("load profiles: %w", err)
  }
  byID := map[uuid.UUID]*types.Profile{}
  for _, p := range profiles {
    byID[p.ID] = p
  }

  var primary *types.Profile
  if diagnostic.PrimaryProfileID != nil {
    primary = byID[*diagnostic.PrimaryProfileID]
  }
  if primary == nil {
    return nil, fmt.Errorf("primary profile missing for diagnostic %s", diagnostic.ID)
  }
  data.Primary = &ReportProfile{
    Name:        primary.Name,
    Score:       scores[primary.Slug],
    Description: primary.Description,
  }
  data.KeySkills = primary.KeySkillList()
  data.FirstAction = primary.FirstAction

  if diagnostic.ComplementaryProfileID != nil {
    if comp := byID[*diagnostic.ComplementaryProfileID]; comp != nil {
      data.Complementary = &ReportProfile{
        Name:        comp.Name,
        Score:       scores[comp.Slug],
        Description: comp.Description,
      }
    }
  }

  trajectory, err := s.trajectoryRepo.GetActiveByProfileID(ctx, nil, primary.ID)
  if err != nil {
    s.log.Warn("Failed to load trajectory, omitting section", "profile_id", primary.ID, "error", err)
  } else if trajectory != nil {
    axes := []ReportAxis{
      {Title: "Axe 1", Text: trajectory.Axe1},
      {Title: "Axe 2", Text: trajectory.Axe2},
      {Title: "Axe 3", Text: trajectory.Axe3},
    }
    for _, a := range axes {
      if a.Text != "" {
        data.Axes = append(data.Axes, a)
      }
    }
  }

  return data, nil
}
