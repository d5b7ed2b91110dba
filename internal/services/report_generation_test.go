package services

import (
  "bytes"
  "context"
  "errors"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/orienta-app/orienta-backend/internal/types"
)

type fakeRenderer struct {
  lastData *ReportData
  err      error
}

func (f *fakeRenderer) Render(data *ReportData) ([]byte, error) {
  f.lastData = data
  if f.err != nil {
    return nil, f.err
  }
  return []byte("%PDF-1.4 fake"), nil
}

type reportGenFixture struct {
  diagnosticRepo *fakeDiagnosticRepo
  profileRepo    *fakeProfileRepo
  trajectoryRepo *fakeTrajectoryRepo
  userRepo       *fakeUserRepo
  runRepo        *fakeReportRunRepo
  bucket         *fakeBucket
  renderer       *fakeRenderer
  svc            ReportGenerationService
  userID         uuid.UUID
}

func newReportGenFixture(t *testing.T) *reportGenFixture {
  t.Helper()
  f := &reportGenFixture{
    diagnosticRepo: newFakeDiagnosticRepo(),
    profileRepo:    &fakeProfileRepo{},
    trajectoryRepo: &fakeTrajectoryRepo{},
    userRepo:       &fakeUserRepo{},
    runRepo:        newFakeReportRunRepo(),
    bucket:         newFakeBucket(),
    renderer:       &fakeRenderer{},
    userID:         uuid.New(),
  }
  f.svc = NewReportGenerationService(
    newTestLogger(t),
    f.diagnosticRepo,
    f.profileRepo,
    f.trajectoryRepo,
    f.userRepo,
    f.runRepo,
    f.bucket,
    f.renderer,
    nil,
    nil,
  )
  return f
}

func (f *reportGenFixture) addCompletedDiagnostic(t *testing.T) (*types.Diagnostic, *types.Profile) {
  t.Helper()
  primary := &types.Profile{
    ID:          uuid.New(),
    Slug:        "leadership",
    Name:        "Leadership",
    Description: "Pilote des équipes et des transformations.",
    KeySkills:   datatypes.JSON(`["Vision","Décision"]`),
    FirstAction: "Identifier trois missions cibles.",
  }
  f.profileRepo.profiles = append(f.profileRepo.profiles, primary)
  f.trajectoryRepo.trajectories = append(f.trajectoryRepo.trajectories, &types.Trajectory{
    ID: uuid.New(), ProfileID: primary.ID, Active: true,
    Axe1: "Consolider le leadership", Axe2: "Élargir le réseau",
  })
  f.userRepo.users = append(f.userRepo.users, &types.User{ID: f.userID, Email: "user@example.com"})

  now := time.Now()
  diagnostic := &types.Diagnostic{
    ID:               uuid.New(),
    UserID:           f.userID,
    Status:           types.DiagnosticStatusCompleted,
    PaymentProvider:  types.PaymentProviderPawapay,
    PrimaryProfileID: &primary.ID,
    ScoreData:        datatypes.JSON(`{"leadership":9}`),
    CompletedAt:      &now,
  }
  if _, err := f.diagnosticRepo.Create(context.Background(), nil, []*types.Diagnostic{diagnostic}); err != nil {
    t.Fatalf("create diagnostic: %v", err)
  }
  return diagnostic, primary
}

func TestGenerateNow(t *testing.T) {
  f := newReportGenFixture(t)
  diagnostic, _ := f.addCompletedDiagnostic(t)

  if err := f.svc.GenerateNow(context.Background(), diagnostic); err != nil {
    t.Fatalf("GenerateNow: %v", err)
  }

  key := "reports/diagnostic-" + diagnostic.ID.String() + ".pdf"
  if !bytes.HasPrefix(f.bucket.uploads[key], []byte("%PDF")) {
    t.Fatalf("upload at %q = %q", key, f.bucket.uploads[key])
  }

  stored := f.diagnosticRepo.get(diagnostic.ID)
  if !stored.PDFGenerated || stored.ReportKey != key {
    t.Fatalf("stored = %+v", stored)
  }
  if !diagnostic.PDFGenerated || diagnostic.ReportKey != key {
    t.Fatalf("in-memory diagnostic not updated: %+v", diagnostic)
  }

  data := f.renderer.lastData
  if data == nil || data.Primary == nil || data.Primary.Name != "Leadership" || data.Primary.Score != 9 {
    t.Fatalf("report data = %+v", data)
  }
  if data.GeneratedFor != "user@example.com" {
    t.Fatalf("generated for = %q", data.GeneratedFor)
  }
  if len(data.KeySkills) != 2 || data.FirstAction == "" {
    t.Fatalf("skills = %v, first action = %q", data.KeySkills, data.FirstAction)
  }
  if len(data.Axes) != 2 {
    t.Fatalf("axes = %+v, empty axes are dropped", data.Axes)
  }
}

func TestGenerateNowIsIdempotent(t *testing.T) {
  f := newReportGenFixture(t)
  diagnostic, _ := f.addCompletedDiagnostic(t)

  if err := f.svc.GenerateNow(context.Background(), diagnostic); err != nil {
    t.Fatalf("GenerateNow: %v", err)
  }
  f.renderer.lastData = nil
  if err := f.svc.GenerateNow(context.Background(), diagnostic); err != nil {
    t.Fatalf("GenerateNow replay: %v", err)
  }
  if f.renderer.lastData != nil {
    t.Fatalf("report rendered twice")
  }
}

func TestGenerateNowRequiresCompletion(t *testing.T) {
  f := newReportGenFixture(t)

  diagnostic := &types.Diagnostic{ID: uuid.New(), UserID: f.userID, Status: types.DiagnosticStatusInProgress}
  if err := f.svc.GenerateNow(context.Background(), diagnostic); !errors.Is(err, ErrDiagnosticNotCompleted) {
    t.Fatalf("err = %v, want ErrDiagnosticNotCompleted", err)
  }

  completed := &types.Diagnostic{ID: uuid.New(), UserID: f.userID, Status: types.DiagnosticStatusCompleted}
  if err := f.svc.GenerateNow(context.Background(), completed); !errors.Is(err, ErrDiagnosticNotCompleted) {
    t.Fatalf("err = %v, want ErrDiagnosticNotCompleted without a primary profile", err)
  }
}

func TestGenerateNowMissingPrimaryProfileRow(t *testing.T) {
  f := newReportGenFixture(t)
  diagnostic, _ := f.addCompletedDiagnostic(t)
  f.profileRepo.profiles = nil

  if err := f.svc.GenerateNow(context.Background(), diagnostic); err == nil {
    t.Fatalf("expected error when the primary profile row is gone")
  }
  if len(f.bucket.uploads) != 0 {
    t.Fatalf("nothing should be uploaded on failure")
  }
}

func TestEnqueueDedupes(t *testing.T) {
  f := newReportGenFixture(t)
  diagnosticID := uuid.New()

  first, err := f.svc.Enqueue(context.Background(), f.userID, diagnosticID)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  if first.Status != "queued" {
    t.Fatalf("status = %s", first.Status)
  }

  second, err := f.svc.Enqueue(context.Background(), f.userID, diagnosticID)
  if err != nil {
    t.Fatalf("Enqueue replay: %v", err)
  }
  if second.ID != first.ID {
    t.Fatalf("replay created a second run")
  }

  // A finished run no longer blocks a fresh enqueue.
  if err := f.runRepo.UpdateFields(context.Background(), nil, first.ID, map[string]interface{}{"status": "succeeded"}); err != nil {
    t.Fatalf("update run: %v", err)
  }
  third, err := f.svc.Enqueue(context.Background(), f.userID, diagnosticID)
  if err != nil {
    t.Fatalf("Enqueue after success: %v", err)
  }
  if third.ID == first.ID {
    t.Fatalf("expected a new run after the previous one finished")
  }
}

func TestProcessRunLifecycle(t *testing.T) {
  f := newReportGenFixture(t)
  diagnostic, _ := f.addCompletedDiagnostic(t)

  run, err := f.svc.Enqueue(context.Background(), f.userID, diagnostic.ID)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  claimed, err := f.runRepo.ClaimNextRunnable(context.Background(), nil, 5, 30*time.Second, 2*time.Minute)
  if err != nil || claimed == nil {
    t.Fatalf("claim = %v, %v", claimed, err)
  }

  f.svc.(*reportGenerationService).processRun(context.Background(), claimed)

  stored := f.runRepo.get(run.ID)
  if stored.Status != "succeeded" {
    t.Fatalf("run status = %s (%s)", stored.Status, stored.Error)
  }
  if !f.diagnosticRepo.get(diagnostic.ID).PDFGenerated {
    t.Fatalf("report was not generated")
  }
}

func TestProcessRunBeforeCompletionFailsRetryably(t *testing.T) {
  f := newReportGenFixture(t)

  diagnostic := &types.Diagnostic{ID: uuid.New(), UserID: f.userID, Status: types.DiagnosticStatusPaid}
  if _, err := f.diagnosticRepo.Create(context.Background(), nil, []*types.Diagnostic{diagnostic}); err != nil {
    t.Fatalf("create: %v", err)
  }
  run, err := f.svc.Enqueue(context.Background(), f.userID, diagnostic.ID)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  claimed, err := f.runRepo.ClaimNextRunnable(context.Background(), nil, 5, 30*time.Second, 2*time.Minute)
  if err != nil || claimed == nil {
    t.Fatalf("claim = %v, %v", claimed, err)
  }

  f.svc.(*reportGenerationService).processRun(context.Background(), claimed)

  stored := f.runRepo.get(run.ID)
  if stored.Status != "failed" || stored.Error != "diagnostic not completed yet" {
    t.Fatalf("run = %+v", stored)
  }
  if f.diagnosticRepo.get(diagnostic.ID).PDFGenerated {
    t.Fatalf("no report should exist for an unfinished diagnostic")
  }
}
