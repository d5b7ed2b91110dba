package services

import (
  "context"
  "io"
  "sort"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("production")
  if err != nil {
    t.Fatalf("init logger: %v", err)
  }
  return log
}

// passthroughTxRunner runs the callback with no real transaction, which is
// what the in-memory fakes expect.
type passthroughTxRunner struct{}

func (passthroughTxRunner) InTx(_ context.Context, fn func(tx *gorm.DB) error) error {
  return fn(nil)
}

type fakeDiagnosticRepo struct {
  mu          sync.Mutex
  diagnostics map[uuid.UUID]*types.Diagnostic
}

func newFakeDiagnosticRepo() *fakeDiagnosticRepo {
  return &fakeDiagnosticRepo{diagnostics: map[uuid.UUID]*types.Diagnostic{}}
}

func (f *fakeDiagnosticRepo) Create(_ context.Context, _ *gorm.DB, diagnostics []*types.Diagnostic) ([]*types.Diagnostic, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, d := range diagnostics {
    cp := *d
    f.diagnostics[d.ID] = &cp
  }
  return diagnostics, nil
}

func (f *fakeDiagnosticRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Diagnostic, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  out := []*types.Diagnostic{}
  for _, id := range ids {
    if d, ok := f.diagnostics[id]; ok {
      cp := *d
      out = append(out, &cp)
    }
  }
  return out, nil
}

func (f *fakeDiagnosticRepo) GetByIDForUser(_ context.Context, _ *gorm.DB, diagnosticID, userID uuid.UUID) (*types.Diagnostic, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  d, ok := f.diagnostics[diagnosticID]
  if !ok || d.UserID != userID {
    return nil, nil
  }
  cp := *d
  return &cp, nil
}

func (f *fakeDiagnosticRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  d, ok := f.diagnostics[id]
  if !ok {
    return nil
  }
  for k, v := range updates {
    switch k {
    case "status":
      d.Status = v.(types.DiagnosticStatus)
    case "paid_at":
      t := v.(time.Time)
      d.PaidAt = &t
    case "completed_at":
      t := v.(time.Time)
      d.CompletedAt = &t
    case "score_data":
      switch raw := v.(type) {
      case []byte:
        d.ScoreData = datatypes.JSON(raw)
      case datatypes.JSON:
        d.ScoreData = raw
      }
    case "primary_profile_id":
      d.PrimaryProfileID = asUUIDPtr(v)
    case "complementary_profile_id":
      d.ComplementaryProfileID = asUUIDPtr(v)
    case "pdf_generated":
      d.PDFGenerated = v.(bool)
    case "report_key":
      d.ReportKey = v.(string)
    }
  }
  d.UpdatedAt = time.Now()
  return nil
}

func asUUIDPtr(v interface{}) *uuid.UUID {
  switch val := v.(type) {
  case uuid.UUID:
    cp := val
    return &cp
  case *uuid.UUID:
    return val
  default:
    return nil
  }
}

func (f *fakeDiagnosticRepo) FullDeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, id := range ids {
    delete(f.diagnostics, id)
  }
  return nil
}

func (f *fakeDiagnosticRepo) get(id uuid.UUID) *types.Diagnostic {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.diagnostics[id]
}

type fakeAnswerRepo struct {
  mu      sync.Mutex
  answers []*types.DiagnosticAnswer
}

func newFakeAnswerRepo() *fakeAnswerRepo {
  return &fakeAnswerRepo{}
}

func (f *fakeAnswerRepo) CreateIfAbsent(_ context.Context, _ *gorm.DB, answer *types.DiagnosticAnswer) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, a := range f.answers {
    if a.DiagnosticID == answer.DiagnosticID && a.QuestionID == answer.QuestionID {
      return nil
    }
  }
  cp := *answer
  cp.CreatedAt = time.Now()
  f.answers = append(f.answers, &cp)
  return nil
}

func (f *fakeAnswerRepo) GetByDiagnosticID(_ context.Context, _ *gorm.DB, diagnosticID uuid.UUID) ([]*types.DiagnosticAnswer, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  out := []*types.DiagnosticAnswer{}
  for _, a := range f.answers {
    if a.DiagnosticID == diagnosticID {
      cp := *a
      out = append(out, &cp)
    }
  }
  return out, nil
}

type fakeQuestionRepo struct {
  questions []*types.Question
}

func (f *fakeQuestionRepo) Create(_ context.Context, _ *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
  f.questions = append(f.questions, questions...)
  return questions, nil
}

func (f *fakeQuestionRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Question, error) {
  want := map[uuid.UUID]bool{}
  for _, id := range ids {
    want[id] = true
  }
  out := []*types.Question{}
  for _, q := range f.questions {
    if want[q.ID] {
      out = append(out, q)
    }
  }
  return out, nil
}

func (f *fakeQuestionRepo) GetActiveByBloc(_ context.Context, _ *gorm.DB, bloc int) ([]*types.Question, error) {
  out := []*types.Question{}
  for _, q := range f.questions {
    if q.Active && q.Bloc == bloc {
      out = append(out, q)
    }
  }
  sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
  return out, nil
}

type fakeProfileRepo struct {
  profiles []*types.Profile
}

func (f *fakeProfileRepo) Create(_ context.Context, _ *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error) {
  f.profiles = append(f.profiles, profiles...)
  return profiles, nil
}

func (f *fakeProfileRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Profile, error) {
  want := map[uuid.UUID]bool{}
  for _, id := range ids {
    want[id] = true
  }
  out := []*types.Profile{}
  for _, p := range f.profiles {
    if want[p.ID] {
      out = append(out, p)
    }
  }
  return out, nil
}

func (f *fakeProfileRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (*types.Profile, error) {
  for _, p := range f.profiles {
    if p.Slug == slug {
      return p, nil
    }
  }
  return nil, nil
}

type fakeTrajectoryRepo struct {
  trajectories []*types.Trajectory
}

func (f *fakeTrajectoryRepo) Create(_ context.Context, _ *gorm.DB, trajectories []*types.Trajectory) ([]*types.Trajectory, error) {
  f.trajectories = append(f.trajectories, trajectories...)
  return trajectories, nil
}

func (f *fakeTrajectoryRepo) GetActiveByProfileID(_ context.Context, _ *gorm.DB, profileID uuid.UUID) (*types.Trajectory, error) {
  for _, tr := range f.trajectories {
    if tr.Active && tr.ProfileID == profileID {
      return tr, nil
    }
  }
  return nil, nil
}

type fakePaymentRepo struct {
  mu       sync.Mutex
  payments map[uuid.UUID]*types.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
  return &fakePaymentRepo{payments: map[uuid.UUID]*types.Payment{}}
}

func (f *fakePaymentRepo) Create(_ context.Context, _ *gorm.DB, payments []*types.Payment) ([]*types.Payment, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, p := range payments {
    cp := *p
    f.payments[p.ID] = &cp
  }
  return payments, nil
}

func (f *fakePaymentRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Payment, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  out := []*types.Payment{}
  for _, id := range ids {
    if p, ok := f.payments[id]; ok {
      cp := *p
      out = append(out, &cp)
    }
  }
  return out, nil
}

func (f *fakePaymentRepo) GetByDiagnosticID(_ context.Context, _ *gorm.DB, diagnosticID uuid.UUID) (*types.Payment, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, p := range f.payments {
    if p.DiagnosticID == diagnosticID {
      cp := *p
      return &cp, nil
    }
  }
  return nil, nil
}

func (f *fakePaymentRepo) GetByProviderPaymentID(_ context.Context, _ *gorm.DB, provider types.PaymentProvider, providerPaymentID string) (*types.Payment, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, p := range f.payments {
    if p.Provider == provider && p.ProviderPaymentID == providerPaymentID {
      cp := *p
      return &cp, nil
    }
  }
  return nil, nil
}

func (f *fakePaymentRepo) ConfirmIfPending(_ context.Context, _ *gorm.DB, paymentID uuid.UUID, confirmedAt time.Time) (bool, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  p, ok := f.payments[paymentID]
  if !ok || p.Status != types.PaymentStatusPending {
    return false, nil
  }
  p.Status = types.PaymentStatusConfirmed
  p.WebhookConfirmedAt = &confirmedAt
  return true, nil
}

func (f *fakePaymentRepo) FailIfPending(_ context.Context, _ *gorm.DB, paymentID uuid.UUID) (bool, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  p, ok := f.payments[paymentID]
  if !ok || p.Status != types.PaymentStatusPending {
    return false, nil
  }
  p.Status = types.PaymentStatusFailed
  return true, nil
}

func (f *fakePaymentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  p, ok := f.payments[id]
  if !ok {
    return nil
  }
  for k, v := range updates {
    switch k {
    case "status":
      p.Status = v.(types.PaymentStatus)
    case "provider_payment_id":
      p.ProviderPaymentID = v.(string)
    }
  }
  return nil
}

func (f *fakePaymentRepo) get(id uuid.UUID) *types.Payment {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.payments[id]
}

type fakeOperatorRepo struct {
  operators []*types.MobileOperator
}

func (f *fakeOperatorRepo) Create(_ context.Context, _ *gorm.DB, operators []*types.MobileOperator) ([]*types.MobileOperator, error) {
  f.operators = append(f.operators, operators...)
  return operators, nil
}

func (f *fakeOperatorRepo) GetActive(_ context.Context, _ *gorm.DB) ([]*types.MobileOperator, error) {
  out := []*types.MobileOperator{}
  for _, op := range f.operators {
    if op.Active {
      out = append(out, op)
    }
  }
  return out, nil
}

func (f *fakeOperatorRepo) GetActiveByCode(_ context.Context, _ *gorm.DB, code string) (*types.MobileOperator, error) {
  for _, op := range f.operators {
    if op.Active && op.Code == code {
      return op, nil
    }
  }
  return nil, nil
}

type fakeUserRepo struct {
  users []*types.User
}

func (f *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
  f.users = append(f.users, users...)
  return users, nil
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
  want := map[uuid.UUID]bool{}
  for _, id := range ids {
    want[id] = true
  }
  out := []*types.User{}
  for _, u := range f.users {
    if want[u.ID] {
      out = append(out, u)
    }
  }
  return out, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*types.User, error) {
  for _, u := range f.users {
    if u.Email == email {
      return u, nil
    }
  }
  return nil, nil
}

type fakeReportRunRepo struct {
  mu   sync.Mutex
  runs map[uuid.UUID]*types.ReportRun
}

func newFakeReportRunRepo() *fakeReportRunRepo {
  return &fakeReportRunRepo{runs: map[uuid.UUID]*types.ReportRun{}}
}

func (f *fakeReportRunRepo) Create(_ context.Context, _ *gorm.DB, runs []*types.ReportRun) ([]*types.ReportRun, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, r := range runs {
    cp := *r
    f.runs[r.ID] = &cp
  }
  return runs, nil
}

func (f *fakeReportRunRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.ReportRun, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  out := []*types.ReportRun{}
  for _, id := range ids {
    if r, ok := f.runs[id]; ok {
      cp := *r
      out = append(out, &cp)
    }
  }
  return out, nil
}

func (f *fakeReportRunRepo) GetLatestByDiagnosticID(_ context.Context, _ *gorm.DB, diagnosticID uuid.UUID) (*types.ReportRun, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  var latest *types.ReportRun
  for _, r := range f.runs {
    if r.DiagnosticID != diagnosticID {
      continue
    }
    if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
      latest = r
    }
  }
  if latest == nil {
    return nil, nil
  }
  cp := *latest
  return &cp, nil
}

func (f *fakeReportRunRepo) ClaimNextRunnable(_ context.Context, _ *gorm.DB, _ int, _ time.Duration, _ time.Duration) (*types.ReportRun, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, r := range f.runs {
    if r.Status == "queued" {
      now := time.Now()
      r.Status = "running"
      r.Attempts++
      r.LockedAt = &now
      cp := *r
      return &cp, nil
    }
  }
  return nil, nil
}

func (f *fakeReportRunRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  r, ok := f.runs[id]
  if !ok {
    return nil
  }
  for k, v := range updates {
    switch k {
    case "status":
      r.Status = v.(string)
    case "error":
      r.Error = v.(string)
    }
  }
  return nil
}

func (f *fakeReportRunRepo) Heartbeat(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  if r, ok := f.runs[id]; ok {
    now := time.Now()
    r.HeartbeatAt = &now
  }
  return nil
}

func (f *fakeReportRunRepo) get(id uuid.UUID) *types.ReportRun {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.runs[id]
}

type fakeBucket struct {
  mu      sync.Mutex
  uploads map[string][]byte
}

func newFakeBucket() *fakeBucket {
  return &fakeBucket{uploads: map[string][]byte{}}
}

func (f *fakeBucket) UploadFile(_ context.Context, key string, file io.Reader, _ string) error {
  data, err := io.ReadAll(file)
  if err != nil {
    return err
  }
  f.mu.Lock()
  defer f.mu.Unlock()
  f.uploads[key] = data
  return nil
}

func (f *fakeBucket) DeleteFile(_ context.Context, key string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  delete(f.uploads, key)
  return nil
}

func (f *fakeBucket) GetPublicURL(key string) string {
  return "https://cdn.test/" + key
}

// Interface conformance for the fakes.
var (
  _ repos.DiagnosticRepo       = (*fakeDiagnosticRepo)(nil)
  _ repos.DiagnosticAnswerRepo = (*fakeAnswerRepo)(nil)
  _ repos.QuestionRepo         = (*fakeQuestionRepo)(nil)
  _ repos.ProfileRepo          = (*fakeProfileRepo)(nil)
  _ repos.TrajectoryRepo       = (*fakeTrajectoryRepo)(nil)
  _ repos.PaymentRepo          = (*fakePaymentRepo)(nil)
  _ repos.MobileOperatorRepo   = (*fakeOperatorRepo)(nil)
  _ repos.UserRepo             = (*fakeUserRepo)(nil)
  _ repos.ReportRunRepo        = (*fakeReportRunRepo)(nil)
  _ BucketService              = (*fakeBucket)(nil)
  _ TxRunner                   = passthroughTxRunner{}
)
