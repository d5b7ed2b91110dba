package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/requestdata"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// CreateDiagnosticInput is the checkout form: which provider to charge
// through, the mobile money fields when pawapay, and where the card flow
// should land afterwards.
type CreateDiagnosticInput struct {
  Provider     types.PaymentProvider
  PhoneNumber  string
  OperatorCode string
  SuccessURL   string
  CancelURL    string
}

type CreateDiagnosticResult struct {
  Diagnostic  *types.Diagnostic `json:"diagnostic"`
  RedirectURL string            `json:"redirect_url,omitempty"`
  DepositID   string            `json:"deposit_id,omitempty"`
  PaymentID   uuid.UUID         `json:"payment_id,omitempty"`
}

// DiagnosticResults is the completed-diagnostic view: resolved profiles,
// the recommended trajectory and the raw per-dimension totals.
type DiagnosticResults struct {
  Diagnostic    *types.Diagnostic `json:"diagnostic"`
  Primary       *types.Profile    `json:"primary_profile,omitempty"`
  Complementary *types.Profile    `json:"complementary_profile,omitempty"`
  Trajectory    *types.Trajectory `json:"trajectory,omitempty"`
  Scores        map[string]int    `json:"scores"`
  PDFReady      bool              `json:"pdf_ready"`
  PDFURL        string            `json:"pdf_url,omitempty"`
}

// DiagnosticService owns the diagnostic lifecycle from checkout to report
// download.
type DiagnosticService interface {
  Create(ctx context.Context, input CreateDiagnosticInput) (*CreateDiagnosticResult, error)
  Get(ctx context.Context, diagnosticID uuid.UUID) (*types.Diagnostic, error)
  NextStep(diagnostic *types.Diagnostic) string
  Results(ctx context.Context, diagnosticID uuid.UUID) (*DiagnosticResults, error)
  DownloadURL(ctx context.Context, diagnosticID uuid.UUID) (string, error)
}

type diagnosticService struct {
  log            *logger.Logger
  diagnosticRepo repos.DiagnosticRepo
  profileRepo    repos.ProfileRepo
  trajectoryRepo repos.TrajectoryRepo
  stripeCheckout StripeCheckoutService
  pawapayDeposit PawapayDepositService
  reportGen      ReportGenerationService
  bucket         BucketService
}

func NewDiagnosticService(
  baseLog *logger.Logger,
  diagnosticRepo repos.DiagnosticRepo,
  profileRepo repos.ProfileRepo,
  trajectoryRepo repos.TrajectoryRepo,
  stripeCheckout StripeCheckoutService,
  pawapayDeposit PawapayDepositService,
  reportGen ReportGenerationService,
  bucket BucketService,
) DiagnosticService {
  return &diagnosticService{
    log:            baseLog.With("service", "DiagnosticService"),
    diagnosticRepo: diagnosticRepo,
    profileRepo:    profileRepo,
    trajectoryRepo: trajectoryRepo,
    stripeCheckout: stripeCheckout,
    pawapayDeposit: pawapayDeposit,
    reportGen:      reportGen,
    bucket:         bucket,
  }
}

// Create opens a new diagnostic and starts checkout with the chosen
// provider. A refused or failed initiation rolls the diagnostic back so
// the user can retry from a clean slate.
func (s *diagnosticService) Create(ctx context.Context, input CreateDiagnosticInput) (*CreateDiagnosticResult, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, ErrNotAuthenticated
  }

  provider := input.Provider
  if provider == "" {
    provider = types.PaymentProviderStripe
  }
  if !provider.Valid() {
    return nil, ErrInvalidProvider
  }

  diagnostic := &types.Diagnostic{
    ID:              uuid.New(),
    UserID:          rd.UserID,
    Status:          types.DiagnosticStatusPendingPayment,
    PaymentProvider: provider,
  }
  if _, err := s.diagnosticRepo.Create(ctx, nil, []*types.Diagnostic{diagnostic}); err != nil {
    return nil, err
  }

  var initiation *InitiationResult
  var err error
  switch provider {
  case types.PaymentProviderStripe:
    initiation, err = s.stripeCheckout.Initiate(ctx, diagnostic, input.SuccessURL, input.CancelURL)
  case types.PaymentProviderPawapay:
    initiation, err = s.pawapayDeposit.Initiate(ctx, diagnostic, input.PhoneNumber, input.OperatorCode)
  }
  if err != nil {
    s.rollback(ctx, diagnostic)
    return nil, err
  }
  if !initiation.Success {
    s.rollback(ctx, diagnostic)
    return nil, &PaymentInitiationError{Provider: string(provider), Reason: initiation.Reason}
  }

  s.log.Info("Diagnostic created", "diagnostic_id", diagnostic.ID, "provider", provider)
  return &CreateDiagnosticResult{
    Diagnostic:  diagnostic,
    RedirectURL: initiation.RedirectURL,
    DepositID:   initiation.DepositID,
    PaymentID:   initiation.PaymentID,
  }, nil
}

func (s *diagnosticService) rollback(ctx context.Context, diagnostic *types.Diagnostic) {
  if err := s.diagnosticRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{diagnostic.ID}); err != nil {
    s.log.Error("Failed to roll back diagnostic after initiation failure", "diagnostic_id", diagnostic.ID, "error", err)
  }
}

func (s *diagnosticService) Get(ctx context.Context, diagnosticID uuid.UUID) (*types.Diagnostic, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, ErrNotAuthenticated
  }
  diagnostic, err := s.diagnosticRepo.GetByIDForUser(ctx, nil, diagnosticID, rd.UserID)
  if err != nil {
    return nil, err
  }
  if diagnostic == nil {
    return nil, ErrDiagnosticNotFound
  }
  return diagnostic, nil
}

// NextStep tells the frontend where to send the user for a diagnostic in
// its current state.
func (s *diagnosticService) NextStep(diagnostic *types.Diagnostic) string {
  switch diagnostic.Status {
  case types.DiagnosticStatusPaid, types.DiagnosticStatusInProgress:
    return "questionnaire"
  case types.DiagnosticStatusCompleted:
    return "results"
  default:
    return "payment"
  }
}

func (s *diagnosticService) Results(ctx context.Context, diagnosticID uuid.UUID) (*DiagnosticResults, error) {
  diagnostic, err := s.Get(ctx, diagnosticID)
  if err != nil {
    return nil, err
  }
  if diagnostic.Status != types.DiagnosticStatusCompleted {
    return nil, ErrDiagnosticNotCompleted
  }

  // Card payments have no webhook-driven report run; generate on first view.
  if diagnostic.PaymentProvider == types.PaymentProviderStripe && !diagnostic.PDFGenerated {
    if err := s.reportGen.GenerateNow(ctx, diagnostic); err != nil {
      s.log.Error("Inline report generation failed", "diagnostic_id", diagnostic.ID, "error", err)
    }
  }

  scores, err := diagnostic.Scores()
  if err != nil {
    return nil, fmt.Errorf("score data unreadable: %w", err)
  }

  results := &DiagnosticResults{
    Diagnostic: diagnostic,
    Scores:     scores,
    PDFReady:   diagnostic.PDFGenerated,
  }
  if diagnostic.PDFGenerated && diagnostic.ReportKey != "" {
    results.PDFURL = s.bucket.GetPublicURL(diagnostic.ReportKey)
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
    return nil, err
  }
  byID := map[uuid.UUID]*types.Profile{}
  for _, p := range profiles {
    byID[p.ID] = p
  }
  if diagnostic.PrimaryProfileID != nil {
    results.Primary = byID[*diagnostic.PrimaryProfileID]
  }
  if diagnostic.ComplementaryProfileID != nil {
    results.Complementary = byID[*diagnostic.ComplementaryProfileID]
  }

  if results.Primary != nil {
    trajectory, err := s.trajectoryRepo.GetActiveByProfileID(ctx, nil, results.Primary.ID)
    if err != nil {
      s.log.Warn("Failed to load trajectory", "profile_id", results.Primary.ID, "error", err)
    } else {
      results.Trajectory = trajectory
    }
  }

  return results, nil
}

func (s *diagnosticService) DownloadURL(ctx context.Context, diagnosticID uuid.UUID) (string, error) {
  diagnostic, err := s.Get(ctx, diagnosticID)
  if err != nil {
    return "", err
  }
  if diagnostic.Status != types.DiagnosticStatusCompleted {
    return "", ErrDiagnosticNotCompleted
  }
  if !diagnostic.PDFGenerated || diagnostic.ReportKey == "" {
    return "", ErrReportNotReady
  }
  return s.bucket.GetPublicURL(diagnostic.ReportKey), nil
}
