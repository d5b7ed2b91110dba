package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/requestdata"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// QuestionnaireService walks a paid diagnostic through the five question
// blocs and hands the final submission to scoring.
type QuestionnaireService interface {
  GetBloc(ctx context.Context, diagnosticID uuid.UUID, bloc int) (*BlocView, error)
  SubmitBloc(ctx context.Context, diagnosticID uuid.UUID, bloc int, answers map[string]string) (*SubmitResult, error)
}

// BlocView is one page of the questionnaire. Bloc is the clamped value
// actually served, which may differ from what the client asked for.
type BlocView struct {
  Diagnostic *types.Diagnostic `json:"diagnostic"`
  Bloc       int               `json:"bloc"`
  LastBloc   int               `json:"last_bloc"`
  Questions  []*types.Question `json:"questions"`
}

type SubmitResult struct {
  Completed bool `json:"completed"`
  NextBloc  int  `json:"next_bloc,omitempty"`
}

type questionnaireService struct {
  log            *logger.Logger
  txRunner       TxRunner
  diagnosticRepo repos.DiagnosticRepo
  questionRepo   repos.QuestionRepo
  answerRepo     repos.DiagnosticAnswerRepo
  scoring        ScoringService
}

func NewQuestionnaireService(
  baseLog *logger.Logger,
  txRunner TxRunner,
  diagnosticRepo repos.DiagnosticRepo,
  questionRepo repos.QuestionRepo,
  answerRepo repos.DiagnosticAnswerRepo,
  scoring ScoringService,
) QuestionnaireService {
  return &questionnaireService{
    log:            baseLog.With("service", "QuestionnaireService"),
    txRunner:       txRunner,
    diagnosticRepo: diagnosticRepo,
    questionRepo:   questionRepo,
    answerRepo:     answerRepo,
    scoring:        scoring,
  }
}

func (s *questionnaireService) loadOwned(ctx context.Context, diagnosticID uuid.UUID) (*types.Diagnostic, error) {
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
  if diagnostic.Status == types.DiagnosticStatusPendingPayment {
    return nil, ErrPaymentRequired
  }
  return diagnostic, nil
}

func (s *questionnaireService) GetBloc(ctx context.Context, diagnosticID uuid.UUID, bloc int) (*BlocView, error) {
  diagnostic, err := s.loadOwned(ctx, diagnosticID)
  if err != nil {
    return nil, err
  }

  if bloc < types.FirstBloc {
    bloc = types.FirstBloc
  }
  if bloc > types.LastBloc {
    bloc = types.LastBloc
  }

  questions, err := s.questionRepo.GetActiveByBloc(ctx, nil, bloc)
  if err != nil {
    return nil, fmt.Errorf("failed to load bloc questions: %w", err)
  }

  return &BlocView{
    Diagnostic: diagnostic,
    Bloc:       bloc,
    LastBloc:   types.LastBloc,
    Questions:  questions,
  }, nil
}

// SubmitBloc records the given answers for one bloc. Unanswered questions
// and values that match no option are skipped, a question answered twice
// keeps its first answer, and submitting the last bloc scores the
// diagnostic.
func (s *questionnaireService) SubmitBloc(ctx context.Context, diagnosticID uuid.UUID, bloc int, answers map[string]string) (*SubmitResult, error) {
  diagnostic, err := s.loadOwned(ctx, diagnosticID)
  if err != nil {
    return nil, err
  }
  if bloc < types.FirstBloc || bloc > types.LastBloc {
    return nil, ErrInvalidBloc
  }

  questions, err := s.questionRepo.GetActiveByBloc(ctx, nil, bloc)
  if err != nil {
    return nil, fmt.Errorf("failed to load bloc questions: %w", err)
  }

  result := &SubmitResult{}
  err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
    for _, q := range questions {
      value, ok := answers[q.ID.String()]
      if !ok || value == "" {
        continue
      }
      opt, err := q.FindOption(value)
      if err != nil {
        return fmt.Errorf("question %s has malformed options: %w", q.ID, err)
      }
      if opt == nil {
        s.log.Debug("Submitted value matches no option, skipping", "question_id", q.ID, "value", value)
        continue
      }
      answer := &types.DiagnosticAnswer{
        ID:               uuid.New(),
        DiagnosticID:     diagnostic.ID,
        QuestionID:       q.ID,
        AnswerValue:      opt.Value,
        ProfileDimension: opt.ProfileSlug,
        PointsAwarded:    opt.Points,
      }
      if err := s.answerRepo.CreateIfAbsent(ctx, tx, answer); err != nil {
        return fmt.Errorf("failed to store answer: %w", err)
      }
    }

    if diagnostic.Status.CanTransitionTo(types.DiagnosticStatusInProgress) {
      if err := s.diagnosticRepo.UpdateFields(ctx, tx, diagnostic.ID, map[string]interface{}{
        "status": types.DiagnosticStatusInProgress,
      }); err != nil {
        return fmt.Errorf("failed to mark diagnostic in progress: %w", err)
      }
      diagnostic.Status = types.DiagnosticStatusInProgress
    }

    if bloc >= types.LastBloc {
      if err := s.scoring.Score(ctx, tx, diagnostic); err != nil {
        return err
      }
      result.Completed = true
      return nil
    }
    result.NextBloc = bloc + 1
    return nil
  })
  if err != nil {
    return nil, err
  }
  return result, nil
}
