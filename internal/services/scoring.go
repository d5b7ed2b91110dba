package services

import (
  "context"
  "encoding/json"
  "fmt"
  "sort"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// ScoringService tallies a diagnostic's answers into per-dimension totals,
// resolves the primary and complementary profiles and marks the diagnostic
// completed. Scoring is a pure function of the stored answers, so running
// it again on the same diagnostic always yields the same result.
type ScoringService interface {
  Score(ctx context.Context, tx *gorm.DB, diagnostic *types.Diagnostic) error
}

type scoringService struct {
  log            *logger.Logger
  diagnosticRepo repos.DiagnosticRepo
  answerRepo     repos.DiagnosticAnswerRepo
  questionRepo   repos.QuestionRepo
  profileRepo    repos.ProfileRepo
}

func NewScoringService(
  baseLog *logger.Logger,
  diagnosticRepo repos.DiagnosticRepo,
  answerRepo repos.DiagnosticAnswerRepo,
  questionRepo repos.QuestionRepo,
  profileRepo repos.ProfileRepo,
) ScoringService {
  return &scoringService{
    log:            baseLog.With("service", "ScoringService"),
    diagnosticRepo: diagnosticRepo,
    answerRepo:     answerRepo,
    questionRepo:   questionRepo,
    profileRepo:    profileRepo,
  }
}

// scoredAnswer pairs an answer with its question's bloc, which the
// tie-break needs.
type scoredAnswer struct {
  dimension string
  points    int
  bloc      int
}

func (s *scoringService) Score(ctx context.Context, tx *gorm.DB, diagnostic *types.Diagnostic) error {
  if diagnostic == nil {
    return fmt.Errorf("diagnostic is nil")
  }

  answers, err := s.answerRepo.GetByDiagnosticID(ctx, tx, diagnostic.ID)
  if err != nil {
    return fmt.Errorf("failed to load answers: %w", err)
  }

  scored, err := s.collectScored(ctx, tx, answers)
  if err != nil {
    return err
  }

  totals := map[string]int{}
  order := []string{}
  for _, a := range scored {
    if _, seen := totals[a.dimension]; !seen {
      order = append(order, a.dimension)
    }
    totals[a.dimension] += a.points
  }

  // Descending by total; stable sort keeps first-appearance order on ties
  // so the result does not depend on map iteration.
  sort.SliceStable(order, func(i, j int) bool {
    return totals[order[i]] > totals[order[j]]
  })

  primarySlug, complementarySlug := s.pickProfiles(order, totals, scored)

  updates := map[string]interface{}{
    "primary_profile_id":       nil,
    "complementary_profile_id": nil,
  }

  scoreData, err := json.Marshal(totals)
  if err != nil {
    return fmt.Errorf("failed to serialize score data: %w", err)
  }
  updates["score_data"] = scoreData

  var primaryProfile, complementaryProfile *types.Profile
  if primarySlug != "" {
    primaryProfile, err = s.profileRepo.GetBySlug(ctx, tx, primarySlug)
    if err != nil {
      return fmt.Errorf("failed to resolve primary profile: %w", err)
    }
    if primaryProfile != nil {
      updates["primary_profile_id"] = primaryProfile.ID
    } else {
      s.log.Warn("No profile matches winning dimension", "slug", primarySlug, "diagnostic_id", diagnostic.ID)
    }
  }
  if complementarySlug != "" {
    complementaryProfile, err = s.profileRepo.GetBySlug(ctx, tx, complementarySlug)
    if err != nil {
      return fmt.Errorf("failed to resolve complementary profile: %w", err)
    }
    if complementaryProfile != nil {
      updates["complementary_profile_id"] = complementaryProfile.ID
    }
  }

  now := time.Now().UTC()
  if diagnostic.Status != types.DiagnosticStatusCompleted {
    updates["status"] = types.DiagnosticStatusCompleted
    updates["completed_at"] = now
  }

  if err := s.diagnosticRepo.UpdateFields(ctx, tx, diagnostic.ID, updates); err != nil {
    return fmt.Errorf("failed to persist scoring result: %w", err)
  }

  diagnostic.ScoreData = scoreData
  if primaryProfile != nil {
    id := primaryProfile.ID
    diagnostic.PrimaryProfileID = &id
  } else {
    diagnostic.PrimaryProfileID = nil
  }
  if complementaryProfile != nil {
    id := complementaryProfile.ID
    diagnostic.ComplementaryProfileID = &id
  } else {
    diagnostic.ComplementaryProfileID = nil
  }
  if diagnostic.Status != types.DiagnosticStatusCompleted {
    diagnostic.Status = types.DiagnosticStatusCompleted
    diagnostic.CompletedAt = &now
  }

  s.log.Info("Diagnostic scored",
    "diagnostic_id", diagnostic.ID,
    "dimensions", len(totals),
    "primary", primarySlug,
    "complementary", complementarySlug)
  return nil
}

// collectScored keeps answers whose question is scored and whose dimension
// is non-empty, in the stored answer order.
func (s *scoringService) collectScored(ctx context.Context, tx *gorm.DB, answers []*types.DiagnosticAnswer) ([]scoredAnswer, error) {
  if len(answers) == 0 {
    return nil, nil
  }

  questionIDs := make([]uuid.UUID, 0, len(answers))
  for _, a := range answers {
    questionIDs = append(questionIDs, a.QuestionID)
  }
  questions, err := s.questionRepo.GetByIDs(ctx, tx, questionIDs)
  if err != nil {
    return nil, fmt.Errorf("failed to load questions: %w", err)
  }
  byID := make(map[uuid.UUID]*types.Question, len(questions))
  for _, q := range questions {
    byID[q.ID] = q
  }

  var scored []scoredAnswer
  for _, a := range answers {
    q := byID[a.QuestionID]
    if q == nil || !q.Scored || a.ProfileDimension == "" {
      continue
    }
    scored = append(scored, scoredAnswer{
      dimension: a.ProfileDimension,
      points:    a.PointsAwarded,
      bloc:      q.Bloc,
    })
  }
  return scored, nil
}

// pickProfiles resolves the winning and complementary dimensions from the
// sorted order. A tie on the top total is re-tallied against the tie-break
// bloc restricted to the tied dimensions; a tie that survives falls back to
// the first tied dimension in sort order.
func (s *scoringService) pickProfiles(order []string, totals map[string]int, scored []scoredAnswer) (string, string) {
  if len(order) == 0 {
    return "", ""
  }

  top := totals[order[0]]
  tied := []string{}
  for _, dim := range order {
    if totals[dim] == top {
      tied = append(tied, dim)
    }
  }

  primary := tied[0]
  if len(tied) > 1 {
    primary = s.breakTie(tied, scored)
  }

  complementary := ""
  for _, dim := range order {
    if dim != primary {
      complementary = dim
      break
    }
  }
  return primary, complementary
}

func (s *scoringService) breakTie(tied []string, scored []scoredAnswer) string {
  tiedSet := make(map[string]bool, len(tied))
  for _, dim := range tied {
    tiedSet[dim] = true
  }

  blocTotals := map[string]int{}
  for _, a := range scored {
    if a.bloc == types.TieBreakBloc && tiedSet[a.dimension] {
      blocTotals[a.dimension] += a.points
    }
  }

  // Strictly-greater comparison over the tied slice keeps the first tied
  // dimension when the bloc totals do not separate them.
  winner := tied[0]
  best := blocTotals[winner]
  for _, dim := range tied[1:] {
    if blocTotals[dim] > best {
      winner = dim
      best = blocTotals[dim]
    }
  }
  return winner
}
