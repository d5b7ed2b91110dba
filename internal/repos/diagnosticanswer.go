package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type DiagnosticAnswerRepo interface {
  // CreateIfAbsent inserts the answer unless one already exists for the
  // (diagnostic, question) pair. Resubmission keeps the original row.
  CreateIfAbsent(ctx context.Context, tx *gorm.DB, answer *types.DiagnosticAnswer) error
  GetByDiagnosticID(ctx context.Context, tx *gorm.DB, diagnosticID uuid.UUID) ([]*types.DiagnosticAnswer, error)
}

type diagnosticAnswerRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDiagnosticAnswerRepo(db *gorm.DB, baseLog *logger.Logger) DiagnosticAnswerRepo {
  repoLog := baseLog.With("repo", "DiagnosticAnswerRepo")
  return &diagnosticAnswerRepo{db: db, log: repoLog}
}

func (r *diagnosticAnswerRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, answer *types.DiagnosticAnswer) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if answer == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "diagnostic_id"}, {Name: "question_id"}},
      DoNothing: true,
    }).
    Create(answer).Error; err != nil {
    return err
  }
  return nil
}

func (r *diagnosticAnswerRepo) GetByDiagnosticID(ctx context.Context, tx *gorm.DB, diagnosticID uuid.UUID) ([]*types.DiagnosticAnswer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.DiagnosticAnswer
  if diagnosticID == uuid.Nil {
    return results, nil
  }

  // Stable order matters: the scoring sort breaks ties by first appearance.
  if err := transaction.WithContext(ctx).
    Where("diagnostic_id = ?", diagnosticID).
    Order("created_at ASC, id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
