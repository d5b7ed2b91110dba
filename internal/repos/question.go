package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type QuestionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error)
  GetActiveByBloc(ctx context.Context, tx *gorm.DB, bloc int) ([]*types.Question, error)
}

type questionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
  repoLog := baseLog.With("repo", "QuestionRepo")
  return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(questions) == 0 {
    return []*types.Question{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
    return nil, err
  }
  return questions, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Question
  if len(questionIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", questionIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *questionRepo) GetActiveByBloc(ctx context.Context, tx *gorm.DB, bloc int) ([]*types.Question, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Question
  if bloc < types.FirstBloc || bloc > types.LastBloc {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("bloc = ? AND active = ?", bloc, true).
    Order("position ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
