package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type ProfileRepo interface {
  Create(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, profileIDs []uuid.UUID) ([]*types.Profile, error)
  GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Profile, error)
}

type profileRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
  repoLog := baseLog.With("repo", "ProfileRepo")
  return &profileRepo{db: db, log: repoLog}
}

func (r *profileRepo) Create(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(profiles) == 0 {
    return []*types.Profile{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&profiles).Error; err != nil {
    return nil, err
  }
  return profiles, nil
}

func (r *profileRepo) GetByIDs(ctx context.Context, tx *gorm.DB, profileIDs []uuid.UUID) ([]*types.Profile, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Profile
  if len(profileIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", profileIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *profileRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Profile, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if slug == "" {
    return nil, nil
  }

  var profile types.Profile
  err := transaction.WithContext(ctx).
    Where("slug = ?", slug).
    Limit(1).
    Find(&profile).Error
  if err != nil {
    return nil, err
  }
  if profile.ID == uuid.Nil {
    return nil, nil
  }
  return &profile, nil
}
